// Package notify delivers invitation emails. Every notifier satisfies the group service's
// Notifier contract; failures are reported to the caller, which decides to swallow them.
package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"

	"familyshare/pkg/email"
)

// Message is a rendered invitation email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	Link     string
}

type invitationData struct {
	Name      string
	GroupName string
	Link      string
}

var htmlInvitation = htmltemplate.Must(htmltemplate.New("invitation").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>Hi {{.Name}},</p>
	<p>You have been invited to join <strong>{{.GroupName}}</strong> on FamilyShare.</p>
	<p><a href="{{.Link}}">Accept the invitation</a></p>
	<p style="word-break: break-all; font-size: 12px; color: #666;">{{.Link}}</p>
	<p><strong>This invitation expires in 7 days and can be used once.</strong></p>
</body>
</html>
`))

var textInvitation = texttemplate.Must(texttemplate.New("invitation").Parse(`Hi {{.Name}},

You have been invited to join {{.GroupName}} on FamilyShare.

Accept the invitation:
{{.Link}}

This invitation expires in 7 days and can be used once.
`))

// BuildInvitation renders the invitation email for to with an accept link rooted at
// baseURL.
func BuildInvitation(baseURL, to, token, groupName string) (Message, error) {
	link := strings.TrimRight(baseURL, "/") + "/invitations/accept?token=" + url.QueryEscape(token)
	data := invitationData{
		Name:      email.DeriveNameFromEmail(to),
		GroupName: groupName,
		Link:      link,
	}

	var htmlBody, textBody bytes.Buffer
	if err := htmlInvitation.Execute(&htmlBody, data); err != nil {
		return Message{}, fmt.Errorf("render invitation html: %w", err)
	}
	if err := textInvitation.Execute(&textBody, data); err != nil {
		return Message{}, fmt.Errorf("render invitation text: %w", err)
	}

	return Message{
		To:       to,
		Subject:  fmt.Sprintf("You're invited to %s", groupName),
		HTMLBody: htmlBody.String(),
		TextBody: textBody.String(),
		Link:     link,
	}, nil
}
