package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ResendAPI is the subset of the Resend emails service used to send mail.
type ResendAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendNotifier sends invitations through Resend.
type ResendNotifier struct {
	emails  ResendAPI
	from    string
	baseURL string
	logger  *slog.Logger
}

func NewResendNotifier(emails ResendAPI, from, baseURL string, logger *slog.Logger) *ResendNotifier {
	return &ResendNotifier{emails: emails, from: from, baseURL: baseURL, logger: logger}
}

// NewResendClient returns the emails service of a Resend client.
func NewResendClient(apiKey string) ResendAPI {
	return resend.NewClient(apiKey).Emails
}

func (n *ResendNotifier) Name() string { return "resend" }

func (n *ResendNotifier) SendInvitation(ctx context.Context, to, token, groupName string) error {
	msg, err := BuildInvitation(n.baseURL, to, token, groupName)
	if err != nil {
		return err
	}

	sent, err := n.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		Text:    msg.TextBody,
	})
	if err != nil {
		return fmt.Errorf("failed to send invitation to %s: %w", msg.To, err)
	}
	n.logger.InfoContext(ctx, "invitation email sent",
		"provider", n.Name(),
		"to", msg.To,
		"message_id", sent.Id,
	)
	return nil
}
