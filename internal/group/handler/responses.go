package handler

import (
	"familyshare/internal/audit"
	"familyshare/internal/group/models"
)

// InvitationResponse carries the plaintext token. It is the only time the token leaves
// the service besides the invitation email.
type InvitationResponse struct {
	Invitation *models.Invitation `json:"invitation"`
	Token      string             `json:"token"`
}

type MembersResponse struct {
	Members []*models.Member `json:"members"`
}

type InvitationsResponse struct {
	Invitations []*models.Invitation `json:"invitations"`
}

type ActivitiesResponse struct {
	Activities []*models.ActivityWithInteractions `json:"activities"`
	Limit      int                                `json:"limit"`
	Offset     int                                `json:"offset"`
}

type AuditResponse struct {
	Entries []audit.Entry `json:"entries"`
}
