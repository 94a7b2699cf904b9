package audit

import (
	"time"

	id "familyshare/pkg/domain"
)

// Action tags an audit entry with the mutation it records.
type Action string

const (
	ActionGroupCreated       Action = "group_created"
	ActionGroupDeactivated   Action = "group_deactivated"
	ActionMemberInvited      Action = "member_invited"
	ActionInvitationAccepted Action = "invitation_accepted"
	ActionPermissionsUpdated Action = "permissions_updated"
	ActionRoleUpdated        Action = "role_updated"
	ActionMemberRemoved      Action = "member_removed"
	ActionMemberLeft         Action = "member_left"
	ActionCommentAdded       Action = "comment_added"
)

// ResourceType names the kind of row an entry refers to.
type ResourceType string

const (
	ResourceGroup      ResourceType = "group"
	ResourceMember     ResourceType = "member"
	ResourceInvitation ResourceType = "invitation"
	ResourceComment    ResourceType = "comment"
)

// Unknown is recorded for client metadata the request did not carry.
const Unknown = "unknown"

// Entry is one append-only audit row.
type Entry struct {
	ID           id.AuditID     `json:"id"`
	GroupID      id.GroupID     `json:"group_id"`
	UserID       id.UserID      `json:"user_id"`
	Action       Action         `json:"action"`
	ResourceType ResourceType   `json:"resource_type,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	OldValues    map[string]any `json:"old_values,omitempty"`
	NewValues    map[string]any `json:"new_values,omitempty"`
	IPAddress    string         `json:"ip_address"`
	UserAgent    string         `json:"user_agent"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Record is what callers hand to LogAudit; the logger fills identity, time and client
// metadata.
type Record struct {
	GroupID      id.GroupID
	UserID       id.UserID
	Action       Action
	ResourceType ResourceType
	ResourceID   string
	OldValues    map[string]any
	NewValues    map[string]any
}
