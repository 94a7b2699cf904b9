// Package domain holds typed identifiers shared across bounded contexts.
//
// Each identifier is a distinct named UUID type so a GroupID can never be passed where a
// UserID is expected. Parse functions are the trust boundary: they reject empty, malformed
// and nil UUIDs.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "familyshare/pkg/domain-errors"
)

type (
	UserID       uuid.UUID
	ChildID      uuid.UUID
	GroupID      uuid.UUID
	InvitationID uuid.UUID
	ActivityID   uuid.UUID
	CommentID    uuid.UUID
	ReactionID   uuid.UUID
	AuditID      uuid.UUID
)

func parseUUID(kind, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, kind+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil || parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+kind)
	}
	return parsed, nil
}

func unmarshalUUID(kind string, text []byte) (uuid.UUID, error) {
	if len(text) == 0 {
		return uuid.Nil, nil
	}
	return parseUUID(kind, string(text))
}

// ParseUserID parses and validates a user id.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user id", s)
	return UserID(u), err
}

func NewUserID() UserID { return UserID(uuid.New()) }

func (i UserID) String() string { return uuid.UUID(i).String() }

func (i UserID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i UserID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *UserID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("user id", text)
	if err != nil {
		return err
	}
	*i = UserID(u)
	return nil
}

// ParseChildID parses and validates a child id.
func ParseChildID(s string) (ChildID, error) {
	u, err := parseUUID("child id", s)
	return ChildID(u), err
}

func NewChildID() ChildID { return ChildID(uuid.New()) }

func (i ChildID) String() string { return uuid.UUID(i).String() }

func (i ChildID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i ChildID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *ChildID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("child id", text)
	if err != nil {
		return err
	}
	*i = ChildID(u)
	return nil
}

// ParseGroupID parses and validates a group id.
func ParseGroupID(s string) (GroupID, error) {
	u, err := parseUUID("group id", s)
	return GroupID(u), err
}

func NewGroupID() GroupID { return GroupID(uuid.New()) }

func (i GroupID) String() string { return uuid.UUID(i).String() }

func (i GroupID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i GroupID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *GroupID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("group id", text)
	if err != nil {
		return err
	}
	*i = GroupID(u)
	return nil
}

// ParseInvitationID parses and validates a invitation id.
func ParseInvitationID(s string) (InvitationID, error) {
	u, err := parseUUID("invitation id", s)
	return InvitationID(u), err
}

func NewInvitationID() InvitationID { return InvitationID(uuid.New()) }

func (i InvitationID) String() string { return uuid.UUID(i).String() }

func (i InvitationID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i InvitationID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *InvitationID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("invitation id", text)
	if err != nil {
		return err
	}
	*i = InvitationID(u)
	return nil
}

// ParseActivityID parses and validates a activity id.
func ParseActivityID(s string) (ActivityID, error) {
	u, err := parseUUID("activity id", s)
	return ActivityID(u), err
}

func NewActivityID() ActivityID { return ActivityID(uuid.New()) }

func (i ActivityID) String() string { return uuid.UUID(i).String() }

func (i ActivityID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i ActivityID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *ActivityID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("activity id", text)
	if err != nil {
		return err
	}
	*i = ActivityID(u)
	return nil
}

// ParseCommentID parses and validates a comment id.
func ParseCommentID(s string) (CommentID, error) {
	u, err := parseUUID("comment id", s)
	return CommentID(u), err
}

func NewCommentID() CommentID { return CommentID(uuid.New()) }

func (i CommentID) String() string { return uuid.UUID(i).String() }

func (i CommentID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i CommentID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *CommentID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("comment id", text)
	if err != nil {
		return err
	}
	*i = CommentID(u)
	return nil
}

// ParseReactionID parses and validates a reaction id.
func ParseReactionID(s string) (ReactionID, error) {
	u, err := parseUUID("reaction id", s)
	return ReactionID(u), err
}

func NewReactionID() ReactionID { return ReactionID(uuid.New()) }

func (i ReactionID) String() string { return uuid.UUID(i).String() }

func (i ReactionID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i ReactionID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *ReactionID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("reaction id", text)
	if err != nil {
		return err
	}
	*i = ReactionID(u)
	return nil
}

// ParseAuditID parses and validates a audit id.
func ParseAuditID(s string) (AuditID, error) {
	u, err := parseUUID("audit id", s)
	return AuditID(u), err
}

func NewAuditID() AuditID { return AuditID(uuid.New()) }

func (i AuditID) String() string { return uuid.UUID(i).String() }

func (i AuditID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

func (i AuditID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *AuditID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("audit id", text)
	if err != nil {
		return err
	}
	*i = AuditID(u)
	return nil
}
