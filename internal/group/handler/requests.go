package handler

import (
	"strings"

	"familyshare/internal/permission"
	id "familyshare/pkg/domain"
	dErrors "familyshare/pkg/domain-errors"
)

// CreateGroupRequest is the body for POST /groups.
type CreateGroupRequest struct {
	ChildID     string `json:"child_id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	childID id.ChildID
}

func (r *CreateGroupRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	childID, err := id.ParseChildID(r.ChildID)
	if err != nil {
		return err
	}
	r.childID = childID
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

// InviteMemberRequest is the body for POST /groups/{groupID}/invitations. Permissions is
// a sparse override on top of the role defaults.
type InviteMemberRequest struct {
	Email       string               `json:"email"`
	Role        string               `json:"role"`
	Permissions *permission.Override `json:"permissions,omitempty"`

	role permission.Role
}

func (r *InviteMemberRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	role, err := permission.ParseRole(r.Role)
	if err != nil {
		return err
	}
	r.role = role
	return nil
}

// AcceptInvitationRequest is the body for POST /invitations/accept.
type AcceptInvitationRequest struct {
	Token string `json:"token"`
}

func (r *AcceptInvitationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Token = strings.TrimSpace(r.Token)
	if r.Token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	if len(r.Token) > 256 {
		return dErrors.New(dErrors.CodeValidation, "token is too long")
	}
	return nil
}

// UpdatePermissionsRequest replaces a member's permission set wholesale. Capabilities
// left out of the body are revoked.
type UpdatePermissionsRequest struct {
	Permissions *permission.Permissions `json:"permissions"`
}

func (r *UpdatePermissionsRequest) Validate() error {
	if r == nil || r.Permissions == nil {
		return dErrors.New(dErrors.CodeValidation, "permissions is required")
	}
	return nil
}

type UpdateRoleRequest struct {
	Role string `json:"role"`

	role permission.Role
}

func (r *UpdateRoleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	role, err := permission.ParseRole(r.Role)
	if err != nil {
		return err
	}
	r.role = role
	return nil
}

type CreateActivityRequest struct {
	ActivityType string         `json:"activity_type"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func (r *CreateActivityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.ActivityType) == "" {
		return dErrors.New(dErrors.CodeValidation, "activity_type is required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	return nil
}

type AddCommentRequest struct {
	Content string `json:"content"`
}

func (r *AddCommentRequest) Validate() error {
	if r == nil || strings.TrimSpace(r.Content) == "" {
		return dErrors.New(dErrors.CodeValidation, "content is required")
	}
	return nil
}

// AddReactionRequest may be empty; the reaction defaults to "like".
type AddReactionRequest struct {
	ReactionType string `json:"reaction_type"`
}

func (r *AddReactionRequest) Validate() error {
	return nil
}
