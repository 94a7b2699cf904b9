package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"familyshare/internal/audit"
	"familyshare/internal/group/models"
	"familyshare/internal/permission"
	id "familyshare/pkg/domain"
	dErrors "familyshare/pkg/domain-errors"
	"familyshare/pkg/platform/httputil"
	"familyshare/pkg/platform/middleware/auth"
	"familyshare/pkg/requestcontext"
)

// Service is the group service as seen by the HTTP layer.
type Service interface {
	CreateGroup(ctx context.Context, childID id.ChildID, creatorID id.UserID, name, description string) (*models.Group, error)
	GetGroup(ctx context.Context, groupID id.GroupID, requesterID id.UserID) (*models.Group, error)
	DeactivateGroup(ctx context.Context, groupID id.GroupID, requesterID id.UserID) (*models.Group, error)
	ListMembers(ctx context.Context, groupID id.GroupID, requesterID id.UserID) ([]*models.Member, error)
	GetMembership(ctx context.Context, groupID id.GroupID, userID id.UserID) (*models.Member, error)
	InviteMember(ctx context.Context, groupID id.GroupID, inviterID id.UserID, email string, role permission.Role, override *permission.Override) (*models.IssuedInvitation, error)
	ListPendingInvitations(ctx context.Context, groupID id.GroupID, requesterID id.UserID) ([]*models.Invitation, error)
	AcceptInvitation(ctx context.Context, token string, userID id.UserID) (*models.Member, error)
	UpdateMemberPermissions(ctx context.Context, groupID id.GroupID, targetID, updatedByID id.UserID, perms permission.Permissions) (*models.Member, error)
	UpdateMemberRole(ctx context.Context, groupID id.GroupID, targetID, updatedByID id.UserID, role permission.Role) (*models.Member, error)
	RemoveMember(ctx context.Context, groupID id.GroupID, targetID, removedByID id.UserID) error
	LeaveGroup(ctx context.Context, groupID id.GroupID, userID id.UserID) error
	CreateActivity(ctx context.Context, groupID id.GroupID, userID id.UserID, activityType, title, description string, metadata map[string]any) (*models.Activity, error)
	GetGroupActivities(ctx context.Context, groupID id.GroupID, userID id.UserID, limit, offset int) ([]*models.ActivityWithInteractions, error)
	AddComment(ctx context.Context, activityID id.ActivityID, userID id.UserID, content string) (*models.Comment, error)
	AddReaction(ctx context.Context, activityID id.ActivityID, userID id.UserID, reactionType string) (*models.Reaction, error)
	ListGroupAudit(ctx context.Context, groupID id.GroupID, requesterID id.UserID, limit int) ([]audit.Entry, error)
}

// Handler serves the family group API.
type Handler struct {
	service   Service
	validator auth.TokenValidator
	logger    *slog.Logger
}

func New(service Service, validator auth.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{service: service, validator: validator, logger: logger}
}

// Register mounts the authenticated group routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(h.validator, h.logger))

		r.Post("/groups", h.handleCreateGroup)
		r.Route("/groups/{groupID}", func(r chi.Router) {
			r.Get("/", h.handleGetGroup)
			r.Delete("/", h.handleDeactivateGroup)
			r.Get("/me", h.handleGetMembership)
			r.Get("/members", h.handleListMembers)
			r.Put("/members/{userID}/permissions", h.handleUpdatePermissions)
			r.Put("/members/{userID}/role", h.handleUpdateRole)
			r.Delete("/members/{userID}", h.handleRemoveMember)
			r.Post("/leave", h.handleLeaveGroup)
			r.Post("/invitations", h.handleInviteMember)
			r.Get("/invitations", h.handleListInvitations)
			r.Get("/activities", h.handleListActivities)
			r.Post("/activities", h.handleCreateActivity)
			r.Get("/audit", h.handleListAudit)
		})
		r.Post("/invitations/accept", h.handleAcceptInvitation)
		r.Post("/activities/{activityID}/comments", h.handleAddComment)
		r.Post("/activities/{activityID}/reactions", h.handleAddReaction)
	})
}

func (h *Handler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateGroupRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	group, err := h.service.CreateGroup(ctx, req.childID, requestcontext.UserID(ctx), req.Name, req.Description)
	if err != nil {
		h.writeError(ctx, w, err, "create group")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, group)
}

func (h *Handler) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	group, err := h.service.GetGroup(ctx, groupID, requestcontext.UserID(ctx))
	if err != nil {
		h.writeError(ctx, w, err, "get group")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, group)
}

func (h *Handler) handleDeactivateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	group, err := h.service.DeactivateGroup(ctx, groupID, requestcontext.UserID(ctx))
	if err != nil {
		h.writeError(ctx, w, err, "deactivate group")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, group)
}

func (h *Handler) handleGetMembership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	member, err := h.service.GetMembership(ctx, groupID, requestcontext.UserID(ctx))
	if err != nil {
		h.writeError(ctx, w, err, "get membership")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	members, err := h.service.ListMembers(ctx, groupID, requestcontext.UserID(ctx))
	if err != nil {
		h.writeError(ctx, w, err, "list members")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MembersResponse{Members: members})
}

func (h *Handler) handleInviteMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[InviteMemberRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	issued, err := h.service.InviteMember(ctx, groupID, requestcontext.UserID(ctx), req.Email, req.role, req.Permissions)
	if err != nil {
		h.writeError(ctx, w, err, "invite member")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, InvitationResponse{Invitation: issued.Invitation, Token: issued.Token})
}

func (h *Handler) handleListInvitations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	pending, err := h.service.ListPendingInvitations(ctx, groupID, requestcontext.UserID(ctx))
	if err != nil {
		h.writeError(ctx, w, err, "list invitations")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, InvitationsResponse{Invitations: pending})
}

func (h *Handler) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AcceptInvitationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	member, err := h.service.AcceptInvitation(ctx, req.Token, requestcontext.UserID(ctx))
	if err != nil {
		h.writeError(ctx, w, err, "accept invitation")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleUpdatePermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	targetID, ok := h.targetUserID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdatePermissionsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	member, err := h.service.UpdateMemberPermissions(ctx, groupID, targetID, requestcontext.UserID(ctx), *req.Permissions)
	if err != nil {
		h.writeError(ctx, w, err, "update permissions")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	targetID, ok := h.targetUserID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateRoleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	member, err := h.service.UpdateMemberRole(ctx, groupID, targetID, requestcontext.UserID(ctx), req.role)
	if err != nil {
		h.writeError(ctx, w, err, "update role")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	targetID, ok := h.targetUserID(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveMember(ctx, groupID, targetID, requestcontext.UserID(ctx)); err != nil {
		h.writeError(ctx, w, err, "remove member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	if err := h.service.LeaveGroup(ctx, groupID, requestcontext.UserID(ctx)); err != nil {
		h.writeError(ctx, w, err, "leave group")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateActivityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	activity, err := h.service.CreateActivity(ctx, groupID, requestcontext.UserID(ctx), req.ActivityType, req.Title, req.Description, req.Metadata)
	if err != nil {
		h.writeError(ctx, w, err, "create activity")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, activity)
}

func (h *Handler) handleListActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	limit, ok := h.queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := h.queryInt(w, r, "offset")
	if !ok {
		return
	}
	activities, err := h.service.GetGroupActivities(ctx, groupID, requestcontext.UserID(ctx), limit, offset)
	if err != nil {
		h.writeError(ctx, w, err, "list activities")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ActivitiesResponse{Activities: activities, Limit: limit, Offset: offset})
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	activityID, ok := h.activityID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddCommentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	comment, err := h.service.AddComment(ctx, activityID, requestcontext.UserID(ctx), req.Content)
	if err != nil {
		h.writeError(ctx, w, err, "add comment")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, comment)
}

func (h *Handler) handleAddReaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	activityID, ok := h.activityID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddReactionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	reaction, err := h.service.AddReaction(ctx, activityID, requestcontext.UserID(ctx), req.ReactionType)
	if err != nil {
		h.writeError(ctx, w, err, "add reaction")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reaction)
}

func (h *Handler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID, ok := h.groupID(w, r)
	if !ok {
		return
	}
	limit, ok := h.queryInt(w, r, "limit")
	if !ok {
		return
	}
	entries, err := h.service.ListGroupAudit(ctx, groupID, requestcontext.UserID(ctx), limit)
	if err != nil {
		h.writeError(ctx, w, err, "list audit")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AuditResponse{Entries: entries})
}

func (h *Handler) groupID(w http.ResponseWriter, r *http.Request) (id.GroupID, bool) {
	groupID, err := id.ParseGroupID(chi.URLParam(r, "groupID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.GroupID{}, false
	}
	return groupID, true
}

func (h *Handler) targetUserID(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.UserID{}, false
	}
	return userID, true
}

func (h *Handler) activityID(w http.ResponseWriter, r *http.Request) (id.ActivityID, bool) {
	activityID, err := id.ParseActivityID(chi.URLParam(r, "activityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ActivityID{}, false
	}
	return activityID, true
}

// queryInt reads an optional integer query parameter; absent means zero.
func (h *Handler) queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, name+" must be an integer"))
		return 0, false
	}
	return v, true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, op+" rejected",
			"request_id", requestcontext.RequestID(ctx),
			"code", dErrors.CodeOf(err),
		)
	}
	httputil.WriteError(w, err)
}
