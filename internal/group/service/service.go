// Package service implements family group sharing: group lifecycle, invitations,
// membership and permission enforcement, the activity feed, and audit reads.
//
// Every check re-reads the stores. Membership is never cached, so a removal or a
// permission change is visible to the next call.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"familyshare/internal/audit"
	"familyshare/internal/group/metrics"
	"familyshare/internal/group/models"
	"familyshare/internal/permission"
	"familyshare/internal/token"
	id "familyshare/pkg/domain"
	dErrors "familyshare/pkg/domain-errors"
	"familyshare/pkg/platform/sentinel"
	"familyshare/pkg/requestcontext"
)

const (
	// InvitationTokenBytes is the entropy of an invitation token before encoding.
	InvitationTokenBytes = 32
	// InvitationTTL is how long an invitation stays redeemable.
	InvitationTTL = 7 * 24 * time.Hour
	// InviteCodeBytes yields a 10 character base32 display code.
	InviteCodeBytes = 6

	inviteCodeAttempts = 5

	defaultActivityLimit = 20
	maxActivityLimit     = 100
	defaultAuditLimit    = 50
	maxAuditLimit        = 500
	enrichConcurrency    = 8
)

var tracer = otel.Tracer("familyshare/internal/group/service")

type GroupStore interface {
	// Create returns sentinel.ErrAlreadyUsed when the invite code is taken.
	Create(ctx context.Context, group *models.Group) error
	FindByID(ctx context.Context, groupID id.GroupID) (*models.Group, error)
	Update(ctx context.Context, group *models.Group) error
}

type MemberStore interface {
	// Create returns sentinel.ErrAlreadyUsed when the (group, user) pair exists.
	Create(ctx context.Context, member *models.Member) error
	Find(ctx context.Context, groupID id.GroupID, userID id.UserID) (*models.Member, error)
	ListByGroup(ctx context.Context, groupID id.GroupID) ([]*models.Member, error)
	UpdatePermissions(ctx context.Context, groupID id.GroupID, userID id.UserID, perms permission.Permissions) error
	UpdateRole(ctx context.Context, groupID id.GroupID, userID id.UserID, role permission.Role, perms permission.Permissions) error
	Delete(ctx context.Context, groupID id.GroupID, userID id.UserID) error
}

type InvitationStore interface {
	Create(ctx context.Context, inv *models.Invitation) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*models.Invitation, error)
	// MarkAccepted sets accepted_at only while it is still unset. It returns
	// sentinel.ErrAlreadyUsed when another redemption got there first.
	MarkAccepted(ctx context.Context, invitationID id.InvitationID, acceptedBy id.UserID, at time.Time) error
	ListPendingByGroup(ctx context.Context, groupID id.GroupID, now time.Time) ([]*models.Invitation, error)
}

type FeedStore interface {
	CreateActivity(ctx context.Context, activity *models.Activity) error
	FindActivity(ctx context.Context, activityID id.ActivityID) (*models.Activity, error)
	// ListActivities returns visible activities newest first.
	ListActivities(ctx context.Context, groupID id.GroupID, limit, offset int) ([]*models.Activity, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	// ListComments returns comments oldest first.
	ListComments(ctx context.Context, activityID id.ActivityID) ([]*models.Comment, error)
	// UpsertReaction keeps one row per (activity, user) and returns the stored row.
	UpsertReaction(ctx context.Context, reaction *models.Reaction) (*models.Reaction, error)
	ListReactions(ctx context.Context, activityID id.ActivityID) ([]*models.Reaction, error)
}

// StoreTx runs fn so that store calls made with the callback context commit or roll back
// together.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier delivers the plaintext invitation token to the invitee.
type Notifier interface {
	SendInvitation(ctx context.Context, email, token, groupName string) error
}

// AuditLogger records group mutations. LogAudit never fails the caller.
type AuditLogger interface {
	LogAudit(ctx context.Context, rec audit.Record)
	ListByGroup(ctx context.Context, groupID id.GroupID, limit int) ([]audit.Entry, error)
}

// RedemptionLimiter bounds invitation redemption attempts per key.
type RedemptionLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Stores bundles the persistence dependencies.
type Stores struct {
	Groups      GroupStore
	Members     MemberStore
	Invitations InvitationStore
	Feed        FeedStore
}

// Service orchestrates family group sharing.
type Service struct {
	groups      GroupStore
	members     MemberStore
	invitations InvitationStore
	feed        FeedStore
	tx          StoreTx

	auditLogger AuditLogger
	notifier    Notifier
	tokens      token.Generator
	limiter     RedemptionLimiter
	clock       func() time.Time
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditLogger(logger AuditLogger) Option {
	return func(s *Service) {
		s.auditLogger = logger
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithTokenGenerator(g token.Generator) Option {
	return func(s *Service) {
		s.tokens = g
	}
}

// WithClock overrides the request-scoped time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.clock = now
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTx sets the transaction runner. Postgres deployments pass tx.NewPostgres(db).
func WithTx(t StoreTx) Option {
	return func(s *Service) {
		s.tx = t
	}
}

// WithRedemptionLimiter enables per-user throttling of AcceptInvitation.
func WithRedemptionLimiter(l RedemptionLimiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

// New constructs a Service. Without WithTx, transactions are serialized in process,
// which is only correct for the in-memory stores.
func New(stores Stores, opts ...Option) *Service {
	s := &Service{
		groups:      stores.Groups,
		members:     stores.Members,
		invitations: stores.Invitations,
		feed:        stores.Feed,
		tokens:      token.CryptoGenerator{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewInMemoryTx()
	}
	return s
}

func (s *Service) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requestcontext.Now(ctx)
}

func (s *Service) logAudit(ctx context.Context, rec audit.Record) {
	if s.auditLogger == nil {
		return
	}
	s.auditLogger.LogAudit(ctx, rec)
}

// startSpan opens a span and returns a finish func that records err and the latency.
func (s *Service) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	started := time.Now()
	ctx, span := tracer.Start(ctx, "group."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
		s.metrics.ObserveOperation(op, time.Since(started).Seconds())
	}
}

// loadMember reads a membership, translating absence into a NotFound.
func (s *Service) loadMember(ctx context.Context, groupID id.GroupID, userID id.UserID) (*models.Member, error) {
	member, err := s.members.Find(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return member, nil
}

// requireMember rejects callers who are not members of the group.
func (s *Service) requireMember(ctx context.Context, groupID id.GroupID, userID id.UserID) (*models.Member, error) {
	member, err := s.loadMember(ctx, groupID, userID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodePermissionDenied, "not a member of this group")
		}
		return nil, err
	}
	return member, nil
}

// requireCapability rejects callers whose effective permissions lack c.
func (s *Service) requireCapability(ctx context.Context, groupID id.GroupID, userID id.UserID, c permission.Capability) (*models.Member, error) {
	member, err := s.requireMember(ctx, groupID, userID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodePermissionDenied) {
			s.metrics.IncPermissionDenied(string(c))
		}
		return nil, err
	}
	if !member.Can(c) {
		s.metrics.IncPermissionDenied(string(c))
		return nil, dErrors.New(dErrors.CodePermissionDenied, "missing permission: "+string(c))
	}
	return member, nil
}

func (s *Service) loadGroup(ctx context.Context, groupID id.GroupID) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "group not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load group")
	}
	return group, nil
}
