// Package audit records authorization-relevant mutations. Writes are best effort: a
// failing store or mirror is logged and counted but never surfaces to the operation that
// triggered the entry.
package audit

import (
	"context"
	"log/slog"
	"time"

	id "familyshare/pkg/domain"
	"familyshare/pkg/requestcontext"
)

// Store is the primary, queryable home of audit entries.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByGroup(ctx context.Context, groupID id.GroupID, limit int) ([]Entry, error)
}

// Mirror receives a copy of every entry after the primary append, e.g. a stream for
// downstream compliance tooling.
type Mirror interface {
	Publish(ctx context.Context, entry Entry) error
	Name() string
}

// Logger is the non-propagating audit boundary used by services.
type Logger struct {
	store   Store
	mirrors []Mirror
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

type Option func(*Logger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Logger) {
		l.logger = logger
	}
}

func WithMirror(m Mirror) Option {
	return func(l *Logger) {
		if m != nil {
			l.mirrors = append(l.mirrors, m)
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(l *Logger) {
		l.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

func NewLogger(store Store, opts ...Option) *Logger {
	l := &Logger{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogAudit appends an entry built from rec and the request context. It never fails.
func (l *Logger) LogAudit(ctx context.Context, rec Record) {
	entry := l.entryFor(ctx, rec)

	if err := l.store.Append(ctx, entry); err != nil {
		l.metrics.IncWriteFailures("store")
		l.logger.ErrorContext(ctx, "failed to append audit entry",
			"action", entry.Action,
			"group_id", entry.GroupID,
			"user_id", entry.UserID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		l.metrics.IncWritten(entry.Action)
	}

	for _, m := range l.mirrors {
		if err := m.Publish(ctx, entry); err != nil {
			l.metrics.IncWriteFailures(m.Name())
			l.logger.WarnContext(ctx, "failed to mirror audit entry",
				"sink", m.Name(),
				"action", entry.Action,
				"audit_id", entry.ID,
				"error", err,
			)
		}
	}
}

// ListByGroup returns the group's entries, newest first.
func (l *Logger) ListByGroup(ctx context.Context, groupID id.GroupID, limit int) ([]Entry, error) {
	return l.store.ListByGroup(ctx, groupID, limit)
}

func (l *Logger) entryFor(ctx context.Context, rec Record) Entry {
	createdAt := requestcontext.Now(ctx)
	if l.now != nil {
		createdAt = l.now()
	}
	return Entry{
		ID:           id.NewAuditID(),
		GroupID:      rec.GroupID,
		UserID:       rec.UserID,
		Action:       rec.Action,
		ResourceType: rec.ResourceType,
		ResourceID:   rec.ResourceID,
		OldValues:    rec.OldValues,
		NewValues:    rec.NewValues,
		IPAddress:    orUnknown(requestcontext.ClientIP(ctx)),
		UserAgent:    orUnknown(requestcontext.UserAgent(ctx)),
		CreatedAt:    createdAt.UTC(),
	}
}

func orUnknown(v string) string {
	if v == "" {
		return Unknown
	}
	return v
}
