package notify

import (
	"context"
	"log/slog"

	"familyshare/pkg/platform/circuit"
)

// Sender is implemented by every notifier in this package.
type Sender interface {
	SendInvitation(ctx context.Context, to, token, groupName string) error
	Name() string
}

// Guarded sends through primary until its breaker opens, then routes to fallback until a
// probe after the cooldown succeeds.
type Guarded struct {
	primary  Sender
	fallback Sender
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewGuarded(primary, fallback Sender, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	return &Guarded{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (g *Guarded) Name() string { return g.primary.Name() }

func (g *Guarded) SendInvitation(ctx context.Context, to, token, groupName string) error {
	if !g.breaker.Allow() {
		return g.fallback.SendInvitation(ctx, to, token, groupName)
	}

	err := g.primary.SendInvitation(ctx, to, token, groupName)
	if err == nil {
		if _, change := g.breaker.RecordSuccess(); change.Closed {
			g.logger.InfoContext(ctx, "notifier circuit closed", "provider", g.primary.Name())
		}
		return nil
	}

	useFallback, change := g.breaker.RecordFailure()
	if change.Opened {
		g.logger.WarnContext(ctx, "notifier circuit opened",
			"provider", g.primary.Name(),
			"fallback", g.fallback.Name(),
			"error", err,
		)
	}
	if useFallback {
		return g.fallback.SendInvitation(ctx, to, token, groupName)
	}
	return err
}
