package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes invitations to the log instead of sending them. The accept link is
// only emitted at debug level.
type LogNotifier struct {
	logger  *slog.Logger
	baseURL string
}

func NewLogNotifier(logger *slog.Logger, baseURL string) *LogNotifier {
	return &LogNotifier{logger: logger, baseURL: baseURL}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) SendInvitation(ctx context.Context, to, token, groupName string) error {
	msg, err := BuildInvitation(n.baseURL, to, token, groupName)
	if err != nil {
		return err
	}
	n.logger.InfoContext(ctx, "invitation email suppressed",
		"to", msg.To,
		"subject", msg.Subject,
	)
	n.logger.DebugContext(ctx, "invitation accept link", "link", msg.Link)
	return nil
}
