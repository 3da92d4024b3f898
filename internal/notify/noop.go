package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded events. It is used
// when Discord (or another notification backend) is not configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards events with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// SendEvent logs and discards an event.
func (n *NoOpNotifier) SendEvent(_ context.Context, ev Event) error {
	n.log.Debug("notification discarded (no backend configured)",
		"kind", string(ev.Kind),
		"scope", ev.Scope,
		"detail", ev.Detail,
	)
	return nil
}
