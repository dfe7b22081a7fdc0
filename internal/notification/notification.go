package notification

import (
	"context"
	"log/slog"
)

// SMS describes a text message bound for a phone number.
type SMS struct {
	To   string
	Body string
}

// Notifier delivers messages out-of-band. Delivery is best-effort; callers
// decide what a failure means for their flow.
type Notifier interface {
	Send(ctx context.Context, msg SMS) error
}

// LoggerNotifier writes messages to the structured logger instead of
// sending them. Used in development and tests.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, msg SMS) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("sms", "to", msg.To, "body", msg.Body)
	return nil
}
