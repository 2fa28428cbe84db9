package notification

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/gotransfer/internal/domain"
)

// LogSink delivers notifications by logging them.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a new LogSink.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Deliver logs the notification.
func (s *LogSink) Deliver(ctx context.Context, notification domain.Notification) error {
	s.logger.Info().
		Str("account_id", notification.AccountID).
		Time("created_at", notification.CreatedAt).
		Msg(notification.Description)

	return nil
}
