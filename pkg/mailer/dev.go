package mailer

import (
	"context"
	"log/slog"
)

// DevSender logs emails instead of sending them. Used when email delivery is
// disabled or in development environments without SMTP credentials.
type DevSender struct {
	logger *slog.Logger
}

func NewDevSender(logger *slog.Logger) *DevSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &DevSender{logger: logger}
}

func (s *DevSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("dev mailer: email not sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}
