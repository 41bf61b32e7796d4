// Package notification delivers customer notifications.
package notification

import (
	"context"
	"errors"
	"strings"

	"github.com/drymix/erp/internal/domain/credit"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrNoRecipient is returned when a notification has no address
var ErrNoRecipient = errors.New("notification has no recipient")

// LogNotifier writes notifications to the log instead of sending them.
// It stands in for the email/SMS/WhatsApp gateways until one is configured.
type LogNotifier struct{}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

// Notify logs the notification
func (LogNotifier) Notify(ctx context.Context, n credit.Notification) error {
	if strings.TrimSpace(n.To) == "" {
		return ErrNoRecipient
	}
	logger.L(ctx).Info("Notification delivered",
		zap.String("channel", string(n.Channel)),
		zap.String("to", n.To),
		zap.String("subject", n.Subject),
		zap.Int("body_length", len(n.Body)),
	)
	return nil
}
