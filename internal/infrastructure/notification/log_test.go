package notification

import (
	"context"
	"testing"

	"github.com/drymix/erp/internal/domain/credit"
	"github.com/stretchr/testify/assert"
)

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier()
	ctx := context.Background()

	assert.NoError(t, n.Notify(ctx, credit.Notification{Channel: credit.ChannelEmail, To: "ap@acme.example", Subject: "Reminder", Body: "Invoice INV-2026-000001 is due"}))
	assert.ErrorIs(t, n.Notify(ctx, credit.Notification{Channel: credit.ChannelSMS, To: "  "}), ErrNoRecipient)
}
