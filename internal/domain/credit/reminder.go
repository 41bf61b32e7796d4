package credit

import (
	"fmt"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReminderLevel escalates with the days an invoice is overdue
type ReminderLevel string

const (
	LevelFirst  ReminderLevel = "first"
	LevelSecond ReminderLevel = "second"
	LevelFinal  ReminderLevel = "final"
)

// Channel is how a reminder reaches the customer
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// Valid reports whether c is a known channel
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelWhatsApp:
		return true
	}
	return false
}

// ReminderStatus is the delivery state of a reminder
type ReminderStatus string

const (
	ReminderScheduled ReminderStatus = "scheduled"
	ReminderSent      ReminderStatus = "sent"
	ReminderFailed    ReminderStatus = "failed"
	ReminderCancelled ReminderStatus = "cancelled"
)

// ReminderFlow allows a failed reminder to be retried
var ReminderFlow = shared.Transitions[ReminderStatus]{
	ReminderScheduled: {ReminderSent, ReminderFailed, ReminderCancelled},
	ReminderFailed:    {ReminderSent, ReminderFailed, ReminderCancelled},
}

// ReminderPolicy holds the days overdue at which each level is due
type ReminderPolicy struct {
	FirstDays  int
	SecondDays int
	FinalDays  int
	Channel    Channel
}

// DefaultReminderPolicy sends at 1, 15 and 30 days overdue by email
func DefaultReminderPolicy() ReminderPolicy {
	return ReminderPolicy{FirstDays: 1, SecondDays: 15, FinalDays: 30, Channel: ChannelEmail}
}

// LevelFor returns the highest level reached after days overdue
func (p ReminderPolicy) LevelFor(daysOverdue int) (ReminderLevel, bool) {
	switch {
	case daysOverdue >= p.FinalDays:
		return LevelFinal, true
	case daysOverdue >= p.SecondDays:
		return LevelSecond, true
	case daysOverdue >= p.FirstDays && daysOverdue > 0:
		return LevelFirst, true
	}
	return "", false
}

// PaymentReminder chases one overdue invoice at one level.
// (invoice_id, reminder_level) is unique.
type PaymentReminder struct {
	shared.TenantEntity
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null" json:"customer_id"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null" json:"invoice_id"`
	ReminderLevel ReminderLevel   `gorm:"type:varchar(10);not null" json:"reminder_level"`
	Channel       Channel         `gorm:"type:varchar(20);not null;default:'email'" json:"channel"`
	Status        ReminderStatus  `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`
	DaysOverdue   int             `gorm:"not null;default:0" json:"days_overdue"`
	AmountDue     decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"amount_due"`
	ScheduledAt   time.Time       `gorm:"not null" json:"scheduled_at"`
	SentAt        *time.Time      `json:"sent_at,omitempty"`
	Message       string          `gorm:"type:text" json:"message,omitempty"`
	FailureReason *string         `gorm:"type:text" json:"failure_reason,omitempty"`
}

// TableName returns the table name for GORM
func (PaymentReminder) TableName() string {
	return "payment_reminders"
}

// NewPaymentReminder schedules a reminder for an aging line
func NewPaymentReminder(orgID uuid.UUID, line AgingLine, level ReminderLevel, channel Channel, at time.Time) *PaymentReminder {
	r := &PaymentReminder{
		TenantEntity:  shared.NewTenantEntity(orgID),
		CustomerID:    line.CustomerID,
		InvoiceID:     line.InvoiceID,
		ReminderLevel: level,
		Channel:       channel,
		Status:        ReminderScheduled,
		DaysOverdue:   line.DaysOverdue,
		AmountDue:     shared.RoundMoney(line.Outstanding),
		ScheduledAt:   at,
	}
	r.Message = reminderMessage(level, line)
	return r
}

func reminderMessage(level ReminderLevel, line AgingLine) string {
	lead := "Reminder"
	switch level {
	case LevelSecond:
		lead = "Second reminder"
	case LevelFinal:
		lead = "Final notice"
	}
	return fmt.Sprintf("%s: invoice %s for %s was due on %s and is %d days overdue. Outstanding amount: %s.",
		lead, line.InvoiceNumber, line.CustomerName, line.DueDate.Format(time.DateOnly),
		line.DaysOverdue, line.Outstanding.StringFixed(2))
}

// MarkSent records a successful delivery
func (r *PaymentReminder) MarkSent(at time.Time) error {
	if err := ReminderFlow.Check("reminder", r.Status, ReminderSent); err != nil {
		return err
	}
	r.Status = ReminderSent
	r.SentAt = &at
	r.FailureReason = nil
	return nil
}

// MarkFailed records a failed delivery
func (r *PaymentReminder) MarkFailed(reason string) error {
	if err := ReminderFlow.Check("reminder", r.Status, ReminderFailed); err != nil {
		return err
	}
	r.Status = ReminderFailed
	r.FailureReason = &reason
	return nil
}

// Cancel stops a reminder that was not sent
func (r *PaymentReminder) Cancel() error {
	if err := ReminderFlow.Check("reminder", r.Status, ReminderCancelled); err != nil {
		return err
	}
	r.Status = ReminderCancelled
	return nil
}

// Notification is a reminder ready for a delivery channel
type Notification struct {
	Channel Channel
	To      string
	Subject string
	Body    string
}
