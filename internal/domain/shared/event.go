package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is something that happened to an aggregate
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	OrganizationID() uuid.UUID
}

// BaseDomainEvent is embedded by concrete events
type BaseDomainEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	At            time.Time `json:"occurred_at"`
	Aggregate     uuid.UUID `json:"aggregate_id"`
	AggregateKind string    `json:"aggregate_type"`
	Organization  uuid.UUID `json:"organization_id"`
}

// NewBaseDomainEvent stamps a new event with an ID and the current time
func NewBaseDomainEvent(eventType, aggregateType string, aggregateID, orgID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:            uuid.New(),
		Type:          eventType,
		At:            time.Now().UTC(),
		Aggregate:     aggregateID,
		AggregateKind: aggregateType,
		Organization:  orgID,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID        { return e.ID }
func (e *BaseDomainEvent) EventType() string         { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time     { return e.At }
func (e *BaseDomainEvent) AggregateID() uuid.UUID    { return e.Aggregate }
func (e *BaseDomainEvent) AggregateType() string     { return e.AggregateKind }
func (e *BaseDomainEvent) OrganizationID() uuid.UUID { return e.Organization }

// EventHandler reacts to the event types it lists
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher publishes synchronously: a handler error reaches the
// publisher so the surrounding transaction rolls back.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus routes published events to subscribed handlers
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
}

// PublishAndClear publishes the pending events of an aggregate. They are kept
// when publishing fails, and dropped when pub is nil.
func PublishAndClear(ctx context.Context, pub EventPublisher, agg interface {
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}) error {
	if events := agg.GetDomainEvents(); pub != nil && len(events) > 0 {
		if err := pub.Publish(ctx, events...); err != nil {
			return err
		}
	}
	agg.ClearDomainEvents()
	return nil
}
