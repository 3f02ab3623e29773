// Package events carries the ledger's domain event stream. Services emit an
// Event for every state change they commit; sinks fan the stream out to logs,
// test recorders, or Kafka. Keep the Event transport-agnostic.
package events

import (
	"github.com/google/uuid"

	"lifeledger/pkg/domain"
)

// Topic partitions the stream by entity family.
type Topic string

const (
	TopicBlood   Topic = "blood"
	TopicRequest Topic = "request"
)

// Action names what happened to the entity.
type Action string

const (
	// Blood unit actions
	ActionUnitRegistered    Action = "unit_registered"
	ActionUnitAllocated     Action = "unit_allocated"
	ActionAllocationCancel  Action = "allocation_cancelled"
	ActionTransferInitiated Action = "transfer_initiated"
	ActionDeliveryConfirmed Action = "delivery_confirmed"
	ActionUnitExpired       Action = "unit_expired"
	ActionUnitWithdrawn     Action = "unit_withdrawn"
	ActionUnitStatusSet     Action = "unit_status_set"

	// Request actions
	ActionRequestCreated   Action = "request_created"
	ActionRequestApproved  Action = "request_approved"
	ActionRequestRejected  Action = "request_rejected"
	ActionRequestCancelled Action = "request_cancelled"
	ActionUnitsAssigned    Action = "units_assigned"
	ActionRequestFulfilled Action = "request_fulfilled"
	ActionRequestCompleted Action = "request_completed"
	ActionRequestStatusSet Action = "request_status_set"
)

// Event is one committed state change.
type Event struct {
	ID         uuid.UUID
	Topic      Topic
	Action     Action
	EntityID   uint64
	Actor      domain.Address
	FromStatus string
	ToStatus   string
	Timestamp  uint64
	// Fields carries action-specific extras (reason, hospital, unit ids).
	Fields map[string]string
}

// New builds an Event with a fresh ID.
func New(topic Topic, action Action, entityID uint64, actor domain.Address, ts uint64) Event {
	return Event{
		ID:        uuid.New(),
		Topic:     topic,
		Action:    action,
		EntityID:  entityID,
		Actor:     actor,
		Timestamp: ts,
	}
}

// WithTransition annotates the event with the status edge it records.
func (e Event) WithTransition(from, to string) Event {
	e.FromStatus = from
	e.ToStatus = to
	return e
}

// WithField attaches one action-specific extra.
func (e Event) WithField(key, value string) Event {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[key] = value
	return e
}
