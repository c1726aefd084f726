package outbox

import (
	"encoding/json"
	"fmt"

	"github.com/aydindemir/driftops-backend/pkg/config"
	"github.com/aydindemir/driftops-backend/pkg/db/models"
	"github.com/aydindemir/driftops-backend/pkg/enums"
	"github.com/aydindemir/driftops-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.EventsTopic == "" {
		return nil, fmt.Errorf("events topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	topic := cfg.EventsTopic

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventSlotReleased,
			AggregateType:  enums.AggregateBooking,
			PayloadFactory: func() interface{} { return &payloads.SlotReleasedEvent{} },
		},
		{
			EventType:      enums.EventEquipmentFreed,
			AggregateType:  enums.AggregateRental,
			PayloadFactory: func() interface{} { return &payloads.EquipmentFreedEvent{} },
		},
		{
			EventType:      enums.EventPackageLessonsDeleted,
			AggregateType:  enums.AggregatePackage,
			PayloadFactory: func() interface{} { return &payloads.PackageLessonsDeletedEvent{} },
		},
		{
			EventType:      enums.EventPackageChargedUsed,
			AggregateType:  enums.AggregatePackage,
			PayloadFactory: func() interface{} { return &payloads.PackageChargedUsedEvent{} },
		},
		{
			EventType:      enums.EventTransactionReversed,
			AggregateType:  enums.AggregateTransaction,
			PayloadFactory: func() interface{} { return &payloads.TransactionReversedEvent{} },
		},
		{
			EventType:      enums.EventTransactionHardDeleted,
			AggregateType:  enums.AggregateTransaction,
			PayloadFactory: func() interface{} { return &payloads.TransactionHardDeletedEvent{} },
		},
		{
			EventType:      enums.EventWalletResynced,
			AggregateType:  enums.AggregateWallet,
			PayloadFactory: func() interface{} { return &payloads.WalletResyncedEvent{} },
		},
	} {
		desc.Topic = topic
		reg.entries[desc.EventType] = desc
	}

	return reg, nil
}

// Resolve decodes an outbox row into its typed payload.
func (r *EventRegistry) Resolve(row models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[row.EventType]
	if !ok {
		return nil, NonRetryableError{Err: fmt.Errorf("no descriptor for event type %q", row.EventType)}
	}
	if row.AggregateType != desc.AggregateType {
		return nil, NonRetryableError{Err: fmt.Errorf("aggregate mismatch for %s: got %q want %q", row.EventType, row.AggregateType, desc.AggregateType)}
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		return nil, NonRetryableError{Err: fmt.Errorf("decode envelope: %w", err)}
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NonRetryableError{Err: fmt.Errorf("decode payload for %s: %w", row.EventType, err)}
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}
