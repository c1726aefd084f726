package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateTransaction OutboxAggregateType = "transaction"
	AggregateBooking     OutboxAggregateType = "booking"
	AggregatePackage     OutboxAggregateType = "package"
	AggregateRental      OutboxAggregateType = "rental"
	AggregateWallet      OutboxAggregateType = "wallet"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateTransaction,
	AggregateBooking,
	AggregatePackage,
	AggregateRental,
	AggregateWallet,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventSlotReleased           OutboxEventType = "slot_released"
	EventEquipmentFreed         OutboxEventType = "equipment_freed"
	EventPackageLessonsDeleted  OutboxEventType = "package_lessons_deleted"
	EventPackageChargedUsed     OutboxEventType = "package_charged_used"
	EventTransactionReversed    OutboxEventType = "transaction_reversed"
	EventTransactionHardDeleted OutboxEventType = "transaction_hard_deleted"
	EventWalletResynced         OutboxEventType = "wallet_resynced"
)

var validEventTypes = []OutboxEventType{
	EventSlotReleased,
	EventEquipmentFreed,
	EventPackageLessonsDeleted,
	EventPackageChargedUsed,
	EventTransactionReversed,
	EventTransactionHardDeleted,
	EventWalletResynced,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
