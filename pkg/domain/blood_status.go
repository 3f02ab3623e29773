package domain

import dErrors "lifeledger/pkg/domain-errors"

// BloodStatus is the lifecycle state of a blood unit.
//
// Transitions:
//
//	Available -> Reserved | Expired | Discarded
//	Reserved  -> Available (cancel) | InTransit | Expired | Discarded
//	InTransit -> Delivered | Expired | Discarded
//	Delivered, Expired, Discarded are terminal.
type BloodStatus string

const (
	BloodStatusAvailable BloodStatus = "available"
	BloodStatusReserved  BloodStatus = "reserved"
	BloodStatusInTransit BloodStatus = "in_transit"
	BloodStatusDelivered BloodStatus = "delivered"
	BloodStatusExpired   BloodStatus = "expired"
	BloodStatusDiscarded BloodStatus = "discarded"
)

// bloodTransitions is the single source of truth for the unit state machine.
var bloodTransitions = map[BloodStatus][]BloodStatus{
	BloodStatusAvailable: {BloodStatusReserved, BloodStatusExpired, BloodStatusDiscarded},
	BloodStatusReserved:  {BloodStatusAvailable, BloodStatusInTransit, BloodStatusExpired, BloodStatusDiscarded},
	BloodStatusInTransit: {BloodStatusDelivered, BloodStatusExpired, BloodStatusDiscarded},
	BloodStatusDelivered: nil,
	BloodStatusExpired:   nil,
	BloodStatusDiscarded: nil,
}

// ParseBloodStatus constructs a BloodStatus from external input.
func ParseBloodStatus(s string) (BloodStatus, error) {
	st := BloodStatus(s)
	if _, ok := bloodTransitions[st]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidStatus, "unknown blood status: "+s)
	}
	return st, nil
}

func (s BloodStatus) String() string { return string(s) }

// Valid reports whether the value names a known status.
func (s BloodStatus) Valid() bool {
	_, ok := bloodTransitions[s]
	return ok
}

// IsTerminal reports whether no further transition is permitted.
func (s BloodStatus) IsTerminal() bool {
	return s == BloodStatusDelivered || s == BloodStatusExpired || s == BloodStatusDiscarded
}

// CanTransitionTo reports whether the edge s -> next is in the transition table.
func (s BloodStatus) CanTransitionTo(next BloodStatus) bool {
	for _, allowed := range bloodTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
