package domain

import dErrors "lifeledger/pkg/domain-errors"

// RequestStatus is the lifecycle state of a blood request.
//
// Transitions:
//
//	Pending    -> Approved | Rejected | Cancelled
//	Approved   -> InProgress | Fulfilled | Cancelled
//	InProgress -> Fulfilled | Cancelled
//	Fulfilled  -> Completed (only when the completion stage is enabled)
//	Rejected, Cancelled, Completed are terminal.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusApproved   RequestStatus = "approved"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusFulfilled  RequestStatus = "fulfilled"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusRejected   RequestStatus = "rejected"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:    {RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled},
	RequestStatusApproved:   {RequestStatusInProgress, RequestStatusFulfilled, RequestStatusCancelled},
	RequestStatusInProgress: {RequestStatusFulfilled, RequestStatusCancelled},
	RequestStatusFulfilled:  nil, // Completed edge is gated by configuration, see CanTransitionTo
	RequestStatusCompleted:  nil,
	RequestStatusRejected:   nil,
	RequestStatusCancelled:  nil,
}

// ParseRequestStatus constructs a RequestStatus from external input.
func ParseRequestStatus(s string) (RequestStatus, error) {
	st := RequestStatus(s)
	if _, ok := requestTransitions[st]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidStatus, "unknown request status: "+s)
	}
	return st, nil
}

func (s RequestStatus) String() string { return string(s) }

// Valid reports whether the value names a known status.
func (s RequestStatus) Valid() bool {
	_, ok := requestTransitions[s]
	return ok
}

// IsTerminal reports whether no further transition is permitted. When the
// completion stage is disabled, Fulfilled is terminal.
func (s RequestStatus) IsTerminal(completionStage bool) bool {
	switch s {
	case RequestStatusRejected, RequestStatusCancelled, RequestStatusCompleted:
		return true
	case RequestStatusFulfilled:
		return !completionStage
	}
	return false
}

// CanTransitionTo reports whether the edge s -> next is legal. The
// Fulfilled -> Completed edge exists only when completionStage is set.
func (s RequestStatus) CanTransitionTo(next RequestStatus, completionStage bool) bool {
	if s == RequestStatusFulfilled && next == RequestStatusCompleted {
		return completionStage
	}
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive reports whether the request can still be modified or fulfilled.
func (s RequestStatus) IsActive(completionStage bool) bool {
	return !s.IsTerminal(completionStage)
}

// CanCancel reports whether a cancellation is permitted from this status.
func (s RequestStatus) CanCancel() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusInProgress:
		return true
	}
	return false
}
