package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestStatusTransitionTable(t *testing.T) {
	all := []RequestStatus{
		RequestStatusPending, RequestStatusApproved, RequestStatusInProgress,
		RequestStatusFulfilled, RequestStatusCompleted, RequestStatusRejected,
		RequestStatusCancelled,
	}
	allowed := map[RequestStatus]map[RequestStatus]bool{
		RequestStatusPending:    {RequestStatusApproved: true, RequestStatusRejected: true, RequestStatusCancelled: true},
		RequestStatusApproved:   {RequestStatusInProgress: true, RequestStatusFulfilled: true, RequestStatusCancelled: true},
		RequestStatusInProgress: {RequestStatusFulfilled: true, RequestStatusCancelled: true},
	}

	for _, from := range all {
		for _, to := range all {
			got := from.CanTransitionTo(to, false)
			want := allowed[from][to]
			assert.Equal(t, want, got, "%s -> %s (completion disabled)", from, to)
		}
	}
}

// TestCompletionStageEdge verifies Fulfilled -> Completed exists only when the
// post-fulfillment completion stage is enabled.
func TestCompletionStageEdge(t *testing.T) {
	assert.False(t, RequestStatusFulfilled.CanTransitionTo(RequestStatusCompleted, false))
	assert.True(t, RequestStatusFulfilled.CanTransitionTo(RequestStatusCompleted, true))

	assert.True(t, RequestStatusFulfilled.IsTerminal(false))
	assert.False(t, RequestStatusFulfilled.IsTerminal(true))
	assert.True(t, RequestStatusCompleted.IsTerminal(true))
}

func TestRequestStatusCanCancel(t *testing.T) {
	assert.True(t, RequestStatusPending.CanCancel())
	assert.True(t, RequestStatusApproved.CanCancel())
	assert.True(t, RequestStatusInProgress.CanCancel())
	assert.False(t, RequestStatusFulfilled.CanCancel())
	assert.False(t, RequestStatusCompleted.CanCancel())
	assert.False(t, RequestStatusRejected.CanCancel())
	assert.False(t, RequestStatusCancelled.CanCancel())
}

func TestUrgencyOrdering(t *testing.T) {
	assert.True(t, UrgencyCritical.HigherThan(UrgencyUrgent))
	assert.True(t, UrgencyUrgent.HigherThan(UrgencyNormal))
	assert.False(t, UrgencyNormal.HigherThan(UrgencyCritical))
	assert.Equal(t, 3, UrgencyCritical.Weight())
	assert.Equal(t, 2, UrgencyUrgent.Weight())
	assert.Equal(t, 1, UrgencyNormal.Weight())
}

func TestParseBloodType(t *testing.T) {
	for _, raw := range []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"} {
		bt, err := ParseBloodType(raw)
		assert.NoError(t, err)
		assert.True(t, bt.Valid())
	}
	_, err := ParseBloodType("C+")
	assert.Error(t, err)
}
