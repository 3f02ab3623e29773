package domain

import dErrors "lifeledger/pkg/domain-errors"

// UrgencyLevel classifies a blood request's priority. It drives both the
// fulfillment queue ordering (Critical > Urgent > Normal) and the minimum lead
// time a hospital must allow before required_by.
type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "critical"
	UrgencyUrgent   UrgencyLevel = "urgent"
	UrgencyNormal   UrgencyLevel = "normal"
)

// urgencyWeights orders levels for sorting; higher sorts first.
var urgencyWeights = map[UrgencyLevel]int{
	UrgencyCritical: 3,
	UrgencyUrgent:   2,
	UrgencyNormal:   1,
}

// ParseUrgencyLevel constructs an UrgencyLevel from external input.
func ParseUrgencyLevel(s string) (UrgencyLevel, error) {
	u := UrgencyLevel(s)
	if _, ok := urgencyWeights[u]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidStatus, "unknown urgency level: "+s)
	}
	return u, nil
}

func (u UrgencyLevel) String() string { return string(u) }

// Valid reports whether the value names a known level.
func (u UrgencyLevel) Valid() bool {
	_, ok := urgencyWeights[u]
	return ok
}

// Weight returns the sort weight (Critical 3, Urgent 2, Normal 1).
func (u UrgencyLevel) Weight() int { return urgencyWeights[u] }

// HigherThan reports whether u outranks other in the fulfillment queue.
func (u UrgencyLevel) HigherThan(other UrgencyLevel) bool {
	return u.Weight() > other.Weight()
}
