package validation

import (
	"testing"

	"lifeledger/internal/platform/config"
	dErrors "lifeledger/pkg/domain-errors"
	"lifeledger/pkg/domain"

	"github.com/stretchr/testify/assert"
)

const now uint64 = 1_700_000_000

func TestUnitQuantityBounds(t *testing.T) {
	p := config.DefaultPolicy()

	tests := []struct {
		name string
		ml   uint32
		ok   bool
	}{
		{"below minimum", 49, false},
		{"exact minimum", 50, true},
		{"mid range", 350, true},
		{"exact maximum", 500, true},
		{"above maximum", 501, false},
		{"zero", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := UnitQuantity(p, tc.ml)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidQuantity))
			}
		})
	}
}

func TestRequestQuantityBounds(t *testing.T) {
	p := config.DefaultPolicy()

	assert.NoError(t, RequestQuantity(p, 50))
	assert.NoError(t, RequestQuantity(p, 5000))
	assert.True(t, dErrors.HasCode(RequestQuantity(p, 49), dErrors.CodeInvalidQuantity))
	assert.True(t, dErrors.HasCode(RequestQuantity(p, 5001), dErrors.CodeInvalidQuantity))
}

func TestExpirationWindow(t *testing.T) {
	p := config.DefaultPolicy()
	day := uint64(24 * 60 * 60)

	tests := []struct {
		name string
		exp  uint64
		ok   bool
	}{
		{"one second under a day", now + day - 1, false},
		{"exactly one day", now + day, true},
		{"exactly 42 days", now + 42*day, true},
		{"one second over 42 days", now + 42*day + 1, false},
		{"already past", now - 1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Expiration(p, now, tc.exp)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidExpiration))
			}
		})
	}
}

func TestRequiredByLeadTimes(t *testing.T) {
	p := config.DefaultPolicy()
	hour := uint64(60 * 60)
	day := 24 * hour

	tests := []struct {
		name       string
		urgency    domain.UrgencyLevel
		requiredBy uint64
		ok         bool
	}{
		{"critical at lead time", domain.UrgencyCritical, now + hour, true},
		{"critical under lead time", domain.UrgencyCritical, now + hour - 1, false},
		{"urgent at lead time", domain.UrgencyUrgent, now + 4*hour, true},
		{"urgent under lead time", domain.UrgencyUrgent, now + 4*hour - 1, false},
		{"normal at lead time", domain.UrgencyNormal, now + day, true},
		{"normal under lead time", domain.UrgencyNormal, now + day - 1, false},
		{"at window edge", domain.UrgencyCritical, now + 30*day, true},
		{"beyond window", domain.UrgencyCritical, now + 30*day + 1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := RequiredBy(p, now, tc.requiredBy, tc.urgency)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidRequiredBy))
			}
		})
	}
}

func TestRequiredByUnknownUrgency(t *testing.T) {
	p := config.DefaultPolicy()
	err := RequiredBy(p, now, now+100000, domain.UrgencyLevel("whenever"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidStatus))
}

func TestDeliveryAddress(t *testing.T) {
	assert.NoError(t, DeliveryAddress("123 Hospital Way"))
	assert.True(t, dErrors.HasCode(DeliveryAddress(""), dErrors.CodeInvalidDeliveryAddress))
	assert.True(t, dErrors.HasCode(DeliveryAddress("   "), dErrors.CodeInvalidDeliveryAddress))
}

func TestLimitClamp(t *testing.T) {
	p := config.DefaultPolicy()

	assert.Equal(t, 50, Limit(p, 0))
	assert.Equal(t, 50, Limit(p, -5))
	assert.Equal(t, 25, Limit(p, 25))
	assert.Equal(t, 200, Limit(p, 200))
	assert.Equal(t, 200, Limit(p, 1000))
}

func TestMaxResultsZeroIsUncapped(t *testing.T) {
	assert.Equal(t, 0, MaxResults(0))
	assert.Equal(t, 0, MaxResults(-5))
	assert.Equal(t, 25, MaxResults(25))
	assert.Equal(t, 1000, MaxResults(1000))
}
