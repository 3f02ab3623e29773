// Package validation holds the pure input validators shared by the inventory
// and requests services. Every validator is parameterized by the canonical
// config.Policy and the current ledger time; none touches storage, so the
// services can run them all before committing any state.
package validation

import (
	"strings"

	"lifeledger/internal/platform/config"
	dErrors "lifeledger/pkg/domain-errors"
	"lifeledger/pkg/domain"
)

// UnitQuantity checks a single blood unit's volume against the collection
// bounds (a unit is one donation bag, not an order).
func UnitQuantity(p config.Policy, ml uint32) error {
	if ml < p.MinUnitQuantityML || ml > p.MaxUnitQuantityML {
		return dErrors.Newf(dErrors.CodeInvalidQuantity,
			"unit quantity must be between %d and %d ml, got %d",
			p.MinUnitQuantityML, p.MaxUnitQuantityML, ml)
	}
	return nil
}

// RequestQuantity checks a hospital order's total volume, which may span
// multiple units.
func RequestQuantity(p config.Policy, ml uint32) error {
	if ml < p.MinRequestQuantityML || ml > p.MaxRequestQuantityML {
		return dErrors.Newf(dErrors.CodeInvalidQuantity,
			"request quantity must be between %d and %d ml, got %d",
			p.MinRequestQuantityML, p.MaxRequestQuantityML, ml)
	}
	return nil
}

// Expiration checks a unit's expiry timestamp against the shelf-life window.
// Both bounds are inclusive: exactly MinShelfLife or MaxShelfLife out is valid.
func Expiration(p config.Policy, now, expiration uint64) error {
	minExp := now + uint64(p.MinShelfLife.Seconds())
	maxExp := now + uint64(p.MaxShelfLife.Seconds())
	if expiration < minExp {
		return dErrors.Newf(dErrors.CodeInvalidExpiration,
			"expiration must be at least %s from now", p.MinShelfLife)
	}
	if expiration > maxExp {
		return dErrors.Newf(dErrors.CodeInvalidExpiration,
			"expiration must be at most %s from now", p.MaxShelfLife)
	}
	return nil
}

// RequiredBy checks a request deadline against the urgency lead time and the
// maximum scheduling window. The deadline must leave at least the lead time
// for the urgency level and may not be further out than the window.
func RequiredBy(p config.Policy, now, requiredBy uint64, urgency domain.UrgencyLevel) error {
	var lead uint64
	switch urgency {
	case domain.UrgencyCritical:
		lead = uint64(p.LeadTimeCritical.Seconds())
	case domain.UrgencyUrgent:
		lead = uint64(p.LeadTimeUrgent.Seconds())
	case domain.UrgencyNormal:
		lead = uint64(p.LeadTimeNormal.Seconds())
	default:
		return dErrors.New(dErrors.CodeInvalidStatus, "unknown urgency level: "+urgency.String())
	}

	if requiredBy < now+lead {
		return dErrors.Newf(dErrors.CodeInvalidRequiredBy,
			"required_by must be at least %d seconds out for %s urgency", lead, urgency)
	}
	if requiredBy > now+uint64(p.MaxRequestWindow.Seconds()) {
		return dErrors.Newf(dErrors.CodeInvalidRequiredBy,
			"required_by may not exceed %s from now", p.MaxRequestWindow)
	}
	return nil
}

// DeliveryAddress checks the free-text delivery destination.
func DeliveryAddress(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return dErrors.New(dErrors.CodeInvalidDeliveryAddress, "delivery address cannot be empty")
	}
	return nil
}

// BloodType checks that the value names one of the eight ABO/Rh groups.
func BloodType(bt domain.BloodType) error {
	if !bt.Valid() {
		return dErrors.New(dErrors.CodeInvalidStatus, "unknown blood type: "+bt.String())
	}
	return nil
}

// Limit clamps a paginated page size to the query policy: zero or negative
// falls back to the default, anything above the cap is capped. Used by the
// request surface's limit/offset queries.
func Limit(p config.Policy, requested int) int {
	if requested <= 0 {
		return p.DefaultQueryLimit
	}
	if requested > p.MaxQueryLimit {
		return p.MaxQueryLimit
	}
	return requested
}

// MaxResults normalizes an inventory max-results cap: zero means no cap and
// every match is returned.
func MaxResults(requested int) int {
	if requested < 0 {
		return 0
	}
	return requested
}
