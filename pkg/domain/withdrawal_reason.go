package domain

import dErrors "lifeledger/pkg/domain-errors"

// WithdrawalReason records why a unit was discarded from inventory.
type WithdrawalReason string

const (
	WithdrawalUsed         WithdrawalReason = "used"
	WithdrawalContaminated WithdrawalReason = "contaminated"
	WithdrawalDamaged      WithdrawalReason = "damaged"
	WithdrawalOther        WithdrawalReason = "other"
)

var validWithdrawalReasons = map[WithdrawalReason]bool{
	WithdrawalUsed:         true,
	WithdrawalContaminated: true,
	WithdrawalDamaged:      true,
	WithdrawalOther:        true,
}

// ParseWithdrawalReason constructs a WithdrawalReason from external input.
func ParseWithdrawalReason(s string) (WithdrawalReason, error) {
	r := WithdrawalReason(s)
	if !validWithdrawalReasons[r] {
		return "", dErrors.New(dErrors.CodeInvalidStatus, "unknown withdrawal reason: "+s)
	}
	return r, nil
}

func (r WithdrawalReason) String() string { return string(r) }

// Valid reports whether the value names a known reason.
func (r WithdrawalReason) Valid() bool { return validWithdrawalReasons[r] }
