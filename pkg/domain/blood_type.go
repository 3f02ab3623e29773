package domain

import dErrors "lifeledger/pkg/domain-errors"

// BloodType is a domain value covering the eight ABO x Rh groups.
// Invariant: the value must be one of the supported groups.
//
// Usage: construct via ParseBloodType at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type BloodType string

// Supported blood groups.
const (
	BloodTypeAPositive  BloodType = "A+"
	BloodTypeANegative  BloodType = "A-"
	BloodTypeBPositive  BloodType = "B+"
	BloodTypeBNegative  BloodType = "B-"
	BloodTypeABPositive BloodType = "AB+"
	BloodTypeABNegative BloodType = "AB-"
	BloodTypeOPositive  BloodType = "O+"
	BloodTypeONegative  BloodType = "O-"
)

// validBloodTypes is the single source of truth for valid groups.
var validBloodTypes = map[BloodType]bool{
	BloodTypeAPositive:  true,
	BloodTypeANegative:  true,
	BloodTypeBPositive:  true,
	BloodTypeBNegative:  true,
	BloodTypeABPositive: true,
	BloodTypeABNegative: true,
	BloodTypeOPositive:  true,
	BloodTypeONegative:  true,
}

// ParseBloodType constructs a BloodType from external input.
func ParseBloodType(s string) (BloodType, error) {
	bt := BloodType(s)
	if !validBloodTypes[bt] {
		return "", dErrors.New(dErrors.CodeInvalidStatus, "unknown blood type: "+s)
	}
	return bt, nil
}

// Valid reports whether the value is one of the supported groups. Parsed values
// are always valid; this exists for symmetry with the other validators.
func (b BloodType) Valid() bool { return validBloodTypes[b] }

func (b BloodType) String() string { return string(b) }

// BloodTypes returns all supported groups in a stable order.
func BloodTypes() []BloodType {
	return []BloodType{
		BloodTypeAPositive, BloodTypeANegative,
		BloodTypeBPositive, BloodTypeBNegative,
		BloodTypeABPositive, BloodTypeABNegative,
		BloodTypeOPositive, BloodTypeONegative,
	}
}
