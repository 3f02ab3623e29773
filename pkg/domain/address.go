package domain

import (
	"strings"

	dErrors "lifeledger/pkg/domain-errors"
)

// Address identifies a participant on the ledger (admin, blood bank, hospital,
// donor). The host's authentication primitive proves control of an Address; this
// type only enforces non-emptiness at trust boundaries.
type Address string

// ParseAddress constructs an Address from external input.
func ParseAddress(s string) (Address, error) {
	if strings.TrimSpace(s) == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "address cannot be empty")
	}
	return Address(s), nil
}

func (a Address) String() string { return string(a) }

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == "" }
