// Package identity implements the host's caller-authentication primitive.
//
// Every mutating ledger operation names the address it claims to act as; the
// Authenticator verifies that the transport-authenticated caller actually is
// that address. The HTTP envelope authenticates callers with signed JWTs and
// places the proven address in the request context; in-process tests use
// AllowAll the way the original host mocks authentication.
package identity

import (
	"context"

	dErrors "lifeledger/pkg/domain-errors"
	"lifeledger/pkg/domain"
	"lifeledger/pkg/requestcontext"
)

// Authenticator fails an operation when the caller cannot prove control of the
// claimed address. A nil error means the claim is proven.
type Authenticator interface {
	RequireCaller(ctx context.Context, claimed domain.Address) error
}

// ContextAuthenticator trusts the address the transport middleware placed in
// the request context after verifying the bearer token.
type ContextAuthenticator struct{}

func (ContextAuthenticator) RequireCaller(ctx context.Context, claimed domain.Address) error {
	proven := requestcontext.Caller(ctx)
	if proven.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "no authenticated caller")
	}
	if proven != claimed {
		return dErrors.Newf(dErrors.CodeUnauthorized,
			"caller %s cannot act as %s", proven, claimed)
	}
	return nil
}

// AllowAll accepts every claim. Test-only, mirrors the host's mocked auth mode.
type AllowAll struct{}

func (AllowAll) RequireCaller(context.Context, domain.Address) error { return nil }
