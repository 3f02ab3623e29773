// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets the authenticated caller and request ID; services and the
// identity layer read them back. Keeping this package free of net/http lets the
// core import only what it needs.
//
// Usage in services (read values):
//
//	caller := requestcontext.Caller(ctx)
//	requestID := requestcontext.RequestID(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithCaller(ctx, addr)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
package requestcontext

import (
	"context"

	"lifeledger/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	callerKey    struct{}
	requestIDKey struct{}
)

// WithCaller records the authenticated caller address in the context.
func WithCaller(ctx context.Context, addr domain.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, addr)
}

// Caller returns the authenticated caller address, or the zero Address when no
// caller has been authenticated.
func Caller(ctx context.Context) domain.Address {
	addr, _ := ctx.Value(callerKey{}).(domain.Address)
	return addr
}

// WithRequestID records a correlation ID for the current operation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation ID, or "" when unset.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
