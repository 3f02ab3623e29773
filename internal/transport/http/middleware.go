package httptransport

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lifeledger/internal/platform/identity"
	"lifeledger/pkg/requestcontext"
)

// RequestID assigns a correlation ID to every request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), id)))
	})
}

// Recovery converts panics into 500s instead of dropping the connection.
func Recovery(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Printf("panic recovered path=%s panic=%v", r.URL.Path, rec)
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Tracing opens an otel span per request.
func Tracing(next http.Handler) http.Handler {
	tracer := otel.Tracer("lifeledger/http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logging writes one line per request after it completes.
func Logging(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.Printf("%s %s status=%d duration=%s request_id=%s",
				r.Method, r.URL.Path, sw.status, time.Since(start), requestcontext.RequestID(r.Context()))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RequireAuth validates the bearer token and places the proven caller address
// in the request context; the services compare it against the claimed actor.
func RequireAuth(tokens *identity.TokenService, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.Printf("unauthorized request path=%s reason=missing_token", r.URL.Path)
				writeJSON(w, http.StatusUnauthorized, errorBody{
					Error:   "unauthorized",
					Message: "missing or invalid Authorization header",
				})
				return
			}

			addr, err := tokens.VerifyToken(token)
			if err != nil {
				logger.Printf("unauthorized request path=%s reason=invalid_token err=%v", r.URL.Path, err)
				writeJSON(w, http.StatusUnauthorized, errorBody{
					Error:   "unauthorized",
					Message: "invalid or expired token",
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(r.Context(), addr)))
		})
	}
}
