package httptransport

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lifeledger/internal/platform/identity"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Registry  *RegistryHandler
	Inventory *InventoryHandler
	Requests  *RequestsHandler
	Tokens    *identity.TokenService
	Logger    *log.Logger
}

// NewRouter wires the public API. Every /v1 route sits behind bearer
// authentication; /healthz and /metrics stay open for probes and scrapers.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recovery(d.Logger))
	r.Use(Tracing)
	r.Use(Logging(d.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(api chi.Router) {
		api.Use(timeout(30 * time.Second))
		api.Use(RequireAuth(d.Tokens, d.Logger))
		d.Registry.Register(api)
		d.Inventory.Register(api)
		d.Requests.Register(api)
	})

	return r
}

func timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, `{"error":"timeout"}`)
	}
}
