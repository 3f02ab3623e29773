// Command server runs the blood supply ledger API. Backend selection is
// driven by config: memory stores by default, Postgres/Redis/Kafka when their
// endpoints are configured.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"lifeledger/internal/history"
	"lifeledger/internal/inventory"
	"lifeledger/internal/platform/clock"
	"lifeledger/internal/platform/config"
	"lifeledger/internal/platform/httpserver"
	"lifeledger/internal/platform/identity"
	"lifeledger/internal/platform/logger"
	"lifeledger/internal/platform/metrics"
	platformredis "lifeledger/internal/platform/redis"
	"lifeledger/internal/registry"
	"lifeledger/internal/requests"
	httptransport "lifeledger/internal/transport/http"
	"lifeledger/migrations"
	"lifeledger/pkg/platform/events"
	txcontext "lifeledger/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	lg := logger.New()

	if err := run(cfg, lg); err != nil {
		lg.Fatalf("server error: %v", err)
	}
}

func run(cfg config.Server, lg *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		registryStore registry.Store = registry.NewInMemoryStore()
		unitStore     inventory.Store
		requestStore  requests.Store
		trail         history.Store
		invOpts       []inventory.Option
		reqOpts       []requests.Option
	)

	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		db.SetMaxOpenConns(25)
		db.SetConnMaxIdleTime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		if err := migrations.Apply(ctx, db); err != nil {
			return err
		}
		unitStore = inventory.NewPostgresStore(db)
		requestStore = requests.NewPostgresStore(db)
		trail = history.NewPostgresStore(db)
		invOpts = append(invOpts, inventory.WithRunner(txcontext.Postgres(db)))
		reqOpts = append(reqOpts, requests.WithRunner(txcontext.Postgres(db)))
		lg.Printf("using postgres stores")
	} else {
		unitStore = inventory.NewInMemoryStore()
		requestStore = requests.NewInMemoryStore()
		trail = history.NewInMemoryStore()
		lg.Printf("using in-memory stores")
	}

	if cfg.RedisURL != "" {
		client, err := platformredis.New(config.DefaultRedisConfig(cfg.RedisURL))
		if err != nil {
			return err
		}
		defer client.Close()
		registryStore = registry.NewRedisStore(client.Client)
		lg.Printf("using redis participant registry")
	}

	var emitter events.Emitter = events.NewLogEmitter(lg)
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaEmitter(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		emitter = events.Multi{emitter, kafka}
		lg.Printf("emitting events to kafka topic=%s", cfg.KafkaTopic)
	}

	m := metrics.New()
	auth := identity.ContextAuthenticator{}
	tokens := identity.NewTokenService(cfg.JWTSigningKey, "lifeledger")
	clk := clock.System{}

	reg := registry.NewService(registryStore, auth, lg)
	inv := inventory.NewService(unitStore, trail, reg, emitter, clk, cfg.Policy, m, lg, invOpts...)
	req := requests.NewService(requestStore, trail, reg, inv, emitter, clk, cfg.Policy, m, lg, reqOpts...)

	router := httptransport.NewRouter(httptransport.Deps{
		Registry:  httptransport.NewRegistryHandler(reg, lg),
		Inventory: httptransport.NewInventoryHandler(inv, lg),
		Requests:  httptransport.NewRequestsHandler(req, lg),
		Tokens:    tokens,
		Logger:    lg,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Printf("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		lg.Printf("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
