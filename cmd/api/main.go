package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tripleclub/travel-group-api/internal/adapters/httpapi"
	"github.com/tripleclub/travel-group-api/internal/adapters/memory"
	postgres "github.com/tripleclub/travel-group-api/internal/adapters/postgres"
	pggroupstore "github.com/tripleclub/travel-group-api/internal/adapters/postgres/groupstore"
	pgitinerarystore "github.com/tripleclub/travel-group-api/internal/adapters/postgres/itinerarystore"
	pgjoinapplystore "github.com/tripleclub/travel-group-api/internal/adapters/postgres/joinapplystore"
	pgmembershipstore "github.com/tripleclub/travel-group-api/internal/adapters/postgres/membershipstore"
	pguserstore "github.com/tripleclub/travel-group-api/internal/adapters/postgres/userstore"
	"github.com/tripleclub/travel-group-api/internal/app/groups"
	"github.com/tripleclub/travel-group-api/internal/app/joins"
	"github.com/tripleclub/travel-group-api/internal/app/travels"
	"github.com/tripleclub/travel-group-api/internal/app/users"
	platformclock "github.com/tripleclub/travel-group-api/internal/platform/clock"
	"github.com/tripleclub/travel-group-api/internal/platform/config"
	groupstoreport "github.com/tripleclub/travel-group-api/internal/ports/out/groupstore"
	itinerarystoreport "github.com/tripleclub/travel-group-api/internal/ports/out/itinerarystore"
	joinapplystoreport "github.com/tripleclub/travel-group-api/internal/ports/out/joinapplystore"
	membershipstoreport "github.com/tripleclub/travel-group-api/internal/ports/out/membershipstore"
	userstoreport "github.com/tripleclub/travel-group-api/internal/ports/out/userstore"
)

func main() {
	// Local workflows keep settings in .env; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log config: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	var (
		groupStore      groupstoreport.Store
		membershipStore membershipstoreport.Store
		joinApplyStore  joinapplystoreport.Store
		userStore       userstoreport.Store
		itineraryStore  itinerarystoreport.Store
		cleanup         func()
	)

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		if err := postgres.Migrate(cfg.Database.URL); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
		pool, err := postgres.NewPool(context.Background(), cfg.Database.URL, postgres.PoolOptions{})
		if err != nil {
			log.Fatal("open postgres pool", zap.Error(err))
		}
		cleanup = pool.Close

		groupStore = pggroupstore.NewStore(pool)
		membershipStore = pgmembershipstore.NewStore(pool)
		joinApplyStore = pgjoinapplystore.NewStore(pool)
		userStore = pguserstore.NewStore(pool)
		itineraryStore = pgitinerarystore.NewStore(pool)
	default:
		store := memory.New()
		groupStore = store.Groups()
		membershipStore = store.Memberships()
		joinApplyStore = store.JoinApplies()
		userStore = store.Users()
		itineraryStore = store.Itineraries()
	}
	if cleanup != nil {
		defer cleanup()
	}

	clk := platformclock.NewSystemClock()

	api := httpapi.NewServer(
		groups.NewService(groupStore, membershipStore, userStore, clk),
		joins.NewService(groupStore, joinApplyStore, membershipStore, userStore, clk),
		travels.NewService(itineraryStore, groupStore, membershipStore, userStore, clk),
		users.NewService(userStore),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           httpapi.NewRouter(api, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("api listening", zap.String("addr", cfg.Server.Addr()), zap.String("backend", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
