package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirdesai22/lacs-verts/internal/api"
	"github.com/sirdesai22/lacs-verts/internal/config"
	"github.com/sirdesai22/lacs-verts/internal/db"
	"github.com/sirdesai22/lacs-verts/internal/elastic"
	"github.com/sirdesai22/lacs-verts/internal/identity"
	"github.com/sirdesai22/lacs-verts/internal/logging"
	"github.com/sirdesai22/lacs-verts/internal/metrics"
	"github.com/sirdesai22/lacs-verts/internal/repository"
	"github.com/sirdesai22/lacs-verts/internal/services"
	"github.com/sirdesai22/lacs-verts/internal/workers"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "lacs-verts:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store *repository.Store
		pg    *gorm.DB
	)
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close(pg)
		if err := db.Migrate(pg); err != nil {
			return err
		}
		store = repository.NewGormStore(pg, cfg.SyncEnabled())
	default:
		log.Warn(ctx, "using in-memory store; data is lost on exit")
		store = repository.NewMemoryStore()
	}

	if err := db.Seed(ctx, store.Lakes, log); err != nil {
		return err
	}

	metrics.Register()

	users := services.NewUserService(store.Users, identity.NewClient(cfg.AuthSessionURL, cfg.AuthTimeout), log)
	srv := &api.Server{
		Users:        users,
		Lakes:        services.NewLakeService(store.Lakes, users, log),
		Reports:      services.NewReportService(store.Reports, users, log),
		Awareness:    services.NewAwarenessService(store.Posts, users, log),
		Log:          log,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.SyncEnabled() {
		es, err := elastic.Connect(cfg.ElasticURL)
		if err != nil {
			return err
		}
		worker := &workers.SyncWorker{
			DB:            pg,
			ES:            es,
			Log:           log.With("component", "sync"),
			Interval:      cfg.SyncInterval,
			RetryInterval: cfg.DLQRetryInterval,
		}
		g.Go(func() error { return worker.Run(gctx) })
		g.Go(func() error {
			worker.RetryDLQ(gctx)
			return nil
		})
		srv.Sync = worker
	}

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", srv.Handler())

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           corsMiddleware.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info(gctx, "API listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver, "sync", cfg.SyncEnabled())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
