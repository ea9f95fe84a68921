package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	_ "github.com/jackc/pgx/v5/stdlib" // Postgres stdlib driver, used for migrations.
	"github.com/rschio/riskdash/internal/core/registry"
	"github.com/rschio/riskdash/internal/core/registry/store/alertbus"
	"github.com/rschio/riskdash/internal/core/registry/store/registrydb"
	"github.com/rschio/riskdash/internal/data/dbschema"
	db "github.com/rschio/riskdash/internal/data/dbsql/pgx"
	"github.com/rschio/riskdash/internal/data/dlock"
	"github.com/rschio/riskdash/internal/data/rdb"
	"github.com/rschio/riskdash/internal/handlers/registrygrp"
	"github.com/rschio/riskdash/internal/logger"
	"github.com/rschio/riskdash/internal/trace"
)

var build = "develop"

const service = "REGISTRY"

func main() {
	log := logger.New(os.Stdout, "info", service)

	if err := run(log); err != nil {
		log.Error("startup", "ERROR", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx := context.Background()

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Env string `conf:"default:DEV"`
		Web struct {
			Port            int           `conf:"default:5000"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
		}
		Log struct {
			Level string `conf:"default:info"`
		}
		DB struct {
			User         string `conf:"default:postgres"`
			Password     string `conf:"default:postgres,mask"`
			Host         string `conf:"default:localhost:5432"`
			Name         string `conf:"default:postgres"`
			MaxOpenConns int    `conf:"default:10"`
			DisableTLS   bool   `conf:"default:true"`
			Seed         bool   `conf:"default:true"`
		}
		Redis struct {
			Addr     string `conf:"default:localhost:6379"`
			Password string `conf:"mask"`
			DB       int    `conf:"default:0"`
		}
		Lock struct {
			Expiry time.Duration `conf:"default:8s"`
			Tries  int           `conf:"default:32"`
		}
		Alerts struct {
			Stream string `conf:"default:riskdash:alerts"`
			MaxLen int64  `conf:"default:10000"`
		}
		Tempo struct {
			Host        string  `conf:"default:localhost:4317"`
			Probability float64 `conf:"default:0.05"`
			Discard     bool    `conf:"default:true"`
		}
	}{
		Version: conf.Version{
			Build: build,
		},
	}

	help, err := conf.Parse(service, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}
	log = logger.New(os.Stdout, cfg.Log.Level, service)

	// =========================================================================
	// App Starting

	log.Info("starting service", "version", build)
	defer log.Info("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Info("startup", "config", out)

	// =========================================================================
	// Start Tracing Support

	log.Info("startup", "status", "initializing tracing support")

	tracer, shutdownTracing, err := trace.Install(ctx, trace.Config{
		Env:            cfg.Env,
		Endpoint:       cfg.Tempo.Host,
		Service:        "registry",
		SampleFraction: cfg.Tempo.Probability,
		DiscardTraces:  cfg.Tempo.Discard,
	})
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownTracing(ctx)
	}()

	// =========================================================================
	// Database Support

	log.Info("startup", "status", "initializing database support", "host", cfg.DB.Host)

	dbCfg := db.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		DisableTLS:   cfg.DB.DisableTLS,
	}
	database, err := db.Open(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		log.Info("shutdown", "status", "stopping database support", "host", cfg.DB.Host)
		database.Close()
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.StatusCheck(ctxWithTimeout, database); err != nil {
		return fmt.Errorf("database not health: %w", err)
	}

	if err := migrate(ctxWithTimeout, dbCfg, cfg.DB.Seed); err != nil {
		return err
	}

	// =========================================================================
	// Redis Support

	log.Info("startup", "status", "initializing redis support", "addr", cfg.Redis.Addr)

	client := rdb.Open(rdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		log.Info("shutdown", "status", "stopping redis support", "addr", cfg.Redis.Addr)
		client.Close()
	}()

	if err := rdb.StatusCheck(ctxWithTimeout, client); err != nil {
		return fmt.Errorf("redis not health: %w", err)
	}

	// =========================================================================
	// Start API Service

	log.Info("startup", "status", "initializing REGISTRY API support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	core := registry.NewCore(log,
		registrydb.NewStore(log, database),
		dlock.New(client, dlock.Config{Expiry: cfg.Lock.Expiry, Tries: cfg.Lock.Tries}),
		alertbus.New(log, client, alertbus.Config{Stream: cfg.Alerts.Stream, MaxLen: cfg.Alerts.MaxLen}),
	)

	mux := registrygrp.APIMux(registrygrp.Config{
		Log:    log,
		Tracer: tracer,
		Core:   core,
		Checks: map[string]registrygrp.Checker{
			"database": func(ctx context.Context) error { return database.Ping(ctx) },
			"redis":    func(ctx context.Context) error { return client.Ping(ctx).Err() },
		},
	})

	api := http.Server{
		Addr:     fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:  mux,
		ErrorLog: slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Info("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func migrate(ctx context.Context, cfg db.Config, seed bool) error {
	stdDB, err := sql.Open("pgx", db.ConnString(cfg))
	if err != nil {
		return fmt.Errorf("failed to open DB for migration: %w", err)
	}
	defer stdDB.Close()

	if err := dbschema.Migrate(stdDB); err != nil {
		return fmt.Errorf("migrating error: %w", err)
	}

	if !seed {
		return nil
	}

	if err := dbschema.Seed(ctx, stdDB); err != nil {
		return fmt.Errorf("seeding error: %w", err)
	}

	return nil
}
