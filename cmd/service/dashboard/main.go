package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/rschio/riskdash/internal/core/customer"
	"github.com/rschio/riskdash/internal/core/customer/store/customerapi"
	"github.com/rschio/riskdash/internal/core/dashboard"
	"github.com/rschio/riskdash/internal/handlers/dashboardgrp"
	"github.com/rschio/riskdash/internal/logger"
	"github.com/rschio/riskdash/internal/trace"
	"golang.org/x/time/rate"
)

var build = "develop"

const service = "DASHBOARD"

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
			Port            int           `conf:"default:3000"`
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:30s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
		}
		Backend struct {
			Host    string        `conf:"default:http://localhost:5000"`
			Timeout time.Duration `conf:"default:10s"`
		}
		Log struct {
			Level string `conf:"default:info"`
		}
		Refresh struct {
			Schedule string        `conf:"help:cron spec for periodic reloads; empty disables"`
			Timeout  time.Duration `conf:"default:30s"`
		}
		StatusUpdates struct {
			Rate  float64 `conf:"default:0,help:status changes per second; 0 disables the limit"`
			Burst int     `conf:"default:5"`
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
		Service:        "dashboard",
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
	// Backend Support

	log.Info("startup", "status", "initializing backend support", "host", cfg.Backend.Host)

	backend, err := customerapi.NewStore(log, customerapi.Config{
		Host:    cfg.Backend.Host,
		Timeout: cfg.Backend.Timeout,
	})
	if err != nil {
		return fmt.Errorf("configuring backend: %w", err)
	}

	state := dashboard.NewState()
	core := customer.NewCore(log, backend, state)

	// The dashboard serves the failed state when the backend is down; the
	// operator retries with a refresh.
	loadCtx, cancel := context.WithTimeout(ctx, cfg.Refresh.Timeout)
	if err := backend.StatusCheck(loadCtx); err != nil {
		log.Warn("startup", "status", "backend not ready", "host", cfg.Backend.Host, "ERROR", err)
	}
	if err := state.Refresh(loadCtx, core); err != nil {
		log.Error("startup", "status", "initial load failed", "ERROR", err)
	}
	cancel()

	if cfg.Refresh.Schedule != "" {
		log.Info("startup", "status", "scheduling refresh", "schedule", cfg.Refresh.Schedule)

		c, err := dashboard.Schedule(log, cfg.Refresh.Schedule, cfg.Refresh.Timeout, state, core)
		if err != nil {
			return fmt.Errorf("scheduling refresh: %w", err)
		}
		defer func() {
			log.Info("shutdown", "status", "stopping scheduled refresh")
			<-c.Stop().Done()
		}()
	}

	// =========================================================================
	// Start API Service

	log.Info("startup", "status", "initializing DASHBOARD API support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	var limiter *rate.Limiter
	if cfg.StatusUpdates.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.StatusUpdates.Rate), cfg.StatusUpdates.Burst)
	}

	mux := dashboardgrp.APIMux(dashboardgrp.Config{
		Log:           log,
		Tracer:        tracer,
		Core:          core,
		State:         state,
		StatusLimiter: limiter,
	})

	api := http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(log.Handler(), slog.LevelError),
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
