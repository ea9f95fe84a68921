// Package registrygrp serves the customer registry REST contract.
package registrygrp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rschio/riskdash/internal/core/customer"
	"github.com/rschio/riskdash/internal/core/registry"
	"github.com/rschio/riskdash/internal/data/dlock"
	"github.com/rschio/riskdash/internal/handlers/mid"
	"github.com/rschio/riskdash/internal/web"
	"go.opentelemetry.io/otel/trace"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// Config holds the dependencies of the registry routes.
type Config struct {
	Log    *slog.Logger
	Tracer trace.Tracer
	Core   *registry.Core

	// Checks run on every readiness request, keyed by dependency name.
	Checks map[string]Checker
}

func APIMux(cfg Config) *http.ServeMux {
	h := &Handlers{log: cfg.Log, core: cfg.Core, checks: cfg.Checks}

	mux := http.NewServeMux()
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, mid.Wrap(fn,
			mid.Web(cfg.Tracer, pattern),
			mid.Logger(cfg.Log),
			mid.Metrics(pattern),
			mid.Panics(cfg.Log),
		))
	}

	handle("GET /customers", h.QueryAll)
	handle("GET /customers/{id}", h.QueryByID)
	handle("PUT /customers/{id}/status", h.UpdateStatus)
	handle("GET /customers/{id}/alerts", h.QueryAlerts)
	handle("POST /alerts", h.RecordAlert)
	handle("GET /readiness", h.Readiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

type Handlers struct {
	log    *slog.Logger
	core   *registry.Core
	checks map[string]Checker
}

func (h *Handlers) QueryAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cs, err := h.core.QueryAll(ctx)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}

	respond(ctx, h.log, w, toCustomers(cs), http.StatusOK)
}

func (h *Handlers) QueryByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	c, err := h.core.QueryByID(ctx, r.PathValue("id"))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}

	respond(ctx, h.log, w, toCustomer(c), http.StatusOK)
}

func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateStatusReq
	if err := web.Decode(r, &req); err != nil {
		h.log.ErrorContext(ctx, "decoding json", "ERROR", err)
		respond(ctx, h.log, w, web.ErrorResponse{Error: "bad request"}, http.StatusBadRequest)
		return
	}

	status, err := customer.ParseStatus(req.Status)
	if err != nil {
		respond(ctx, h.log, w, web.ErrorResponse{Error: err.Error()}, http.StatusUnprocessableEntity)
		return
	}

	c, err := h.core.UpdateStatus(ctx, r.PathValue("id"), status)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}

	respond(ctx, h.log, w, toCustomer(c), http.StatusOK)
}

func (h *Handlers) RecordAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req NewAlertReq
	if err := web.Decode(r, &req); err != nil {
		h.log.ErrorContext(ctx, "decoding json", "ERROR", err)
		respond(ctx, h.log, w, web.ErrorResponse{Error: "bad request"}, http.StatusBadRequest)
		return
	}

	a, err := h.core.RecordAlert(ctx, toNewAlert(req))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}

	respond(ctx, h.log, w, toAlert(a), http.StatusCreated)
}

func (h *Handlers) QueryAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	as, err := h.core.QueryAlerts(ctx, r.PathValue("id"))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}

	respond(ctx, h.log, w, toAlerts(as), http.StatusOK)
}

// Readiness checks every dependency and reports the ones failing.
func (h *Handlers) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{}
	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.ErrorContext(ctx, "readiness", "dependency", name, "ERROR", err)
			status[name] = "down"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}

	respond(ctx, h.log, w, status, code)
}

func (h *Handlers) fail(ctx context.Context, w http.ResponseWriter, err error) {
	h.log.ErrorContext(ctx, "request failed", "ERROR", err)

	switch {
	case errors.Is(err, registry.ErrNotFound):
		respond(ctx, h.log, w, web.ErrorResponse{Error: err.Error()}, http.StatusNotFound)

	case errors.Is(err, registry.ErrInvalidArgument):
		respond(ctx, h.log, w, web.ErrorResponse{Error: err.Error()}, http.StatusUnprocessableEntity)

	case errors.Is(err, dlock.ErrNotAcquired):
		resp := web.ErrorResponse{Error: "customer is being updated, try again", Retriable: true}
		respond(ctx, h.log, w, resp, http.StatusConflict)

	default:
		respond(ctx, h.log, w, web.ErrorResponse{Error: "internal error"}, http.StatusInternalServerError)
	}
}

func respond(ctx context.Context, log *slog.Logger, w http.ResponseWriter, data any, code int) {
	if err := web.Respond(ctx, w, data, code); err != nil {
		log.ErrorContext(ctx, "respond", "ERROR", err)
	}
}
