// Package dashboardgrp serves the operator dashboard read model and the
// status change action.
package dashboardgrp

import (
	"context"
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rschio/riskdash/internal/core/customer"
	"github.com/rschio/riskdash/internal/core/dashboard"
	"github.com/rschio/riskdash/internal/handlers/mid"
	"github.com/rschio/riskdash/internal/web"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Config holds the dependencies of the dashboard routes.
type Config struct {
	Log    *slog.Logger
	Tracer trace.Tracer
	Core   *customer.Core
	State  *dashboard.State

	// StatusLimiter bounds the rate of status changes. Nil disables it.
	StatusLimiter *rate.Limiter
}

func APIMux(cfg Config) *http.ServeMux {
	h := &Handlers{log: cfg.Log, core: cfg.Core, state: cfg.State}

	mux := http.NewServeMux()
	handle := func(pattern string, fn http.HandlerFunc, extra ...mid.Middleware) {
		mw := []mid.Middleware{
			mid.Web(cfg.Tracer, pattern),
			mid.Logger(cfg.Log),
			mid.Metrics(pattern),
			mid.Panics(cfg.Log),
		}
		mux.Handle(pattern, mid.Wrap(fn, append(mw, extra...)...))
	}

	handle("GET /dashboard", h.Dashboard)
	handle("POST /dashboard/refresh", h.Refresh)
	handle("GET /customers", h.Customers)
	handle("PUT /customers/{id}/status", h.UpdateStatus, mid.RateLimit(cfg.Log, cfg.StatusLimiter))
	handle("GET /readiness", h.Readiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

type Handlers struct {
	log   *slog.Logger
	core  *customer.Core
	state *dashboard.State
}

// Dashboard returns the state, summary figures and table rows.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	respond(ctx, h.log, w, toDashboardResp(h.state.Snapshot()), http.StatusOK)
}

// Refresh reloads the customers from the backend.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.state.Refresh(ctx, h.core); err != nil {
		h.log.ErrorContext(ctx, "refresh", "ERROR", err)
		respond(ctx, h.log, w, toDashboardResp(h.state.Snapshot()), http.StatusBadGateway)
		return
	}

	respond(ctx, h.log, w, toDashboardResp(h.state.Snapshot()), http.StatusOK)
}

// Customers lists the customers, optionally filtered by ?status= and
// ordered by ?sort=creditScore|riskScore. A leading "-" sorts descending.
func (h *Handlers) Customers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	order, err := parseSort(r.URL.Query().Get("sort"))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}

	cs := h.state.Snapshot().Customers

	if q := r.URL.Query().Get("status"); q != "" {
		status, err := customer.ParseStatus(q)
		if err != nil {
			h.fail(ctx, w, err)
			return
		}

		filtered := cs[:0]
		for _, c := range cs {
			if c.Status == status {
				filtered = append(filtered, c)
			}
		}
		cs = filtered
	}

	if order != nil {
		slices.SortStableFunc(cs, order)
	}

	respond(ctx, h.log, w, toCustomers(cs), http.StatusOK)
}

// parseSort returns the ordering named by q, or nil for the backend order.
func parseSort(q string) (func(a, b customer.Customer) int, error) {
	if q == "" {
		return nil, nil
	}

	field, desc := strings.CutPrefix(q, "-")

	var key func(c customer.Customer) int
	switch field {
	case "creditScore":
		key = func(c customer.Customer) int { return c.CreditScore }
	case "riskScore":
		key = func(c customer.Customer) int { return c.RiskScore }
	default:
		return nil, fmt.Errorf("%w: unknown sort %q", customer.ErrInvalidArgument, q)
	}

	return func(a, b customer.Customer) int {
		if desc {
			return cmp.Compare(key(b), key(a))
		}
		return cmp.Compare(key(a), key(b))
	}, nil
}

// UpdateStatus runs the operator status change.
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
		h.fail(ctx, w, err)
		return
	}

	c, err := h.core.UpdateStatus(ctx, r.PathValue("id"), status)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}

	respond(ctx, h.log, w, toCustomer(c), http.StatusOK)
}

// Readiness reports whether the customers are loaded.
func (h *Handlers) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	phase := h.state.Phase()
	status := struct {
		Status string `json:"status"`
	}{Status: phase.String()}

	code := http.StatusOK
	if phase != dashboard.PhaseReady {
		code = http.StatusServiceUnavailable
	}

	respond(ctx, h.log, w, status, code)
}

func (h *Handlers) fail(ctx context.Context, w http.ResponseWriter, err error) {
	h.log.ErrorContext(ctx, "request failed", "ERROR", err)

	switch {
	case errors.Is(err, customer.ErrInvalidArgument):
		respond(ctx, h.log, w, web.ErrorResponse{Error: err.Error()}, http.StatusBadRequest)

	case errors.Is(err, customer.ErrNotFound):
		respond(ctx, h.log, w, web.ErrorResponse{Error: err.Error()}, http.StatusNotFound)

	case errors.Is(err, customer.ErrNetwork):
		resp := web.ErrorResponse{
			Error:     "status could not be saved, the backend is unreachable; try again",
			Retriable: true,
		}
		respond(ctx, h.log, w, resp, http.StatusBadGateway)

	default:
		respond(ctx, h.log, w, web.ErrorResponse{Error: "internal error"}, http.StatusInternalServerError)
	}
}

func respond(ctx context.Context, log *slog.Logger, w http.ResponseWriter, data any, code int) {
	if err := web.Respond(ctx, w, data, code); err != nil {
		log.ErrorContext(ctx, "respond", "ERROR", err)
	}
}
