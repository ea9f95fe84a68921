// Package customerapi talks to the backend that owns the customer records
// over its REST contract.
package customerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rschio/riskdash/internal/core/customer"
	"github.com/rschio/riskdash/internal/logger"
	"github.com/rschio/riskdash/internal/web"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

// Config is the required properties to reach the backend.
type Config struct {
	Host    string
	Timeout time.Duration
}

// Store implements customer.Backend over HTTP.
type Store struct {
	log     *slog.Logger
	client  *http.Client
	host    string
	timeout time.Duration
}

func NewStore(log *slog.Logger, cfg Config) (*Store, error) {
	u, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("parsing backend host: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend host %q must be an http(s) url", cfg.Host)
	}

	return &Store{
		log:     log,
		client:  &http.Client{},
		host:    strings.TrimSuffix(cfg.Host, "/"),
		timeout: cfg.Timeout,
	}, nil
}

// QueryAll fetches every customer.
func (s *Store) QueryAll(ctx context.Context) ([]customer.Customer, error) {
	var cs []apiCustomer
	if err := s.do(ctx, http.MethodGet, "/customers", "/customers", nil, &cs); err != nil {
		return nil, err
	}

	return toCustomers(cs), nil
}

// UpdateStatus persists the status. The response body has no schema and
// is discarded.
func (s *Store) UpdateStatus(ctx context.Context, customerID string, status customer.Status) error {
	path := "/customers/" + url.PathEscape(customerID) + "/status"
	return s.do(ctx, http.MethodPut, "/customers/{id}/status", path, apiStatus{Status: status.String()}, nil)
}

// SendAlert posts a high risk notification.
func (s *Store) SendAlert(ctx context.Context, a customer.Alert) error {
	body := apiAlert{
		CustomerID: a.CustomerID,
		RiskScore:  a.RiskScore,
	}
	return s.do(ctx, http.MethodPost, "/alerts", "/alerts", body, nil)
}

// StatusCheck returns nil if the backend answers the readiness route.
func (s *Store) StatusCheck(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, "/readiness", "/readiness", nil, nil)
}

// do sends the request to path. route is the path template used to name
// the span.
func (s *Store) do(ctx context.Context, method, route, path string, body any, out any) error {
	ctx, span := web.AddSpan(ctx, "customerapi."+method+" "+route,
		attribute.String("http.method", method),
		attribute.String("http.target", path),
	)
	defer span.End()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var r io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		r = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.host+path, r)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	logger.DebugcCtx(ctx, s.log, 3, "customerapi.do", "method", method, "path", path)

	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return fmt.Errorf("%w: %s %s: %w", customer.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, resp.Status)
		return statusError(method, path, resp)
	}

	if out == nil {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			logger.DebugcCtx(ctx, s.log, 3, "customerapi.do: draining body", "path", path, "err", err)
		}
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s %s: empty response", customer.ErrNetwork, method, path)
		}
		return fmt.Errorf("%w: %s %s: decoding response: %w", customer.ErrNetwork, method, path, err)
	}

	return nil
}

func statusError(method, path string, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := strings.TrimSpace(string(msg))

	kind := customer.ErrNetwork
	switch resp.StatusCode {
	case http.StatusNotFound:
		kind = customer.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = customer.ErrInvalidArgument
	}

	return fmt.Errorf("%w: %s %s: backend answered %d: %s", kind, method, path, resp.StatusCode, detail)
}
