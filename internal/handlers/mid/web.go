// Package mid contains the middleware shared by the HTTP services.
package mid

import (
	"net/http"
	"time"

	"github.com/rschio/riskdash/internal/web"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Middleware wraps a handler with extra behaviour.
type Middleware func(http.Handler) http.Handler

// Wrap applies mw to h. The first middleware is the outermost one.
func Wrap(h http.Handler, mw ...Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] != nil {
			h = mw[i](h)
		}
	}
	return h
}

// Web starts the request span, continuing any trace propagated by the
// caller, and stores the request values in the context.
func Web(tracer trace.Tracer, route string) Middleware {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(ctx, route, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			v := web.Values{
				TraceID: span.SpanContext().TraceID().String(),
				Tracer:  tracer,
				Now:     time.Now().UTC(),
			}
			ctx = web.SetValues(ctx, &v)

			h.ServeHTTP(w, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.status_code", v.StatusCode))
		})
	}
}
