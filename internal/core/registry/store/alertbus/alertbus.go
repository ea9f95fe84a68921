// Package alertbus appends registry alerts to a redis stream.
package alertbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rschio/riskdash/internal/core/registry"
	"github.com/rschio/riskdash/internal/web"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultStream is the stream alerts go to when none is configured.
const DefaultStream = "riskdash:alerts"

// Config controls the target stream.
type Config struct {
	Stream string

	// MaxLen caps the stream length, trimmed approximately. Zero keeps
	// every entry.
	MaxLen int64
}

// Bus implements registry.Publisher.
type Bus struct {
	log    *slog.Logger
	client *redis.Client
	cfg    Config
}

func New(log *slog.Logger, client *redis.Client, cfg Config) *Bus {
	if cfg.Stream == "" {
		cfg.Stream = DefaultStream
	}

	return &Bus{
		log:    log,
		client: client,
		cfg:    cfg,
	}
}

// Publish appends the alert to the stream.
func (b *Bus) Publish(ctx context.Context, a registry.Alert) error {
	ctx, span := web.AddSpan(ctx, "alertbus.Publish",
		attribute.String("stream", b.cfg.Stream),
		attribute.String("alert_id", a.ID.String()),
	)
	defer span.End()

	args := redis.XAddArgs{
		Stream: b.cfg.Stream,
		MaxLen: b.cfg.MaxLen,
		Approx: b.cfg.MaxLen > 0,
		Values: map[string]any{
			"alertId":     a.ID.String(),
			"customerId":  a.CustomerID,
			"riskScore":   a.RiskScore,
			"dateCreated": a.DateCreated.UTC().Format(time.RFC3339Nano),
		},
	}

	id, err := b.client.XAdd(ctx, &args).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", b.cfg.Stream, err)
	}

	b.log.DebugContext(ctx, "alert published", "stream", b.cfg.Stream, "entryID", id, "alertID", a.ID)
	return nil
}
