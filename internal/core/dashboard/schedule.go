package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule refreshes s through l on the cron spec. The returned cron is
// already running; Stop it on shutdown. Overlapping runs are skipped.
func Schedule(log *slog.Logger, spec string, timeout time.Duration, s *State, l Loader) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.Refresh(ctx, l); err != nil {
			log.Error("scheduled refresh", "ERROR", err)
			return
		}
		log.Info("scheduled refresh", "status", "ready")
	})
	if err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", spec, err)
	}

	c.Start()
	return c, nil
}
