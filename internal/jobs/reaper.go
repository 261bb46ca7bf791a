package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	contentrepo "github.com/yungbote/techlearn-backend/internal/data/repos/content"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

const staleMessage = "processing timed out"

// Reaper periodically moves content stuck in processing to error. It never
// re-runs extraction.
type Reaper struct {
	log      *logger.Logger
	items    contentrepo.ContentItemRepo
	staleFor time.Duration
	schedule string
	now      func() time.Time
	cron     *cron.Cron
}

func NewReaper(baseLog *logger.Logger, items contentrepo.ContentItemRepo, staleFor time.Duration, schedule string) *Reaper {
	if schedule == "" {
		schedule = "@every 15m"
	}
	return &Reaper{
		log:      baseLog.With("component", "StaleContentReaper"),
		items:    items,
		staleFor: staleFor,
		schedule: schedule,
		now:      time.Now,
	}
}

// Sweep marks stale items once and reports how many were moved.
func (r *Reaper) Sweep(ctx context.Context) (int64, error) {
	cutoff := r.now().UTC().Add(-r.staleFor)
	n, err := r.items.MarkStaleAsError(ctx, nil, cutoff, staleMessage)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.log.Warn("marked stale content as error", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

// Start schedules Sweep until ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(r.schedule, func() {
		if _, err := r.Sweep(ctx); err != nil {
			r.log.Error("stale content sweep failed", "error", err)
		}
	}); err != nil {
		return err
	}
	r.cron = c
	c.Start()
	r.log.Info("stale content reaper started", "schedule", r.schedule, "stale_after", r.staleFor.String())
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}
