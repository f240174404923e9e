// Package scheduler runs the periodic maintenance jobs: the nightly click
// rollup, auth token purging, and GeoIP database reloads.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/flexibio/flexibio-go/internal/geoip"
	"github.com/flexibio/flexibio-go/internal/store"
)

// jobTimeout bounds a single scheduled job run.
const jobTimeout = 5 * time.Minute

// Scheduler handles scheduled maintenance tasks.
type Scheduler struct {
	db     *sql.DB
	geo    *geoip.Lookup
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a new scheduler instance. geo may be nil when GeoIP is not
// configured.
func New(db *sql.DB, geo *geoip.Lookup, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:     db,
		geo:    geo,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers and begins the scheduled jobs:
// daily click rollup shortly past midnight, hourly token purge, and a
// daily GeoIP database reload.
func (s *Scheduler) Start() error {
	// Roll up yesterday's clicks at 00:10
	if _, err := s.cron.AddFunc("10 0 * * *", func() {
		if err := s.rollupClicks(); err != nil {
			s.logger.Error("click rollup failed", "error", err)
		}
	}); err != nil {
		return err
	}

	// Purge expired auth tokens hourly
	if _, err := s.cron.AddFunc("0 * * * *", func() {
		if err := s.purgeTokens(); err != nil {
			s.logger.Error("auth token purge failed", "error", err)
		}
	}); err != nil {
		return err
	}

	// Pick up replaced GeoIP database files once a day
	if s.geo != nil {
		if _, err := s.cron.AddFunc("30 4 * * *", func() {
			if err := s.geo.Reload(); err != nil {
				s.logger.Warn("geoip reload failed", "error", err)
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// rollupClicks aggregates yesterday's click events into the daily table.
// The rollup is idempotent, so re-running after a missed or failed night
// is safe.
func (s *Scheduler) rollupClicks() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	queries := store.New(s.db)

	if err := queries.RollupClicksForDay(ctx, yesterday); err != nil {
		return err
	}

	s.logger.Info("click rollup complete", "day", yesterday.Format("2006-01-02"))
	return nil
}

// purgeTokens deletes expired and used auth tokens.
func (s *Scheduler) purgeTokens() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	queries := store.New(s.db)
	n, err := queries.PurgeExpiredAuthTokens(ctx)
	if err != nil {
		return err
	}

	if n > 0 {
		s.logger.Info("purged auth tokens", "count", n)
	}
	return nil
}
