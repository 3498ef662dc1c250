package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/internal/service"
)

// CatalogSyncer runs one catalog sync.
type CatalogSyncer interface {
	Run(ctx context.Context, trigger models.SyncTrigger) (*service.SyncReport, error)
}

// SyncWorker re-syncs the catalog on a fixed interval, starting immediately.
//
// Runs execute on the loop goroutine. A run that outlasts the interval
// swallows the ticks it overlaps, so the worker never races itself.
type SyncWorker struct {
	syncer     CatalogSyncer
	interval   time.Duration
	runTimeout time.Duration
	failures   int
}

func NewSyncWorker(syncer CatalogSyncer, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		syncer:     syncer,
		interval:   interval,
		runTimeout: 10 * time.Minute,
	}
}

func (w *SyncWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting catalog sync worker")

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			log.Info().Msg("Catalog sync worker stopped")
			return
		}
	}
}

func (w *SyncWorker) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, w.runTimeout)
	defer cancel()

	start := time.Now()
	report, err := w.syncer.Run(runCtx, models.TriggerWorker)
	if err != nil {
		w.failures++
		ev := log.Error()
		if w.failures < 3 {
			ev = log.Warn()
		}
		ev.Err(err).Int("consecutive_failures", w.failures).Msg("Scheduled catalog sync failed")
		return
	}
	w.failures = 0
	log.Info().
		Str("run_id", report.RunID).
		Int("written", report.Written).
		Int("deactivated", report.Deactivated).
		Dur("duration", time.Since(start)).
		Msg("Scheduled catalog sync finished")
}
