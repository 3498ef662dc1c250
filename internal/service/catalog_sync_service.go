package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/esim_api/internal/models"
	"github.com/GTDGit/esim_api/internal/sse"
)

// SyncRunStore records sync runs for the back office.
type SyncRunStore interface {
	Create(ctx context.Context, run *models.SyncRun) error
	Update(ctx context.Context, run *models.SyncRun) error
}

// FeedArchiver keeps a copy of raw aggregator payloads.
type FeedArchiver interface {
	Archive(ctx context.Context, source models.Source, runID string, raw []byte) error
}

// SyncReport summarizes one sync run.
type SyncReport struct {
	RunID       string        `json:"runId"`
	Fetched     int           `json:"fetched"`
	Rejected    int           `json:"rejected"`
	Skipped     int           `json:"skipped"`
	Written     int           `json:"written"`
	Deactivated int           `json:"deactivated"`
	Duration    time.Duration `json:"-"`
}

// CatalogSyncService runs fetch -> transform -> dedupe -> write.
type CatalogSyncService struct {
	aggregators []Aggregator
	transformer *PriceTransformer
	writer      *CatalogWriter
	runs        SyncRunStore
	archiver    FeedArchiver
	notifier    sse.SyncNotifier
}

// NewCatalogSyncService constructs a CatalogSyncService. runs may be nil.
func NewCatalogSyncService(aggregators []Aggregator, transformer *PriceTransformer, writer *CatalogWriter, runs SyncRunStore) *CatalogSyncService {
	return &CatalogSyncService{
		aggregators: aggregators,
		transformer: transformer,
		writer:      writer,
		runs:        runs,
	}
}

// SetArchiver enables raw feed archiving.
func (s *CatalogSyncService) SetArchiver(a FeedArchiver) {
	s.archiver = a
}

// SetNotifier sets where stage changes are broadcast.
func (s *CatalogSyncService) SetNotifier(n sse.SyncNotifier) {
	s.notifier = n
}

// Run executes one sync run. Overlapping runs are allowed: every write is a
// per-SKU upsert, so concurrent runs converge on the same rows.
func (s *CatalogSyncService) Run(ctx context.Context, trigger models.SyncTrigger) (*SyncReport, error) {
	start := time.Now()
	run := &models.SyncRun{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Stage:     models.StageIdle,
		StartedAt: start,
	}
	report := &SyncReport{RunID: run.ID}
	logger := log.With().Str("run_id", run.ID).Str("trigger", string(trigger)).Logger()

	s.record(ctx, run, true)

	fail := func(err error) (*SyncReport, error) {
		run.Fail(err.Error())
		s.record(ctx, run, false)
		report.Duration = time.Since(start)
		logger.Error().Err(err).Str("stage", string(run.Stage)).Dur("duration", report.Duration).Msg("Catalog sync failed")
		return report, err
	}

	// Fetch
	s.advance(ctx, run, models.StageFetching)
	var (
		wholesale []models.WholesaleProduct
		sources   []models.Source
	)
	for _, agg := range s.aggregators {
		res, err := agg.FetchProducts(ctx)
		if err != nil {
			return fail(err)
		}
		s.archive(ctx, run.ID, res)
		wholesale = append(wholesale, res.Products...)
		sources = append(sources, res.Source)
		report.Rejected += res.Rejected
		logger.Info().Str("source", string(res.Source)).Int("products", len(res.Products)).Int("rejected", res.Rejected).Msg("Fetched wholesale products")
	}
	report.Fetched = len(wholesale)
	run.Fetched = report.Fetched
	if len(wholesale) == 0 {
		return fail(&FetchError{Source: joinSources(sources), Attempts: 1, Err: errors.New("upstream returned no products")})
	}

	// Transform + dedupe
	s.advance(ctx, run, models.StageTransforming)
	offers := make([]PricedOffer, 0, len(wholesale))
	for _, w := range wholesale {
		converted, retail, err := s.transformer.Quote(ctx, w.Price, w.Currency)
		if err != nil {
			var priceErr *InvalidPriceError
			if !errors.As(err, &priceErr) {
				return fail(err)
			}
			priceErr.SKU = w.SKU
			logger.Warn().Err(priceErr).Str("sku", w.SKU).Str("source", string(w.Source)).Msg("Skipping product with invalid price")
			report.Skipped++
			continue
		}
		offers = append(offers, PricedOffer{
			WholesaleProduct: w,
			WholesaleRetail:  converted,
			RetailPrice:      retail,
			RetailCurrency:   s.transformer.RetailCurrency(),
		})
	}
	run.Skipped = report.Skipped + report.Rejected
	if len(offers) == 0 {
		return fail(errors.New("no products left after price transformation"))
	}
	deduped := Deduplicate(offers)
	logger.Info().Int("offers", len(offers)).Int("unique", len(deduped)).Msg("Deduplicated offers")

	// Write
	s.advance(ctx, run, models.StageWriting)
	wr, err := s.writer.Write(ctx, run.ID, sources, deduped)
	if wr != nil {
		report.Written = wr.Written
		report.Deactivated = len(wr.Deactivated)
		run.Written = report.Written
		run.Deactivated = report.Deactivated
	}
	if err != nil {
		return fail(err)
	}

	s.advance(ctx, run, models.StageDone)
	report.Duration = time.Since(start)
	logger.Info().
		Int("fetched", report.Fetched).
		Int("skipped", run.Skipped).
		Int("written", report.Written).
		Int("deactivated", report.Deactivated).
		Dur("duration", report.Duration).
		Msg("Catalog sync completed")
	return report, nil
}

func (s *CatalogSyncService) advance(ctx context.Context, run *models.SyncRun, next models.SyncStage) {
	if err := run.Advance(next); err != nil {
		log.Error().Err(err).Msg("Invalid sync stage transition")
		return
	}
	s.record(ctx, run, false)
}

// record persists and broadcasts the run. Bookkeeping failures never fail
// the run itself.
func (s *CatalogSyncService) record(ctx context.Context, run *models.SyncRun, create bool) {
	if s.notifier != nil {
		s.notifier.NotifySyncStage(run)
	}
	if s.runs == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	var err error
	if create {
		err = s.runs.Create(ctx, run)
	} else {
		err = s.runs.Update(ctx, run)
	}
	if err != nil {
		log.Warn().Err(err).Str("run_id", run.ID).Str("stage", string(run.Stage)).Msg("Failed to record sync run")
	}
}

func (s *CatalogSyncService) archive(ctx context.Context, runID string, res *FetchResult) {
	if s.archiver == nil || len(res.Raw) == 0 {
		return
	}
	if err := s.archiver.Archive(ctx, res.Source, runID, res.Raw); err != nil {
		log.Warn().Err(err).Str("run_id", runID).Str("source", string(res.Source)).Msg("Failed to archive raw feed")
	}
}

func joinSources(sources []models.Source) models.Source {
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = string(s)
	}
	return models.Source(strings.Join(parts, ","))
}
