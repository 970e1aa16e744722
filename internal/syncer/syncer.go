// Package syncer implements the incremental sales sync: the state machine
// deciding which date window to request from the upstream sales API, the
// chunking of long windows, the pagination loop, and the typed mapping of
// loose upstream payloads into raw store records.
//
// The machine has two states derived fresh on every invocation from the
// sale log: an empty log triggers an initial sync over configured bounds,
// a non-empty log an incremental sync from the latest observed purchase
// date up to yesterday. Nothing is checkpointed: resumption after an
// interrupt is achieved by idempotent re-run.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vitrine-labs/crmsync/internal/config"
	"github.com/vitrine-labs/crmsync/internal/store"
)

// ErrMissingDates is returned when the sale log is empty and the
// initial-sync bounds are not configured. Fatal, not retryable: fetching
// an unbounded range silently is never acceptable.
var ErrMissingDates = errors.New(
	"initial sync requires HOTMART_START_DATE and HOTMART_END_DATE")

// Syncer drives one sales sync run against the upstream platform.
type Syncer struct {
	store   *store.Store
	fetcher SalesFetcher
	cfg     config.Config
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithNow overrides the time source. Tests use it to pin "yesterday".
func WithNow(now func() time.Time) Option {
	return func(s *Syncer) {
		s.now = now
	}
}

// WithLogger sets the syncer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) {
		s.logger = logger
	}
}

// New creates a Syncer over the given store and fetcher.
func New(st *store.Store, fetcher SalesFetcher, cfg config.Config, opts ...Option) *Syncer {
	s := &Syncer{
		store:   st,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run evaluates the sync state machine once and fetches the resulting
// window, chunk by chunk. Each chunk is fetched and persisted
// independently; a failure mid-run never discards already-saved chunks.
func (s *Syncer) Run(ctx context.Context) error {
	logger := s.logger.With("run_id", uuid.NewString())

	maxDate, hasSales, err := s.store.MaxPurchasedAt(ctx)
	if err != nil {
		return fmt.Errorf("inspect sale log: %w", err)
	}

	var start, end time.Time
	if !hasSales {
		if s.cfg.HotmartStartDate == "" || s.cfg.HotmartEndDate == "" {
			return ErrMissingDates
		}
		start, end, err = s.cfg.InitialSyncWindow()
		if err != nil {
			return fmt.Errorf("initial sync window: %w", err)
		}
		logger.Info("initial sync", "start", start.Format("2006-01-02"),
			"end", end.Format("2006-01-02"))
	} else {
		// Never request today: upstream data for the current day may
		// still be incomplete.
		start = maxDate
		end = s.now().AddDate(0, 0, -1)
		if end.Before(start) {
			logger.Info("sale log already up to date",
				"last_purchase", start.Format(time.RFC3339))
			return nil
		}
		logger.Info("incremental sync", "start", start.Format(time.RFC3339),
			"end", end.Format(time.RFC3339))
	}

	chunks := Chunks(start, end, s.cfg.MaxChunkDays)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Info("syncing chunk",
			"chunk", i+1, "of", len(chunks),
			"start", chunk.Start.Format("2006-01-02"),
			"end", chunk.End.Format("2006-01-02"))
		if err := s.syncWindow(ctx, logger, chunk); err != nil {
			return err
		}
	}

	return nil
}

// syncWindow fetches and persists every page of one window, following
// continuation tokens until none is returned.
//
// A transient page fetch failure stops the remaining pagination for this
// window only: already-saved records are kept and nil is returned, so the
// caller can proceed (and a later run resumes naturally from the new max
// observed date). Per-item mapping failures are logged and skipped.
func (s *Syncer) syncWindow(ctx context.Context, logger *slog.Logger, r DateRange) error {
	req := FetchRequest{
		StartMS: r.Start.UnixMilli(),
		EndMS:   r.End.UnixMilli(),
	}

	var pages, saved, skipped int
	for {
		page, err := s.fetcher.FetchSales(ctx, req)
		if err != nil {
			logger.Warn("page fetch failed, stopping window",
				"page", pages+1, "error", err)
			break
		}
		pages++

		for _, item := range page.Items {
			rec, err := mapItem(item, s.now())
			if err != nil {
				skipped++
				logger.Warn("skipping malformed sale item", "error", err)
				continue
			}
			if rec.Sale.TotalPrice == 0 {
				// Flagged pending clarification on whether zero is a
				// legitimate business default for missing prices.
				logger.Warn("sale with zero total price",
					"transaction", rec.Sale.TransactionID)
			}
			if err := s.persist(ctx, rec); err != nil {
				return err
			}
			saved++
		}

		if page.NextPageToken == "" {
			break
		}
		req.PageToken = page.NextPageToken
	}

	logger.Info("window synced", "pages", pages, "saved", saved, "skipped", skipped)
	return nil
}

func (s *Syncer) persist(ctx context.Context, rec MappedSale) error {
	importedAt := s.now()

	rec.Customer.ImportedAt = importedAt
	if err := s.store.AppendCustomer(ctx, rec.Customer); err != nil {
		return err
	}
	if err := s.store.UpsertProduct(ctx, rec.Product); err != nil {
		return err
	}
	rec.Sale.ImportedAt = importedAt
	if err := s.store.AppendSale(ctx, rec.Sale); err != nil {
		return err
	}
	return nil
}
