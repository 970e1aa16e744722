// Package remarketing generates gold-layer remarketing batches: master
// customers with a phone that have neither been touched nor purchased
// within the cooldown window.
package remarketing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vitrine-labs/crmsync/internal/model"
	"github.com/vitrine-labs/crmsync/internal/store"
)

// Generator produces remarketing batches.
type Generator struct {
	store        *store.Store
	limit        int
	cooldownDays int
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithNow overrides the time source.
func WithNow(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithLogger sets the generator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator creates a Generator with the given batch limit and
// cooldown in days.
func NewGenerator(st *store.Store, limit, cooldownDays int, opts ...Option) *Generator {
	g := &Generator{
		store:        st,
		limit:        limit,
		cooldownDays: cooldownDays,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateBatch selects eligible customers, records them in the history
// table, stamps their last_remarketing_at, and exports the batch CSV to
// outDir. Returns the batch size; zero means nobody was eligible.
func (g *Generator) GenerateBatch(ctx context.Context, outDir string) (int, error) {
	now := g.now()
	cutoff := now.AddDate(0, 0, -g.cooldownDays)

	eligible, err := g.store.EligibleForRemarketing(ctx, cutoff, g.limit)
	if err != nil {
		return 0, fmt.Errorf("select eligible customers: %w", err)
	}
	if len(eligible) == 0 {
		g.logger.Info("no contacts eligible for remarketing")
		return 0, nil
	}

	for _, m := range eligible {
		if err := g.store.InsertRemarketingHistory(ctx, m, now); err != nil {
			return 0, err
		}
		if err := g.store.StampRemarketing(ctx, m.ID, now); err != nil {
			return 0, err
		}
	}

	if err := g.exportCSV(eligible, outDir, now); err != nil {
		return 0, err
	}

	g.logger.Info("remarketing batch generated", "size", len(eligible))
	return len(eligible), nil
}

// WriteReport renders the remarketing history report.
func (g *Generator) WriteReport(ctx context.Context, w io.Writer) error {
	now := g.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	total, today, err := g.store.RemarketingCounts(ctx, dayStart)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, "            REMARKETING REPORT (GOLD)")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "All-time batches:   %d contacts\n", total)
	fmt.Fprintf(w, "Generated today:    %d contacts\n", today)
	fmt.Fprintln(w, "==================================================")
	return nil
}

func (g *Generator) exportCSV(batch []model.MasterCustomer, outDir string, now time.Time) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create remarketing output dir: %w", err)
	}

	path := filepath.Join(outDir, fmt.Sprintf("remarketing_%s.csv", now.Format("2006-01-02")))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create remarketing export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"email", "phone", "last_remarketing_at", "last_purchase_at"}); err != nil {
		return fmt.Errorf("write remarketing header: %w", err)
	}
	for _, m := range batch {
		record := []string{
			m.Email,
			m.Phone,
			formatOrEmpty(m.LastRemarketing),
			formatOrEmpty(m.LastPurchase),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write remarketing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush remarketing export: %w", err)
	}

	g.logger.Info("remarketing batch exported", "file", path)
	return nil
}

func formatOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
