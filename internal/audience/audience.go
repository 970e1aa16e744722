// Package audience maintains the gold-layer audience tables: per-segment
// lifetime value aggregated from completed sales, ready for export to ad
// platforms.
package audience

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/vitrine-labs/crmsync/internal/model"
	"github.com/vitrine-labs/crmsync/internal/segment"
	"github.com/vitrine-labs/crmsync/internal/store"
)

// Refresher rebuilds the audience tables from the sale log and master
// table.
type Refresher struct {
	store      *store.Store
	classifier *segment.Classifier
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithNow overrides the time source.
func WithNow(now func() time.Time) Option {
	return func(r *Refresher) {
		r.now = now
	}
}

// WithLogger sets the refresher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Refresher) {
		r.logger = logger
	}
}

// NewRefresher creates a Refresher.
func NewRefresher(st *store.Store, classifier *segment.Classifier, opts ...Option) *Refresher {
	r := &Refresher{
		store:      st,
		classifier: classifier,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// member accumulates one person's per-segment lifetime value.
type member struct {
	name          string
	email         string
	phone         string
	ilpiValue     float64
	esteticaValue float64
}

// Refresh aggregates completed sales per master customer, splits lifetime
// value by segment membership of each product, and upserts the audience
// tables. Returns the number of distinct customers aggregated.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	sales, err := r.store.ApprovedSalesWithMaster(ctx)
	if err != nil {
		return 0, fmt.Errorf("load completed sales: %w", err)
	}

	aggregated := make(map[string]*member)
	for _, s := range sales {
		email := model.CanonicalEmail(s.Email)
		if email == "" {
			continue
		}

		m, ok := aggregated[email]
		if !ok {
			m = &member{name: s.Name, email: email, phone: s.Phone}
			aggregated[email] = m
		}

		if r.classifier.IsAesthetic(s.ProductID) {
			m.esteticaValue += s.TotalPrice
		} else {
			m.ilpiValue += s.TotalPrice
		}
	}

	now := r.now()
	// Deterministic upsert order keeps runs comparable in logs and tests.
	emails := make([]string, 0, len(aggregated))
	for email := range aggregated {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	for _, email := range emails {
		m := aggregated[email]
		common := store.AudienceMember{
			Name:      m.name,
			Email:     m.email,
			Phone:     m.phone,
			Country:   "BR",
			UpdatedAt: now,
		}

		if m.ilpiValue > 0 {
			common.Value = round2(m.ilpiValue)
			if err := r.store.UpsertAudienceMember(ctx, model.SegmentILPI, common); err != nil {
				return 0, err
			}
		}
		if m.esteticaValue > 0 {
			common.Value = round2(m.esteticaValue)
			if err := r.store.UpsertAudienceMember(ctx, model.SegmentEstetica, common); err != nil {
				return 0, err
			}
		}
	}

	r.logger.Info("audiences refreshed", "customers", len(aggregated))
	return len(aggregated), nil
}

// WriteReport renders the audience-size report.
func (r *Refresher) WriteReport(ctx context.Context, w io.Writer) error {
	ilpi, err := r.store.AudienceCount(ctx, model.SegmentILPI)
	if err != nil {
		return err
	}
	estetica, err := r.store.AudienceCount(ctx, model.SegmentEstetica)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, "              AUDIENCE REPORT (GOLD)")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "ILPI audience:      %d members\n", ilpi)
	fmt.Fprintf(w, "Estetica audience:  %d members\n", estetica)
	fmt.Fprintln(w, "==================================================")
	return nil
}

// ExportCSV writes each audience table to outDir as
// publico_<segment>_<date>.csv, ordered by value descending.
func (r *Refresher) ExportCSV(ctx context.Context, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create audience output dir: %w", err)
	}

	date := r.now().Format("2006-01-02")
	for _, seg := range []model.Segment{model.SegmentILPI, model.SegmentEstetica} {
		members, err := r.store.AudienceMembers(ctx, seg)
		if err != nil {
			return err
		}

		name := fmt.Sprintf("publico_%s_%s.csv", segmentSlug(seg), date)
		path := filepath.Join(outDir, name)
		if err := writeAudienceCSV(path, members); err != nil {
			return err
		}
		r.logger.Info("audience exported", "file", path, "members", len(members))
	}
	return nil
}

func segmentSlug(seg model.Segment) string {
	if seg == model.SegmentEstetica {
		return "estetica"
	}
	return "ilpi"
}

func writeAudienceCSV(path string, members []store.AudienceMember) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create audience export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"name", "email", "phone", "country", "state", "value"}); err != nil {
		return fmt.Errorf("write audience header: %w", err)
	}
	for _, m := range members {
		record := []string{
			m.Name, m.Email, m.Phone, m.Country, m.State,
			strconv.FormatFloat(m.Value, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write audience row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush audience export: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
