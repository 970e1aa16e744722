// Package manychat imports chat-platform contact CSV exports into the raw
// contact log. Exports are tab-separated and carry dates as Excel serial
// numbers with a PT-BR decimal comma; both quirks are normalized here.
//
// Importing only appends to the raw log. Merging contacts into the master
// table is the consolidation engine's job, run as a separate step.
package manychat

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vitrine-labs/crmsync/internal/model"
	"github.com/vitrine-labs/crmsync/internal/store"
)

// Importer appends contact CSV rows to the raw contact log.
type Importer struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Importer.
type Option func(*Importer)

// WithNow overrides the import timestamp source.
func WithNow(now func() time.Time) Option {
	return func(i *Importer) {
		i.now = now
	}
}

// WithLogger sets the importer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		i.logger = logger
	}
}

// NewImporter creates an Importer over the given store.
func NewImporter(st *store.Store, opts ...Option) *Importer {
	i := &Importer{
		store:  st,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Stats summarizes one import.
type Stats struct {
	Imported int
	Skipped  int
}

// ImportFile reads one tab-separated contact export and appends every row
// to the raw log. Rows that cannot be read are counted and skipped, never
// aborting the file.
func (i *Importer) ImportFile(ctx context.Context, path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open contact export: %w", err)
	}
	defer f.Close()

	stats, err := i.importReader(ctx, f)
	if err != nil {
		return stats, fmt.Errorf("import %s: %w", path, err)
	}
	i.logger.Info("contact export imported", "file", path,
		"imported", stats.Imported, "skipped", stats.Skipped)
	return stats, nil
}

// ImportDir imports every .csv file in dir in name order. A missing
// directory is not an error; there is simply nothing to import.
func (i *Importer) ImportDir(ctx context.Context, dir string) (Stats, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return Stats{}, nil
	}
	if err != nil {
		return Stats{}, fmt.Errorf("read contact input dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var total Stats
	for _, name := range names {
		stats, err := i.ImportFile(ctx, filepath.Join(dir, name))
		if err != nil {
			return total, err
		}
		total.Imported += stats.Imported
		total.Skipped += stats.Skipped
	}
	return total, nil
}

func (i *Importer) importReader(ctx context.Context, r io.Reader) (Stats, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return Stats{}, nil
	}
	if err != nil {
		return Stats{}, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for idx, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = idx
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var stats Stats
	importedAt := i.now()
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.Skipped++
			i.logger.Warn("skipping unreadable contact row", "error", err)
			continue
		}

		contact := model.Contact{
			Name:            field(row, "nome"),
			Email:           field(row, "email"),
			Instagram:       field(row, "instagram"),
			Whatsapp:        field(row, "whatsapp"),
			DataRemarketing: excelDateToISO(field(row, "data_remarketing")),
			Agendamento:     strings.ToUpper(field(row, "agendamento")),
			DataAgendamento: excelDateToISO(field(row, "data_agendamento")),
			Contactar:       strings.ToUpper(field(row, "contactar")),
			DataContactar:   excelDateToISO(field(row, "data_contactar")),
			UltimaInteracao: excelDateToISO(field(row, "ultima_interacao")),
			DataRegistro:    excelDateToISO(field(row, "data_registro")),
			ImportedAt:      importedAt,
		}

		if _, err := i.store.AppendContact(ctx, contact); err != nil {
			return stats, err
		}
		stats.Imported++
	}

	return stats, nil
}
