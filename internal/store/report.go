package store

import (
	"context"
	"fmt"

	"github.com/vitrine-labs/crmsync/internal/model"
)

// Summary holds the per-table counts shown by the report command.
type Summary struct {
	RawCustomers int
	RawContacts  int
	Sales        int
	Products     int
	Masters      int
	Buyers       int
	BySegment    map[model.Segment]int
}

// Summarize counts rows across the raw, master and catalog tables.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	sum := Summary{BySegment: make(map[model.Segment]int)}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM hotmart_customers`, &sum.RawCustomers},
		{`SELECT COUNT(*) FROM manychat_contacts`, &sum.RawContacts},
		{`SELECT COUNT(*) FROM sales`, &sum.Sales},
		{`SELECT COUNT(*) FROM products`, &sum.Products},
		{`SELECT COUNT(*) FROM customers`, &sum.Masters},
		{`SELECT COUNT(*) FROM customers WHERE has_purchased = 1`, &sum.Buyers},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return Summary{}, fmt.Errorf("summarize: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT segment, COUNT(*)
		FROM customers
		WHERE segment IS NOT NULL
		GROUP BY segment
	`)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize segments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seg   string
			count int
		)
		if err := rows.Scan(&seg, &count); err != nil {
			return Summary{}, fmt.Errorf("scan segment count: %w", err)
		}
		sum.BySegment[model.Segment(seg)] = count
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("iterate segment counts: %w", err)
	}

	return sum, nil
}
