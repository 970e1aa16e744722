package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vitrine-labs/crmsync/internal/model"
)

// AudienceMember is one row of a gold-layer audience table.
type AudienceMember struct {
	Name      string
	Email     string
	Phone     string
	Country   string
	State     string
	Value     float64
	UpdatedAt time.Time
}

// AudienceSale is one completed sale joined to its master record, the
// input to audience LTV aggregation.
type AudienceSale struct {
	Name       string
	Email      string
	Phone      string
	ProductID  string
	TotalPrice float64
}

func audienceTable(seg model.Segment) (string, error) {
	switch seg {
	case model.SegmentILPI:
		return "audience_ilpi", nil
	case model.SegmentEstetica:
		return "audience_estetica", nil
	default:
		return "", fmt.Errorf("no audience table for segment %q", seg)
	}
}

// ApprovedSalesWithMaster returns completed sales joined to the master
// table by payments id. Duplicate sale rows from overlapping sync windows
// are collapsed to the latest import per (transaction, product) so LTV is
// not double counted.
func (s *Store) ApprovedSalesWithMaster(ctx context.Context) ([]AudienceSale, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH latest_sales AS (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY transaction_id, product_id
				ORDER BY imported_at DESC
			) AS rn
			FROM sales
		)
		SELECT c.name, c.master_email, c.master_phone, s.product_id, s.total_price
		FROM latest_sales s
		JOIN customers c ON s.customer_id = c.hotmart_id
		WHERE s.rn = 1 AND UPPER(s.status) IN ('APPROVED', 'COMPLETE')
		ORDER BY s.transaction_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query approved sales: %w", err)
	}
	defer rows.Close()

	var sales []AudienceSale
	for rows.Next() {
		var (
			as                 AudienceSale
			name, email, phone sql.NullString
		)
		if err := rows.Scan(&name, &email, &phone, &as.ProductID, &as.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan approved sale: %w", err)
		}
		as.Name = name.String
		as.Email = email.String
		as.Phone = phone.String
		sales = append(sales, as)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approved sales: %w", err)
	}
	return sales, nil
}

// UpsertAudienceMember inserts or replaces a member in the audience table
// for the given segment, keyed by email.
func (s *Store) UpsertAudienceMember(ctx context.Context, seg model.Segment, m AudienceMember) error {
	table, err := audienceTable(seg)
	if err != nil {
		return err
	}

	return s.execContext(ctx, "upsert audience member", fmt.Sprintf(`
		INSERT INTO %s (name, email, phone, country, state, value, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			country = excluded.country,
			state = excluded.state,
			value = excluded.value,
			updated_at = excluded.updated_at
	`, table),
		nullString(m.Name),
		m.Email,
		nullString(m.Phone),
		m.Country,
		m.State,
		m.Value,
		formatTime(m.UpdatedAt),
	)
}

// AudienceCount returns the number of members in a segment's audience.
func (s *Store) AudienceCount(ctx context.Context, seg model.Segment) (int, error) {
	table, err := audienceTable(seg)
	if err != nil {
		return 0, err
	}

	var count int
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table))
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count audience: %w", err)
	}
	return count, nil
}

// AudienceMembers returns a segment's audience ordered by value descending,
// the order used for CSV export.
func (s *Store) AudienceMembers(ctx context.Context, seg model.Segment) ([]AudienceMember, error) {
	table, err := audienceTable(seg)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT name, email, phone, country, state, value, updated_at
		FROM %s
		ORDER BY value DESC, email
	`, table))
	if err != nil {
		return nil, fmt.Errorf("query audience: %w", err)
	}
	defer rows.Close()

	var members []AudienceMember
	for rows.Next() {
		var (
			m                  AudienceMember
			name, phone, state sql.NullString
			updatedAt          sql.NullString
		)
		if err := rows.Scan(&name, &m.Email, &phone, &m.Country, &state, &m.Value, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan audience member: %w", err)
		}
		m.Name = name.String
		m.Phone = phone.String
		m.State = state.String
		m.UpdatedAt = parseTime(updatedAt.String)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audience: %w", err)
	}
	return members, nil
}
