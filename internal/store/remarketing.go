package store

import (
	"context"
	"fmt"
	"time"

	"github.com/vitrine-labs/crmsync/internal/model"
)

// EligibleForRemarketing returns up to limit master records that can
// receive a remarketing touch: a phone is present and neither a previous
// touch nor a purchase happened after the cutoff. Order is randomized so
// repeated small batches rotate through the eligible pool.
func (s *Store) EligibleForRemarketing(ctx context.Context, cutoff time.Time, limit int) ([]model.MasterCustomer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+masterColumns+`
		FROM customers
		WHERE (last_remarketing_at IS NULL OR last_remarketing_at <= ?)
		  AND (last_purchase_at IS NULL OR last_purchase_at <= ?)
		  AND master_phone IS NOT NULL AND master_phone != ''
		ORDER BY RANDOM()
		LIMIT ?
	`, formatTime(cutoff), formatTime(cutoff), limit)
	if err != nil {
		return nil, fmt.Errorf("query eligible remarketing: %w", err)
	}
	defer rows.Close()

	var eligible []model.MasterCustomer
	for rows.Next() {
		m, err := scanMaster(rows)
		if err != nil {
			return nil, fmt.Errorf("scan eligible master: %w", err)
		}
		eligible = append(eligible, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate eligible masters: %w", err)
	}
	return eligible, nil
}

// InsertRemarketingHistory appends one batch member to the gold history.
func (s *Store) InsertRemarketingHistory(ctx context.Context, m model.MasterCustomer, now time.Time) error {
	return s.execContext(ctx, "insert remarketing history", `
		INSERT INTO remarketing_history (
			customer_id, email, phone, last_remarketing_at, last_purchase_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`,
		m.ID,
		nullString(m.Email),
		nullString(m.Phone),
		nullTime(m.LastRemarketing),
		nullTime(m.LastPurchase),
		formatTime(now),
	)
}

// RemarketingCounts returns the all-time history size and the number of
// entries created since dayStart.
func (s *Store) RemarketingCounts(ctx context.Context, dayStart time.Time) (total, today int, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM remarketing_history`)
	if err := row.Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("count remarketing history: %w", err)
	}

	row = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM remarketing_history WHERE created_at >= ?`,
		formatTime(dayStart))
	if err := row.Scan(&today); err != nil {
		return 0, 0, fmt.Errorf("count remarketing today: %w", err)
	}
	return total, today, nil
}
