package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vitrine-labs/crmsync/internal/model"
)

const masterColumns = `
	id, master_email, master_phone, name, instagram, document,
	hotmart_id, manychat_id, source, has_purchased, segment,
	last_remarketing_at, last_purchase_at, updated_at
`

// FindMasterByEmail looks up a master record by canonical email.
// Returns (nil, nil) when no record matches.
func (s *Store) FindMasterByEmail(ctx context.Context, email string) (*model.MasterCustomer, error) {
	return s.findMaster(ctx, `master_email = ?`, email)
}

// FindMasterByPhone looks up a master record by phone.
func (s *Store) FindMasterByPhone(ctx context.Context, phone string) (*model.MasterCustomer, error) {
	return s.findMaster(ctx, `master_phone = ?`, phone)
}

// FindMasterByHotmartID looks up a master record by payments-platform id.
func (s *Store) FindMasterByHotmartID(ctx context.Context, hotmartID string) (*model.MasterCustomer, error) {
	return s.findMaster(ctx, `hotmart_id = ?`, hotmartID)
}

// FindMasterByManychatID looks up a master record by chat-platform id.
func (s *Store) FindMasterByManychatID(ctx context.Context, manychatID int64) (*model.MasterCustomer, error) {
	return s.findMaster(ctx, `manychat_id = ?`, manychatID)
}

func (s *Store) findMaster(ctx context.Context, where string, arg any) (*model.MasterCustomer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+masterColumns+` FROM customers WHERE `+where, arg)

	m, err := scanMaster(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find master: %w", err)
	}
	return m, nil
}

// InsertMaster creates a new master record and returns its id.
func (s *Store) InsertMaster(ctx context.Context, m model.MasterCustomer) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (
			master_email, master_phone, name, instagram, document,
			hotmart_id, manychat_id, source, has_purchased, segment,
			last_purchase_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		nullString(m.Email),
		nullString(m.Phone),
		nullString(m.Name),
		nullString(m.Instagram),
		nullString(m.Document),
		nullString(m.HotmartID),
		nullInt64(m.ManychatID),
		string(m.Source),
		m.HasPurchased,
		nullString(string(m.Segment)),
		nullTime(m.LastPurchase),
		nullTime(m.UpdatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert master: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert master: %w", err)
	}
	return id, nil
}

// ApplyHotmart merges payments-platform data into an existing master
// record. Incoming non-null values overwrite; null incoming values retain
// the existing column (COALESCE on the incoming side). Source is forced to
// HOTMART, has_purchased only ever moves to true, and segment falls back
// to the existing value when the incoming one is empty.
func (s *Store) ApplyHotmart(ctx context.Context, id int64, m model.MasterCustomer, now time.Time) error {
	return s.execContext(ctx, "apply hotmart master", `
		UPDATE customers SET
			master_email = COALESCE(?, master_email),
			master_phone = COALESCE(?, master_phone),
			name = COALESCE(?, name),
			document = COALESCE(?, document),
			hotmart_id = COALESCE(?, hotmart_id),
			source = 'HOTMART',
			has_purchased = MAX(has_purchased, ?),
			segment = COALESCE(?, segment),
			last_purchase_at = COALESCE(?, last_purchase_at),
			updated_at = ?
		WHERE id = ?
	`,
		nullString(m.Email),
		nullString(m.Phone),
		nullString(m.Name),
		nullString(m.Document),
		nullString(m.HotmartID),
		m.HasPurchased,
		nullString(string(m.Segment)),
		nullTime(m.LastPurchase),
		formatTime(now),
		id,
	)
}

// FillFromManychat supplements a MANYCHAT-sourced master record: only
// currently-null columns are filled (COALESCE on the existing side); a
// non-null existing value is never overwritten.
func (s *Store) FillFromManychat(ctx context.Context, id int64, m model.MasterCustomer, now time.Time) error {
	return s.execContext(ctx, "fill master from manychat", `
		UPDATE customers SET
			master_email = COALESCE(master_email, ?),
			master_phone = COALESCE(master_phone, ?),
			name = COALESCE(name, ?),
			instagram = COALESCE(instagram, ?),
			manychat_id = COALESCE(manychat_id, ?),
			updated_at = ?
		WHERE id = ?
	`,
		nullString(m.Email),
		nullString(m.Phone),
		nullString(m.Name),
		nullString(m.Instagram),
		nullInt64(m.ManychatID),
		formatTime(now),
		id,
	)
}

// FillContactLink is the only write chat data may perform against a
// HOTMART-sourced master record: filling a null instagram handle and a
// null chat id. Everything else is immutable under the chat pass.
func (s *Store) FillContactLink(ctx context.Context, id int64, instagram string, manychatID int64, now time.Time) error {
	return s.execContext(ctx, "fill contact link", `
		UPDATE customers SET
			instagram = COALESCE(instagram, ?),
			manychat_id = COALESCE(manychat_id, ?),
			updated_at = ?
		WHERE id = ?
	`,
		nullString(instagram),
		nullInt64(manychatID),
		formatTime(now),
		id,
	)
}

// StampRemarketing records that a remarketing batch included this master
// record.
func (s *Store) StampRemarketing(ctx context.Context, id int64, now time.Time) error {
	return s.execContext(ctx, "stamp remarketing",
		`UPDATE customers SET last_remarketing_at = ? WHERE id = ?`,
		formatTime(now), id)
}

// AllMasters returns the full master table ordered by id. Used by reports
// and tests; the table is small relative to the raw logs.
func (s *Store) AllMasters(ctx context.Context) ([]model.MasterCustomer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+masterColumns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query masters: %w", err)
	}
	defer rows.Close()

	var masters []model.MasterCustomer
	for rows.Next() {
		m, err := scanMaster(rows)
		if err != nil {
			return nil, fmt.Errorf("scan master: %w", err)
		}
		masters = append(masters, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate masters: %w", err)
	}
	return masters, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMaster(sc scanner) (*model.MasterCustomer, error) {
	var (
		m                                 model.MasterCustomer
		email, phone, name, insta, doc    sql.NullString
		hotmartID, segment                sql.NullString
		manychatID                        sql.NullInt64
		source                            string
		lastRemarketing, lastPurchase, up sql.NullString
	)
	err := sc.Scan(&m.ID, &email, &phone, &name, &insta, &doc,
		&hotmartID, &manychatID, &source, &m.HasPurchased, &segment,
		&lastRemarketing, &lastPurchase, &up)
	if err != nil {
		return nil, err
	}

	m.Email = email.String
	m.Phone = phone.String
	m.Name = name.String
	m.Instagram = insta.String
	m.Document = doc.String
	m.HotmartID = hotmartID.String
	m.ManychatID = manychatID.Int64
	m.Source = model.Source(source)
	m.Segment = model.Segment(segment.String)
	m.LastRemarketing = parseTime(lastRemarketing.String)
	m.LastPurchase = parseTime(lastPurchase.String)
	m.UpdatedAt = parseTime(up.String)
	return &m, nil
}
