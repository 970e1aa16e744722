package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vitrine-labs/crmsync/internal/model"
)

// AppendCustomer appends a payments-platform customer row to the raw log.
// Appends never overwrite: the same customer id may accumulate many rows
// and consolidation resolves them by imported_at.
func (s *Store) AppendCustomer(ctx context.Context, c model.Customer) error {
	return s.execContext(ctx, "append customer", `
		INSERT INTO hotmart_customers (
			id, email, name, phone, document,
			zip_code, address, number, neighborhood, city, state, country,
			created_at, updated_at, imported_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		nullString(c.Email),
		nullString(c.Name),
		nullString(c.Phone),
		nullString(c.Document),
		nullString(c.ZipCode),
		nullString(c.Address),
		nullString(c.Number),
		nullString(c.Neighborhood),
		nullString(c.City),
		nullString(c.State),
		nullString(c.Country),
		formatTime(c.CreatedAt),
		nullTime(c.UpdatedAt),
		formatTime(c.ImportedAt),
	)
}

// AppendContact appends a chat-platform contact row to the raw log and
// returns its generated id.
func (s *Store) AppendContact(ctx context.Context, c model.Contact) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO manychat_contacts (
			nome, email, instagram, whatsapp, data_remarketing,
			agendamento, data_agendamento, contactar, data_contactar,
			ultima_interacao, data_registro, imported_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		nullString(c.Name),
		nullString(c.Email),
		nullString(c.Instagram),
		nullString(c.Whatsapp),
		nullString(c.DataRemarketing),
		nullString(c.Agendamento),
		nullString(c.DataAgendamento),
		nullString(c.Contactar),
		nullString(c.DataContactar),
		nullString(c.UltimaInteracao),
		nullString(c.DataRegistro),
		formatTime(c.ImportedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("append contact: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append contact: %w", err)
	}
	return id, nil
}

// UpsertProduct inserts or updates a product by id, latest name wins.
func (s *Store) UpsertProduct(ctx context.Context, p model.Product) error {
	return s.execContext(ctx, "upsert product", `
		INSERT INTO products (id, name)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, p.ID, p.Name)
}

// AppendSale appends a sale row. The sale log has no upsert key: repeated
// syncs over overlapping windows may insert duplicates.
func (s *Store) AppendSale(ctx context.Context, sale model.Sale) error {
	return s.execContext(ctx, "append sale", `
		INSERT INTO sales (
			transaction_id, status, total_price, currency, payment_method,
			payment_type, installments, approved_date, order_date,
			purchased_at, updated_at, customer_id, product_id, imported_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sale.TransactionID,
		sale.Status,
		sale.TotalPrice,
		sale.Currency,
		nullString(sale.PaymentMethod),
		nullString(sale.PaymentType),
		nullInt64(sale.Installments),
		nullInt64(sale.ApprovedDate),
		nullInt64(sale.OrderDate),
		formatTime(sale.PurchasedAt),
		nullTime(sale.UpdatedAt),
		sale.CustomerID,
		sale.ProductID,
		formatTime(sale.ImportedAt),
	)
}

// MaxPurchasedAt returns the latest purchased_at over the whole sale log.
// ok is false when the log is empty - the signal that drives the sync
// state machine into its initial-sync path.
func (s *Store) MaxPurchasedAt(ctx context.Context) (t time.Time, ok bool, err error) {
	var max sql.NullString
	row := s.db.QueryRowContext(ctx, `SELECT MAX(purchased_at) FROM sales`)
	if err := row.Scan(&max); err != nil {
		return time.Time{}, false, fmt.Errorf("max purchased_at: %w", err)
	}
	if !max.Valid || max.String == "" {
		return time.Time{}, false, nil
	}
	return parseTime(max.String), true, nil
}

// LatestHotmartCustomers returns, for each distinct payments customer id,
// its most recently imported raw row. Ties on imported_at fall back to the
// highest row_id, keeping the aggregation deterministic.
func (s *Store) LatestHotmartCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH ranked AS (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY id
				ORDER BY imported_at DESC, row_id DESC
			) AS rn
			FROM hotmart_customers
		)
		SELECT id, email, name, phone, document, created_at, updated_at, imported_at
		FROM ranked
		WHERE rn = 1
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query latest customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var (
			c                            model.Customer
			email, name, phone, document sql.NullString
			createdAt, importedAt        string
			updatedAt                    sql.NullString
		)
		if err := rows.Scan(&c.ID, &email, &name, &phone, &document,
			&createdAt, &updatedAt, &importedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		c.Email = email.String
		c.Name = name.String
		c.Phone = phone.String
		c.Document = document.String
		c.CreatedAt = parseTime(createdAt)
		c.UpdatedAt = parseTime(updatedAt.String)
		c.ImportedAt = parseTime(importedAt)
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}

// ContactsWithWhatsapp returns the raw contacts eligible for master
// consolidation: rows with a non-empty whatsapp value. Contacts without
// one stay in the raw log only.
func (s *Store) ContactsWithWhatsapp(ctx context.Context) ([]model.Contact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nome, email, instagram, whatsapp, imported_at
		FROM manychat_contacts
		WHERE whatsapp IS NOT NULL AND whatsapp != ''
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var (
			c                       model.Contact
			name, email, insta, wpp sql.NullString
			importedAt              string
		)
		if err := rows.Scan(&c.ID, &name, &email, &insta, &wpp, &importedAt); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.Name = name.String
		c.Email = email.String
		c.Instagram = insta.String
		c.Whatsapp = wpp.String
		c.ImportedAt = parseTime(importedAt)
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

// SaleFacts aggregates the sale log for one payments customer id: the
// distinct product ids ever referenced, whether any sale counts as a
// completed purchase, and the latest purchase time among those.
//
// Duplicate sale rows (overlapping syncs) do not affect the result:
// DISTINCT and MAX are insensitive to row multiplicity.
func (s *Store) SaleFacts(ctx context.Context, customerID string) (productIDs []string, purchased bool, lastPurchase time.Time, err error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT product_id FROM sales WHERE customer_id = ? ORDER BY product_id`,
		customerID)
	if err != nil {
		return nil, false, time.Time{}, fmt.Errorf("query sale products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, false, time.Time{}, fmt.Errorf("scan product id: %w", err)
		}
		productIDs = append(productIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, false, time.Time{}, fmt.Errorf("iterate sale products: %w", err)
	}

	var last sql.NullString
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT MAX(purchased_at) FROM sales WHERE customer_id = ? AND UPPER(status) IN (%s)`,
		approvedStatusPlaceholders()), saleFactsArgs(customerID)...)
	if err := row.Scan(&last); err != nil {
		return nil, false, time.Time{}, fmt.Errorf("query purchase flag: %w", err)
	}
	if last.Valid && last.String != "" {
		purchased = true
		lastPurchase = parseTime(last.String)
	}

	return productIDs, purchased, lastPurchase, nil
}

func approvedStatusPlaceholders() string {
	return strings.TrimSuffix(strings.Repeat("?, ", len(model.ApprovedStatuses)), ", ")
}

func saleFactsArgs(customerID string) []any {
	args := []any{customerID}
	for _, status := range model.ApprovedStatuses {
		args = append(args, status)
	}
	return args
}
