// Package model defines the record types shared by the store, the sync
// pipeline, and the consolidation engine.
//
// Raw records (Customer, Contact, Sale) mirror what the upstream platforms
// hand us and are persisted append-only. MasterCustomer is the consolidated
// record downstream audience and remarketing logic reads.
package model

import "time"

// Source identifies which platform a record (or a master record's current
// owner) came from.
type Source string

const (
	// SourceHotmart is the payments platform. It is the source of truth:
	// once a master record is owned by Hotmart it is never demoted.
	SourceHotmart Source = "HOTMART"

	// SourceManychat is the chat platform. Its data only supplements.
	SourceManychat Source = "MANYCHAT"
)

// Segment is the derived purchase-mix label on a master record.
// The empty string means "no segment" (no purchases observed).
type Segment string

const (
	SegmentILPI     Segment = "ILPI"
	SegmentEstetica Segment = "ESTETICA"
	SegmentAmbos    Segment = "AMBOS"
)

// Customer is a raw payments-platform customer as imported. Multiple rows
// may exist for the same ID; the latest ImportedAt wins at consolidation.
type Customer struct {
	ID           string
	Email        string
	Name         string
	Phone        string
	Document     string
	ZipCode      string
	Address      string
	Number       string
	Neighborhood string
	City         string
	State        string
	Country      string
	CreatedAt    time.Time
	UpdatedAt    time.Time // zero when the platform sent none
	ImportedAt   time.Time
}

// Contact is a raw chat-platform contact as imported from a CSV export.
// The date fields are kept as the loose strings the export carries.
type Contact struct {
	ID              int64
	Name            string
	Email           string
	Instagram       string
	Whatsapp        string
	DataRemarketing string
	Agendamento     string
	DataAgendamento string
	Contactar       string
	DataContactar   string
	UltimaInteracao string
	DataRegistro    string
	ImportedAt      time.Time
}

// Product is a catalog entry. Upserted by ID, latest name wins.
type Product struct {
	ID   string
	Name string
}

// Sale is one imported sale row. The sale log is append-only: repeated
// syncs over overlapping windows may insert duplicate rows, so consumers
// aggregate defensively instead of assuming uniqueness.
type Sale struct {
	TransactionID string
	Status        string
	TotalPrice    float64
	Currency      string
	PaymentMethod string
	PaymentType   string
	Installments  int64
	ApprovedDate  int64 // unix ms, 0 when missing
	OrderDate     int64 // unix ms, 0 when missing
	PurchasedAt   time.Time
	UpdatedAt     time.Time
	CustomerID    string
	ProductID     string
	ImportedAt    time.Time
}

// MasterCustomer is the single consolidated record per real person.
// Email, Phone, HotmartID and ManychatID are each unique when present
// (empty string / zero means absent and maps to NULL in storage).
type MasterCustomer struct {
	ID              int64
	Email           string
	Phone           string
	Name            string
	Instagram       string
	Document        string
	HotmartID       string
	ManychatID      int64
	Source          Source
	HasPurchased    bool
	Segment         Segment
	LastRemarketing time.Time
	LastPurchase    time.Time
	UpdatedAt       time.Time
}

// ApprovedStatuses are the sale statuses that count as a completed
// purchase, compared case-insensitively.
var ApprovedStatuses = []string{"APPROVED", "COMPLETE"}
