// Package testutil provides shared test fixtures: temp-file stores,
// pinned clocks and record builders used across package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vitrine-labs/crmsync/internal/model"
	"github.com/vitrine-labs/crmsync/internal/store"
)

// OpenStore opens a fresh SQLite store under t.TempDir, closed on cleanup.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	})
	return st
}

// Day returns midnight UTC of 2024-01-<day>. Tests use it as a compact
// way to build distinct, ordered timestamps.
func Day(day int) time.Time {
	return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
}

// FixedNow returns a time source pinned to t.
func FixedNow(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// Customer builds a raw payments customer with the fields tests care
// about, imported at the given time.
func Customer(id, email, name, phone string, importedAt time.Time) model.Customer {
	return model.Customer{
		ID:         id,
		Email:      email,
		Name:       name,
		Phone:      phone,
		CreatedAt:  importedAt,
		ImportedAt: importedAt,
	}
}

// Contact builds a raw chat contact.
func Contact(name, email, instagram, whatsapp string, importedAt time.Time) model.Contact {
	return model.Contact{
		Name:       name,
		Email:      email,
		Instagram:  instagram,
		Whatsapp:   whatsapp,
		ImportedAt: importedAt,
	}
}

// Sale builds a sale row for a customer/product pair.
func Sale(txn, status, customerID, productID string, price float64, at time.Time) model.Sale {
	return model.Sale{
		TransactionID: txn,
		Status:        status,
		TotalPrice:    price,
		Currency:      "BRL",
		PurchasedAt:   at,
		CustomerID:    customerID,
		ProductID:     productID,
		ImportedAt:    at,
	}
}

// SeedSale appends a sale and its product so joins resolve.
func SeedSale(t *testing.T, st *store.Store, sale model.Sale) {
	t.Helper()
	ctx := context.Background()

	if err := st.UpsertProduct(ctx, model.Product{ID: sale.ProductID, Name: "Product " + sale.ProductID}); err != nil {
		t.Fatalf("UpsertProduct() failed: %v", err)
	}
	if err := st.AppendSale(ctx, sale); err != nil {
		t.Fatalf("AppendSale() failed: %v", err)
	}
}
