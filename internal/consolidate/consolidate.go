// Package consolidate implements the identity consolidation engine: the
// master-record upsert algorithm that merges the raw payments and chat
// logs into exactly one master customer record per real person.
//
// Hotmart (payments) is the source of truth. The engine runs a payments
// pass first, then a supplemental chat pass; chat data never overwrites
// payments data and a chat-only person without a phone never reaches the
// master table. Consolidation fully recomputes purchase flags and
// segments from the sale log on every run, so re-running it against
// unchanged raw logs is a no-op.
package consolidate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vitrine-labs/crmsync/internal/model"
	"github.com/vitrine-labs/crmsync/internal/segment"
	"github.com/vitrine-labs/crmsync/internal/store"
)

// Engine consolidates the raw logs into the master customer table.
type Engine struct {
	store      *store.Store
	classifier *segment.Classifier
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow overrides the engine's time source. Used by tests to pin
// updated_at stamps.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates a consolidation engine over the given store and classifier.
func New(st *store.Store, classifier *segment.Classifier, opts ...Option) *Engine {
	e := &Engine{
		store:      st,
		classifier: classifier,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stats summarizes one consolidation run.
type Stats struct {
	HotmartProcessed  int
	HotmartSkipped    int
	ContactsProcessed int
	ContactsSkipped   int
	Created           int
	Updated           int
}

// Consolidate rebuilds the master table from the raw logs: first the
// payments pass over the latest record per payments id, then the chat
// pass over contacts carrying a whatsapp value.
//
// A malformed raw record is logged and skipped; one bad row never aborts
// the pass. The operation is idempotent.
func (e *Engine) Consolidate(ctx context.Context) (Stats, error) {
	var stats Stats

	customers, err := e.store.LatestHotmartCustomers(ctx)
	if err != nil {
		return stats, fmt.Errorf("load latest payments customers: %w", err)
	}
	for _, c := range customers {
		if err := e.upsertFromHotmart(ctx, c, &stats); err != nil {
			stats.HotmartSkipped++
			e.logger.Warn("skipping payments record",
				"hotmart_id", c.ID, "error", err)
			continue
		}
		stats.HotmartProcessed++
	}

	contacts, err := e.store.ContactsWithWhatsapp(ctx)
	if err != nil {
		return stats, fmt.Errorf("load chat contacts: %w", err)
	}
	for _, c := range contacts {
		if err := e.upsertFromManychat(ctx, c, &stats); err != nil {
			stats.ContactsSkipped++
			e.logger.Warn("skipping chat contact",
				"manychat_id", c.ID, "error", err)
			continue
		}
		stats.ContactsProcessed++
	}

	e.logger.Info("consolidation finished",
		"hotmart_processed", stats.HotmartProcessed,
		"hotmart_skipped", stats.HotmartSkipped,
		"contacts_processed", stats.ContactsProcessed,
		"contacts_skipped", stats.ContactsSkipped,
		"created", stats.Created,
		"updated", stats.Updated,
	)
	return stats, nil
}

// upsertFromHotmart applies one payments customer (already the latest row
// for its id) to the master table.
func (e *Engine) upsertFromHotmart(ctx context.Context, c model.Customer, stats *Stats) error {
	email := model.CanonicalEmail(c.Email)
	phone := model.CanonicalPhone(c.Phone)
	if c.ID == "" && email == "" && phone == "" {
		return fmt.Errorf("record carries no identifying field")
	}

	productIDs, purchased, lastPurchase, err := e.store.SaleFacts(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("aggregate sales: %w", err)
	}

	in := model.MasterCustomer{
		Email:        email,
		Phone:        phone,
		Name:         model.CanonicalName(c.Name),
		Document:     c.Document,
		HotmartID:    c.ID,
		Source:       model.SourceHotmart,
		HasPurchased: purchased,
		Segment:      e.classifier.Classify(productIDs),
		LastPurchase: lastPurchase,
	}

	existing, err := e.lookup(ctx, email, phone, c.ID, 0)
	if err != nil {
		return err
	}

	if existing == nil {
		in.UpdatedAt = e.now()
		if _, err := e.store.InsertMaster(ctx, in); err != nil {
			return err
		}
		stats.Created++
		return nil
	}

	if err := e.store.ApplyHotmart(ctx, existing.ID, in, e.now()); err != nil {
		return err
	}
	stats.Updated++
	return nil
}

// upsertFromManychat applies one chat contact to the master table. The
// caller has already filtered contacts to those with a whatsapp value;
// the precondition is restated here because creating a chat-sourced
// master record without a phone is never allowed.
func (e *Engine) upsertFromManychat(ctx context.Context, c model.Contact, stats *Stats) error {
	phone := model.CanonicalPhone(c.Whatsapp)
	if phone == "" {
		return fmt.Errorf("contact has no whatsapp value")
	}
	email := model.CanonicalEmail(c.Email)

	in := model.MasterCustomer{
		Email:      email,
		Phone:      phone,
		Name:       model.CanonicalName(c.Name),
		Instagram:  c.Instagram,
		ManychatID: c.ID,
		Source:     model.SourceManychat,
	}

	existing, err := e.lookup(ctx, email, phone, "", c.ID)
	if err != nil {
		return err
	}

	if existing == nil {
		in.UpdatedAt = e.now()
		if _, err := e.store.InsertMaster(ctx, in); err != nil {
			return err
		}
		stats.Created++
		return nil
	}

	// Payments-owned records only accept the chat linkage fields; a
	// chat-owned record fills whatever it is still missing.
	if existing.Source == model.SourceHotmart {
		if err := e.store.FillContactLink(ctx, existing.ID, c.Instagram, c.ID, e.now()); err != nil {
			return err
		}
	} else {
		if err := e.store.FillFromManychat(ctx, existing.ID, in, e.now()); err != nil {
			return err
		}
	}
	stats.Updated++
	return nil
}

// lookup locates an existing master record by, in order: canonical email,
// phone, then source id. First match wins.
func (e *Engine) lookup(ctx context.Context, email, phone, hotmartID string, manychatID int64) (*model.MasterCustomer, error) {
	if email != "" {
		m, err := e.store.FindMasterByEmail(ctx, email)
		if err != nil || m != nil {
			return m, err
		}
	}
	if phone != "" {
		m, err := e.store.FindMasterByPhone(ctx, phone)
		if err != nil || m != nil {
			return m, err
		}
	}
	if hotmartID != "" {
		m, err := e.store.FindMasterByHotmartID(ctx, hotmartID)
		if err != nil || m != nil {
			return m, err
		}
	}
	if manychatID != 0 {
		m, err := e.store.FindMasterByManychatID(ctx, manychatID)
		if err != nil || m != nil {
			return m, err
		}
	}
	return nil, nil
}
