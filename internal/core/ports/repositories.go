package ports

import (
	"context"
	"time"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
)

// PricingConfigRepository persists the admin-managed commission and markup
// configuration and serves the per-request read-only snapshot.
type PricingConfigRepository interface {
	// LoadSnapshot fetches the full pricing configuration in one read. The
	// snapshot is taken once per request so every pipeline stage observes
	// the same configuration.
	LoadSnapshot(ctx context.Context) (domain.PricingSnapshot, error)
	ListCommissions(ctx context.Context) ([]domain.CommissionSetting, error)
	UpsertCommission(ctx context.Context, setting domain.CommissionSetting) error
	ListMarkupRules(ctx context.Context) ([]domain.MarkupRule, error)
	UpsertMarkupRule(ctx context.Context, rule domain.MarkupRule) (string, error)
	DeleteMarkupRule(ctx context.Context, id string) error
}

// AddonRepository serves the addon catalog.
type AddonRepository interface {
	ListActive(ctx context.Context) ([]domain.AddonDefinition, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.AddonDefinition, error)
	Upsert(ctx context.Context, def domain.AddonDefinition) (string, error)
	Delete(ctx context.Context, id string) error
}

// FallbackPricingRepository serves the database pricing tables used when live
// quoting is fully unavailable.
type FallbackPricingRepository interface {
	// FindRow returns the pricing row matching serviceType whose weight
	// breakpoints contain weight, or nil when none matches.
	FindRow(ctx context.Context, serviceType string, weight float64) (*domain.PricingRow, error)
}

// CheckoutUpdate carries the fields written to a shipment inside the checkout
// transaction.
type CheckoutUpdate struct {
	Service        domain.SelectedService
	SelectedAddons []string
	VerifiedPrice  float64
	TransactionID  string
	PaidAt         time.Time
}

// ShipmentRepository defines persistence operations for shipments.
type ShipmentRepository interface {
	Create(ctx context.Context, s *domain.Shipment) error
	// FindByID retrieves a shipment. When clientID is non-empty, the query
	// is additionally filtered by client_id (RBAC).
	FindByID(ctx context.Context, id string, clientID string) (*domain.Shipment, error)
	// MarkPaid applies the checkout update and transitions the shipment to
	// paid. Must be called inside WithTransaction.
	MarkPaid(ctx context.Context, id string, update CheckoutUpdate) error
	// RecordTransaction persists the payment transaction record. Must be
	// called inside WithTransaction.
	RecordTransaction(ctx context.Context, shipmentID, transactionID string, amount float64) error
	MarkSubmitted(ctx context.Context, id, trackingNumber string) error
	MarkSubmissionFailed(ctx context.Context, id string, subErr domain.SubmissionError) error
	// WithTransaction runs fn inside a single transaction; fn returning an
	// error aborts and rolls back every write made through the ctx it
	// receives.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AuditRepository persists pricing audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
	ListByReference(ctx context.Context, reference string) ([]domain.AuditEvent, error)
}

// AuditSink consumes audit events emitted at pricing stage boundaries.
type AuditSink interface {
	Process(ctx context.Context, event domain.AuditEvent) error
}
