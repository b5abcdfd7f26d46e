package ports

import (
	"context"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
)

// QuoteInput carries all data needed to quote a shipment across carriers.
type QuoteInput struct {
	Reference   string // quote or shipment id, for the audit trail
	Origin      domain.Address
	Destination RawAddress
	Packages    []domain.PackageDescriptor
	ServiceType string // optional; empty quotes all services
}

// CarrierQuote is one carrier's slot in the aggregate result. Exactly one of
// the failure shapes applies: Enabled=false means the carrier has no
// configured credentials; Enabled=true with Error set means the live call
// failed. A failing carrier never affects its siblings' slots.
type CarrierQuote struct {
	Name    string                 `json:"name"`
	Enabled bool                   `json:"enabled"`
	Rates   []domain.FormattedRate `json:"rates"`
	Error   string                 `json:"error,omitempty"`
}

// QuoteResult is the aggregate rate-shopping response.
type QuoteResult struct {
	Carriers map[domain.CarrierCode]CarrierQuote `json:"carriers"`
	// BestPerCarrier holds each carrier's cheapest rate.
	BestPerCarrier map[domain.CarrierCode]*domain.FormattedRate `json:"best_per_carrier,omitempty"`
	// Best is the overall cheapest rate across carriers, nil only when the
	// fallback ladder itself produced nothing (which it never does).
	Best *domain.FormattedRate `json:"best,omitempty"`
	// Source reflects where the rates came from: live_api/cached for normal
	// quoting, fallback/default when the ladder was used.
	Source domain.RateSource `json:"rate_source"`
}

// RateService is the quoting orchestrator.
type RateService interface {
	Quote(ctx context.Context, input QuoteInput) (*QuoteResult, error)
	// AddonsFor prices the addon catalog for a carrier against a surcharge
	// breakdown and package set.
	AddonsFor(ctx context.Context, carrier domain.CarrierCode, surcharges []domain.SurchargeLine, packages []domain.PackageDescriptor) ([]domain.PricedAddon, error)
}
