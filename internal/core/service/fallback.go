package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/parcelmarket/shipping-marketplace/internal/api/metrics"
	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

// Default heuristic estimate parameters, the last fallback tier. The end
// customer must always see some quote.
const (
	defaultEconomyMinPrice = 15.0
	defaultEconomyPerLb    = 6.0
	defaultExpressMinPrice = 25.0
	defaultExpressPerLb    = 12.0

	economyTransitDays = 7
	expressTransitDays = 3
)

// FallbackEngine produces quotes when live quoting is fully unavailable.
// Tier 1: database pricing rows keyed by service type and weight breakpoints
// (volumetric weight supersedes physical above the linear-dimension
// threshold). Tier 2: hardcoded heuristic estimates. Every tier passes
// through the CommissionEngine, so the floor is enforced even on fallback
// prices.
type FallbackEngine struct {
	repo       ports.FallbackPricingRepository
	commission *CommissionEngine
	audit      AuditEmitter
	log        zerolog.Logger
}

func NewFallbackEngine(repo ports.FallbackPricingRepository, commission *CommissionEngine, audit AuditEmitter, log zerolog.Logger) *FallbackEngine {
	return &FallbackEngine{repo: repo, commission: commission, audit: audit, log: log}
}

// Calculate returns one economy and one express estimate for the package
// set. The result is never empty.
func (e *FallbackEngine) Calculate(ctx context.Context, packages []domain.PackageDescriptor, snap domain.PricingSnapshot, reference string) []domain.FormattedRate {
	weight := e.billableWeight(packages)

	economy, economySource := e.tierPrice(ctx, "economy", weight)
	express, expressSource := e.tierPrice(ctx, "express", weight)

	now := time.Now().UTC()
	rates := []domain.FormattedRate{
		e.format(economy, domain.CarrierFedEx, "FedEx International Economy", "fedex-fallback-economy", economyTransitDays, economySource, snap, reference, now),
		e.format(express, domain.CarrierDHL, "DHL Express Worldwide", "dhl-fallback-express", expressTransitDays, expressSource, snap, reference, now),
	}
	return rates
}

// billableWeight returns the weight the pricing rows are keyed on. Above the
// linear-dimension threshold volumetric pricing supersedes per-pound pricing.
func (e *FallbackEngine) billableWeight(packages []domain.PackageDescriptor) float64 {
	var total float64
	for _, p := range packages {
		if p.Dimensions.LinearSize() > domain.LinearDimensionThreshold {
			total += p.Dimensions.VolumetricWeight()
			continue
		}
		total += p.BilledWeight()
	}
	return total
}

// tierPrice resolves the raw (pre-commission) price and its source for one
// service type: a matching database row, else the default heuristic.
func (e *FallbackEngine) tierPrice(ctx context.Context, serviceType string, weight float64) (float64, domain.RateSource) {
	row, err := e.repo.FindRow(ctx, serviceType, weight)
	if err != nil {
		e.log.Warn().Err(err).Str("service_type", serviceType).Msg("fallback pricing lookup failed")
	}
	if row != nil {
		return row.Price(weight), domain.SourceFallback
	}

	switch serviceType {
	case "express":
		return maxF(defaultExpressMinPrice, weight*defaultExpressPerLb), domain.SourceDefault
	default:
		return maxF(defaultEconomyMinPrice, weight*defaultEconomyPerLb), domain.SourceDefault
	}
}

func (e *FallbackEngine) format(raw float64, carrier domain.CarrierCode, serviceName, serviceID string, transitDays int, source domain.RateSource, snap domain.PricingSnapshot, reference string, now time.Time) domain.FormattedRate {
	metrics.FallbackQuotesTotal.WithLabelValues(string(source)).Inc()

	commissioned := e.commission.Apply(raw, carrier, snap, reference)

	e.audit.Emit(domain.AuditEvent{
		Reference: reference,
		Stage:     domain.StageFallback,
		Carrier:   string(carrier),
		Amount:    commissioned.FinalPrice,
		Detail:    fmt.Sprintf("%s tier=%s raw=%.2f", serviceName, source, raw),
		Timestamp: now,
	})

	return domain.FormattedRate{
		Carrier:          carrier,
		ServiceName:      serviceName,
		CarrierServiceID: serviceID,
		Price:            commissioned.FinalPrice,
		BaseCharge:       round2(raw),
		Currency:         "USD",
		TransitDays:      transitDays,
		DeliveryDate:     now.AddDate(0, 0, transitDays),
		Source:           source,
	}
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
