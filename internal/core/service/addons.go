package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

// AddonEngine computes addon charges per package classification and carrier
// surcharge data.
type AddonEngine struct {
	repo  ports.AddonRepository
	audit AuditEmitter
	log   zerolog.Logger
}

func NewAddonEngine(repo ports.AddonRepository, audit AuditEmitter, log zerolog.Logger) *AddonEngine {
	return &AddonEngine{repo: repo, audit: audit, log: log}
}

// ValidationResult reports whether the selected addons cover every mandatory
// addon derived from the package classifications.
type ValidationResult struct {
	Valid   bool
	Missing []string
}

// PriceAddons enriches the active addon catalog for one carrier's quote:
// each addon gets its computed price, mandatory flag, and live-price marker.
//
// A carrier_rate addon's price is authoritative only when the carrier
// actually returned a matching surcharge line. No fallback price is ever
// synthesized: absent the line, the price is 0 and IsLivePrice is false,
// meaning the carrier will charge it at shipment creation.
func (e *AddonEngine) PriceAddons(ctx context.Context, carrier domain.CarrierCode, surcharges []domain.SurchargeLine, packages []domain.PackageDescriptor, reference string) ([]domain.PricedAddon, error) {
	defs, err := e.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list addons: %w", err)
	}

	mandatory := make(map[string]bool)
	for _, code := range domain.MandatoryAddonCodes(packages) {
		mandatory[code] = true
	}
	declaredValue := domain.TotalDeclaredValue(packages)

	priced := make([]domain.PricedAddon, 0, len(defs))
	for _, def := range defs {
		pa := e.price(def, declaredValue, surcharges)
		pa.Mandatory = mandatory[def.Code]
		priced = append(priced, pa)

		e.audit.Emit(domain.AuditEvent{
			Reference: reference,
			Stage:     domain.StageAddon,
			Carrier:   string(carrier),
			Amount:    pa.ComputedPrice,
			Detail:    fmt.Sprintf("%s (%s, live=%t)", def.Code, def.PriceType, pa.IsLivePrice),
			Timestamp: time.Now().UTC(),
		})
	}
	return priced, nil
}

// PriceSelected recomputes the charges for an explicit addon selection at
// checkout. Client-computed addon totals are never trusted; this is the
// server-side recomputation. Returns the priced addons and their sum.
func (e *AddonEngine) PriceSelected(ctx context.Context, ids []string, declaredValue float64, surcharges []domain.SurchargeLine) ([]domain.PricedAddon, float64, error) {
	if len(ids) == 0 {
		return nil, 0, nil
	}
	defs, err := e.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("find addons: %w", err)
	}

	var total float64
	priced := make([]domain.PricedAddon, 0, len(defs))
	for _, def := range defs {
		pa := e.price(def, declaredValue, surcharges)
		priced = append(priced, pa)
		total += pa.ComputedPrice
	}
	return priced, round2(total), nil
}

func (e *AddonEngine) price(def domain.AddonDefinition, declaredValue float64, surcharges []domain.SurchargeLine) domain.PricedAddon {
	pa := domain.PricedAddon{AddonDefinition: def, IsLivePrice: true}

	switch def.PriceType {
	case domain.AddonPriceFixed:
		pa.ComputedPrice = round2(def.Price)
	case domain.AddonPricePercentage:
		pa.ComputedPrice = round2(declaredValue * def.Percent / 100)
	case domain.AddonPriceCarrierRate:
		pa.IsLivePrice = false
		code := def.SurchargeCode
		if code == "" {
			code = def.Code
		}
		for _, line := range surcharges {
			if line.Code == code {
				pa.ComputedPrice = round2(line.Amount)
				pa.IsLivePrice = true
				break
			}
		}
	default:
		e.log.Warn().Str("addon", def.Code).Str("price_type", string(def.PriceType)).Msg("unknown addon price type")
	}
	return pa
}

// ValidateMandatory checks the selected addon codes against the codes
// required by the package classifications: a pure set difference.
//
// A mandatory carrier_rate addon with no live price still passes as long as
// it is selected and does not block checkout; some carriers omit surcharge
// lines from quote responses but still apply them at label creation.
func (e *AddonEngine) ValidateMandatory(selectedCodes []string, packages []domain.PackageDescriptor) ValidationResult {
	selected := make(map[string]bool, len(selectedCodes))
	for _, code := range selectedCodes {
		selected[code] = true
	}

	var missing []string
	for _, code := range domain.MandatoryAddonCodes(packages) {
		if !selected[code] {
			missing = append(missing, code)
		}
	}
	return ValidationResult{Valid: len(missing) == 0, Missing: missing}
}
