package service

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/parcelmarket/shipping-marketplace/internal/api/metrics"
	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
)

// CommissionResult is the outcome of applying commission to a raw carrier price.
type CommissionResult struct {
	FinalPrice           float64
	CommissionAmount     float64
	CommissionPercentage float64
}

// CommissionEngine applies the per-carrier commission markup with the hard
// floor enforced. The floor check runs at every site that renders a price to
// a customer: an under-commissioned configuration is a defect to correct at
// the boundary, not assumed impossible.
type CommissionEngine struct {
	audit AuditEmitter
	log   zerolog.Logger
}

func NewCommissionEngine(audit AuditEmitter, log zerolog.Logger) *CommissionEngine {
	return &CommissionEngine{audit: audit, log: log}
}

// Apply marks up rawPrice with the carrier's configured commission from the
// snapshot, clamped to the floor. The clamp is logged as an anomaly.
func (e *CommissionEngine) Apply(rawPrice float64, carrier domain.CarrierCode, snap domain.PricingSnapshot, reference string) CommissionResult {
	floor := snap.FloorPct
	if floor <= 0 {
		floor = domain.CommissionFloorPct
	}

	pct := snap.CommissionFor(carrier)
	if pct < floor {
		e.log.Warn().
			Str("carrier", string(carrier)).
			Float64("configured_pct", pct).
			Float64("floor_pct", floor).
			Msg("commission below floor, clamping")
		metrics.CommissionFloorClampsTotal.WithLabelValues(string(carrier)).Inc()
		pct = floor
	}

	final := round2(rawPrice * (1 + pct/100))
	result := CommissionResult{
		FinalPrice:           final,
		CommissionAmount:     round2(final - rawPrice),
		CommissionPercentage: pct,
	}

	e.audit.Emit(domain.AuditEvent{
		Reference: reference,
		Stage:     domain.StageCommission,
		Carrier:   string(carrier),
		Amount:    result.CommissionAmount,
		Detail:    fmt.Sprintf("%.2f%% on %.2f", pct, rawPrice),
		Timestamp: time.Now().UTC(),
	})

	return result
}

// round2 rounds to two decimal places, the money precision used everywhere
// prices are formatted.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
