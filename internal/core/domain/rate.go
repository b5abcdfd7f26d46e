package domain

import "time"

// RateSource tags the provenance of a quote so the customer can judge its
// confidence: a live carrier call, a cache hit, a database pricing row, or a
// hardcoded default estimate.
type RateSource string

const (
	SourceLiveAPI  RateSource = "live_api"
	SourceCached   RateSource = "cached"
	SourceFallback RateSource = "fallback"
	SourceDefault  RateSource = "default"
)

// SurchargeLine is one surcharge entry from a carrier's rate breakdown.
type SurchargeLine struct {
	Code        string  `json:"code" bson:"code"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
	Amount      float64 `json:"amount" bson:"amount"`
}

// RawCarrierRate is a carrier's quoted price as returned by its API, before
// any commission or markup. Ephemeral: never persisted, only cached in its
// formatted form.
type RawCarrierRate struct {
	Carrier         CarrierCode     `json:"carrier"`
	ServiceCode     string          `json:"service_code"`
	ServiceName     string          `json:"service_name"`
	BaseCharge      float64         `json:"base_charge"`
	TotalSurcharges float64         `json:"total_surcharges"`
	Surcharges      []SurchargeLine `json:"surcharges,omitempty"`
	Currency        string          `json:"currency"`
	TransitDays     int             `json:"transit_days"`
	DeliveryDate    time.Time       `json:"delivery_date"`
}

// TotalCharge is the carrier's full quoted price including surcharges.
func (r RawCarrierRate) TotalCharge() float64 {
	return r.BaseCharge + r.TotalSurcharges
}

// FormattedRate is the customer-facing quote: post-commission, post-markup
// price with the carrier's breakdown preserved for display. Immutable once
// returned.
type FormattedRate struct {
	Carrier            CarrierCode     `json:"carrier"`
	ServiceName        string          `json:"service_name"`
	CarrierServiceID   string          `json:"carrier_service_id"`
	Price              float64         `json:"price"`
	BaseCharge         float64         `json:"base_charge"`
	TotalSurcharges    float64         `json:"total_surcharges"`
	SurchargeBreakdown []SurchargeLine `json:"surcharge_breakdown,omitempty"`
	Currency           string          `json:"currency"`
	TransitDays        int             `json:"transit_days"`
	DeliveryDate       time.Time       `json:"delivery_date"`
	Source             RateSource      `json:"rate_source"`
}

// BestRate returns the cheapest rate in the list, or nil when empty.
func BestRate(rates []FormattedRate) *FormattedRate {
	var best *FormattedRate
	for i := range rates {
		if best == nil || rates[i].Price < best.Price {
			best = &rates[i]
		}
	}
	return best
}
