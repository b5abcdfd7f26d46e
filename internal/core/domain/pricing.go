package domain

import "time"

// CommissionFloorPct is the hard lower bound on the commission percentage
// applied to any price shown to a customer. Configured values below the floor
// are clamped and logged as anomalies at every display site.
const CommissionFloorPct = 15.0

// CommissionSetting is the per-carrier commission percentage configured by
// administrators.
type CommissionSetting struct {
	Carrier   CarrierCode `json:"carrier" bson:"carrier"`
	Percent   float64     `json:"percent" bson:"percent"`
	UpdatedBy string      `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
	UpdatedAt time.Time   `json:"updated_at" bson:"updated_at"`
}

// MarkupType distinguishes fixed-amount from percentage markup rules.
type MarkupType string

const (
	MarkupFixed      MarkupType = "fixed"
	MarkupPercentage MarkupType = "percentage"
)

// MarkupRule is an admin-configured price adjustment scoped by carrier,
// weight range, and destination countries. Matching rules fire additively in
// priority order; a rule whose scope does not match contributes nothing.
type MarkupRule struct {
	ID        string     `json:"id" bson:"_id,omitempty"`
	Name      string     `json:"name" bson:"name"`
	Priority  int        `json:"priority" bson:"priority"`
	Carrier   string     `json:"carrier,omitempty" bson:"carrier,omitempty"`         // empty = any carrier
	MinWeight float64    `json:"min_weight,omitempty" bson:"min_weight,omitempty"`   // inclusive
	MaxWeight float64    `json:"max_weight,omitempty" bson:"max_weight,omitempty"`   // inclusive; 0 = unbounded
	Countries []string   `json:"countries,omitempty" bson:"countries,omitempty"`     // empty = any destination
	Type      MarkupType `json:"type" bson:"type"`
	Value     float64    `json:"value" bson:"value"`
	Active    bool       `json:"active" bson:"active"`
}

// Matches reports whether the rule's scope covers the given carrier, billed
// weight, and destination country.
func (r MarkupRule) Matches(carrier CarrierCode, weight float64, country string) bool {
	if !r.Active {
		return false
	}
	if r.Carrier != "" && r.Carrier != string(carrier) {
		return false
	}
	if weight < r.MinWeight {
		return false
	}
	if r.MaxWeight > 0 && weight > r.MaxWeight {
		return false
	}
	if len(r.Countries) > 0 {
		found := false
		for _, c := range r.Countries {
			if c == country {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// PricingSnapshot is a read-only view of the commission and markup
// configuration, fetched once per request and threaded through every pipeline
// stage. Taking one snapshot avoids stages within the same request observing
// different configuration.
type PricingSnapshot struct {
	Commissions map[CarrierCode]float64
	FloorPct    float64
	Rules       []MarkupRule
}

// CommissionFor returns the configured commission percentage for a carrier,
// falling back to the floor when none is configured.
func (s PricingSnapshot) CommissionFor(carrier CarrierCode) float64 {
	if pct, ok := s.Commissions[carrier]; ok {
		return pct
	}
	return s.FloorPct
}

// PricingRow is a database-stored fallback pricing entry, keyed by service
// type and weight breakpoints. Used only when live quoting is fully
// unavailable.
type PricingRow struct {
	ID           string  `json:"id" bson:"_id,omitempty"`
	ServiceType  string  `json:"service_type" bson:"service_type"` // "economy" or "express"
	MinWeight    float64 `json:"min_weight" bson:"min_weight"`
	MaxWeight    float64 `json:"max_weight" bson:"max_weight"` // 0 = unbounded
	FlatPrice    float64 `json:"flat_price" bson:"flat_price"`
	PerPoundRate float64 `json:"per_pound_rate" bson:"per_pound_rate"`
}

// Price computes the row's price for a billed weight.
func (p PricingRow) Price(weight float64) float64 {
	return p.FlatPrice + p.PerPoundRate*weight
}
