package domain

import "sort"

// AddonPriceType determines how an addon's charge is computed.
type AddonPriceType string

const (
	// AddonPriceFixed charges the catalog's static price.
	AddonPriceFixed AddonPriceType = "fixed"
	// AddonPricePercentage charges a percentage of the declared value.
	AddonPricePercentage AddonPriceType = "percentage"
	// AddonPriceCarrierRate takes the price from the carrier's surcharge
	// breakdown. Never synthesized: absent a matching surcharge line the
	// price is 0 and the addon is flagged as not live-priced.
	AddonPriceCarrierRate AddonPriceType = "carrier_rate"
)

// Well-known addon codes tied to item classifications.
const (
	AddonDangerousGoods     = "dangerous_goods"
	AddonExtraHandling      = "extra_handling"
	AddonAdditionalHandling = "additional_handling"
)

// AddonDefinition is a catalog entry for an optional or mandatory extra
// service. Mutated only by administrators; read-only at quote time.
type AddonDefinition struct {
	ID            string         `json:"id" bson:"_id,omitempty"`
	Code          string         `json:"code" bson:"code"`
	DisplayName   string         `json:"display_name" bson:"display_name"`
	PriceType     AddonPriceType `json:"price_type" bson:"price_type"`
	Price         float64        `json:"price,omitempty" bson:"price,omitempty"`     // fixed price
	Percent       float64        `json:"percent,omitempty" bson:"percent,omitempty"` // percentage of declared value
	SurchargeCode string         `json:"surcharge_code,omitempty" bson:"surcharge_code,omitempty"`
	Active        bool           `json:"active" bson:"active"`
}

// PricedAddon is an addon enriched with its computed price for a specific
// quote: mandatory flag from the package classifications, and whether the
// price came from a live carrier surcharge line.
type PricedAddon struct {
	AddonDefinition
	ComputedPrice float64 `json:"computed_price"`
	Mandatory     bool    `json:"mandatory"`
	// IsLivePrice is false for a carrier_rate addon whose surcharge the
	// carrier did not return at quote time. The addon is still allowed
	// through checkout; the carrier charges it at shipment creation.
	IsLivePrice bool `json:"is_live_price"`
}

// MandatoryAddonCodes derives the addon codes required by the item
// classifications across all packages. The mapping is fixed:
// dangerous items require dangerous_goods, fragile items extra_handling,
// oversized items additional_handling. The result is sorted and
// deduplicated, so it is independent of item order.
func MandatoryAddonCodes(packages []PackageDescriptor) []string {
	required := make(map[string]bool)
	for _, p := range packages {
		for _, item := range p.Items {
			if item.IsDangerous {
				required[AddonDangerousGoods] = true
			}
			if item.IsFragile {
				required[AddonExtraHandling] = true
			}
			if item.IsOversized {
				required[AddonAdditionalHandling] = true
			}
		}
	}
	codes := make([]string, 0, len(required))
	for code := range required {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
