package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
)

// AppliedRule itemizes one markup rule's contribution for auditability.
type AppliedRule struct {
	RuleID string  `json:"rule_id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// MarkupResult is the outcome of the markup stage.
type MarkupResult struct {
	FinalPrice   float64
	MarkupAmount float64
	Applied      []AppliedRule
}

// MarkupEngine applies the admin markup rules on top of the commissioned
// price. All matching rules fire and stack additively; there is no
// preference-based conflict resolution.
type MarkupEngine struct {
	audit AuditEmitter
	log   zerolog.Logger
}

func NewMarkupEngine(audit AuditEmitter, log zerolog.Logger) *MarkupEngine {
	return &MarkupEngine{audit: audit, log: log}
}

// Apply evaluates the snapshot's active rules against {carrier, weight,
// destination country} in priority order and adds the summed contributions
// to base. Percentage rules are computed against base (the price entering
// the markup stage), not against bases produced by other rules, so a $100
// base with +$5 fixed and +10% yields $115.00 regardless of rule order.
func (e *MarkupEngine) Apply(base float64, carrier domain.CarrierCode, weight float64, country string, snap domain.PricingSnapshot, reference string) MarkupResult {
	rules := make([]domain.MarkupRule, len(snap.Rules))
	copy(rules, snap.Rules)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })

	var total float64
	var applied []AppliedRule
	for _, rule := range rules {
		if !rule.Matches(carrier, weight, country) {
			continue
		}
		var amount float64
		switch rule.Type {
		case domain.MarkupFixed:
			amount = rule.Value
		case domain.MarkupPercentage:
			amount = base * rule.Value / 100
		default:
			e.log.Warn().Str("rule_id", rule.ID).Str("type", string(rule.Type)).Msg("unknown markup type, skipping")
			continue
		}
		amount = round2(amount)
		total += amount
		applied = append(applied, AppliedRule{RuleID: rule.ID, Name: rule.Name, Amount: amount})
	}

	total = round2(total)
	result := MarkupResult{
		FinalPrice:   round2(base + total),
		MarkupAmount: total,
		Applied:      applied,
	}

	if len(applied) > 0 {
		e.audit.Emit(domain.AuditEvent{
			Reference: reference,
			Stage:     domain.StageMarkup,
			Carrier:   string(carrier),
			Amount:    total,
			Detail:    fmt.Sprintf("%d rule(s) on %.2f", len(applied), base),
			Timestamp: time.Now().UTC(),
		})
	}

	return result
}
