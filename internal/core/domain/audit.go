package domain

import "time"

// AuditStage identifies the pricing pipeline boundary an audit event was
// emitted from.
type AuditStage string

const (
	StageCommission    AuditStage = "commission_applied"
	StageMarkup        AuditStage = "markup_applied"
	StageAddon         AuditStage = "addon_priced"
	StageFallback      AuditStage = "fallback_used"
	StageVerification  AuditStage = "price_verified"
	StageDegradedTrust AuditStage = "degraded_rate_derivation"
)

// AuditEvent is a structured record of one pricing decision. Events are
// emitted asynchronously at stage boundaries and never influence the pricing
// functions' return values.
type AuditEvent struct {
	Reference string     `json:"reference"` // quote id or shipment id
	Stage     AuditStage `json:"stage"`
	Carrier   string     `json:"carrier,omitempty"`
	Amount    float64    `json:"amount"`
	Detail    string     `json:"detail,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
