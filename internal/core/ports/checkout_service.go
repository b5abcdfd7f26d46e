package ports

import "context"

// CheckoutInput is the client-submitted checkout request. It is consumed
// exactly once: reduced to a verified price and then discarded. ClientTotal
// is untrusted and reconciled against the server recomputation.
type CheckoutInput struct {
	ShipmentID       string
	ClientID         string
	CarrierServiceID string
	AddonIDs         []string
	DeclaredValue    float64
	CouponCode       string
	LoyaltyPoints    int
	ClientTotal      float64
	PaymentMethod    string
}

// CheckoutResult reports the outcome of verify-and-charge.
type CheckoutResult struct {
	Success        bool
	TrackingNumber string
	TransactionID  string
	// VerifiedPrice is the server-authoritative amount actually charged:
	// min(server-recomputed total, client total), subject to the tolerance.
	VerifiedPrice float64
	ErrorMessage  string
}

// CheckoutService verifies the price server-side, charges the customer, and
// hands the shipment to the carrier.
type CheckoutService interface {
	VerifyAndCharge(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	// Resubmit retries carrier submission for a paid shipment whose earlier
	// submission failed. Operator-only.
	Resubmit(ctx context.Context, shipmentID string) (*CheckoutResult, error)
}
