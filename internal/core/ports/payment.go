package ports

import "context"

// ChargeStatus values a payment processor may report. Only StatusSucceeded
// counts as success; every other state aborts the checkout transaction.
const ChargeSucceeded = "succeeded"

// ChargeResult is the processor's response to a charge attempt.
type ChargeResult struct {
	Status string
	ID     string
}

// Succeeded reports whether the charge was actually captured.
func (r *ChargeResult) Succeeded() bool {
	return r != nil && r.Status == ChargeSucceeded
}

// PaymentProcessor is the payment boundary (Stripe in production). Amounts
// are integer cents to avoid float drift at the money boundary.
type PaymentProcessor interface {
	Charge(ctx context.Context, amountCents int64, paymentMethod string, metadata map[string]string) (*ChargeResult, error)
}

// DiscountService supplies the numeric discount contributions of loyalty
// points and coupons. The accrual/expiry business rules live outside the
// pricing core; only the amounts are consumed.
type DiscountService interface {
	LoyaltyDiscount(ctx context.Context, clientID string, points int) (float64, error)
	CouponDiscount(ctx context.Context, code, clientID string, base float64) (float64, error)
}
