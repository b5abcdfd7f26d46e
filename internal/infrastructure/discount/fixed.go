// Package discount holds DiscountService implementations. The loyalty and
// coupon business rules (accrual tiers, expiry) live in a separate system;
// only the numeric discount contribution is computed here.
package discount

import (
	"context"
	"strings"
)

// pointValue is the dollar value of one loyalty point.
const pointValue = 0.01

// FixedRate values loyalty points at a fixed rate and resolves coupons from
// a static percentage table.
type FixedRate struct {
	coupons map[string]float64 // code -> percentage off the shipping rate
}

// NewFixedRate builds a FixedRate service. coupons maps uppercase codes to
// percentage discounts; nil means no coupons are honored.
func NewFixedRate(coupons map[string]float64) *FixedRate {
	if coupons == nil {
		coupons = make(map[string]float64)
	}
	return &FixedRate{coupons: coupons}
}

// LoyaltyDiscount converts points to their dollar value. Negative point
// counts contribute nothing.
func (s *FixedRate) LoyaltyDiscount(ctx context.Context, clientID string, points int) (float64, error) {
	if points <= 0 {
		return 0, nil
	}
	return float64(points) * pointValue, nil
}

// CouponDiscount resolves a coupon code to its discount off base. Unknown
// codes contribute nothing; they are not an error.
func (s *FixedRate) CouponDiscount(ctx context.Context, code, clientID string, base float64) (float64, error) {
	pct, ok := s.coupons[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return 0, nil
	}
	return base * pct / 100, nil
}
