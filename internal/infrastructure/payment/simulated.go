// Package payment holds PaymentProcessor implementations. The production
// Stripe adapter is an external collaborator; the simulated processor lets
// checkout run end to end in development.
package payment

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

// Simulated approves every well-formed charge. Zero and negative amounts are
// declined, matching the real processor's behavior.
type Simulated struct {
	log zerolog.Logger
}

func NewSimulated(log zerolog.Logger) *Simulated {
	return &Simulated{log: log}
}

func (p *Simulated) Charge(ctx context.Context, amountCents int64, paymentMethod string, metadata map[string]string) (*ports.ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if amountCents <= 0 {
		return &ports.ChargeResult{Status: "failed"}, nil
	}

	b := make([]byte, 8)
	_, _ = rand.Read(b)
	id := fmt.Sprintf("sim_%X", b)

	p.log.Info().
		Int64("amount_cents", amountCents).
		Str("charge_id", id).
		Str("shipment_id", metadata["shipment_id"]).
		Msg("simulated charge captured")

	return &ports.ChargeResult{Status: ports.ChargeSucceeded, ID: id}, nil
}
