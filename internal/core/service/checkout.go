package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/parcelmarket/shipping-marketplace/internal/api/metrics"
	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

const (
	// defaultHandlingFee is the platform's flat handling charge per checkout.
	defaultHandlingFee = 10.00
	// defaultTolerance is the band within which server and client totals may
	// disagree: it covers floating-point and rounding drift, not manipulation.
	defaultTolerance = 0.50
	// minimumCharge floors the verified price.
	minimumCharge = 0.01
)

// CheckoutOrchestrator implements ports.CheckoutService: it recomputes the
// authoritative price server-side, reconciles it against the client-submitted
// total, charges the customer inside a transaction, and submits the shipment
// to the carrier after the payment commits.
//
// The reconciliation is asymmetric: a client total lower than the
// server total beyond the tolerance is rejected (under-reporting is the
// manipulation vector), while a higher client total is capped to the server
// amount in the customer's favor.
type CheckoutOrchestrator struct {
	shipments ports.ShipmentRepository
	rates     ports.RateService
	addons    *AddonEngine
	discounts ports.DiscountService
	payments  ports.PaymentProcessor
	registry  *ports.CarrierRegistry
	audit     AuditEmitter
	log       zerolog.Logger

	handlingFee float64
	tolerance   float64
}

// CheckoutOption tunes a CheckoutOrchestrator.
type CheckoutOption func(*CheckoutOrchestrator)

// WithHandlingFee overrides the flat handling fee.
func WithHandlingFee(fee float64) CheckoutOption {
	return func(c *CheckoutOrchestrator) { c.handlingFee = fee }
}

// WithTolerance overrides the reconciliation tolerance band.
func WithTolerance(t float64) CheckoutOption {
	return func(c *CheckoutOrchestrator) { c.tolerance = t }
}

func NewCheckoutOrchestrator(
	shipments ports.ShipmentRepository,
	rates ports.RateService,
	addons *AddonEngine,
	discounts ports.DiscountService,
	payments ports.PaymentProcessor,
	registry *ports.CarrierRegistry,
	audit AuditEmitter,
	log zerolog.Logger,
	opts ...CheckoutOption,
) *CheckoutOrchestrator {
	c := &CheckoutOrchestrator{
		shipments:   shipments,
		rates:       rates,
		addons:      addons,
		discounts:   discounts,
		payments:    payments,
		registry:    registry,
		audit:       audit,
		log:         log,
		handlingFee: defaultHandlingFee,
		tolerance:   defaultTolerance,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VerifyAndCharge runs the full checkout: server-side price recomputation,
// reconciliation, payment, and carrier submission.
func (c *CheckoutOrchestrator) VerifyAndCharge(ctx context.Context, in ports.CheckoutInput) (*ports.CheckoutResult, error) {
	shipment, err := c.shipments.FindByID(ctx, in.ShipmentID, in.ClientID)
	if err != nil {
		return nil, err
	}
	if shipment.Status != domain.StatusQuoted {
		return nil, fmt.Errorf("%w: shipment is %s", domain.ErrInvalidTransition, shipment.Status)
	}

	verified, service, addonCodes, err := c.verifyPrice(ctx, shipment, in)
	if err != nil {
		return nil, err
	}

	// Charge and persist atomically: a declined payment rolls back every
	// shipment mutation.
	var transactionID string
	err = c.shipments.WithTransaction(ctx, func(txCtx context.Context) error {
		res, chargeErr := c.payments.Charge(txCtx, toCents(verified), in.PaymentMethod, map[string]string{
			"shipment_id": shipment.ID,
			"client_id":   shipment.ClientID,
		})
		if chargeErr != nil {
			c.log.Warn().Err(chargeErr).Str("shipment_id", shipment.ID).Msg("payment charge failed")
			return domain.ErrPaymentDeclined
		}
		if !res.Succeeded() {
			c.log.Warn().Str("shipment_id", shipment.ID).Str("status", res.Status).Msg("payment not captured")
			return domain.ErrPaymentDeclined
		}
		transactionID = res.ID

		if txErr := c.shipments.RecordTransaction(txCtx, shipment.ID, transactionID, verified); txErr != nil {
			return fmt.Errorf("record transaction: %w", txErr)
		}
		return c.shipments.MarkPaid(txCtx, shipment.ID, ports.CheckoutUpdate{
			Service:        service,
			SelectedAddons: addonCodes,
			VerifiedPrice:  verified,
			TransactionID:  transactionID,
			PaidAt:         time.Now().UTC(),
		})
	})
	if err != nil {
		metrics.CheckoutVerificationsTotal.WithLabelValues("payment_failed").Inc()
		return nil, err
	}
	metrics.CheckoutVerificationsTotal.WithLabelValues("charged").Inc()

	// Carrier submission happens after the payment commit. Payment is
	// irreversible once captured; submission is retryable, so a carrier
	// rejection leaves the shipment paid with a structured retry record
	// instead of rolling anything back.
	shipment.Service = service
	return c.submit(ctx, shipment, transactionID, verified)
}

// Resubmit retries carrier submission for a paid shipment whose earlier
// submission failed.
func (c *CheckoutOrchestrator) Resubmit(ctx context.Context, shipmentID string) (*ports.CheckoutResult, error) {
	shipment, err := c.shipments.FindByID(ctx, shipmentID, "")
	if err != nil {
		return nil, err
	}
	if shipment.Status != domain.StatusSubmissionFailed {
		return nil, fmt.Errorf("%w: shipment is %s", domain.ErrInvalidTransition, shipment.Status)
	}
	return c.submit(ctx, shipment, shipment.TransactionID, shipment.VerifiedPrice)
}

// verifyPrice recomputes the authoritative total and reconciles it against
// the client-submitted total. Returns the verified price, the only amount
// ever charged, plus the resolved carrier service and addon codes.
func (c *CheckoutOrchestrator) verifyPrice(ctx context.Context, shipment *domain.Shipment, in ports.CheckoutInput) (float64, domain.SelectedService, []string, error) {
	declaredValue := in.DeclaredValue
	if declaredValue <= 0 {
		declaredValue = domain.TotalDeclaredValue(shipment.Packages)
	}

	// Re-fetch rates with the destination from the stored shipment, never
	// the client request.
	selectedRate, quoteErr := c.refetchRate(ctx, shipment, in.CarrierServiceID)
	if errors.Is(quoteErr, domain.ErrRateNotFound) {
		// The re-fetch itself succeeded; the selected service is simply not
		// among the fresh rates. That is a bad selection, not an outage.
		// Back-deriving here would let a client invent a service id and
		// name their own price.
		metrics.CheckoutVerificationsTotal.WithLabelValues("unknown_service").Inc()
		c.log.Warn().
			Str("shipment_id", shipment.ID).
			Str("carrier_service_id", in.CarrierServiceID).
			Msg("checkout rejected: selected service absent from fresh rates")
		return 0, domain.SelectedService{}, nil, quoteErr
	}

	var surcharges []domain.SurchargeLine
	if selectedRate != nil {
		surcharges = selectedRate.SurchargeBreakdown
	}

	pricedAddons, addonTotal, err := c.addons.PriceSelected(ctx, in.AddonIDs, declaredValue, surcharges)
	if err != nil {
		return 0, domain.SelectedService{}, nil, err
	}
	addonCodes := make([]string, 0, len(pricedAddons))
	for _, pa := range pricedAddons {
		addonCodes = append(addonCodes, pa.Code)
	}
	if v := c.addons.ValidateMandatory(addonCodes, shipment.Packages); !v.Valid {
		return 0, domain.SelectedService{}, nil, fmt.Errorf("%w: %s", domain.ErrMandatoryAddon, strings.Join(v.Missing, ", "))
	}

	loyaltyDiscount, err := c.discounts.LoyaltyDiscount(ctx, shipment.ClientID, in.LoyaltyPoints)
	if err != nil {
		return 0, domain.SelectedService{}, nil, fmt.Errorf("loyalty discount: %w", err)
	}

	var shippingRate float64
	var service domain.SelectedService
	if selectedRate != nil {
		shippingRate = selectedRate.Price
		service = domain.SelectedService{
			Carrier:          selectedRate.Carrier,
			CarrierServiceID: selectedRate.CarrierServiceID,
			ServiceName:      selectedRate.ServiceName,
		}
	} else {
		// Degraded mode: live re-fetching failed, so the shipping rate is
		// back-derived from the client's own total. Explicit and logged,
		// never silent trust.
		carrier, ok := domain.ParseCarrierServiceID(in.CarrierServiceID)
		if !ok {
			return 0, domain.SelectedService{}, nil, domain.ErrRateNotFound
		}
		shippingRate = round2(in.ClientTotal - c.handlingFee - addonTotal + loyaltyDiscount)
		if shippingRate < 0 {
			shippingRate = 0
		}
		service = domain.SelectedService{Carrier: carrier, CarrierServiceID: in.CarrierServiceID}

		c.log.Warn().
			Err(quoteErr).
			Str("shipment_id", shipment.ID).
			Float64("derived_rate", shippingRate).
			Msg("rate re-fetch failed, back-deriving from client total")
		c.audit.Emit(domain.AuditEvent{
			Reference: shipment.ID,
			Stage:     domain.StageDegradedTrust,
			Carrier:   string(carrier),
			Amount:    shippingRate,
			Detail:    "shipping rate back-derived from client-submitted total",
			Timestamp: time.Now().UTC(),
		})
	}

	couponDiscount := 0.0
	if in.CouponCode != "" {
		couponDiscount, err = c.discounts.CouponDiscount(ctx, in.CouponCode, shipment.ClientID, shippingRate)
		if err != nil {
			return 0, domain.SelectedService{}, nil, fmt.Errorf("coupon discount: %w", err)
		}
	}

	expected := round2(c.handlingFee + shippingRate + addonTotal - loyaltyDiscount - couponDiscount)
	if expected < minimumCharge {
		expected = minimumCharge
	}

	if in.ClientTotal < expected-c.tolerance {
		metrics.CheckoutVerificationsTotal.WithLabelValues("rejected_low").Inc()
		c.audit.Emit(domain.AuditEvent{
			Reference: shipment.ID,
			Stage:     domain.StageVerification,
			Carrier:   string(service.Carrier),
			Amount:    expected,
			Detail:    fmt.Sprintf("rejected: client %.2f below expected %.2f", in.ClientTotal, expected),
			Timestamp: time.Now().UTC(),
		})
		return 0, domain.SelectedService{}, nil, domain.ErrPriceMismatch
	}

	// Charge the lesser amount: a stale, inflated client total never costs
	// the customer more than the server's own computation.
	verified := math.Min(expected, in.ClientTotal)
	if verified < minimumCharge {
		verified = minimumCharge
	}
	verified = round2(verified)

	outcome := "verified"
	if in.ClientTotal > expected {
		outcome = "capped_high"
	}
	metrics.CheckoutVerificationsTotal.WithLabelValues(outcome).Inc()
	c.audit.Emit(domain.AuditEvent{
		Reference: shipment.ID,
		Stage:     domain.StageVerification,
		Carrier:   string(service.Carrier),
		Amount:    verified,
		Detail:    fmt.Sprintf("%s: expected %.2f, client %.2f", outcome, expected, in.ClientTotal),
		Timestamp: time.Now().UTC(),
	})

	return verified, service, addonCodes, nil
}

// refetchRate recomputes the rates for the shipment's packages and locates
// the client's selected carrier service. A failed quote call surfaces the
// call's own error; a successful call whose rates do not contain
// carrierServiceID returns ErrRateNotFound. Callers rely on that split:
// only a failed call permits degraded back-derivation.
func (c *CheckoutOrchestrator) refetchRate(ctx context.Context, shipment *domain.Shipment, carrierServiceID string) (*domain.FormattedRate, error) {
	quote, err := c.rates.Quote(ctx, ports.QuoteInput{
		Reference: shipment.ID,
		Origin:    shipment.Origin,
		Destination: ports.RawAddress{
			Country: shipment.Destination.CountryCode,
			State:   shipment.Destination.StateCode,
			City:    shipment.Destination.City,
			ZipCode: shipment.Destination.ZipCode,
		},
		Packages: shipment.Packages,
	})
	if err != nil {
		return nil, err
	}
	for _, slot := range quote.Carriers {
		for i := range slot.Rates {
			if slot.Rates[i].CarrierServiceID == carrierServiceID {
				return &slot.Rates[i], nil
			}
		}
	}
	return nil, domain.ErrRateNotFound
}

// submit hands the paid shipment to its carrier and records the outcome.
func (c *CheckoutOrchestrator) submit(ctx context.Context, shipment *domain.Shipment, transactionID string, verified float64) (*ports.CheckoutResult, error) {
	result := &ports.CheckoutResult{TransactionID: transactionID, VerifiedPrice: verified}

	client, ok := c.registry.Get(shipment.Service.Carrier)
	if !ok {
		return c.failSubmission(ctx, shipment, result, "carrier not configured")
	}

	res, err := client.CreateShipment(ctx, ports.SubmitRequest{
		Origin:           shipment.Origin,
		Destination:      shipment.Destination,
		Recipient:        shipment.Recipient,
		Packages:         shipment.Packages,
		CarrierServiceID: shipment.Service.CarrierServiceID,
		Reference:        shipment.ID,
	})
	if err != nil {
		return c.failSubmission(ctx, shipment, result, err.Error())
	}
	if !res.Success {
		return c.failSubmission(ctx, shipment, result, res.ErrorMessage)
	}

	if err := c.shipments.MarkSubmitted(ctx, shipment.ID, res.TrackingNumber); err != nil {
		c.log.Error().Err(err).Str("shipment_id", shipment.ID).Msg("failed to mark shipment submitted")
	}
	metrics.SubmissionsTotal.WithLabelValues(string(shipment.Service.Carrier), "ok").Inc()
	c.log.Info().
		Str("shipment_id", shipment.ID).
		Str("tracking_number", res.TrackingNumber).
		Float64("verified_price", verified).
		Msg("shipment submitted")

	result.Success = true
	result.TrackingNumber = res.TrackingNumber
	return result, nil
}

// failSubmission records a retryable submission failure. The shipment stays
// paid; the customer-facing message is generic while the operator record
// keeps the detail.
func (c *CheckoutOrchestrator) failSubmission(ctx context.Context, shipment *domain.Shipment, result *ports.CheckoutResult, detail string) (*ports.CheckoutResult, error) {
	attempts := 1
	if shipment.SubmissionError != nil {
		attempts = shipment.SubmissionError.Attempts + 1
	}
	subErr := domain.SubmissionError{
		Message:     detail,
		Attempts:    attempts,
		LastAttempt: time.Now().UTC(),
		Retryable:   true,
	}
	if err := c.shipments.MarkSubmissionFailed(ctx, shipment.ID, subErr); err != nil {
		c.log.Error().Err(err).Str("shipment_id", shipment.ID).Msg("failed to record submission failure")
	}
	metrics.SubmissionsTotal.WithLabelValues(string(shipment.Service.Carrier), "failed").Inc()
	c.log.Error().
		Str("shipment_id", shipment.ID).
		Str("detail", detail).
		Int("attempts", attempts).
		Msg("carrier submission failed on paid shipment")

	result.ErrorMessage = "payment captured; carrier submission failed and will be retried"
	return result, nil
}

// toCents converts a dollar amount to integer cents for the payment boundary.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
