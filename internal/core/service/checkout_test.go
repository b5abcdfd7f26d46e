package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

type stubShipmentRepo struct {
	shipments map[string]*domain.Shipment

	paidID          string
	paidUpdate      ports.CheckoutUpdate
	transactions    int
	submittedID     string
	tracking        string
	failedID        string
	failure         domain.SubmissionError
	rollbacks       int
	inTransaction   bool
	transactionErrs []error
}

func newStubShipmentRepo(shipments ...*domain.Shipment) *stubShipmentRepo {
	r := &stubShipmentRepo{shipments: make(map[string]*domain.Shipment)}
	for _, s := range shipments {
		r.shipments[s.ID] = s
	}
	return r
}

func (r *stubShipmentRepo) Create(_ context.Context, s *domain.Shipment) error {
	r.shipments[s.ID] = s
	return nil
}

func (r *stubShipmentRepo) FindByID(_ context.Context, id, clientID string) (*domain.Shipment, error) {
	s, ok := r.shipments[id]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	if clientID != "" && s.ClientID != clientID {
		return nil, domain.ErrShipmentNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *stubShipmentRepo) MarkPaid(_ context.Context, id string, update ports.CheckoutUpdate) error {
	r.paidID = id
	r.paidUpdate = update
	return nil
}

func (r *stubShipmentRepo) RecordTransaction(_ context.Context, _, _ string, _ float64) error {
	r.transactions++
	return nil
}

func (r *stubShipmentRepo) MarkSubmitted(_ context.Context, id, trackingNumber string) error {
	r.submittedID = id
	r.tracking = trackingNumber
	return nil
}

func (r *stubShipmentRepo) MarkSubmissionFailed(_ context.Context, id string, subErr domain.SubmissionError) error {
	r.failedID = id
	r.failure = subErr
	return nil
}

func (r *stubShipmentRepo) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	r.inTransaction = true
	err := fn(ctx)
	r.inTransaction = false
	if err != nil {
		// Roll back the stub's writes the way an aborted session would.
		r.rollbacks++
		r.paidID = ""
		r.transactions = 0
		r.transactionErrs = append(r.transactionErrs, err)
	}
	return err
}

type stubRateService struct {
	result *ports.QuoteResult
	err    error
}

func (s *stubRateService) Quote(context.Context, ports.QuoteInput) (*ports.QuoteResult, error) {
	return s.result, s.err
}

func (s *stubRateService) AddonsFor(context.Context, domain.CarrierCode, []domain.SurchargeLine, []domain.PackageDescriptor) ([]domain.PricedAddon, error) {
	return nil, nil
}

type stubDiscounts struct {
	loyalty float64
	coupon  float64
}

func (s *stubDiscounts) LoyaltyDiscount(context.Context, string, int) (float64, error) {
	return s.loyalty, nil
}

func (s *stubDiscounts) CouponDiscount(context.Context, string, string, float64) (float64, error) {
	return s.coupon, nil
}

type stubPayments struct {
	result  *ports.ChargeResult
	err     error
	charged []int64
}

func (s *stubPayments) Charge(_ context.Context, amountCents int64, _ string, _ map[string]string) (*ports.ChargeResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.charged = append(s.charged, amountCents)
	return s.result, nil
}

func quotedShipment() *domain.Shipment {
	return &domain.Shipment{
		ID:       "ship-1",
		ClientID: "client-1",
		Origin:   domain.Address{CountryCode: "US", ZipCode: "10001", City: "New York"},
		Destination: domain.Address{
			CountryCode: "US", ZipCode: "94103", City: "San Francisco",
		},
		Packages: []domain.PackageDescriptor{
			{WeightLb: 10, Dimensions: domain.Dimensions{LengthIn: 10, WidthIn: 8, HeightIn: 6}},
		},
		Status:   domain.StatusQuoted,
		Currency: "USD",
	}
}

// liveQuote builds a quote result holding one fedex rate at the given price.
func liveQuote(price float64) *ports.QuoteResult {
	rate := domain.FormattedRate{
		Carrier:          domain.CarrierFedEx,
		ServiceName:      "FedEx International Economy",
		CarrierServiceID: "fedex-intl-economy",
		Price:            price,
		Currency:         "USD",
		Source:           domain.SourceLiveAPI,
	}
	return &ports.QuoteResult{
		Carriers: map[domain.CarrierCode]ports.CarrierQuote{
			domain.CarrierFedEx: {Name: "FedEx", Enabled: true, Rates: []domain.FormattedRate{rate}},
		},
		Best:   &rate,
		Source: domain.SourceLiveAPI,
	}
}

type checkoutFixture struct {
	repo      *stubShipmentRepo
	rates     *stubRateService
	payments  *stubPayments
	discounts *stubDiscounts
	carrier   *stubCarrierClient
	orch      *CheckoutOrchestrator
}

func newCheckoutFixture(shipment *domain.Shipment, rates *stubRateService) *checkoutFixture {
	f := &checkoutFixture{
		repo:      newStubShipmentRepo(shipment),
		rates:     rates,
		payments:  &stubPayments{result: &ports.ChargeResult{Status: ports.ChargeSucceeded, ID: "txn-1"}},
		discounts: &stubDiscounts{},
		carrier:   &stubCarrierClient{},
	}
	registry := ports.NewCarrierRegistry(map[domain.CarrierCode]ports.CarrierClient{
		domain.CarrierFedEx: f.carrier,
	})
	f.orch = NewCheckoutOrchestrator(
		f.repo, f.rates,
		NewAddonEngine(&stubAddonRepo{}, NopAuditEmitter{}, zerolog.Nop()),
		f.discounts, f.payments, registry,
		NopAuditEmitter{}, zerolog.Nop(),
	)
	return f
}

func checkoutInput(clientTotal float64) ports.CheckoutInput {
	return ports.CheckoutInput{
		ShipmentID:       "ship-1",
		ClientID:         "client-1",
		CarrierServiceID: "fedex-intl-economy",
		ClientTotal:      clientTotal,
		PaymentMethod:    "pm_card",
	}
}

func TestCheckout_RejectsClientTotalBelowExpected(t *testing.T) {
	// Server expectation: 110 shipping + 10 handling = 120. Client claims 100.
	f := newCheckoutFixture(quotedShipment(), &stubRateService{result: liveQuote(110)})

	_, err := f.orch.VerifyAndCharge(context.Background(), checkoutInput(100))
	if !errors.Is(err, domain.ErrPriceMismatch) {
		t.Fatalf("expected ErrPriceMismatch, got %v", err)
	}
	if len(f.payments.charged) != 0 {
		t.Fatalf("rejected checkout must never charge")
	}
	if f.repo.paidID != "" {
		t.Fatalf("rejected checkout must not mark paid")
	}
}

func TestCheckout_CapsClientTotalAboveExpected(t *testing.T) {
	// Server expectation 120; client claims 130. Charge 120, the customer
	// never pays more than the server's own computation.
	f := newCheckoutFixture(quotedShipment(), &stubRateService{result: liveQuote(110)})

	res, err := f.orch.VerifyAndCharge(context.Background(), checkoutInput(130))
	if err != nil {
		t.Fatalf("VerifyAndCharge returned error: %v", err)
	}
	if res.VerifiedPrice != 120.00 {
		t.Fatalf("expected capped 120.00, got %.2f", res.VerifiedPrice)
	}
	if len(f.payments.charged) != 1 || f.payments.charged[0] != 12000 {
		t.Fatalf("expected one 12000-cent charge, got %v", f.payments.charged)
	}
	if !res.Success || res.TrackingNumber == "" {
		t.Fatalf("expected successful submission, got %+v", res)
	}
}

func TestCheckout_ToleranceAllowsSmallDrift(t *testing.T) {
	// Expected 120; client 119.60 is within the 0.50 band. The charge is the
	// lesser amount.
	f := newCheckoutFixture(quotedShipment(), &stubRateService{result: liveQuote(110)})

	res, err := f.orch.VerifyAndCharge(context.Background(), checkoutInput(119.60))
	if err != nil {
		t.Fatalf("VerifyAndCharge returned error: %v", err)
	}
	if res.VerifiedPrice != 119.60 {
		t.Fatalf("expected client amount 119.60, got %.2f", res.VerifiedPrice)
	}
}

func TestCheckout_DegradedModeDerivesFromClientTotal(t *testing.T) {
	// Live re-fetch fails entirely: the shipping rate is back-derived from
	// the client total and the checkout proceeds.
	f := newCheckoutFixture(quotedShipment(), &stubRateService{err: errors.New("all carriers down")})

	res, err := f.orch.VerifyAndCharge(context.Background(), checkoutInput(95))
	if err != nil {
		t.Fatalf("VerifyAndCharge returned error: %v", err)
	}
	if res.VerifiedPrice != 95.00 {
		t.Fatalf("expected derived 95.00, got %.2f", res.VerifiedPrice)
	}
	if f.repo.paidUpdate.Service.Carrier != domain.CarrierFedEx {
		t.Fatalf("carrier must be parsed from the service id, got %q", f.repo.paidUpdate.Service.Carrier)
	}
}

func TestCheckout_DegradedModeRequiresParsableServiceID(t *testing.T) {
	f := newCheckoutFixture(quotedShipment(), &stubRateService{err: errors.New("down")})

	in := checkoutInput(95)
	in.CarrierServiceID = "mystery-service"
	if _, err := f.orch.VerifyAndCharge(context.Background(), in); !errors.Is(err, domain.ErrRateNotFound) {
		t.Fatalf("expected ErrRateNotFound for unparsable id, got %v", err)
	}
}

func TestCheckout_RejectsServiceAbsentFromFreshRates(t *testing.T) {
	// The re-fetch succeeds and returns a $110 fedex rate, but the client
	// selected a service id that quote does not contain. Back-derivation is
	// reserved for re-fetch outages; here the checkout must hard-reject, or
	// a parseable-but-bogus id would let the client name their own price.
	f := newCheckoutFixture(quotedShipment(), &stubRateService{result: liveQuote(110)})

	in := checkoutInput(10.01)
	in.CarrierServiceID = "fedex-nonexistent-service"
	if _, err := f.orch.VerifyAndCharge(context.Background(), in); !errors.Is(err, domain.ErrRateNotFound) {
		t.Fatalf("expected ErrRateNotFound for absent service, got %v", err)
	}
	if len(f.payments.charged) != 0 {
		t.Fatalf("absent service must never charge, got %v", f.payments.charged)
	}
	if f.repo.paidID != "" || f.repo.submittedID != "" {
		t.Fatalf("absent service must leave no shipment writes")
	}
}

func TestCheckout_PaymentDeclineRollsBack(t *testing.T) {
	f := newCheckoutFixture(quotedShipment(), &stubRateService{result: liveQuote(110)})
	f.payments.result = &ports.ChargeResult{Status: "declined"}

	_, err := f.orch.VerifyAndCharge(context.Background(), checkoutInput(120))
	if !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}
	if f.repo.rollbacks != 1 {
		t.Fatalf("expected the transaction to roll back, rollbacks=%d", f.repo.rollbacks)
	}
	if f.repo.paidID != "" || f.repo.transactions != 0 {
		t.Fatalf("declined payment must leave no shipment writes")
	}
}

func TestCheckout_SubmissionFailureKeepsPayment(t *testing.T) {
	f := newCheckoutFixture(quotedShipment(), &stubRateService{result: liveQuote(110)})

	// Swap in a registry without the carrier so submission fails.
	registry := ports.NewCarrierRegistry(nil)
	f.orch = NewCheckoutOrchestrator(
		f.repo, f.rates,
		NewAddonEngine(&stubAddonRepo{}, NopAuditEmitter{}, zerolog.Nop()),
		f.discounts, f.payments, registry,
		NopAuditEmitter{}, zerolog.Nop(),
	)

	res, err := f.orch.VerifyAndCharge(context.Background(), checkoutInput(120))
	if err != nil {
		t.Fatalf("submission failure must not surface as checkout error: %v", err)
	}
	if res.Success {
		t.Fatalf("expected unsuccessful submission")
	}
	if res.TransactionID == "" {
		t.Fatalf("payment must stay captured")
	}
	if f.repo.paidID != "ship-1" {
		t.Fatalf("shipment must be marked paid before submission")
	}
	if f.repo.failedID != "ship-1" || !f.repo.failure.Retryable {
		t.Fatalf("expected a retryable submission failure record, got %+v", f.repo.failure)
	}
	if res.ErrorMessage == "" {
		t.Fatalf("expected a customer-facing failure message")
	}
}

func TestCheckout_ResubmitOnlyFromSubmissionFailed(t *testing.T) {
	paid := quotedShipment()
	paid.Status = domain.StatusPaid
	f := newCheckoutFixture(paid, &stubRateService{result: liveQuote(110)})

	if _, err := f.orch.Resubmit(context.Background(), "ship-1"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for paid shipment, got %v", err)
	}

	failed := quotedShipment()
	failed.Status = domain.StatusSubmissionFailed
	failed.Service = domain.SelectedService{Carrier: domain.CarrierFedEx, CarrierServiceID: "fedex-intl-economy"}
	failed.TransactionID = "txn-9"
	failed.VerifiedPrice = 120
	f = newCheckoutFixture(failed, &stubRateService{result: liveQuote(110)})

	res, err := f.orch.Resubmit(context.Background(), "ship-1")
	if err != nil {
		t.Fatalf("Resubmit returned error: %v", err)
	}
	if !res.Success || res.TrackingNumber == "" {
		t.Fatalf("expected successful resubmission, got %+v", res)
	}
	if f.repo.submittedID != "ship-1" {
		t.Fatalf("expected shipment marked submitted")
	}
	if res.VerifiedPrice != 120 || res.TransactionID != "txn-9" {
		t.Fatalf("resubmit must reuse the original payment: %+v", res)
	}
}

func TestCheckout_RejectsNonQuotedStatus(t *testing.T) {
	paid := quotedShipment()
	paid.Status = domain.StatusPaid
	f := newCheckoutFixture(paid, &stubRateService{result: liveQuote(110)})

	if _, err := f.orch.VerifyAndCharge(context.Background(), checkoutInput(120)); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCheckout_ScopesToClient(t *testing.T) {
	f := newCheckoutFixture(quotedShipment(), &stubRateService{result: liveQuote(110)})

	in := checkoutInput(120)
	in.ClientID = "other-client"
	if _, err := f.orch.VerifyAndCharge(context.Background(), in); !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Fatalf("expected ErrShipmentNotFound for foreign client, got %v", err)
	}
}
