package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/parcelmarket/shipping-marketplace/internal/api/metrics"
	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

const (
	defaultCarrierTimeout = 5 * time.Second
	defaultRateCacheTTL   = 300 * time.Second
)

// RateAggregator fans out to every enabled carrier, formats each raw rate
// through the commission and markup stages, and merges the results into the
// per-carrier slot map. One carrier's failure never aborts quoting for the
// others; only when every carrier produces nothing does the fallback ladder
// engage.
type RateAggregator struct {
	registry   *ports.CarrierRegistry
	cache      ports.RateCache
	normalizer ports.AddressNormalizer
	configRepo ports.PricingConfigRepository
	commission *CommissionEngine
	markup     *MarkupEngine
	addons     *AddonEngine
	fallback   *FallbackEngine
	log        zerolog.Logger

	carrierTimeout time.Duration
	cacheTTL       time.Duration
}

// AggregatorOption tunes a RateAggregator.
type AggregatorOption func(*RateAggregator)

// WithCarrierTimeout sets the independent timeout applied to each carrier call.
func WithCarrierTimeout(d time.Duration) AggregatorOption {
	return func(a *RateAggregator) { a.carrierTimeout = d }
}

// WithCacheTTL sets the TTL for cached per-service rate lists.
func WithCacheTTL(d time.Duration) AggregatorOption {
	return func(a *RateAggregator) { a.cacheTTL = d }
}

func NewRateAggregator(
	registry *ports.CarrierRegistry,
	cache ports.RateCache,
	normalizer ports.AddressNormalizer,
	configRepo ports.PricingConfigRepository,
	commission *CommissionEngine,
	markup *MarkupEngine,
	addons *AddonEngine,
	fallback *FallbackEngine,
	log zerolog.Logger,
	opts ...AggregatorOption,
) *RateAggregator {
	a := &RateAggregator{
		registry:       registry,
		cache:          cache,
		normalizer:     normalizer,
		configRepo:     configRepo,
		commission:     commission,
		markup:         markup,
		addons:         addons,
		fallback:       fallback,
		log:            log,
		carrierTimeout: defaultCarrierTimeout,
		cacheTTL:       defaultRateCacheTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Quote validates the input, normalizes the destination, takes one pricing
// snapshot, and quotes all carriers concurrently. Each carrier call runs in
// its own goroutine with an independent timeout; the join ceiling equals the
// longest single call, not the sum. A timed-out carrier simply contributes
// an error slot while the others' results stand.
func (a *RateAggregator) Quote(ctx context.Context, input ports.QuoteInput) (*ports.QuoteResult, error) {
	if err := validateQuoteInput(input); err != nil {
		return nil, err
	}

	dest, err := a.normalizer.Normalize(input.Destination)
	if err != nil {
		return nil, err
	}

	snap, err := a.configRepo.LoadSnapshot(ctx)
	if err != nil {
		// Quoting proceeds with the floor-only snapshot: the commission
		// floor still holds and markup simply contributes nothing.
		a.log.Error().Err(err).Msg("pricing snapshot load failed, using floor-only snapshot")
		snap = domain.PricingSnapshot{FloorPct: domain.CommissionFloorPct}
	}

	weight := domain.TotalBilledWeight(input.Packages)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	result := &ports.QuoteResult{Carriers: make(map[domain.CarrierCode]ports.CarrierQuote), Source: domain.SourceLiveAPI}

	for _, code := range domain.AllCarriers() {
		wg.Add(1)
		go func(code domain.CarrierCode) {
			defer wg.Done()
			slot := a.quoteCarrier(ctx, code, input, dest, weight, snap)
			mu.Lock()
			result.Carriers[code] = slot
			mu.Unlock()
		}(code)
	}
	wg.Wait()

	total := 0
	for _, slot := range result.Carriers {
		total += len(slot.Rates)
	}

	if total == 0 {
		// Fallback ladder: database pricing rows, then default heuristics.
		// The customer always sees some quote, explicitly lower-confidence.
		rates := a.fallback.Calculate(ctx, input.Packages, snap, input.Reference)
		for _, rate := range rates {
			slot := result.Carriers[rate.Carrier]
			slot.Name = rate.Carrier.DisplayName()
			// The ladder filled this slot with platform estimates; the live
			// failure message no longer describes what the customer sees.
			// The rates' own source marks them as lower confidence.
			slot.Enabled = true
			slot.Error = ""
			slot.Rates = append(slot.Rates, rate)
			result.Carriers[rate.Carrier] = slot
		}
	}

	result.BestPerCarrier = make(map[domain.CarrierCode]*domain.FormattedRate)
	for code, slot := range result.Carriers {
		if best := domain.BestRate(slot.Rates); best != nil {
			result.BestPerCarrier[code] = best
			if result.Best == nil || best.Price < result.Best.Price {
				result.Best = best
			}
		}
	}
	if result.Best != nil {
		result.Source = result.Best.Source
	}

	return result, nil
}

// AddonsFor prices the addon catalog against a carrier's surcharge breakdown
// and the package classifications.
func (a *RateAggregator) AddonsFor(ctx context.Context, carrier domain.CarrierCode, surcharges []domain.SurchargeLine, packages []domain.PackageDescriptor) ([]domain.PricedAddon, error) {
	return a.addons.PriceAddons(ctx, carrier, surcharges, packages, "")
}

// quoteCarrier produces one carrier's slot: not-configured, cached rates, a
// fresh live quote, or a contained error. Never panics the aggregate.
func (a *RateAggregator) quoteCarrier(ctx context.Context, code domain.CarrierCode, input ports.QuoteInput, dest domain.Address, weight float64, snap domain.PricingSnapshot) ports.CarrierQuote {
	slot := ports.CarrierQuote{Name: code.DisplayName(), Enabled: true}

	client, ok := a.registry.Get(code)
	if !ok {
		slot.Enabled = false
		slot.Error = "Service not configured"
		return slot
	}

	key := rateCacheKey(code, input.ServiceType, weight, input.Packages, dest)
	if cached, err := a.cache.Get(ctx, key); err != nil {
		a.log.Warn().Err(err).Str("carrier", string(code)).Msg("rate cache lookup failed")
	} else if cached != nil {
		metrics.RateCacheTotal.WithLabelValues("hit").Inc()
		for i := range cached {
			cached[i].Source = domain.SourceCached
		}
		slot.Rates = cached
		return slot
	}
	metrics.RateCacheTotal.WithLabelValues("miss").Inc()

	callCtx, cancel := context.WithTimeout(ctx, a.carrierTimeout)
	defer cancel()

	start := time.Now()
	raws, err := client.GetRates(callCtx, ports.RateRequest{
		Origin:      input.Origin,
		Destination: dest,
		Packages:    input.Packages,
		ServiceType: input.ServiceType,
	})
	metrics.CarrierCallDuration.WithLabelValues(string(code)).Observe(time.Since(start).Seconds())

	if err != nil {
		slot.Error = carrierErrorMessage(err)
		metrics.QuotesTotal.WithLabelValues(string(code), "error").Inc()
		a.log.Warn().Err(err).Str("carrier", string(code)).Msg("carrier quote failed")
		return slot
	}
	metrics.QuotesTotal.WithLabelValues(string(code), "ok").Inc()

	rates := make([]domain.FormattedRate, 0, len(raws))
	for _, raw := range raws {
		rates = append(rates, a.formatRate(raw, code, weight, dest.CountryCode, snap, input.Reference))
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].Price < rates[j].Price })
	slot.Rates = rates

	if len(rates) > 0 {
		if err := a.cache.Set(ctx, key, rates, a.cacheTTL); err != nil {
			a.log.Warn().Err(err).Str("carrier", string(code)).Msg("rate cache store failed")
		}
	}
	return slot
}

// formatRate runs one raw carrier rate through the commission and markup
// stages and shapes the customer-facing entry.
func (a *RateAggregator) formatRate(raw domain.RawCarrierRate, code domain.CarrierCode, weight float64, country string, snap domain.PricingSnapshot, reference string) domain.FormattedRate {
	commissioned := a.commission.Apply(raw.TotalCharge(), code, snap, reference)
	marked := a.markup.Apply(commissioned.FinalPrice, code, weight, country, snap, reference)

	currency := raw.Currency
	if currency == "" {
		currency = "USD"
	}

	return domain.FormattedRate{
		Carrier:            code,
		ServiceName:        raw.ServiceName,
		CarrierServiceID:   raw.ServiceCode,
		Price:              marked.FinalPrice,
		BaseCharge:         raw.BaseCharge,
		TotalSurcharges:    raw.TotalSurcharges,
		SurchargeBreakdown: raw.Surcharges,
		Currency:           currency,
		TransitDays:        raw.TransitDays,
		DeliveryDate:       raw.DeliveryDate,
		Source:             domain.SourceLiveAPI,
	}
}

// validateQuoteInput rejects structurally invalid requests before any
// carrier call, with field-level messages.
func validateQuoteInput(input ports.QuoteInput) error {
	if len(input.Packages) == 0 {
		return fmt.Errorf("%w: at least one package is required", domain.ErrInvalidInput)
	}
	for i, p := range input.Packages {
		if p.WeightLb <= 0 {
			return fmt.Errorf("%w: packages[%d].weight_lb must be greater than zero", domain.ErrInvalidInput, i)
		}
	}
	return nil
}

// carrierErrorMessage translates a carrier failure into the operator-facing
// message attached to the carrier's slot.
func carrierErrorMessage(err error) string {
	var ce *ports.CarrierError
	if errors.As(err, &ce) {
		return ce.OperatorMessage()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Carrier API timed out"
	}
	return "Carrier API error"
}

// rateCacheKey builds the cache key for a carrier's formatted rate list. The
// key carries everything a carrier call depends on: service restriction
// ("all" when unrestricted), billed weight, per-package dimensions rounded
// to whole inches, and the destination as zip+country, or city+country when
// the country has no postal codes. A restricted and an unrestricted quote
// must never share an entry.
func rateCacheKey(code domain.CarrierCode, serviceType string, weight float64, packages []domain.PackageDescriptor, dest domain.Address) string {
	svc := serviceType
	if svc == "" {
		svc = "all"
	}

	var dims strings.Builder
	for _, p := range packages {
		fmt.Fprintf(&dims, "%.0fx%.0fx%.0f,", p.Dimensions.LengthIn, p.Dimensions.WidthIn, p.Dimensions.HeightIn)
	}

	location := dest.ZipCode + ":" + dest.CountryCode
	if dest.ZipCode == "" || dest.ZipCode == domain.SentinelZip {
		location = strings.ToLower(dest.City) + ":" + dest.CountryCode
	}

	return fmt.Sprintf("rates:%s:%s:%.1f:%s%s", code, svc, weight, dims.String(), location)
}
