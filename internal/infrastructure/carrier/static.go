// Package carrier holds CarrierClient implementations. The production
// FedEx/DHL/UPS wire adapters are deployed separately; this package ships a
// deterministic table-driven client so the full pipeline runs in development
// and staging without carrier credentials hitting live APIs.
package carrier

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

// serviceTable defines the static services quoted per carrier.
var serviceTable = map[domain.CarrierCode][]staticService{
	domain.CarrierFedEx: {
		{code: "intl-economy", name: "FedEx International Economy", perLb: 5.80, base: 12.00, transitDays: 6},
		{code: "intl-priority", name: "FedEx International Priority", perLb: 9.40, base: 18.50, transitDays: 3},
	},
	domain.CarrierDHL: {
		{code: "express-worldwide", name: "DHL Express Worldwide", perLb: 8.90, base: 16.00, transitDays: 3},
		{code: "economy-select", name: "DHL Economy Select", perLb: 6.10, base: 11.00, transitDays: 7},
	},
	domain.CarrierUPS: {
		{code: "worldwide-saver", name: "UPS Worldwide Saver", perLb: 8.20, base: 15.00, transitDays: 4},
		{code: "worldwide-expedited", name: "UPS Worldwide Expedited", perLb: 6.60, base: 12.50, transitDays: 6},
	},
}

type staticService struct {
	code        string
	name        string
	perLb       float64
	base        float64
	transitDays int
}

// fuelSurchargePct is applied to the base charge on every static quote.
const fuelSurchargePct = 8.0

// StaticClient is a deterministic CarrierClient for one carrier.
type StaticClient struct {
	code domain.CarrierCode
}

func NewStaticClient(code domain.CarrierCode) *StaticClient {
	return &StaticClient{code: code}
}

// GetRates quotes every service in the carrier's static table against the
// total billed weight.
func (c *StaticClient) GetRates(ctx context.Context, req ports.RateRequest) ([]domain.RawCarrierRate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	weight := domain.TotalBilledWeight(req.Packages)
	now := time.Now().UTC()

	var rates []domain.RawCarrierRate
	for _, svc := range serviceTable[c.code] {
		base := svc.base + svc.perLb*weight
		fuel := base * fuelSurchargePct / 100
		surcharges := []domain.SurchargeLine{
			{Code: "fuel", Description: "Fuel surcharge", Amount: fuel},
		}
		if hasDangerousItems(req.Packages) {
			surcharges = append(surcharges, domain.SurchargeLine{
				Code: domain.AddonDangerousGoods, Description: "Dangerous goods handling", Amount: 37.50,
			})
		}

		var totalSurcharges float64
		for _, s := range surcharges {
			totalSurcharges += s.Amount
		}

		rates = append(rates, domain.RawCarrierRate{
			Carrier:         c.code,
			ServiceCode:     fmt.Sprintf("%s-%s", c.code, svc.code),
			ServiceName:     svc.name,
			BaseCharge:      base,
			TotalSurcharges: totalSurcharges,
			Surcharges:      surcharges,
			Currency:        "USD",
			TransitDays:     svc.transitDays,
			DeliveryDate:    now.AddDate(0, 0, svc.transitDays),
		})
	}
	return rates, nil
}

// CreateShipment accepts any submission for a known service and assigns a
// tracking number.
func (c *StaticClient) CreateShipment(ctx context.Context, req ports.SubmitRequest) (*ports.SubmitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(req.CarrierServiceID, string(c.code)+"-") {
		return &ports.SubmitResult{
			Success:      false,
			ErrorMessage: fmt.Sprintf("unknown service %q", req.CarrierServiceID),
			Errors:       []string{"carrier_service_id does not belong to " + string(c.code)},
		}, nil
	}
	return &ports.SubmitResult{
		Success:        true,
		TrackingNumber: trackingNumber(c.code),
	}, nil
}

func hasDangerousItems(packages []domain.PackageDescriptor) bool {
	for _, p := range packages {
		for _, item := range p.Items {
			if item.IsDangerous {
				return true
			}
		}
	}
	return false
}

// trackingNumber returns a tracking number in the carrier's prefix format.
func trackingNumber(code domain.CarrierCode) string {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%s%010d", prefix(code), time.Now().UnixNano()%1e10)
	}
	return fmt.Sprintf("%s%010X", prefix(code), b)
}

func prefix(code domain.CarrierCode) string {
	switch code {
	case domain.CarrierFedEx:
		return "FX"
	case domain.CarrierDHL:
		return "DH"
	case domain.CarrierUPS:
		return "1Z"
	}
	return "PM"
}
