package ports

import (
	"context"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
)

// RateRequest is the normalized shipment request handed to a carrier client.
// Invariant: at least one package, every weight > 0.
type RateRequest struct {
	Origin      domain.Address
	Destination domain.Address
	Packages    []domain.PackageDescriptor
	// ServiceType restricts the quote to one service; empty quotes all.
	ServiceType string
}

// SubmitRequest carries a priced, paid order to the carrier.
type SubmitRequest struct {
	Origin           domain.Address
	Destination      domain.Address
	Recipient        domain.Person
	Packages         []domain.PackageDescriptor
	CarrierServiceID string
	Reference        string // shipment id, echoed back by the carrier
}

// SubmitResult reports the outcome of a carrier shipment submission.
type SubmitResult struct {
	Success        bool
	TrackingNumber string
	LabelData      []byte
	ErrorMessage   string
	Errors         []string
}

// CarrierClient is the wire-level integration boundary for one carrier. The
// FedEx/DHL/UPS adapters behind it are external collaborators; the pipeline
// only depends on this capability.
type CarrierClient interface {
	GetRates(ctx context.Context, req RateRequest) ([]domain.RawCarrierRate, error)
	CreateShipment(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
}

// CarrierRegistry maps each carrier in the closed set to its client. A
// carrier absent from the registry is reported as not configured in quote
// results, never as a fatal error.
type CarrierRegistry struct {
	clients map[domain.CarrierCode]CarrierClient
}

// NewCarrierRegistry builds a registry from the given clients.
func NewCarrierRegistry(clients map[domain.CarrierCode]CarrierClient) *CarrierRegistry {
	if clients == nil {
		clients = make(map[domain.CarrierCode]CarrierClient)
	}
	return &CarrierRegistry{clients: clients}
}

// Get returns the client for a carrier, and whether one is configured.
func (r *CarrierRegistry) Get(code domain.CarrierCode) (CarrierClient, bool) {
	c, ok := r.clients[code]
	return c, ok
}

// ErrorCategory buckets carrier API failures for operator-friendly reporting.
type ErrorCategory string

const (
	ErrCategoryAuth               ErrorCategory = "auth_error"
	ErrCategoryAddressValidation  ErrorCategory = "address_validation"
	ErrCategoryPackageValidation  ErrorCategory = "package_validation"
	ErrCategoryRateLimited        ErrorCategory = "rate_limited"
	ErrCategoryNetwork            ErrorCategory = "network_error"
	ErrCategoryServiceUnavailable ErrorCategory = "service_unavailable"
	ErrCategoryAPI                ErrorCategory = "api_error"
)

// CarrierError is the structured failure a carrier client returns. Raw
// response detail stays in Detail for logs; Message is safe to surface.
type CarrierError struct {
	Carrier  domain.CarrierCode
	Category ErrorCategory
	Message  string
	Detail   string
}

func (e *CarrierError) Error() string {
	return string(e.Carrier) + ": " + e.Message
}

// OperatorMessage translates the error category into the message attached to
// the carrier's result slot.
func (e *CarrierError) OperatorMessage() string {
	switch e.Category {
	case ErrCategoryAuth:
		return "Carrier authentication failed, check credentials"
	case ErrCategoryAddressValidation:
		return "Carrier rejected the destination address"
	case ErrCategoryPackageValidation:
		return "Carrier rejected the package details"
	case ErrCategoryRateLimited:
		return "Carrier rate limit reached, try again shortly"
	case ErrCategoryNetwork:
		return "Carrier API unreachable"
	case ErrCategoryServiceUnavailable:
		return "Carrier service temporarily unavailable"
	default:
		return "Carrier API error"
	}
}
