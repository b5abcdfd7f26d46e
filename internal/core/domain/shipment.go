package domain

import "time"

// ShipmentStatus represents the lifecycle state of a shipment.
type ShipmentStatus string

const (
	StatusQuoted           ShipmentStatus = "quoted"
	StatusPaid             ShipmentStatus = "paid"
	StatusSubmitted        ShipmentStatus = "submitted"
	StatusSubmissionFailed ShipmentStatus = "submission_failed"
	StatusCancelled        ShipmentStatus = "cancelled"
)

// validTransitions defines the allowed state machine transitions. Payment is
// irreversible once captured: a paid shipment never returns to quoted, and a
// failed carrier submission keeps the shipment paid so an operator can retry.
var validTransitions = map[ShipmentStatus][]ShipmentStatus{
	StatusQuoted:           {StatusPaid, StatusCancelled},
	StatusPaid:             {StatusSubmitted, StatusSubmissionFailed},
	StatusSubmissionFailed: {StatusSubmitted, StatusSubmissionFailed},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Person represents a sender or recipient.
type Person struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone" bson:"phone"`
}

// SelectedService records the carrier service the customer chose at checkout.
type SelectedService struct {
	Carrier          CarrierCode `json:"carrier" bson:"carrier"`
	CarrierServiceID string      `json:"carrier_service_id" bson:"carrier_service_id"`
	ServiceName      string      `json:"service_name" bson:"service_name"`
}

// SubmissionError records a failed carrier submission on an already-paid
// shipment. Payment is not rolled back; the record exists so an operator can
// resubmit.
type SubmissionError struct {
	Message     string    `json:"message" bson:"message"`
	Attempts    int       `json:"attempts" bson:"attempts"`
	LastAttempt time.Time `json:"last_attempt" bson:"last_attempt"`
	Retryable   bool      `json:"retryable" bson:"retryable"`
}

// Shipment is the core aggregate root.
type Shipment struct {
	ID              string              `json:"id" bson:"_id,omitempty"`
	TrackingNumber  string              `json:"tracking_number,omitempty" bson:"tracking_number,omitempty"`
	ClientID        string              `json:"client_id" bson:"client_id"`
	Recipient       Person              `json:"recipient" bson:"recipient"`
	Origin          Address             `json:"origin" bson:"origin"`
	Destination     Address             `json:"destination" bson:"destination"`
	Packages        []PackageDescriptor `json:"packages" bson:"packages"`
	Service         SelectedService     `json:"service,omitempty" bson:"service,omitempty"`
	SelectedAddons  []string            `json:"selected_addons,omitempty" bson:"selected_addons,omitempty"`
	Status          ShipmentStatus      `json:"status" bson:"status"`
	VerifiedPrice   float64             `json:"verified_price,omitempty" bson:"verified_price,omitempty"`
	Currency        string              `json:"currency" bson:"currency"`
	TransactionID   string              `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	SubmissionError *SubmissionError    `json:"submission_error,omitempty" bson:"submission_error,omitempty"`
	CreatedAt       time.Time           `json:"created_at" bson:"created_at"`
	PaidAt          time.Time           `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
}
