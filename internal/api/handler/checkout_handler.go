package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

// CheckoutHandler exposes verify-and-charge. The client_total it accepts is
// untrusted display data: the service recomputes the price server-side and
// only ever charges its own figure.
type CheckoutHandler struct {
	checkout ports.CheckoutService
}

func NewCheckoutHandler(checkout ports.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type checkoutRequest struct {
	ShipmentID       string   `json:"shipment_id" validate:"required"`
	CarrierServiceID string   `json:"carrier_service_id" validate:"required"`
	AddonIDs         []string `json:"addon_ids"`
	DeclaredValue    float64  `json:"declared_value" validate:"gte=0"`
	CouponCode       string   `json:"coupon_code"`
	LoyaltyPoints    int      `json:"loyalty_points" validate:"gte=0"`
	ClientTotal      float64  `json:"client_total" validate:"gt=0"`
	PaymentMethod    string   `json:"payment_method" validate:"required"`
}

type checkoutResponse struct {
	Success        bool    `json:"success"`
	TrackingNumber string  `json:"tracking_number,omitempty"`
	TransactionID  string  `json:"transaction_id,omitempty"`
	ChargedAmount  float64 `json:"charged_amount"`
	Message        string  `json:"message,omitempty"`
}

func toCheckoutResponse(r *ports.CheckoutResult) checkoutResponse {
	return checkoutResponse{
		Success:        r.Success,
		TrackingNumber: r.TrackingNumber,
		TransactionID:  r.TransactionID,
		ChargedAmount:  r.VerifiedPrice,
		Message:        r.ErrorMessage,
	}
}

// Checkout verifies the price, charges the customer, and submits the
// shipment to the carrier.
//
// @Summary      Check out a quoted shipment
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        body  body      checkoutRequest  true  "Checkout details"
// @Success      200   {object}  checkoutResponse
// @Failure      402   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/checkout [post]
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	_, clientID, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.checkout.VerifyAndCharge(c.Request().Context(), ports.CheckoutInput{
		ShipmentID:       req.ShipmentID,
		ClientID:         clientID,
		CarrierServiceID: req.CarrierServiceID,
		AddonIDs:         req.AddonIDs,
		DeclaredValue:    req.DeclaredValue,
		CouponCode:       req.CouponCode,
		LoyaltyPoints:    req.LoyaltyPoints,
		ClientTotal:      req.ClientTotal,
		PaymentMethod:    req.PaymentMethod,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCheckoutResponse(result))
}

// Resubmit retries carrier submission for a paid shipment whose earlier
// submission failed. Admin only.
//
// @Summary      Resubmit a failed carrier submission
// @Tags         checkout
// @Produce      json
// @Param        id   path      string  true  "Shipment ID"
// @Success      200  {object}  checkoutResponse
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /v1/admin/shipments/{id}/resubmit [post]
func (h *CheckoutHandler) Resubmit(c echo.Context) error {
	result, err := h.checkout.Resubmit(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCheckoutResponse(result))
}
