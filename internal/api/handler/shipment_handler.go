package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

// ShipmentHandler manages the shipment lifecycle: creating a quoted shipment
// a client can later check out, and retrieving it. Client-role access is
// always scoped to the caller's own client_id.
type ShipmentHandler struct {
	shipments  ports.ShipmentRepository
	rates      ports.RateService
	normalizer ports.AddressNormalizer
}

func NewShipmentHandler(shipments ports.ShipmentRepository, rates ports.RateService, normalizer ports.AddressNormalizer) *ShipmentHandler {
	return &ShipmentHandler{shipments: shipments, rates: rates, normalizer: normalizer}
}

type personRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

type createShipmentRequest struct {
	Recipient   personRequest    `json:"recipient" validate:"required"`
	Origin      addressRequest   `json:"origin" validate:"required"`
	Destination addressRequest   `json:"destination" validate:"required"`
	Packages    []packageRequest `json:"packages" validate:"required,min=1,dive"`
	ServiceType string           `json:"service_type" validate:"omitempty,oneof=economy express"`
}

type createShipmentResponse struct {
	Shipment *domain.Shipment     `json:"shipment"`
	Quote    *ports.QuoteResult   `json:"quote"`
	Addons   []domain.PricedAddon `json:"addons,omitempty"`
}

// Create persists a quoted shipment and returns it together with its rates
// and the priced addon catalog for the best rate's carrier.
//
// @Summary      Create a shipment and quote it
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Param        body  body      createShipmentRequest  true  "Shipment details"
// @Success      201   {object}  createShipmentResponse
// @Failure      400   {object}  map[string]string
// @Router       /v1/shipments [post]
func (h *ShipmentHandler) Create(c echo.Context) error {
	_, clientID, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req createShipmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	destination, err := h.normalizer.Normalize(ports.RawAddress{
		Country: req.Destination.Country,
		State:   req.Destination.State,
		City:    req.Destination.City,
		ZipCode: req.Destination.ZipCode,
		Street:  req.Destination.Street,
	})
	if err != nil {
		return err
	}

	shipment := &domain.Shipment{
		ClientID: clientID,
		Recipient: domain.Person{
			Name:  req.Recipient.Name,
			Email: req.Recipient.Email,
			Phone: req.Recipient.Phone,
		},
		Origin: domain.Address{
			CountryCode: req.Origin.Country,
			StateCode:   req.Origin.State,
			City:        req.Origin.City,
			ZipCode:     req.Origin.ZipCode,
			Street:      req.Origin.Street,
		},
		Destination: destination,
		Packages:    toPackages(req.Packages),
		Status:      domain.StatusQuoted,
		Currency:    "USD",
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.shipments.Create(c.Request().Context(), shipment); err != nil {
		return err
	}

	quote, err := h.rates.Quote(c.Request().Context(), ports.QuoteInput{
		Reference:   shipment.ID,
		Origin:      shipment.Origin,
		Destination: ports.RawAddress{Country: destination.CountryCode, State: destination.StateCode, City: destination.City, ZipCode: destination.ZipCode},
		Packages:    shipment.Packages,
		ServiceType: req.ServiceType,
	})
	if err != nil {
		return err
	}

	resp := createShipmentResponse{Shipment: shipment, Quote: quote}
	if quote.Best != nil {
		addons, addonErr := h.rates.AddonsFor(c.Request().Context(), quote.Best.Carrier, quote.Best.SurchargeBreakdown, shipment.Packages)
		if addonErr == nil {
			resp.Addons = addons
		}
	}
	return c.JSON(http.StatusCreated, resp)
}

// Get retrieves a shipment. Clients only see their own shipments; admins may
// read any shipment.
//
// @Summary      Get a shipment
// @Tags         shipments
// @Produce      json
// @Param        id   path      string  true  "Shipment ID"
// @Success      200  {object}  domain.Shipment
// @Failure      404  {object}  map[string]string
// @Router       /v1/shipments/{id} [get]
func (h *ShipmentHandler) Get(c echo.Context) error {
	role, clientID, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if role == domain.RoleAdmin {
		clientID = ""
	}

	shipment, err := h.shipments.FindByID(c.Request().Context(), c.Param("id"), clientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shipment)
}
