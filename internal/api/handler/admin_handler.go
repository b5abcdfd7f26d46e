package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

// AdminHandler manages the pricing configuration: per-carrier commissions,
// markup rules, the addon catalog, and the pricing audit trail. Every route
// is RBAC-gated to the admin role in the router.
type AdminHandler struct {
	pricing ports.PricingConfigRepository
	addons  ports.AddonRepository
	audit   ports.AuditRepository
}

func NewAdminHandler(pricing ports.PricingConfigRepository, addons ports.AddonRepository, audit ports.AuditRepository) *AdminHandler {
	return &AdminHandler{pricing: pricing, addons: addons, audit: audit}
}

// ListCommissions returns the configured per-carrier commissions.
//
// @Summary      List carrier commissions
// @Tags         admin
// @Produce      json
// @Success      200  {array}  domain.CommissionSetting
// @Router       /v1/admin/commissions [get]
func (h *AdminHandler) ListCommissions(c echo.Context) error {
	settings, err := h.pricing.ListCommissions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

type commissionRequest struct {
	Carrier string  `json:"carrier" validate:"required,oneof=fedex dhl ups"`
	Percent float64 `json:"percent" validate:"gte=0,lte=100"`
}

// UpsertCommission sets a carrier's commission percentage. Values below the
// platform floor are stored as submitted; the pricing pipeline clamps them
// to the floor at quote time and records the anomaly.
//
// @Summary      Set a carrier commission
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      commissionRequest  true  "Commission setting"
// @Success      200   {object}  domain.CommissionSetting
// @Failure      400   {object}  map[string]string
// @Router       /v1/admin/commissions [put]
func (h *AdminHandler) UpsertCommission(c echo.Context) error {
	var req commissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	username, _ := c.Get("username").(string)
	setting := domain.CommissionSetting{
		Carrier:   domain.CarrierCode(req.Carrier),
		Percent:   req.Percent,
		UpdatedBy: username,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.pricing.UpsertCommission(c.Request().Context(), setting); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, setting)
}

// ListMarkupRules returns every markup rule, active or not.
//
// @Summary      List markup rules
// @Tags         admin
// @Produce      json
// @Success      200  {array}  domain.MarkupRule
// @Router       /v1/admin/markup-rules [get]
func (h *AdminHandler) ListMarkupRules(c echo.Context) error {
	rules, err := h.pricing.ListMarkupRules(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rules)
}

type markupRuleRequest struct {
	ID        string   `json:"id"`
	Name      string   `json:"name" validate:"required"`
	Priority  int      `json:"priority"`
	Carrier   string   `json:"carrier" validate:"omitempty,oneof=fedex dhl ups"`
	MinWeight float64  `json:"min_weight" validate:"gte=0"`
	MaxWeight float64  `json:"max_weight" validate:"gte=0"`
	Countries []string `json:"countries"`
	Type      string   `json:"type" validate:"required,oneof=fixed percentage"`
	Value     float64  `json:"value" validate:"gt=0"`
	Active    bool     `json:"active"`
}

// UpsertMarkupRule creates or updates a markup rule.
//
// @Summary      Create or update a markup rule
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      markupRuleRequest  true  "Markup rule"
// @Success      200   {object}  domain.MarkupRule
// @Failure      400   {object}  map[string]string
// @Router       /v1/admin/markup-rules [post]
func (h *AdminHandler) UpsertMarkupRule(c echo.Context) error {
	var req markupRuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rule := domain.MarkupRule{
		ID:        req.ID,
		Name:      req.Name,
		Priority:  req.Priority,
		Carrier:   req.Carrier,
		MinWeight: req.MinWeight,
		MaxWeight: req.MaxWeight,
		Countries: req.Countries,
		Type:      domain.MarkupType(req.Type),
		Value:     req.Value,
		Active:    req.Active,
	}
	id, err := h.pricing.UpsertMarkupRule(c.Request().Context(), rule)
	if err != nil {
		return err
	}
	rule.ID = id
	return c.JSON(http.StatusOK, rule)
}

// DeleteMarkupRule removes a markup rule by id.
//
// @Summary      Delete a markup rule
// @Tags         admin
// @Param        id  path  string  true  "Rule ID"
// @Success      204
// @Router       /v1/admin/markup-rules/{id} [delete]
func (h *AdminHandler) DeleteMarkupRule(c echo.Context) error {
	if err := h.pricing.DeleteMarkupRule(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListAddons returns the active addon catalog.
//
// @Summary      List active addons
// @Tags         admin
// @Produce      json
// @Success      200  {array}  domain.AddonDefinition
// @Router       /v1/admin/addons [get]
func (h *AdminHandler) ListAddons(c echo.Context) error {
	defs, err := h.addons.ListActive(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, defs)
}

type addonRequest struct {
	ID            string  `json:"id"`
	Code          string  `json:"code" validate:"required"`
	DisplayName   string  `json:"display_name" validate:"required"`
	PriceType     string  `json:"price_type" validate:"required,oneof=fixed percentage carrier_rate"`
	Price         float64 `json:"price" validate:"gte=0"`
	Percent       float64 `json:"percent" validate:"gte=0,lte=100"`
	SurchargeCode string  `json:"surcharge_code"`
	Active        bool    `json:"active"`
}

// UpsertAddon creates or updates an addon definition.
//
// @Summary      Create or update an addon
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      addonRequest  true  "Addon definition"
// @Success      200   {object}  domain.AddonDefinition
// @Failure      400   {object}  map[string]string
// @Router       /v1/admin/addons [post]
func (h *AdminHandler) UpsertAddon(c echo.Context) error {
	var req addonRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	def := domain.AddonDefinition{
		ID:            req.ID,
		Code:          req.Code,
		DisplayName:   req.DisplayName,
		PriceType:     domain.AddonPriceType(req.PriceType),
		Price:         req.Price,
		Percent:       req.Percent,
		SurchargeCode: req.SurchargeCode,
		Active:        req.Active,
	}
	id, err := h.addons.Upsert(c.Request().Context(), def)
	if err != nil {
		return err
	}
	def.ID = id
	return c.JSON(http.StatusOK, def)
}

// DeleteAddon removes an addon definition by id.
//
// @Summary      Delete an addon
// @Tags         admin
// @Param        id  path  string  true  "Addon ID"
// @Success      204
// @Router       /v1/admin/addons/{id} [delete]
func (h *AdminHandler) DeleteAddon(c echo.Context) error {
	if err := h.addons.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AuditTrail returns the pricing audit events recorded for a quote or
// shipment reference, in chronological order.
//
// @Summary      Get the pricing audit trail for a reference
// @Tags         admin
// @Produce      json
// @Param        reference  path      string  true  "Quote or shipment ID"
// @Success      200        {array}   domain.AuditEvent
// @Router       /v1/admin/audit/{reference} [get]
func (h *AdminHandler) AuditTrail(c echo.Context) error {
	events, err := h.audit.ListByReference(c.Request().Context(), c.Param("reference"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}
