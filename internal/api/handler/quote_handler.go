package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

// QuoteHandler serves stateless rate shopping: no shipment record is
// created, the caller gets every carrier's slot plus the overall best rate.
type QuoteHandler struct {
	rates ports.RateService
}

func NewQuoteHandler(rates ports.RateService) *QuoteHandler {
	return &QuoteHandler{rates: rates}
}

type addressRequest struct {
	Country string `json:"country" validate:"required"`
	State   string `json:"state"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
	Street  string `json:"street"`
}

type dimensionsRequest struct {
	LengthIn float64 `json:"length_in" validate:"gt=0"`
	WidthIn  float64 `json:"width_in" validate:"gt=0"`
	HeightIn float64 `json:"height_in" validate:"gt=0"`
}

type itemRequest struct {
	Description string `json:"description"`
	IsDangerous bool   `json:"is_dangerous"`
	IsFragile   bool   `json:"is_fragile"`
	IsOversized bool   `json:"is_oversized"`
}

type packageRequest struct {
	WeightLb      float64           `json:"weight_lb" validate:"gt=0"`
	Dimensions    dimensionsRequest `json:"dimensions"`
	DeclaredValue float64           `json:"declared_value"`
	Items         []itemRequest     `json:"items"`
}

type quoteRequest struct {
	Origin      addressRequest   `json:"origin" validate:"required"`
	Destination addressRequest   `json:"destination" validate:"required"`
	Packages    []packageRequest `json:"packages" validate:"required,min=1,dive"`
	ServiceType string           `json:"service_type" validate:"omitempty,oneof=economy express"`
}

func (r quoteRequest) toInput() ports.QuoteInput {
	return ports.QuoteInput{
		Origin: domain.Address{
			CountryCode: r.Origin.Country,
			StateCode:   r.Origin.State,
			City:        r.Origin.City,
			ZipCode:     r.Origin.ZipCode,
			Street:      r.Origin.Street,
		},
		Destination: ports.RawAddress{
			Country: r.Destination.Country,
			State:   r.Destination.State,
			City:    r.Destination.City,
			ZipCode: r.Destination.ZipCode,
			Street:  r.Destination.Street,
		},
		Packages:    toPackages(r.Packages),
		ServiceType: r.ServiceType,
	}
}

func toPackages(reqs []packageRequest) []domain.PackageDescriptor {
	pkgs := make([]domain.PackageDescriptor, 0, len(reqs))
	for _, pr := range reqs {
		items := make([]domain.Item, 0, len(pr.Items))
		for _, it := range pr.Items {
			items = append(items, domain.Item{
				Description: it.Description,
				IsDangerous: it.IsDangerous,
				IsFragile:   it.IsFragile,
				IsOversized: it.IsOversized,
			})
		}
		pkgs = append(pkgs, domain.PackageDescriptor{
			WeightLb:      pr.WeightLb,
			Dimensions:    domain.Dimensions(pr.Dimensions),
			DeclaredValue: pr.DeclaredValue,
			Items:         items,
		})
	}
	return pkgs
}

// Quote returns rates from every configured carrier for the given shipment.
//
// @Summary      Quote a shipment across carriers
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        body  body      quoteRequest  true  "Shipment to quote"
// @Success      200   {object}  ports.QuoteResult
// @Failure      400   {object}  map[string]string
// @Router       /v1/quotes [post]
func (h *QuoteHandler) Quote(c echo.Context) error {
	var req quoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.rates.Quote(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
