package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
)

func newErrorContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/checkout", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestErrorHandlerMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"price mismatch", domain.ErrPriceMismatch, http.StatusConflict},
		{"payment declined", domain.ErrPaymentDeclined, http.StatusPaymentRequired},
		{"rate not found", fmt.Errorf("resolve service: %w", domain.ErrRateNotFound), http.StatusNotFound},
		{"no rates", domain.ErrNoRatesAvailable, http.StatusUnprocessableEntity},
		{"carrier not configured", domain.ErrCarrierNotConfigured, http.StatusUnprocessableEntity},
		{"invalid input", fmt.Errorf("%w: weight must be positive", domain.ErrInvalidInput), http.StatusBadRequest},
		{"shipment not found", domain.ErrShipmentNotFound, http.StatusNotFound},
		{"invalid transition", domain.ErrInvalidTransition, http.StatusUnprocessableEntity},
	}

	handler := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newErrorContext(t)
			handler(tc.err, c)
			if rec.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tc.wantCode)
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Fatalf("body missing error envelope: %s", rec.Body.String())
			}
		})
	}
}

func TestErrorHandlerPassesThroughEchoErrors(t *testing.T) {
	handler := NewHTTPErrorHandler(zerolog.Nop())
	c, rec := newErrorContext(t)

	handler(echo.NewHTTPError(http.StatusBadRequest, "malformed request body"), c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "malformed request body") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestErrorHandlerScrubsUnexpectedErrors(t *testing.T) {
	handler := NewHTTPErrorHandler(zerolog.Nop())
	c, rec := newErrorContext(t)

	handler(errors.New("dial tcp 10.0.0.5:27017: connection refused"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "internal server error") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
