package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

type stubRateService struct {
	quoteFn func(ctx context.Context, input ports.QuoteInput) (*ports.QuoteResult, error)
}

func (s *stubRateService) Quote(ctx context.Context, input ports.QuoteInput) (*ports.QuoteResult, error) {
	return s.quoteFn(ctx, input)
}

func (s *stubRateService) AddonsFor(context.Context, domain.CarrierCode, []domain.SurchargeLine, []domain.PackageDescriptor) ([]domain.PricedAddon, error) {
	return nil, nil
}

func newQuoteContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

const validQuoteBody = `{
	"origin": {"country":"US","city":"New York","zip_code":"10001"},
	"destination": {"country":"US","city":"San Francisco","zip_code":"94103"},
	"packages": [{"weight_lb": 10, "dimensions": {"length_in":10,"width_in":8,"height_in":6}}]
}`

func TestQuoteHandler_Success(t *testing.T) {
	stub := &stubRateService{
		quoteFn: func(_ context.Context, input ports.QuoteInput) (*ports.QuoteResult, error) {
			if len(input.Packages) != 1 || input.Packages[0].WeightLb != 10 {
				t.Fatalf("unexpected input: %+v", input)
			}
			if input.Destination.ZipCode != "94103" {
				t.Fatalf("unexpected destination: %+v", input.Destination)
			}
			return &ports.QuoteResult{
				Carriers: map[domain.CarrierCode]ports.CarrierQuote{
					domain.CarrierFedEx: {Name: "FedEx", Enabled: true},
				},
				Source: domain.SourceLiveAPI,
			}, nil
		},
	}
	h := NewQuoteHandler(stub)

	c, rec := newQuoteContext(t, validQuoteBody)
	if err := h.Quote(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["rate_source"] != "live_api" {
		t.Fatalf("expected live_api source, got %v", resp["rate_source"])
	}
}

func TestQuoteHandler_ValidationRejectsZeroWeight(t *testing.T) {
	stub := &stubRateService{
		quoteFn: func(context.Context, ports.QuoteInput) (*ports.QuoteResult, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	h := NewQuoteHandler(stub)

	body := `{
		"origin": {"country":"US"},
		"destination": {"country":"US","zip_code":"94103"},
		"packages": [{"weight_lb": 0, "dimensions": {"length_in":10,"width_in":8,"height_in":6}}]
	}`
	c, _ := newQuoteContext(t, body)

	err := h.Quote(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestQuoteHandler_PropagatesDomainError(t *testing.T) {
	stub := &stubRateService{
		quoteFn: func(context.Context, ports.QuoteInput) (*ports.QuoteResult, error) {
			return nil, domain.ErrInvalidInput
		},
	}
	h := NewQuoteHandler(stub)

	c, _ := newQuoteContext(t, validQuoteBody)
	if err := h.Quote(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected domain error to propagate, got %v", err)
	}
}
