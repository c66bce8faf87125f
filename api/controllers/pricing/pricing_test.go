package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	internalpricing "github.com/motorline/dealership-backend/internal/pricing"
	"github.com/motorline/dealership-backend/pkg/db/models"
	"github.com/motorline/dealership-backend/pkg/enums"
	pkgerrors "github.com/motorline/dealership-backend/pkg/errors"
	"github.com/motorline/dealership-backend/pkg/logger"
	"github.com/motorline/dealership-backend/pkg/types"
)

type stubPricingService struct {
	calculate func(ctx context.Context, input internalpricing.CalculateInput) (*internalpricing.Quote, error)
	validate  func(ctx context.Context, code string, customerID, vehicleID *int64) (*internalpricing.ValidationResult, error)
}

func (s *stubPricingService) Calculate(ctx context.Context, input internalpricing.CalculateInput) (*internalpricing.Quote, error) {
	if s.calculate != nil {
		return s.calculate(ctx, input)
	}
	panic("not implemented")
}

func (s *stubPricingService) ValidateDiscount(ctx context.Context, code string, customerID, vehicleID *int64) (*internalpricing.ValidationResult, error) {
	if s.validate != nil {
		return s.validate(ctx, code, customerID, vehicleID)
	}
	panic("not implemented")
}

func (s *stubPricingService) CreateDiscount(ctx context.Context, discount *models.Discount) error {
	panic("not implemented")
}

func (s *stubPricingService) GetDiscount(ctx context.Context, code string) (*models.Discount, error) {
	panic("not implemented")
}

func (s *stubPricingService) UpdateDiscount(ctx context.Context, code string, updates map[string]any) (*models.Discount, error) {
	panic("not implemented")
}

func (s *stubPricingService) ListDiscounts(ctx context.Context, activeOnly bool, offset, limit int) ([]models.Discount, error) {
	return nil, nil
}

func (s *stubPricingService) GetPriceHistory(ctx context.Context, vehicleID int64, offset, limit int) ([]models.PriceHistory, error) {
	return nil, nil
}

type stubBasePrices struct {
	price decimal.Decimal
	err   error
}

func (s *stubBasePrices) BasePrice(ctx context.Context, vehicleID int64) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Zero, s.err
	}
	return s.price, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

func postJSON(t *testing.T, handler http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestCalculateResolvesBasePriceFromInventory(t *testing.T) {
	svc := &stubPricingService{
		calculate: func(ctx context.Context, input internalpricing.CalculateInput) (*internalpricing.Quote, error) {
			if !input.BasePrice.Equal(decimal.RequireFromString("25000")) {
				t.Fatalf("base price not resolved from inventory: %s", input.BasePrice)
			}
			if input.PaymentMethod != enums.PaymentMethodCash {
				t.Fatalf("unexpected payment method %s", input.PaymentMethod)
			}
			return &internalpricing.Quote{
				BasePrice:  input.BasePrice,
				FinalPrice: decimal.RequireFromString("24250.00"),
				Currency:   "USD",
				Trail:      types.DiscountTrail{{Kind: types.AdjustmentPaymentMethod}},
			}, nil
		},
	}
	prices := &stubBasePrices{price: decimal.RequireFromString("25000")}

	resp := postJSON(t, Calculate(svc, prices, testLogger()),
		"/api/v1/pricing/calculate", `{"vehicle_id":101,"payment_method":"cash"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			BasePrice        string              `json:"base_price"`
			FinalPrice       string              `json:"final_price"`
			Currency         string              `json:"currency"`
			AppliedDiscounts types.DiscountTrail `json:"applied_discounts"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.FinalPrice != "24250.00" || envelope.Data.Currency != "USD" {
		t.Fatalf("unexpected quote %+v", envelope.Data)
	}
	if len(envelope.Data.AppliedDiscounts) != 1 {
		t.Fatalf("expected one trail entry, got %d", len(envelope.Data.AppliedDiscounts))
	}
}

func TestCalculatePrefersExplicitBasePrice(t *testing.T) {
	svc := &stubPricingService{
		calculate: func(ctx context.Context, input internalpricing.CalculateInput) (*internalpricing.Quote, error) {
			if !input.BasePrice.Equal(decimal.RequireFromString("31000")) {
				t.Fatalf("explicit base price ignored: %s", input.BasePrice)
			}
			return &internalpricing.Quote{BasePrice: input.BasePrice, FinalPrice: input.BasePrice, Currency: "USD"}, nil
		},
	}
	prices := &stubBasePrices{err: pkgerrors.New(pkgerrors.CodeNotFound, "should not be called")}

	resp := postJSON(t, Calculate(svc, prices, testLogger()),
		"/api/v1/pricing/calculate", `{"vehicle_id":101,"payment_method":"credit_card","base_price":"31000"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestCalculateRejectsUnknownPaymentMethod(t *testing.T) {
	resp := postJSON(t, Calculate(&stubPricingService{}, &stubBasePrices{}, testLogger()),
		"/api/v1/pricing/calculate", `{"vehicle_id":101,"payment_method":"barter"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCalculateForwardsOrderID(t *testing.T) {
	orderID := uuid.New()
	svc := &stubPricingService{
		calculate: func(ctx context.Context, input internalpricing.CalculateInput) (*internalpricing.Quote, error) {
			if input.OrderID == nil || *input.OrderID != orderID {
				t.Fatalf("order id not forwarded: %v", input.OrderID)
			}
			return &internalpricing.Quote{FinalPrice: decimal.Zero, Currency: "USD"}, nil
		},
	}

	resp := postJSON(t, Calculate(svc, &stubBasePrices{price: decimal.NewFromInt(1)}, testLogger()),
		"/api/v1/pricing/calculate",
		`{"vehicle_id":101,"payment_method":"cash","order_id":"`+orderID.String()+`"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestValidateDiscountReturnsVerdict(t *testing.T) {
	svc := &stubPricingService{
		validate: func(ctx context.Context, code string, customerID, vehicleID *int64) (*internalpricing.ValidationResult, error) {
			if code != "SUMMER10" {
				t.Fatalf("unexpected code %q", code)
			}
			return &internalpricing.ValidationResult{IsValid: false, Message: "Discount code expired"}, nil
		},
	}

	resp := postJSON(t, ValidateDiscount(svc, testLogger()),
		"/api/v1/discounts/validate", `{"code":"SUMMER10"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			IsValid bool   `json:"is_valid"`
			Message string `json:"message"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.IsValid || envelope.Data.Message != "Discount code expired" {
		t.Fatalf("unexpected verdict %+v", envelope.Data)
	}
}

func TestValidateDiscountRequiresCode(t *testing.T) {
	resp := postJSON(t, ValidateDiscount(&stubPricingService{}, testLogger()),
		"/api/v1/discounts/validate", `{}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
