package remote

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/motorline/dealership-backend/internal/saga"
	pkgerrors "github.com/motorline/dealership-backend/pkg/errors"
	"github.com/motorline/dealership-backend/pkg/types"
)

// PricingClient talks to a remote pricing service over its JSON API.
type PricingClient struct {
	http *resty.Client
}

func NewPricingClient(baseURL string) (*PricingClient, error) {
	client, err := newClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("pricing client: %w", err)
	}
	return &PricingClient{http: client}, nil
}

type calculateRequest struct {
	VehicleID     int64            `json:"vehicle_id"`
	CustomerID    *int64           `json:"customer_id,omitempty"`
	PaymentMethod string           `json:"payment_method"`
	TradeInValue  *decimal.Decimal `json:"trade_in_value,omitempty"`
	DiscountCode  *string          `json:"discount_code,omitempty"`
	OrderID       *string          `json:"order_id,omitempty"`
}

type calculateResponse struct {
	BasePrice        decimal.Decimal     `json:"base_price"`
	FinalPrice       decimal.Decimal     `json:"final_price"`
	Currency         string              `json:"currency"`
	AppliedDiscounts types.DiscountTrail `json:"applied_discounts"`
}

func (c *PricingClient) CalculatePrice(ctx context.Context, req saga.PriceRequest) (*saga.PriceQuote, error) {
	body := calculateRequest{
		VehicleID:     req.VehicleID,
		CustomerID:    req.CustomerID,
		PaymentMethod: req.PaymentMethod.String(),
		TradeInValue:  req.TradeInValue,
		DiscountCode:  req.DiscountCode,
	}
	if req.OrderID != nil {
		id := req.OrderID.String()
		body.OrderID = &id
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/api/v1/pricing/calculate")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pricing service unreachable")
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}

	var payload calculateResponse
	if err := decodeData(resp.Body(), &payload); err != nil {
		return nil, err
	}
	return &saga.PriceQuote{
		BasePrice:  payload.BasePrice,
		FinalPrice: payload.FinalPrice,
		Currency:   payload.Currency,
		Trail:      payload.AppliedDiscounts,
	}, nil
}
