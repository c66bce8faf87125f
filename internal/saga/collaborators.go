package saga

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/motorline/dealership-backend/internal/inventory"
	"github.com/motorline/dealership-backend/internal/pricing"
	"github.com/motorline/dealership-backend/pkg/enums"
	pkgerrors "github.com/motorline/dealership-backend/pkg/errors"
	"github.com/motorline/dealership-backend/pkg/types"
)

// Availability is the read-only answer to "can this vehicle be sold".
type Availability struct {
	Available bool
	VIN       string
}

// PriceQuote is the pricing collaborator's answer for one order.
type PriceQuote struct {
	BasePrice  decimal.Decimal
	FinalPrice decimal.Decimal
	Currency   string
	Trail      types.DiscountTrail
}

// PriceRequest carries everything the pricing collaborator needs. The
// collaborator resolves the vehicle's base price itself.
type PriceRequest struct {
	VehicleID     int64
	CustomerID    *int64
	PaymentMethod enums.PaymentMethod
	TradeInValue  *decimal.Decimal
	DiscountCode  *string
	OrderID       *uuid.UUID
}

// InventoryCollaborator is the ledger as seen by the orchestrator. The
// in-process adapter and the HTTP client implement the same contract.
type InventoryCollaborator interface {
	CheckAvailability(ctx context.Context, vehicleID int64) (*Availability, error)
	Reserve(ctx context.Context, vehicleID int64, orderID uuid.UUID, quantity int) error
	Release(ctx context.Context, vehicleID int64, quantity int) error
	Sell(ctx context.Context, vehicleID int64, orderID uuid.UUID, quantity int) error
}

// PricingCollaborator computes the final price for one order.
type PricingCollaborator interface {
	CalculatePrice(ctx context.Context, req PriceRequest) (*PriceQuote, error)
}

// LocalInventory adapts the in-process inventory service to the
// collaborator contract used when everything runs in one binary.
type LocalInventory struct {
	svc inventory.Service
}

func NewLocalInventory(svc inventory.Service) (*LocalInventory, error) {
	if svc == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	return &LocalInventory{svc: svc}, nil
}

func (l *LocalInventory) CheckAvailability(ctx context.Context, vehicleID int64) (*Availability, error) {
	got, err := l.svc.CheckAvailability(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	return &Availability{Available: got.Available, VIN: got.VIN}, nil
}

func (l *LocalInventory) Reserve(ctx context.Context, vehicleID int64, _ uuid.UUID, quantity int) error {
	_, err := l.svc.Reserve(ctx, vehicleID, quantity)
	return err
}

func (l *LocalInventory) Release(ctx context.Context, vehicleID int64, quantity int) error {
	_, err := l.svc.Release(ctx, vehicleID, quantity)
	return err
}

func (l *LocalInventory) Sell(ctx context.Context, vehicleID int64, _ uuid.UUID, quantity int) error {
	_, err := l.svc.Sell(ctx, vehicleID, quantity)
	return err
}

// BasePriceSource resolves a vehicle's list price before discounts.
type BasePriceSource interface {
	BasePrice(ctx context.Context, vehicleID int64) (decimal.Decimal, error)
}

// InventoryBasePrice reads the list price off the inventory row.
type InventoryBasePrice struct {
	svc inventory.Service
}

func NewInventoryBasePrice(svc inventory.Service) (*InventoryBasePrice, error) {
	if svc == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	return &InventoryBasePrice{svc: svc}, nil
}

func (p *InventoryBasePrice) BasePrice(ctx context.Context, vehicleID int64) (decimal.Decimal, error) {
	item, err := p.svc.Get(ctx, vehicleID)
	if err != nil {
		return decimal.Zero, err
	}
	if item.SellingPrice == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("no selling price recorded for vehicle %d", vehicleID))
	}
	return *item.SellingPrice, nil
}

// LocalPricing adapts the in-process pricing service.
type LocalPricing struct {
	svc    pricing.Service
	prices BasePriceSource
}

func NewLocalPricing(svc pricing.Service, prices BasePriceSource) (*LocalPricing, error) {
	if svc == nil {
		return nil, fmt.Errorf("pricing service required")
	}
	if prices == nil {
		return nil, fmt.Errorf("base price source required")
	}
	return &LocalPricing{svc: svc, prices: prices}, nil
}

func (l *LocalPricing) CalculatePrice(ctx context.Context, req PriceRequest) (*PriceQuote, error) {
	basePrice, err := l.prices.BasePrice(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	quote, err := l.svc.Calculate(ctx, pricing.CalculateInput{
		VehicleID:     req.VehicleID,
		BasePrice:     basePrice,
		CustomerID:    req.CustomerID,
		PaymentMethod: req.PaymentMethod,
		TradeInValue:  req.TradeInValue,
		DiscountCode:  req.DiscountCode,
		OrderID:       req.OrderID,
	})
	if err != nil {
		return nil, err
	}
	return &PriceQuote{
		BasePrice:  quote.BasePrice,
		FinalPrice: quote.FinalPrice,
		Currency:   quote.Currency,
		Trail:      quote.Trail,
	}, nil
}
