package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/motorline/dealership-backend/pkg/db/models"
	"github.com/motorline/dealership-backend/pkg/enums"
	pkgerrors "github.com/motorline/dealership-backend/pkg/errors"
	"github.com/motorline/dealership-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CalculateInput identifies one price calculation request.
type CalculateInput struct {
	VehicleID     int64
	BasePrice     decimal.Decimal
	CustomerID    *int64
	PaymentMethod enums.PaymentMethod
	TradeInValue  *decimal.Decimal
	DiscountCode  *string
	OrderID       *uuid.UUID
}

// ValidationResult reports whether a discount code can currently be used.
type ValidationResult struct {
	IsValid bool
	Message string
}

type Service interface {
	Calculate(ctx context.Context, input CalculateInput) (*Quote, error)
	ValidateDiscount(ctx context.Context, code string, customerID, vehicleID *int64) (*ValidationResult, error)
	CreateDiscount(ctx context.Context, discount *models.Discount) error
	GetDiscount(ctx context.Context, code string) (*models.Discount, error)
	UpdateDiscount(ctx context.Context, code string, updates map[string]any) (*models.Discount, error)
	ListDiscounts(ctx context.Context, activeOnly bool, offset, limit int) ([]models.Discount, error)
	GetPriceHistory(ctx context.Context, vehicleID int64, offset, limit int) ([]models.PriceHistory, error)
}

type service struct {
	repo Repository
	tx   txRunner
	calc *Calculator
	logg *logger.Logger
}

func NewService(repo Repository, tx txRunner, calc *Calculator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if calc == nil {
		return nil, fmt.Errorf("calculator required")
	}
	return &service{repo: repo, tx: tx, calc: calc, logg: logg}, nil
}

// Calculate runs the discount pipeline, bumps the discount usage counter
// when a code fired and records one price-history row, all in one
// transaction. A code that is unknown or fails validation is skipped
// rather than failing the calculation.
func (s *service) Calculate(ctx context.Context, input CalculateInput) (*Quote, error) {
	if input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown payment method %q", input.PaymentMethod))
	}
	if input.TradeInValue != nil && input.TradeInValue.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trade-in value cannot be negative")
	}

	var quote Quote
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		discount, err := s.usableDiscount(ctx, repo, input)
		if err != nil {
			return err
		}

		quote = s.calc.Quote(ctx, QuoteInput{
			BasePrice:     input.BasePrice,
			CustomerID:    input.CustomerID,
			PaymentMethod: input.PaymentMethod,
			TradeInValue:  input.TradeInValue,
			Discount:      discount,
		})

		if quote.DiscountApplied {
			bumped, err := repo.IncrementDiscountUsage(ctx, discount.Code)
			if err != nil {
				return err
			}
			if !bumped {
				return pkgerrors.New(pkgerrors.CodeInvalidDiscount, "discount usage limit reached").
					WithDetails(map[string]any{"code": discount.Code})
			}
		}

		return repo.SavePriceHistory(ctx, &models.PriceHistory{
			VehicleID:        input.VehicleID,
			BasePrice:        quote.BasePrice,
			FinalPrice:       quote.FinalPrice,
			CustomerID:       input.CustomerID,
			DiscountCode:     input.DiscountCode,
			AppliedDiscounts: quote.Trail,
			OrderID:          input.OrderID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// usableDiscount resolves the requested code against the validity
// predicate. Missing or invalid codes are logged and dropped.
func (s *service) usableDiscount(ctx context.Context, repo Repository, input CalculateInput) (*models.Discount, error) {
	if input.DiscountCode == nil || *input.DiscountCode == "" {
		return nil, nil
	}
	discount, err := repo.FindDiscountByCode(ctx, *input.DiscountCode)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("discount code %q not found, skipping", *input.DiscountCode))
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	usable, reason := discountUsable(discount, &input.VehicleID, input.BasePrice, time.Now().UTC())
	if !usable {
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("discount code %q skipped: %s", discount.Code, reason))
		}
		return nil, nil
	}
	return discount, nil
}

func (s *service) ValidateDiscount(ctx context.Context, code string, customerID, vehicleID *int64) (*ValidationResult, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}
	discount, err := s.repo.FindDiscountByCode(ctx, code)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return &ValidationResult{IsValid: false, Message: "Discount code not found"}, nil
	}
	if err != nil {
		return nil, err
	}
	usable, reason := discountUsable(discount, vehicleID, decimal.Zero, time.Now().UTC())
	if !usable {
		return &ValidationResult{IsValid: false, Message: reason}, nil
	}
	return &ValidationResult{IsValid: true, Message: "Discount is valid"}, nil
}

func (s *service) CreateDiscount(ctx context.Context, discount *models.Discount) error {
	if discount.Code == "" || discount.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount code and name are required")
	}
	if !discount.DiscountType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown discount type %q", discount.DiscountType))
	}
	if !discount.ValidTo.After(discount.ValidFrom) {
		return pkgerrors.New(pkgerrors.CodeValidation, "validity window must end after it starts")
	}
	return s.repo.CreateDiscount(ctx, discount)
}

func (s *service) GetDiscount(ctx context.Context, code string) (*models.Discount, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}
	return s.repo.FindDiscountByCode(ctx, code)
}

func (s *service) UpdateDiscount(ctx context.Context, code string, updates map[string]any) (*models.Discount, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}
	if len(updates) == 0 {
		return s.repo.FindDiscountByCode(ctx, code)
	}
	if err := s.repo.UpdateDiscount(ctx, code, updates); err != nil {
		return nil, err
	}
	return s.repo.FindDiscountByCode(ctx, code)
}

func (s *service) ListDiscounts(ctx context.Context, activeOnly bool, offset, limit int) ([]models.Discount, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListDiscounts(ctx, activeOnly, offset, limit)
}

func (s *service) GetPriceHistory(ctx context.Context, vehicleID int64, offset, limit int) ([]models.PriceHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListPriceHistory(ctx, vehicleID, offset, limit)
}
