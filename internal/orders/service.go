package orders

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
	"github.com/motorline/dealership-backend/pkg/types"
)

const systemActor = "system"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateOrderInput carries the fields a caller supplies when opening an order.
// Price and VIN are filled in later once availability and pricing are known.
type CreateOrderInput struct {
	CustomerID      int64
	VehicleID       int64
	PaymentMethod   enums.PaymentMethod
	DiscountCode    *string
	Currency        string
	CustomerNotes   *string
	DeliveryAddress *string
}

// UpdateOrderInput is a partial update; nil fields are left untouched.
type UpdateOrderInput struct {
	VIN               *string
	BasePrice         *decimal.Decimal
	FinalPrice        *decimal.Decimal
	DiscountCode      *string
	AppliedDiscounts  *types.DiscountTrail
	Status            *enums.OrderStatus
	PaymentStatus     *enums.PaymentStatus
	Notes             *string
	CustomerNotes     *string
	DeliveryAddress   *string
	EstimatedDelivery *time.Time
}

type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID int64, offset, limit int) ([]models.Order, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (*models.Order, error)
	GetHistory(ctx context.Context, id uuid.UUID) ([]models.OrderHistory, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.CustomerID <= 0 || input.VehicleID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id and vehicle id are required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown payment method %q", input.PaymentMethod))
	}
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	order := &models.Order{
		CustomerID:      input.CustomerID,
		VehicleID:       input.VehicleID,
		Currency:        currency,
		Status:          enums.OrderStatusDraft,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   input.PaymentMethod,
		DiscountCode:    input.DiscountCode,
		CustomerNotes:   input.CustomerNotes,
		DeliveryAddress: input.DeliveryAddress,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return err
		}
		note := "Order created"
		return repo.AddHistory(ctx, &models.OrderHistory{
			OrderID:       order.ID,
			Status:        order.Status,
			PaymentStatus: &order.PaymentStatus,
			ChangedBy:     systemActor,
			Notes:         &note,
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListByCustomer(ctx context.Context, customerID int64, offset, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByCustomer(ctx, customerID, offset, limit)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateOrderInput) (*models.Order, error) {
	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if input.Status != nil && *input.Status != order.Status {
			if err := s.applyStatusChange(ctx, repo, order, *input.Status); err != nil {
				return err
			}
		}
		if input.PaymentStatus != nil && *input.PaymentStatus != order.PaymentStatus {
			if err := s.applyPaymentChange(ctx, repo, order, *input.PaymentStatus); err != nil {
				return err
			}
		}

		if input.VIN != nil {
			order.VIN = *input.VIN
		}
		if input.BasePrice != nil {
			order.BasePrice = *input.BasePrice
		}
		if input.FinalPrice != nil {
			order.FinalPrice = *input.FinalPrice
		}
		if input.DiscountCode != nil {
			order.DiscountCode = input.DiscountCode
		}
		if input.AppliedDiscounts != nil {
			order.AppliedDiscounts = *input.AppliedDiscounts
		}
		if input.Notes != nil {
			order.Notes = input.Notes
		}
		if input.CustomerNotes != nil {
			order.CustomerNotes = input.CustomerNotes
		}
		if input.DeliveryAddress != nil {
			order.DeliveryAddress = input.DeliveryAddress
		}
		if input.EstimatedDelivery != nil {
			order.EstimatedDelivery = input.EstimatedDelivery
		}

		if err := repo.Save(ctx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	return s.Update(ctx, id, UpdateOrderInput{Status: &status})
}

func (s *service) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (*models.Order, error) {
	return s.Update(ctx, id, UpdateOrderInput{PaymentStatus: &status})
}

func (s *service) GetHistory(ctx context.Context, id uuid.UUID) ([]models.OrderHistory, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, id)
}

// applyStatusChange validates the lifecycle transition, records the audit row
// and stamps confirmation/cancellation timestamps. The caller saves the order.
func (s *service) applyStatusChange(ctx context.Context, repo Repository, order *models.Order, next enums.OrderStatus) error {
	if !next.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", next))
	}
	if !canTransition(order.Status, next) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, next))
	}

	note := fmt.Sprintf("Status changed from %s to %s", order.Status, next)
	if err := repo.AddHistory(ctx, &models.OrderHistory{
		OrderID:   order.ID,
		Status:    next,
		ChangedBy: systemActor,
		Notes:     &note,
	}); err != nil {
		return err
	}

	now := time.Now().UTC()
	switch next {
	case enums.OrderStatusConfirmed:
		order.ConfirmedAt = &now
	case enums.OrderStatusCancelled:
		order.CancelledAt = &now
	case enums.OrderStatusDelivered:
		if order.ActualDelivery == nil {
			order.ActualDelivery = &now
		}
	}
	order.Status = next
	return nil
}

func (s *service) applyPaymentChange(ctx context.Context, repo Repository, order *models.Order, next enums.PaymentStatus) error {
	if !next.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment status %q", next))
	}
	if !canTransitionPayment(order.PaymentStatus, next) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition payment from %s to %s", order.PaymentStatus, next))
	}

	note := fmt.Sprintf("Payment status changed from %s to %s", order.PaymentStatus, next)
	if err := repo.AddHistory(ctx, &models.OrderHistory{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: &next,
		ChangedBy:     systemActor,
		Notes:         &note,
	}); err != nil {
		return err
	}
	order.PaymentStatus = next
	return nil
}
