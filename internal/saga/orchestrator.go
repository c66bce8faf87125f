package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/motorline/dealership-backend/internal/orders"
	"github.com/motorline/dealership-backend/pkg/config"
	"github.com/motorline/dealership-backend/pkg/db/models"
	"github.com/motorline/dealership-backend/pkg/enums"
	pkgerrors "github.com/motorline/dealership-backend/pkg/errors"
	"github.com/motorline/dealership-backend/pkg/events"
	"github.com/motorline/dealership-backend/pkg/logger"
	"github.com/motorline/dealership-backend/pkg/metrics"
	"github.com/motorline/dealership-backend/pkg/redis"
)

const (
	opCreate   = "create_order"
	opConfirm  = "confirm_order"
	opCancel   = "cancel_order"
	opComplete = "complete_order"
)

// CreateOrderRequest opens a new order for one vehicle unit.
type CreateOrderRequest struct {
	CustomerID      int64
	VehicleID       int64
	PaymentMethod   enums.PaymentMethod
	DiscountCode    *string
	TradeInValue    *decimal.Decimal
	CustomerNotes   *string
	DeliveryAddress *string
}

// Orchestrator sequences order, pricing and inventory steps with explicit
// compensation. Confirm and complete are strict: no order mutation without
// the inventory step succeeding first. Cancel is lenient: a failed release
// is logged and reconciled out-of-band, the cancellation itself always
// proceeds.
type Orchestrator struct {
	orders    orders.Service
	inventory InventoryCollaborator
	pricing   PricingCollaborator
	publisher events.Publisher
	locks     redis.OrderLocker
	metrics   *metrics.SagaMetrics
	cfg       config.SagaConfig
	logg      *logger.Logger
}

func NewOrchestrator(
	orderSvc orders.Service,
	inventorySvc InventoryCollaborator,
	pricingSvc PricingCollaborator,
	publisher events.Publisher,
	locks redis.OrderLocker,
	sagaMetrics *metrics.SagaMetrics,
	cfg config.SagaConfig,
	logg *logger.Logger,
) (*Orchestrator, error) {
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	if inventorySvc == nil {
		return nil, fmt.Errorf("inventory collaborator required")
	}
	if pricingSvc == nil {
		return nil, fmt.Errorf("pricing collaborator required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	if locks == nil {
		return nil, fmt.Errorf("order locker required")
	}
	return &Orchestrator{
		orders:    orderSvc,
		inventory: inventorySvc,
		pricing:   pricingSvc,
		publisher: publisher,
		locks:     locks,
		metrics:   sagaMetrics,
		cfg:       cfg,
		logg:      logg,
	}, nil
}

// CreateOrder checks availability, prices the vehicle, then creates the
// order in draft and fills in price and VIN. Inventory is not touched:
// reservation is deferred to confirmation so an abandoned draft never
// locks stock.
func (o *Orchestrator) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	start := time.Now()
	order, err := o.createOrder(ctx, req)
	o.observe(opCreate, start, err)
	return order, err
}

func (o *Orchestrator) createOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	availability, err := o.checkAvailability(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if !availability.Available {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("vehicle %d is not available", req.VehicleID)).
			WithDetails(map[string]any{"vehicle_id": req.VehicleID})
	}

	quote, err := o.calculatePrice(ctx, PriceRequest{
		VehicleID:     req.VehicleID,
		CustomerID:    &req.CustomerID,
		PaymentMethod: req.PaymentMethod,
		TradeInValue:  req.TradeInValue,
		DiscountCode:  req.DiscountCode,
	})
	if err != nil {
		return nil, err
	}

	order, err := o.orders.Create(ctx, orders.CreateOrderInput{
		CustomerID:      req.CustomerID,
		VehicleID:       req.VehicleID,
		PaymentMethod:   req.PaymentMethod,
		DiscountCode:    req.DiscountCode,
		Currency:        quote.Currency,
		CustomerNotes:   req.CustomerNotes,
		DeliveryAddress: req.DeliveryAddress,
	})
	if err != nil {
		return nil, err
	}

	// Once price and VIN are known the draft becomes a pending order.
	vin := availability.VIN
	pending := enums.OrderStatusPending
	order, err = o.orders.Update(ctx, order.ID, orders.UpdateOrderInput{
		VIN:              &vin,
		BasePrice:        &quote.BasePrice,
		FinalPrice:       &quote.FinalPrice,
		AppliedDiscounts: &quote.Trail,
		Status:           &pending,
	})
	if err != nil {
		return nil, err
	}

	o.publish(ctx, enums.EventOrderCreated, order)
	return order, nil
}

// ConfirmOrder reserves the unit first and only then moves the order to
// confirmed. A failed reservation leaves the order untouched.
func (o *Orchestrator) ConfirmOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	start := time.Now()
	order, err := o.confirmOrder(ctx, orderID)
	o.observe(opConfirm, start, err)
	return order, err
}

func (o *Orchestrator) confirmOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	release, err := o.locks.Acquire(ctx, orderID.String(), o.cfg.OrderLockTTL)
	if err != nil {
		return nil, err
	}
	defer release(ctx)

	order, err := o.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusDraft && order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s cannot be confirmed", order.Status))
	}

	if err := o.reserve(ctx, order.VehicleID, order.ID); err != nil {
		return nil, err
	}

	confirmed, err := o.orders.UpdateStatus(ctx, orderID, enums.OrderStatusConfirmed)
	if err != nil {
		// The unit is held but the order did not move. Give the
		// reservation back so stock is not stranded.
		o.releaseLenient(ctx, order.VehicleID, opConfirm)
		return nil, err
	}

	o.publish(ctx, enums.EventOrderConfirmed, confirmed)
	return confirmed, nil
}

// CancelOrder releases any reservation and cancels the order. The release
// is best-effort: once a customer asks to cancel, the cancellation must
// not be blocked by inventory trouble.
func (o *Orchestrator) CancelOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	start := time.Now()
	order, err := o.cancelOrder(ctx, orderID)
	o.observe(opCancel, start, err)
	return order, err
}

func (o *Orchestrator) cancelOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	release, err := o.locks.Acquire(ctx, orderID.String(), o.cfg.OrderLockTTL)
	if err != nil {
		return nil, err
	}
	defer release(ctx)

	order, err := o.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s cannot be cancelled", order.Status))
	}

	o.releaseLenient(ctx, order.VehicleID, opCancel)

	cancelled, err := o.orders.UpdateStatus(ctx, orderID, enums.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}

	o.publish(ctx, enums.EventOrderCancelled, cancelled)
	return cancelled, nil
}

// CompleteOrder consumes the unit from inventory and marks the order
// delivered. A failed sell aborts the completion with the order left in
// its prior status.
func (o *Orchestrator) CompleteOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	start := time.Now()
	order, err := o.completeOrder(ctx, orderID)
	o.observe(opComplete, start, err)
	return order, err
}

func (o *Orchestrator) completeOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	release, err := o.locks.Acquire(ctx, orderID.String(), o.cfg.OrderLockTTL)
	if err != nil {
		return nil, err
	}
	defer release(ctx)

	order, err := o.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case enums.OrderStatusConfirmed, enums.OrderStatusProcessing, enums.OrderStatusShipped:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s cannot be completed", order.Status))
	}

	if err := o.sell(ctx, order.VehicleID, order.ID); err != nil {
		return nil, err
	}

	delivered, err := o.orders.UpdateStatus(ctx, orderID, enums.OrderStatusDelivered)
	if err != nil {
		return nil, err
	}

	o.publish(ctx, enums.EventOrderCompleted, delivered)
	return delivered, nil
}

func (o *Orchestrator) checkAvailability(ctx context.Context, vehicleID int64) (*Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.AvailabilityTimeout)
	defer cancel()
	availability, err := o.inventory.CheckAvailability(ctx, vehicleID)
	if err != nil {
		return nil, asStepError(err, "availability check")
	}
	return availability, nil
}

func (o *Orchestrator) calculatePrice(ctx context.Context, req PriceRequest) (*PriceQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.PricingTimeout)
	defer cancel()
	quote, err := o.pricing.CalculatePrice(ctx, req)
	if err != nil {
		return nil, asStepError(err, "price calculation")
	}
	return quote, nil
}

func (o *Orchestrator) reserve(ctx context.Context, vehicleID int64, orderID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.ReserveTimeout)
	defer cancel()
	if err := o.inventory.Reserve(ctx, vehicleID, orderID, 1); err != nil {
		return asStepError(err, "inventory reservation")
	}
	return nil
}

func (o *Orchestrator) sell(ctx context.Context, vehicleID int64, orderID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.SellTimeout)
	defer cancel()
	if err := o.inventory.Sell(ctx, vehicleID, orderID, 1); err != nil {
		return asStepError(err, "inventory sale")
	}
	return nil
}

// releaseLenient tries to give a reservation back and only logs when it
// cannot. Used on the cancel path and when compensating a half-done
// confirmation.
func (o *Orchestrator) releaseLenient(ctx context.Context, vehicleID int64, operation string) {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.ReleaseTimeout)
	defer cancel()
	if err := o.inventory.Release(callCtx, vehicleID, 1); err != nil {
		if o.logg != nil {
			o.logg.Warn(o.logg.WithVehicleID(ctx, fmt.Sprint(vehicleID)),
				fmt.Sprintf("%s: inventory release failed, needs reconciliation: %v", operation, err))
		}
	}
}

// publish emits the domain event after the local state change committed.
// Failures are logged, never propagated.
func (o *Orchestrator) publish(ctx context.Context, eventType enums.OrderEventType, order *models.Order) {
	err := o.publisher.Publish(ctx, events.OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		VehicleID:  order.VehicleID,
		Amount:     order.FinalPrice,
	})
	if err != nil && o.logg != nil {
		o.logg.Warn(o.logg.WithOrderID(ctx, order.ID.String()),
			fmt.Sprintf("failed to publish %s event: %v", eventType, err))
	}
}

func (o *Orchestrator) observe(operation string, start time.Time, err error) {
	if o.metrics == nil {
		return
	}
	o.metrics.ObserveDuration(operation, time.Since(start))
	if err != nil {
		o.metrics.IncFailure(operation, string(pkgerrors.CodeOf(err)))
		return
	}
	o.metrics.IncSuccess(operation)
}

// asStepError keeps business failures intact and folds everything else,
// timeouts included, into a dependency error.
func asStepError(err error, step string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, step+" failed")
}
