package orders

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/motorline/dealership-backend/api/responses"
	"github.com/motorline/dealership-backend/api/validators"
	internalorders "github.com/motorline/dealership-backend/internal/orders"
	"github.com/motorline/dealership-backend/internal/saga"
	"github.com/motorline/dealership-backend/pkg/db/models"
	"github.com/motorline/dealership-backend/pkg/enums"
	pkgerrors "github.com/motorline/dealership-backend/pkg/errors"
	"github.com/motorline/dealership-backend/pkg/logger"
)

type createOrderRequest struct {
	CustomerID      int64            `json:"customer_id" validate:"required,gt=0"`
	VehicleID       int64            `json:"vehicle_id" validate:"required,gt=0"`
	PaymentMethod   string           `json:"payment_method" validate:"required,oneof=cash credit_card financing lease"`
	DiscountCode    *string          `json:"discount_code,omitempty"`
	TradeInValue    *decimal.Decimal `json:"trade_in_value,omitempty"`
	CustomerNotes   *string          `json:"customer_notes,omitempty"`
	DeliveryAddress *string          `json:"delivery_address,omitempty"`
}

// Create runs the order creation saga: availability, price, draft, pending.
func Create(orchestrator *saga.Orchestrator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		order, err := orchestrator.CreateOrder(r.Context(), saga.CreateOrderRequest{
			CustomerID:      req.CustomerID,
			VehicleID:       req.VehicleID,
			PaymentMethod:   method,
			DiscountCode:    req.DiscountCode,
			TradeInValue:    req.TradeInValue,
			CustomerNotes:   req.CustomerNotes,
			DeliveryAddress: req.DeliveryAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toOrderView(order))
	}
}

// Confirm reserves the vehicle and moves the order to confirmed.
func Confirm(orchestrator *saga.Orchestrator, logg *logger.Logger) http.HandlerFunc {
	return sagaTransition(logg, orchestrator.ConfirmOrder)
}

// Cancel releases any reservation and cancels the order.
func Cancel(orchestrator *saga.Orchestrator, logg *logger.Logger) http.HandlerFunc {
	return sagaTransition(logg, orchestrator.CancelOrder)
}

// Complete sells the vehicle and marks the order delivered.
func Complete(orchestrator *saga.Orchestrator, logg *logger.Logger) http.HandlerFunc {
	return sagaTransition(logg, orchestrator.CompleteOrder)
}

func sagaTransition(logg *logger.Logger, step func(ctx context.Context, id uuid.UUID) (*models.Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := step(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderView(order))
	}
}

// Get returns one order by id.
func Get(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderView(order))
	}
}

// List returns a customer's orders, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := validators.ParseQueryInt(r, "customer_id", 0, 1, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if customerID == 0 {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "customer_id query parameter is required"))
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByCustomer(r.Context(), int64(customerID), offset, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderViews(list))
	}
}

// History returns the order's audit log, newest first.
func History(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		history, err := svc.GetHistory(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toHistoryViews(history))
	}
}

type updateOrderRequest struct {
	Notes           *string `json:"notes,omitempty"`
	CustomerNotes   *string `json:"customer_notes,omitempty"`
	DeliveryAddress *string `json:"delivery_address,omitempty"`
}

// Update applies customer-editable fields. Status changes go through the
// saga endpoints, not here.
func Update(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Update(r.Context(), id, internalorders.UpdateOrderInput{
			Notes:           req.Notes,
			CustomerNotes:   req.CustomerNotes,
			DeliveryAddress: req.DeliveryAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderView(order))
	}
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
}

// UpdatePaymentStatus moves the payment axis independently of the order
// lifecycle.
func UpdatePaymentStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req paymentStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParsePaymentStatus(req.PaymentStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment status %q", req.PaymentStatus)))
			return
		}
		order, err := svc.UpdatePaymentStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderView(order))
	}
}
