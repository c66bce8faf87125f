package pricing

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/motorline/dealership-backend/api/responses"
	"github.com/motorline/dealership-backend/api/validators"
	internalpricing "github.com/motorline/dealership-backend/internal/pricing"
	"github.com/motorline/dealership-backend/internal/saga"
	"github.com/motorline/dealership-backend/pkg/db/models"
	"github.com/motorline/dealership-backend/pkg/enums"
	pkgerrors "github.com/motorline/dealership-backend/pkg/errors"
	"github.com/motorline/dealership-backend/pkg/logger"
	"github.com/motorline/dealership-backend/pkg/types"
)

type calculateRequest struct {
	VehicleID     int64            `json:"vehicle_id" validate:"required,gt=0"`
	BasePrice     *decimal.Decimal `json:"base_price,omitempty"`
	CustomerID    *int64           `json:"customer_id,omitempty"`
	PaymentMethod string           `json:"payment_method" validate:"required,oneof=cash credit_card financing lease"`
	TradeInValue  *decimal.Decimal `json:"trade_in_value,omitempty"`
	DiscountCode  *string          `json:"discount_code,omitempty"`
	OrderID       *string          `json:"order_id,omitempty"`
}

type calculateView struct {
	BasePrice        decimal.Decimal     `json:"base_price"`
	FinalPrice       decimal.Decimal     `json:"final_price"`
	Currency         string              `json:"currency"`
	AppliedDiscounts types.DiscountTrail `json:"applied_discounts"`
}

// Calculate quotes a final price. When the caller does not supply a base
// price it is looked up from the vehicle's inventory row.
func Calculate(svc internalpricing.Service, prices saga.BasePriceSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req calculateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		input := internalpricing.CalculateInput{
			VehicleID:     req.VehicleID,
			CustomerID:    req.CustomerID,
			PaymentMethod: method,
			TradeInValue:  req.TradeInValue,
			DiscountCode:  req.DiscountCode,
		}
		if req.BasePrice != nil {
			input.BasePrice = *req.BasePrice
		} else {
			base, err := prices.BasePrice(r.Context(), req.VehicleID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.BasePrice = base
		}
		if req.OrderID != nil {
			id, err := uuid.Parse(*req.OrderID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
				return
			}
			input.OrderID = &id
		}

		quote, err := svc.Calculate(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, calculateView{
			BasePrice:        quote.BasePrice,
			FinalPrice:       quote.FinalPrice,
			Currency:         quote.Currency,
			AppliedDiscounts: quote.Trail,
		})
	}
}

type validateDiscountRequest struct {
	Code       string `json:"code" validate:"required"`
	CustomerID *int64 `json:"customer_id,omitempty"`
	VehicleID  *int64 `json:"vehicle_id,omitempty"`
}

type validateDiscountView struct {
	IsValid bool   `json:"is_valid"`
	Message string `json:"message"`
}

// ValidateDiscount answers whether a code could be applied right now.
func ValidateDiscount(svc internalpricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validateDiscountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ValidateDiscount(r.Context(), req.Code, req.CustomerID, req.VehicleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, validateDiscountView{IsValid: result.IsValid, Message: result.Message})
	}
}

type createDiscountRequest struct {
	Code                 string           `json:"code" validate:"required,max=50"`
	Name                 string           `json:"name" validate:"required,max=100"`
	Description          *string          `json:"description,omitempty"`
	DiscountType         string           `json:"discount_type" validate:"required,oneof=percentage fixed_amount"`
	Value                decimal.Decimal  `json:"value" validate:"required"`
	MinPurchaseAmount    *decimal.Decimal `json:"min_purchase_amount,omitempty"`
	MaxDiscountAmount    *decimal.Decimal `json:"max_discount_amount,omitempty"`
	ValidFrom            time.Time        `json:"valid_from" validate:"required"`
	ValidTo              time.Time        `json:"valid_to" validate:"required"`
	IsActive             *bool            `json:"is_active,omitempty"`
	UsageLimit           *int             `json:"usage_limit,omitempty"`
	AppliesToAllVehicles *bool            `json:"applies_to_all_vehicles,omitempty"`
	VehicleIDs           []int64          `json:"vehicle_ids,omitempty"`
	CustomerGroup        *string          `json:"customer_group,omitempty"`
}

type discountView struct {
	ID                   uuid.UUID        `json:"id"`
	Code                 string           `json:"code"`
	Name                 string           `json:"name"`
	Description          *string          `json:"description,omitempty"`
	DiscountType         string           `json:"discount_type"`
	Value                decimal.Decimal  `json:"value"`
	MinPurchaseAmount    decimal.Decimal  `json:"min_purchase_amount"`
	MaxDiscountAmount    *decimal.Decimal `json:"max_discount_amount,omitempty"`
	ValidFrom            time.Time        `json:"valid_from"`
	ValidTo              time.Time        `json:"valid_to"`
	IsActive             bool             `json:"is_active"`
	UsageLimit           *int             `json:"usage_limit,omitempty"`
	UsedCount            int              `json:"used_count"`
	AppliesToAllVehicles bool             `json:"applies_to_all_vehicles"`
	VehicleIDs           []int64          `json:"vehicle_ids,omitempty"`
	CustomerGroup        string           `json:"customer_group"`
}

func toDiscountView(d *models.Discount) discountView {
	return discountView{
		ID:                   d.ID,
		Code:                 d.Code,
		Name:                 d.Name,
		Description:          d.Description,
		DiscountType:         d.DiscountType.String(),
		Value:                d.Value,
		MinPurchaseAmount:    d.MinPurchaseAmount,
		MaxDiscountAmount:    d.MaxDiscountAmount,
		ValidFrom:            d.ValidFrom,
		ValidTo:              d.ValidTo,
		IsActive:             d.IsActive,
		UsageLimit:           d.UsageLimit,
		UsedCount:            d.UsedCount,
		AppliesToAllVehicles: d.AppliesToAllVehicles,
		VehicleIDs:           d.VehicleIDs,
		CustomerGroup:        d.CustomerGroup,
	}
}

// CreateDiscount registers a new promotional rule.
func CreateDiscount(svc internalpricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createDiscountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		discountType, err := enums.ParseDiscountType(req.DiscountType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type"))
			return
		}

		discount := &models.Discount{
			Code:                 req.Code,
			Name:                 req.Name,
			Description:          req.Description,
			DiscountType:         discountType,
			Value:                req.Value,
			ValidFrom:            req.ValidFrom,
			ValidTo:              req.ValidTo,
			IsActive:             true,
			MaxDiscountAmount:    req.MaxDiscountAmount,
			UsageLimit:           req.UsageLimit,
			AppliesToAllVehicles: true,
			VehicleIDs:           req.VehicleIDs,
			CustomerGroup:        "all",
		}
		if req.MinPurchaseAmount != nil {
			discount.MinPurchaseAmount = *req.MinPurchaseAmount
		}
		if req.IsActive != nil {
			discount.IsActive = *req.IsActive
		}
		if req.AppliesToAllVehicles != nil {
			discount.AppliesToAllVehicles = *req.AppliesToAllVehicles
		}
		if req.CustomerGroup != nil {
			discount.CustomerGroup = *req.CustomerGroup
		}

		if err := svc.CreateDiscount(r.Context(), discount); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toDiscountView(discount))
	}
}

// GetDiscount looks one discount up by code.
func GetDiscount(svc internalpricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		discount, err := svc.GetDiscount(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toDiscountView(discount))
	}
}

type updateDiscountRequest struct {
	Name              *string          `json:"name,omitempty"`
	Description       *string          `json:"description,omitempty"`
	Value             *decimal.Decimal `json:"value,omitempty"`
	MinPurchaseAmount *decimal.Decimal `json:"min_purchase_amount,omitempty"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	ValidFrom         *time.Time       `json:"valid_from,omitempty"`
	ValidTo           *time.Time       `json:"valid_to,omitempty"`
	IsActive          *bool            `json:"is_active,omitempty"`
	UsageLimit        *int             `json:"usage_limit,omitempty"`
}

// UpdateDiscount patches a discount rule. The code itself and the usage
// counter are not editable here.
func UpdateDiscount(svc internalpricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		var req updateDiscountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updates := map[string]any{}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.Value != nil {
			updates["value"] = *req.Value
		}
		if req.MinPurchaseAmount != nil {
			updates["min_purchase_amount"] = *req.MinPurchaseAmount
		}
		if req.MaxDiscountAmount != nil {
			updates["max_discount_amount"] = *req.MaxDiscountAmount
		}
		if req.ValidFrom != nil {
			updates["valid_from"] = *req.ValidFrom
		}
		if req.ValidTo != nil {
			updates["valid_to"] = *req.ValidTo
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		if req.UsageLimit != nil {
			updates["usage_limit"] = *req.UsageLimit
		}

		discount, err := svc.UpdateDiscount(r.Context(), code, updates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toDiscountView(discount))
	}
}

// ListDiscounts pages through discounts, optionally active ones only.
func ListDiscounts(svc internalpricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
		activeOnly := r.URL.Query().Get("active_only") == "true"

		discounts, err := svc.ListDiscounts(r.Context(), activeOnly, offset, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]discountView, 0, len(discounts))
		for i := range discounts {
			views = append(views, toDiscountView(&discounts[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

type priceHistoryView struct {
	ID               uuid.UUID           `json:"id"`
	VehicleID        int64               `json:"vehicle_id"`
	BasePrice        decimal.Decimal     `json:"base_price"`
	FinalPrice       decimal.Decimal     `json:"final_price"`
	CustomerID       *int64              `json:"customer_id,omitempty"`
	DiscountCode     *string             `json:"discount_code,omitempty"`
	AppliedDiscounts types.DiscountTrail `json:"applied_discounts"`
	OrderID          *uuid.UUID          `json:"order_id,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

// PriceHistory returns past calculations for one vehicle, newest first.
func PriceHistory(svc internalpricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicleID, err := validators.PathInt64(r, "vehicleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
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

		rows, err := svc.GetPriceHistory(r.Context(), vehicleID, offset, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]priceHistoryView, 0, len(rows))
		for _, row := range rows {
			views = append(views, priceHistoryView{
				ID:               row.ID,
				VehicleID:        row.VehicleID,
				BasePrice:        row.BasePrice,
				FinalPrice:       row.FinalPrice,
				CustomerID:       row.CustomerID,
				DiscountCode:     row.DiscountCode,
				AppliedDiscounts: row.AppliedDiscounts,
				OrderID:          row.OrderID,
				CreatedAt:        row.CreatedAt,
			})
		}
		responses.WriteSuccess(w, views)
	}
}
