package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/motorline/dealership-backend/pkg/db/models"
	"github.com/motorline/dealership-backend/pkg/types"
)

type orderView struct {
	ID               string              `json:"id"`
	CustomerID       int64               `json:"customer_id"`
	VehicleID        int64               `json:"vehicle_id"`
	VIN              string              `json:"vin,omitempty"`
	BasePrice        decimal.Decimal     `json:"base_price"`
	FinalPrice       decimal.Decimal     `json:"final_price"`
	Currency         string              `json:"currency"`
	Status           string              `json:"status"`
	PaymentStatus    string              `json:"payment_status"`
	PaymentMethod    string              `json:"payment_method"`
	DiscountCode     *string             `json:"discount_code,omitempty"`
	AppliedDiscounts types.DiscountTrail `json:"applied_discounts"`
	Notes            *string             `json:"notes,omitempty"`
	CustomerNotes    *string             `json:"customer_notes,omitempty"`
	DeliveryAddress  *string             `json:"delivery_address,omitempty"`
	ConfirmedAt      *time.Time          `json:"confirmed_at,omitempty"`
	CancelledAt      *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func toOrderView(order *models.Order) orderView {
	return orderView{
		ID:               order.ID.String(),
		CustomerID:       order.CustomerID,
		VehicleID:        order.VehicleID,
		VIN:              order.VIN,
		BasePrice:        order.BasePrice,
		FinalPrice:       order.FinalPrice,
		Currency:         order.Currency,
		Status:           order.Status.String(),
		PaymentStatus:    order.PaymentStatus.String(),
		PaymentMethod:    order.PaymentMethod.String(),
		DiscountCode:     order.DiscountCode,
		AppliedDiscounts: order.AppliedDiscounts,
		Notes:            order.Notes,
		CustomerNotes:    order.CustomerNotes,
		DeliveryAddress:  order.DeliveryAddress,
		ConfirmedAt:      order.ConfirmedAt,
		CancelledAt:      order.CancelledAt,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
}

func toOrderViews(list []models.Order) []orderView {
	out := make([]orderView, 0, len(list))
	for i := range list {
		out = append(out, toOrderView(&list[i]))
	}
	return out
}

type historyView struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"order_id"`
	Status        string    `json:"status"`
	PaymentStatus *string   `json:"payment_status,omitempty"`
	ChangedBy     string    `json:"changed_by"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toHistoryViews(list []models.OrderHistory) []historyView {
	out := make([]historyView, 0, len(list))
	for _, entry := range list {
		view := historyView{
			ID:        entry.ID.String(),
			OrderID:   entry.OrderID.String(),
			Status:    entry.Status.String(),
			ChangedBy: entry.ChangedBy,
			Notes:     entry.Notes,
			CreatedAt: entry.CreatedAt,
		}
		if entry.PaymentStatus != nil {
			status := entry.PaymentStatus.String()
			view.PaymentStatus = &status
		}
		out = append(out, view)
	}
	return out
}
