package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/motorline/dealership-backend/pkg/enums"
	"github.com/motorline/dealership-backend/pkg/types"
)

// Order represents one purchase intent for one vehicle unit by one customer.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID        int64               `gorm:"column:customer_id;not null;index"`
	VehicleID         int64               `gorm:"column:vehicle_id;not null;index"`
	VIN               string              `gorm:"column:vin;size:17"`
	BasePrice         decimal.Decimal     `gorm:"column:base_price;type:numeric(12,2);not null"`
	FinalPrice        decimal.Decimal     `gorm:"column:final_price;type:numeric(12,2);not null"`
	Currency          string              `gorm:"column:currency;size:3;not null;default:'USD'"`
	Status            enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'draft'"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'cash'"`
	DiscountCode      *string             `gorm:"column:discount_code;size:50"`
	AppliedDiscounts  types.DiscountTrail `gorm:"column:applied_discounts;type:jsonb;serializer:json"`
	Notes             *string             `gorm:"column:notes"`
	CustomerNotes     *string             `gorm:"column:customer_notes"`
	DeliveryAddress   *string             `gorm:"column:delivery_address"`
	EstimatedDelivery *time.Time          `gorm:"column:estimated_delivery_date"`
	ActualDelivery    *time.Time          `gorm:"column:actual_delivery_date"`
	ConfirmedAt       *time.Time          `gorm:"column:confirmed_at"`
	CancelledAt       *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
