package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/motorline/dealership-backend/pkg/types"
)

// PriceHistory is the append-only record of one price calculation, including
// the full structured trail of adjustments that produced the final price.
type PriceHistory struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VehicleID        int64               `gorm:"column:vehicle_id;not null;index"`
	BasePrice        decimal.Decimal     `gorm:"column:base_price;type:numeric(12,2);not null"`
	FinalPrice       decimal.Decimal     `gorm:"column:final_price;type:numeric(12,2);not null"`
	CustomerID       *int64              `gorm:"column:customer_id"`
	DiscountCode     *string             `gorm:"column:discount_code;size:50"`
	AppliedDiscounts types.DiscountTrail `gorm:"column:applied_discounts;type:jsonb;serializer:json"`
	OrderID          *uuid.UUID          `gorm:"column:order_id;type:uuid"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
}
