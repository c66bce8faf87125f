package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/motorline/dealership-backend/pkg/enums"
)

// Discount is a named, time-boxed, capped promotional rule.
type Discount struct {
	ID                   uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code                 string             `gorm:"column:code;size:50;uniqueIndex;not null"`
	Name                 string             `gorm:"column:name;size:100;not null"`
	Description          *string            `gorm:"column:description;size:500"`
	DiscountType         enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	Value                decimal.Decimal    `gorm:"column:value;type:numeric(12,2);not null"`
	MinPurchaseAmount    decimal.Decimal    `gorm:"column:min_purchase_amount;type:numeric(12,2);not null;default:0"`
	MaxDiscountAmount    *decimal.Decimal   `gorm:"column:max_discount_amount;type:numeric(12,2)"`
	ValidFrom            time.Time          `gorm:"column:valid_from;not null"`
	ValidTo              time.Time          `gorm:"column:valid_to;not null"`
	IsActive             bool               `gorm:"column:is_active;not null;default:true"`
	UsageLimit           *int               `gorm:"column:usage_limit"`
	UsedCount            int                `gorm:"column:used_count;not null;default:0"`
	AppliesToAllVehicles bool               `gorm:"column:applies_to_all_vehicles;not null;default:true"`
	VehicleIDs           []int64            `gorm:"column:vehicle_ids;type:jsonb;serializer:json"`
	CustomerGroup        string             `gorm:"column:customer_group;size:50;not null;default:'all'"`
	CreatedAt            time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
