package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/motorline/dealership-backend/pkg/enums"
)

// OrderHistory is the append-only audit row written with every order status
// or payment-status transition. Rows are never updated or deleted.
type OrderHistory struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	Status        enums.OrderStatus    `gorm:"column:status;type:text;not null"`
	PaymentStatus *enums.PaymentStatus `gorm:"column:payment_status;type:text"`
	ChangedBy     string               `gorm:"column:changed_by;size:100;not null;default:'system'"`
	Notes         *string              `gorm:"column:notes"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
}
