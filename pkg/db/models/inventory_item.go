package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/motorline/dealership-backend/pkg/enums"
)

// InventoryItem is the authoritative stock row for one vehicle. The quantity
// columns must always satisfy available + reserved + sold == stock; Status is
// a denormalized summary of them.
type InventoryItem struct {
	VehicleID         int64                 `gorm:"column:vehicle_id;primaryKey"`
	VIN               string                `gorm:"column:vin;size:17;uniqueIndex;not null"`
	StockQuantity     int                   `gorm:"column:stock_quantity;not null;default:1"`
	AvailableQuantity int                   `gorm:"column:available_quantity;not null;default:1"`
	ReservedQuantity  int                   `gorm:"column:reserved_quantity;not null;default:0"`
	SoldQuantity      int                   `gorm:"column:sold_quantity;not null;default:0"`
	Status            enums.InventoryStatus `gorm:"column:status;type:text;not null;default:'available'"`
	Location          *string               `gorm:"column:location;size:100"`
	PurchasePrice     *decimal.Decimal      `gorm:"column:purchase_price;type:numeric(12,2)"`
	SellingPrice      *decimal.Decimal      `gorm:"column:selling_price;type:numeric(12,2)"`
	Notes             *string               `gorm:"column:notes;size:500"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
