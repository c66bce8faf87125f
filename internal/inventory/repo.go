package inventory

import (
	"context"

	"gorm.io/gorm"

	"github.com/motorline/dealership-backend/pkg/db/models"
)

// Repository defines persistence operations for the inventory ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByVehicleID(ctx context.Context, vehicleID int64) (*models.InventoryItem, error)
	List(ctx context.Context, offset, limit int) ([]models.InventoryItem, error)
	Create(ctx context.Context, item *models.InventoryItem) error
	Update(ctx context.Context, vehicleID int64, updates map[string]any) error
	ReserveQuantity(ctx context.Context, vehicleID int64, qty int) (int64, error)
	ReleaseQuantity(ctx context.Context, vehicleID int64, qty int) (int64, error)
	SellReserved(ctx context.Context, vehicleID int64, qty int) (int64, error)
	SellAvailable(ctx context.Context, vehicleID int64, qty int) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByVehicleID(ctx context.Context, vehicleID int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) List(ctx context.Context, offset, limit int) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	query := r.db.WithContext(ctx).Order("vehicle_id ASC")
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) Update(ctx context.Context, vehicleID int64, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("vehicle_id = ?", vehicleID).
		Updates(updates).Error
}

// ReserveQuantity moves qty units from available to reserved in one guarded
// statement. Zero rows affected means either an unknown vehicle or not enough
// available stock; the caller disambiguates.
func (r *repository) ReserveQuantity(ctx context.Context, vehicleID int64, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_quantity = available_quantity - ?,
			reserved_quantity = reserved_quantity + ?,
			status = 'reserved',
			updated_at = CURRENT_TIMESTAMP
		WHERE vehicle_id = ? AND available_quantity >= ?
	`, qty, qty, vehicleID, qty)
	return res.RowsAffected, res.Error
}

// ReleaseQuantity moves qty units from reserved back to available. Status
// reverts to available only when nothing stays reserved and stock remains.
func (r *repository) ReleaseQuantity(ctx context.Context, vehicleID int64, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET reserved_quantity = reserved_quantity - ?,
			available_quantity = available_quantity + ?,
			status = CASE
				WHEN reserved_quantity - ? = 0 AND available_quantity + ? > 0 THEN 'available'
				ELSE status
			END,
			updated_at = CURRENT_TIMESTAMP
		WHERE vehicle_id = ? AND reserved_quantity >= ?
	`, qty, qty, qty, qty, vehicleID, qty)
	return res.RowsAffected, res.Error
}

// SellReserved consumes qty units from the reserved pool.
func (r *repository) SellReserved(ctx context.Context, vehicleID int64, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET reserved_quantity = reserved_quantity - ?,
			sold_quantity = sold_quantity + ?,
			status = CASE
				WHEN reserved_quantity - ? = 0 AND available_quantity = 0 THEN 'sold'
				ELSE status
			END,
			updated_at = CURRENT_TIMESTAMP
		WHERE vehicle_id = ? AND reserved_quantity >= ?
	`, qty, qty, qty, vehicleID, qty)
	return res.RowsAffected, res.Error
}

// SellAvailable consumes qty units from the available pool, used when the
// reserved pool cannot cover the sale.
func (r *repository) SellAvailable(ctx context.Context, vehicleID int64, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_quantity = available_quantity - ?,
			sold_quantity = sold_quantity + ?,
			status = CASE
				WHEN available_quantity - ? = 0 AND reserved_quantity = 0 THEN 'sold'
				ELSE status
			END,
			updated_at = CURRENT_TIMESTAMP
		WHERE vehicle_id = ? AND available_quantity >= ?
	`, qty, qty, qty, vehicleID, qty)
	return res.RowsAffected, res.Error
}
