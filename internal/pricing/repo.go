package pricing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/motorline/dealership-backend/pkg/db/models"
	pkgerrors "github.com/motorline/dealership-backend/pkg/errors"
)

// Repository persists discounts and the price-calculation audit log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindDiscountByCode(ctx context.Context, code string) (*models.Discount, error)
	IncrementDiscountUsage(ctx context.Context, code string) (bool, error)
	CreateDiscount(ctx context.Context, discount *models.Discount) error
	UpdateDiscount(ctx context.Context, code string, updates map[string]any) error
	ListDiscounts(ctx context.Context, activeOnly bool, offset, limit int) ([]models.Discount, error)
	SavePriceHistory(ctx context.Context, entry *models.PriceHistory) error
	ListPriceHistory(ctx context.Context, vehicleID int64, offset, limit int) ([]models.PriceHistory, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) FindDiscountByCode(ctx context.Context, code string) (*models.Discount, error) {
	var discount models.Discount
	err := r.db.WithContext(ctx).First(&discount, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load discount")
	}
	return &discount, nil
}

// IncrementDiscountUsage bumps used_count in a single guarded statement so
// two concurrent applications cannot push a capped discount past its limit.
// Returns false when the limit was already reached.
func (r *repository) IncrementDiscountUsage(ctx context.Context, code string) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE discounts
		SET used_count = used_count + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE code = ?
		  AND (usage_limit IS NULL OR used_count < usage_limit)
	`, code)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "failed to increment discount usage")
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreateDiscount(ctx context.Context, discount *models.Discount) error {
	if discount.ID == uuid.Nil {
		discount.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(discount).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkgerrors.New(pkgerrors.CodeConflict, "discount code already exists")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create discount")
	}
	return nil
}

func (r *repository) UpdateDiscount(ctx context.Context, code string, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Discount{}).Where("code = ?", code).Updates(updates)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "failed to update discount")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
	}
	return nil
}

func (r *repository) ListDiscounts(ctx context.Context, activeOnly bool, offset, limit int) ([]models.Discount, error) {
	query := r.db.WithContext(ctx).Model(&models.Discount{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var out []models.Discount
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list discounts")
	}
	return out, nil
}

func (r *repository) SavePriceHistory(ctx context.Context, entry *models.PriceHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record price history")
	}
	return nil
}

func (r *repository) ListPriceHistory(ctx context.Context, vehicleID int64, offset, limit int) ([]models.PriceHistory, error) {
	var out []models.PriceHistory
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list price history")
	}
	return out, nil
}
