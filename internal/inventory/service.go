package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/motorline/dealership-backend/pkg/db/models"
	"github.com/motorline/dealership-backend/pkg/enums"
	pkgerrors "github.com/motorline/dealership-backend/pkg/errors"
	"github.com/motorline/dealership-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Availability is the read-only answer to "can this vehicle be sold".
type Availability struct {
	Available bool   `json:"available"`
	VIN       string `json:"vin"`
}

// Service owns all mutations of the inventory ledger.
type Service interface {
	CheckAvailability(ctx context.Context, vehicleID int64) (*Availability, error)
	Reserve(ctx context.Context, vehicleID int64, quantity int) (*models.InventoryItem, error)
	Release(ctx context.Context, vehicleID int64, quantity int) (*models.InventoryItem, error)
	Sell(ctx context.Context, vehicleID int64, quantity int) (*models.InventoryItem, error)
	Get(ctx context.Context, vehicleID int64) (*models.InventoryItem, error)
	List(ctx context.Context, offset, limit int) ([]models.InventoryItem, error)
	Create(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error)
	Update(ctx context.Context, vehicleID int64, updates map[string]any) (*models.InventoryItem, error)
}

// CreateItemInput captures the fields required to admit a vehicle into stock.
type CreateItemInput struct {
	VehicleID     int64
	VIN           string
	StockQuantity int
	Location      *string
	PurchasePrice *decimal.Decimal
	SellingPrice  *decimal.Decimal
	Notes         *string
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds the inventory ledger service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) CheckAvailability(ctx context.Context, vehicleID int64) (*Availability, error) {
	item, err := s.loadItem(ctx, s.repo, vehicleID)
	if err != nil {
		return nil, err
	}
	available := item.AvailableQuantity > 0 && item.Status != enums.InventoryStatusMaintenance
	return &Availability{Available: available, VIN: item.VIN}, nil
}

func (s *service) Reserve(ctx context.Context, vehicleID int64, quantity int) (*models.InventoryItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	var result *models.InventoryItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.ReserveQuantity(ctx, vehicleID, quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve inventory")
		}
		if affected == 0 {
			item, err := s.loadItem(ctx, repo, vehicleID)
			if err != nil {
				return err
			}
			return pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("requested %d, only %d available", quantity, item.AvailableQuantity)).
				WithDetails(map[string]int{
					"requested": quantity,
					"available": item.AvailableQuantity,
				})
		}
		result, err = s.verifyInvariant(ctx, repo, vehicleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Release(ctx context.Context, vehicleID int64, quantity int) (*models.InventoryItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	var result *models.InventoryItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.ReleaseQuantity(ctx, vehicleID, quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release inventory")
		}
		if affected == 0 {
			item, err := s.loadItem(ctx, repo, vehicleID)
			if err != nil {
				return err
			}
			return pkgerrors.New(pkgerrors.CodeInvalidRelease,
				fmt.Sprintf("requested %d, only %d reserved", quantity, item.ReservedQuantity)).
				WithDetails(map[string]int{
					"requested": quantity,
					"reserved":  item.ReservedQuantity,
				})
		}
		result, err = s.verifyInvariant(ctx, repo, vehicleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Sell(ctx context.Context, vehicleID int64, quantity int) (*models.InventoryItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	var result *models.InventoryItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Reserved units are consumed first; the available pool is the fallback.
		affected, err := repo.SellReserved(ctx, vehicleID, quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sell inventory")
		}
		if affected == 0 {
			affected, err = repo.SellAvailable(ctx, vehicleID, quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sell inventory")
			}
		}
		if affected == 0 {
			item, err := s.loadItem(ctx, repo, vehicleID)
			if err != nil {
				return err
			}
			return pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("requested %d, only %d reserved and %d available",
					quantity, item.ReservedQuantity, item.AvailableQuantity)).
				WithDetails(map[string]int{
					"requested": quantity,
					"reserved":  item.ReservedQuantity,
					"available": item.AvailableQuantity,
				})
		}
		result, err = s.verifyInvariant(ctx, repo, vehicleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, vehicleID int64) (*models.InventoryItem, error) {
	return s.loadItem(ctx, s.repo, vehicleID)
}

func (s *service) List(ctx context.Context, offset, limit int) ([]models.InventoryItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	items, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}
	return items, nil
}

func (s *service) Create(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error) {
	if input.VehicleID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle id required")
	}
	if input.VIN == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vin required")
	}
	if input.StockQuantity <= 0 {
		input.StockQuantity = 1
	}

	item := &models.InventoryItem{
		VehicleID:         input.VehicleID,
		VIN:               input.VIN,
		StockQuantity:     input.StockQuantity,
		AvailableQuantity: input.StockQuantity,
		Status:            enums.InventoryStatusAvailable,
		Location:          input.Location,
		PurchasePrice:     input.PurchasePrice,
		SellingPrice:      input.SellingPrice,
		Notes:             input.Notes,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory item")
	}
	return item, nil
}

func (s *service) Update(ctx context.Context, vehicleID int64, updates map[string]any) (*models.InventoryItem, error) {
	if len(updates) == 0 {
		return s.loadItem(ctx, s.repo, vehicleID)
	}
	if _, err := s.loadItem(ctx, s.repo, vehicleID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, vehicleID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory item")
	}
	return s.loadItem(ctx, s.repo, vehicleID)
}

func (s *service) loadItem(ctx context.Context, repo Repository, vehicleID int64) (*models.InventoryItem, error) {
	item, err := repo.FindByVehicleID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("vehicle %d not in inventory", vehicleID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	return item, nil
}

// verifyInvariant reloads the mutated row and aborts the transaction when the
// quantity algebra no longer holds. Reaching this path means a bug, not a
// business outcome, so it is logged apart from expected failures.
func (s *service) verifyInvariant(ctx context.Context, repo Repository, vehicleID int64) (*models.InventoryItem, error) {
	item, err := s.loadItem(ctx, repo, vehicleID)
	if err != nil {
		return nil, err
	}
	if item.AvailableQuantity < 0 || item.ReservedQuantity < 0 || item.SoldQuantity < 0 ||
		item.AvailableQuantity+item.ReservedQuantity+item.SoldQuantity != item.StockQuantity {
		err := pkgerrors.New(pkgerrors.CodeInvariantViolation,
			fmt.Sprintf("ledger invariant broken for vehicle %d: available=%d reserved=%d sold=%d stock=%d",
				vehicleID, item.AvailableQuantity, item.ReservedQuantity, item.SoldQuantity, item.StockQuantity))
		if s.logg != nil {
			s.logg.Error(s.logg.WithVehicleID(ctx, fmt.Sprint(vehicleID)), "inventory invariant violation", err)
		}
		return nil, err
	}
	return item, nil
}

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}
	return nil
}
