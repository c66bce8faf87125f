package inventory

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/motorline/dealership-backend/api/responses"
	"github.com/motorline/dealership-backend/api/validators"
	internalinventory "github.com/motorline/dealership-backend/internal/inventory"
	"github.com/motorline/dealership-backend/pkg/db/models"
	"github.com/motorline/dealership-backend/pkg/logger"
)

type itemView struct {
	VehicleID         int64            `json:"vehicle_id"`
	VIN               string           `json:"vin"`
	StockQuantity     int              `json:"stock_quantity"`
	AvailableQuantity int              `json:"available_quantity"`
	ReservedQuantity  int              `json:"reserved_quantity"`
	SoldQuantity      int              `json:"sold_quantity"`
	Status            string           `json:"status"`
	Location          *string          `json:"location,omitempty"`
	SellingPrice      *decimal.Decimal `json:"selling_price,omitempty"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func toItemView(item *models.InventoryItem) itemView {
	return itemView{
		VehicleID:         item.VehicleID,
		VIN:               item.VIN,
		StockQuantity:     item.StockQuantity,
		AvailableQuantity: item.AvailableQuantity,
		ReservedQuantity:  item.ReservedQuantity,
		SoldQuantity:      item.SoldQuantity,
		Status:            item.Status.String(),
		Location:          item.Location,
		SellingPrice:      item.SellingPrice,
		UpdatedAt:         item.UpdatedAt,
	}
}

type availabilityView struct {
	Available bool   `json:"available"`
	VIN       string `json:"vin"`
}

// CheckAvailability answers the read-only "can this vehicle be sold" query.
func CheckAvailability(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicleID, err := validators.PathInt64(r, "vehicleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		got, err := svc.CheckAvailability(r.Context(), vehicleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, availabilityView{Available: got.Available, VIN: got.VIN})
	}
}

type quantityRequest struct {
	OrderID  *string `json:"order_id,omitempty"`
	Quantity int     `json:"quantity" validate:"required,gt=0"`
}

// Reserve moves units from available to reserved.
func Reserve(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return ledgerMutation(logg, svc.Reserve)
}

// Release gives reserved units back.
func Release(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return ledgerMutation(logg, svc.Release)
}

// Sell consumes units, reserved first.
func Sell(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return ledgerMutation(logg, svc.Sell)
}

func ledgerMutation(logg *logger.Logger, op func(ctx context.Context, vehicleID int64, quantity int) (*models.InventoryItem, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicleID, err := validators.PathInt64(r, "vehicleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req quantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := op(r.Context(), vehicleID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toItemView(item))
	}
}

// Get returns one inventory row.
func Get(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicleID, err := validators.PathInt64(r, "vehicleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Get(r.Context(), vehicleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toItemView(item))
	}
}

// List pages through the inventory.
func List(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
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
		items, err := svc.List(r.Context(), offset, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]itemView, 0, len(items))
		for i := range items {
			views = append(views, toItemView(&items[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

type createItemRequest struct {
	VehicleID     int64            `json:"vehicle_id" validate:"required,gt=0"`
	VIN           string           `json:"vin" validate:"required,len=17"`
	StockQuantity int              `json:"stock_quantity" validate:"required,gt=0"`
	Location      *string          `json:"location,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	SellingPrice  *decimal.Decimal `json:"selling_price,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

// Create registers a vehicle in inventory.
func Create(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Create(r.Context(), internalinventory.CreateItemInput{
			VehicleID:     req.VehicleID,
			VIN:           req.VIN,
			StockQuantity: req.StockQuantity,
			Location:      req.Location,
			PurchasePrice: req.PurchasePrice,
			SellingPrice:  req.SellingPrice,
			Notes:         req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toItemView(item))
	}
}

type updateItemRequest struct {
	Location      *string          `json:"location,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	SellingPrice  *decimal.Decimal `json:"selling_price,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

// Update patches descriptive fields. Quantities only move through the
// reserve, release and sell endpoints.
func Update(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicleID, err := validators.PathInt64(r, "vehicleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updates := map[string]any{}
		if req.Location != nil {
			updates["location"] = *req.Location
		}
		if req.PurchasePrice != nil {
			updates["purchase_price"] = *req.PurchasePrice
		}
		if req.SellingPrice != nil {
			updates["selling_price"] = *req.SellingPrice
		}
		if req.Notes != nil {
			updates["notes"] = *req.Notes
		}
		item, err := svc.Update(r.Context(), vehicleID, updates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toItemView(item))
	}
}
