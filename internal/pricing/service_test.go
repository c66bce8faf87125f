package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/motorline/dealership-backend/pkg/db/models"
	"github.com/motorline/dealership-backend/pkg/enums"
	pkgerrors "github.com/motorline/dealership-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T, loyal bool) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:pricing_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Discount{}, &models.PriceHistory{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, newCalculator(t, loyal), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func seedDiscount(t *testing.T, db *gorm.DB, discount models.Discount) {
	t.Helper()
	if discount.ValidFrom.IsZero() {
		discount.ValidFrom = time.Now().UTC().AddDate(0, -1, 0)
	}
	if discount.ValidTo.IsZero() {
		discount.ValidTo = time.Now().UTC().AddDate(0, 1, 0)
	}
	if err := db.Create(&discount).Error; err != nil {
		t.Fatalf("seed discount: %v", err)
	}
}

func TestCalculateRecordsHistoryAndUsage(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, false)
	seedDiscount(t, db, models.Discount{
		ID:                   uuid.New(),
		Code:                 "WELCOME10",
		Name:                 "Welcome",
		DiscountType:         enums.DiscountTypePercentage,
		Value:                money(t, "10"),
		IsActive:             true,
		AppliesToAllVehicles: true,
	})

	code := "WELCOME10"
	quote, err := svc.Calculate(context.Background(), CalculateInput{
		VehicleID:     1,
		BasePrice:     money(t, "20000"),
		PaymentMethod: enums.PaymentMethodCreditCard,
		DiscountCode:  &code,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if !quote.FinalPrice.Equal(money(t, "18000.00")) {
		t.Fatalf("expected 18000.00, got %s", quote.FinalPrice)
	}
	if !quote.DiscountApplied {
		t.Fatal("discount should have applied")
	}

	var discount models.Discount
	if err := db.First(&discount, "code = ?", "WELCOME10").Error; err != nil {
		t.Fatalf("reload discount: %v", err)
	}
	if discount.UsedCount != 1 {
		t.Fatalf("used_count must increment exactly once, got %d", discount.UsedCount)
	}

	var rows []models.PriceHistory
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one price history row, got %d", len(rows))
	}
	if len(rows[0].AppliedDiscounts) != 1 || rows[0].AppliedDiscounts[0].Code != "WELCOME10" {
		t.Fatalf("history must carry the trail: %+v", rows[0].AppliedDiscounts)
	}
}

func TestCalculateSkipsUnknownCode(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, false)

	code := "NOPE"
	quote, err := svc.Calculate(context.Background(), CalculateInput{
		VehicleID:     1,
		BasePrice:     money(t, "20000"),
		PaymentMethod: enums.PaymentMethodCash,
		DiscountCode:  &code,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if quote.DiscountApplied {
		t.Fatal("unknown code must be skipped, not applied")
	}
	if !quote.FinalPrice.Equal(money(t, "19400.00")) {
		t.Fatalf("expected only the cash discount, got %s", quote.FinalPrice)
	}

	var count int64
	if err := db.Model(&models.PriceHistory{}).Count(&count).Error; err != nil {
		t.Fatalf("count history: %v", err)
	}
	if count != 1 {
		t.Fatalf("calculation must still be recorded, got %d rows", count)
	}
}

func TestCalculateSkipsExpiredCode(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, false)
	seedDiscount(t, db, models.Discount{
		ID:                   uuid.New(),
		Code:                 "OLD",
		Name:                 "Expired",
		DiscountType:         enums.DiscountTypePercentage,
		Value:                money(t, "50"),
		ValidFrom:            time.Now().UTC().AddDate(-1, 0, 0),
		ValidTo:              time.Now().UTC().AddDate(0, -1, 0),
		IsActive:             true,
		AppliesToAllVehicles: true,
	})

	code := "OLD"
	quote, err := svc.Calculate(context.Background(), CalculateInput{
		VehicleID:     1,
		BasePrice:     money(t, "20000"),
		PaymentMethod: enums.PaymentMethodCreditCard,
		DiscountCode:  &code,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if quote.DiscountApplied || !quote.FinalPrice.Equal(money(t, "20000.00")) {
		t.Fatalf("expired code must not fire: %+v", quote)
	}

	var discount models.Discount
	if err := db.First(&discount, "code = ?", "OLD").Error; err != nil {
		t.Fatalf("reload discount: %v", err)
	}
	if discount.UsedCount != 0 {
		t.Fatalf("skipped code must not consume usage, got %d", discount.UsedCount)
	}
}

func TestCalculateRejectsNegativeBasePrice(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, false)

	_, err := svc.Calculate(context.Background(), CalculateInput{
		VehicleID:     1,
		BasePrice:     money(t, "-1"),
		PaymentMethod: enums.PaymentMethodCash,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUsageLimitEnforcedAtIncrement(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, false)
	limit := 1
	seedDiscount(t, db, models.Discount{
		ID:                   uuid.New(),
		Code:                 "ONCE",
		Name:                 "Single use",
		DiscountType:         enums.DiscountTypePercentage,
		Value:                money(t, "10"),
		IsActive:             true,
		UsageLimit:           &limit,
		AppliesToAllVehicles: true,
	})

	code := "ONCE"
	if _, err := svc.Calculate(context.Background(), CalculateInput{
		VehicleID:     1,
		BasePrice:     money(t, "10000"),
		PaymentMethod: enums.PaymentMethodCreditCard,
		DiscountCode:  &code,
	}); err != nil {
		t.Fatalf("first use: %v", err)
	}

	quote, err := svc.Calculate(context.Background(), CalculateInput{
		VehicleID:     1,
		BasePrice:     money(t, "10000"),
		PaymentMethod: enums.PaymentMethodCreditCard,
		DiscountCode:  &code,
	})
	if err != nil {
		t.Fatalf("second use: %v", err)
	}
	if quote.DiscountApplied {
		t.Fatal("exhausted code must be skipped")
	}

	var discount models.Discount
	if err := db.First(&discount, "code = ?", "ONCE").Error; err != nil {
		t.Fatalf("reload discount: %v", err)
	}
	if discount.UsedCount != 1 {
		t.Fatalf("used_count must never pass the limit, got %d", discount.UsedCount)
	}
}

func TestValidateDiscount(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, false)
	seedDiscount(t, db, models.Discount{
		ID:                   uuid.New(),
		Code:                 "SPRING",
		Name:                 "Spring sale",
		DiscountType:         enums.DiscountTypePercentage,
		Value:                money(t, "5"),
		IsActive:             true,
		AppliesToAllVehicles: true,
	})

	result, err := svc.ValidateDiscount(context.Background(), "SPRING", nil, nil)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !result.IsValid {
		t.Fatalf("expected valid, got %q", result.Message)
	}

	missing, err := svc.ValidateDiscount(context.Background(), "NOPE", nil, nil)
	if err != nil {
		t.Fatalf("validate missing: %v", err)
	}
	if missing.IsValid || missing.Message != "Discount code not found" {
		t.Fatalf("unexpected result: %+v", missing)
	}
}

func TestCreateDiscountValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, false)

	err := svc.CreateDiscount(context.Background(), &models.Discount{
		Code:         "BAD",
		Name:         "Backwards window",
		DiscountType: enums.DiscountTypePercentage,
		Value:        money(t, "5"),
		ValidFrom:    time.Now().UTC(),
		ValidTo:      time.Now().UTC().AddDate(0, 0, -1),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateDiscountPatchesFields(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t, false)
	seedDiscount(t, db, models.Discount{
		ID:                   uuid.New(),
		Code:                 "LOYAL5",
		Name:                 "Loyalty",
		DiscountType:         enums.DiscountTypePercentage,
		Value:                money(t, "5"),
		IsActive:             true,
		AppliesToAllVehicles: true,
	})

	updated, err := svc.UpdateDiscount(context.Background(), "LOYAL5", map[string]any{
		"is_active": false,
		"name":      "Loyalty (paused)",
	})
	if err != nil {
		t.Fatalf("update discount: %v", err)
	}
	if updated.IsActive {
		t.Fatalf("discount should be inactive after update")
	}
	if updated.Name != "Loyalty (paused)" {
		t.Fatalf("name not updated: %q", updated.Name)
	}

	got, err := svc.GetDiscount(context.Background(), "LOYAL5")
	if err != nil {
		t.Fatalf("get discount: %v", err)
	}
	if got.IsActive {
		t.Fatalf("update not persisted")
	}
}

func TestUpdateDiscountUnknownCode(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, false)

	_, err := svc.UpdateDiscount(context.Background(), "GHOST", map[string]any{"is_active": false})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
