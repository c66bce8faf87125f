package orders

import (
	"context"
	"strings"
	"testing"

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

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderHistory{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func createDraft(t *testing.T, svc Service) *models.Order {
	t.Helper()
	order, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerID:    7,
		VehicleID:     1,
		PaymentMethod: enums.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestCreateWritesCreationHistory(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	order := createDraft(t, svc)

	if order.Status != enums.OrderStatusDraft {
		t.Fatalf("expected draft, got %s", order.Status)
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", order.PaymentStatus)
	}

	history, err := svc.GetHistory(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one history row, got %d", len(history))
	}
	if history[0].Notes == nil || *history[0].Notes != "Order created" {
		t.Fatalf("unexpected creation note: %+v", history[0])
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateOrderInput{CustomerID: 0, VehicleID: 1, PaymentMethod: enums.PaymentMethodCash})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.Create(context.Background(), CreateOrderInput{CustomerID: 7, VehicleID: 1, PaymentMethod: "bitcoin"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for payment method, got %v", err)
	}
}

func TestUpdateStatusStampsAndLogs(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	order := createDraft(t, svc)

	confirmed, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}
	if confirmed.ConfirmedAt == nil {
		t.Fatal("confirmed_at must be stamped")
	}

	history, err := svc.GetHistory(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(history))
	}
	if history[0].Notes == nil || *history[0].Notes != "Status changed from draft to confirmed" {
		t.Fatalf("unexpected transition note: %+v", history[0])
	}
}

func TestCancelStampsCancelledAt(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	order := createDraft(t, svc)

	cancelled, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.CancelledAt == nil {
		t.Fatal("cancelled_at must be stamped")
	}
}

func TestInvalidTransitionRejected(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	order := createDraft(t, svc)

	if _, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusConfirmed)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}

	history, err := svc.GetHistory(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("rejected transition must not add history, got %d rows", len(history))
	}
}

func TestPaymentStatusChangeIsSeparateRow(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	order := createDraft(t, svc)

	updated, err := svc.UpdatePaymentStatus(context.Background(), order.ID, enums.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("update payment: %v", err)
	}
	if updated.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", updated.PaymentStatus)
	}
	if updated.Status != enums.OrderStatusDraft {
		t.Fatalf("payment change must not touch order status, got %s", updated.Status)
	}

	history, err := svc.GetHistory(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(history))
	}
	entry := history[0]
	if entry.Notes == nil || *entry.Notes != "Payment status changed from pending to paid" {
		t.Fatalf("unexpected payment note: %+v", entry)
	}
	if entry.PaymentStatus == nil || *entry.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("payment history row must carry the new payment status: %+v", entry)
	}
}

func TestStatusAndPaymentChangeInOneUpdate(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	order := createDraft(t, svc)

	status := enums.OrderStatusConfirmed
	payment := enums.PaymentStatusPaid
	if _, err := svc.Update(context.Background(), order.ID, UpdateOrderInput{Status: &status, PaymentStatus: &payment}); err != nil {
		t.Fatalf("update: %v", err)
	}

	history, err := svc.GetHistory(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected creation plus two independent rows, got %d", len(history))
	}
}

func TestUpdateUnknownOrder(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), enums.OrderStatusConfirmed)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetHistoryNewestFirst(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	order := createDraft(t, svc)

	for _, status := range []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusConfirmed, enums.OrderStatusDelivered} {
		if _, err := svc.UpdateStatus(context.Background(), order.ID, status); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	history, err := svc.GetHistory(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(history))
	}
	if history[0].Status != enums.OrderStatusDelivered {
		t.Fatalf("expected newest row first, got %s", history[0].Status)
	}
	transitions := 0
	for _, entry := range history {
		if entry.Notes != nil && strings.HasPrefix(*entry.Notes, "Status changed") {
			transitions++
		}
	}
	if transitions != 3 {
		t.Fatalf("expected 3 status-change rows, got %d", transitions)
	}
}

func TestListByCustomer(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	first := createDraft(t, svc)
	if _, err := svc.Create(context.Background(), CreateOrderInput{CustomerID: 99, VehicleID: 2, PaymentMethod: enums.PaymentMethodLease}); err != nil {
		t.Fatalf("create second order: %v", err)
	}

	mine, err := svc.ListByCustomer(context.Background(), first.CustomerID, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != first.ID {
		t.Fatalf("unexpected listing: %+v", mine)
	}
}
