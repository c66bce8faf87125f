package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/motorline/dealership-backend/pkg/db/models"
	"github.com/motorline/dealership-backend/pkg/enums"
	"github.com/motorline/dealership-backend/pkg/types"
)

type fixedLoyalty struct {
	loyal bool
}

func (f fixedLoyalty) IsLoyal(context.Context, int64) bool {
	return f.loyal
}

func newCalculator(t *testing.T, loyal bool) *Calculator {
	t.Helper()
	calc, err := NewCalculator(fixedLoyalty{loyal: loyal})
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	return calc
}

func money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func TestCashHappyPath(t *testing.T) {
	t.Parallel()

	calc := newCalculator(t, false)
	customerID := int64(7)
	quote := calc.Quote(context.Background(), QuoteInput{
		BasePrice:     money(t, "25000"),
		CustomerID:    &customerID,
		PaymentMethod: enums.PaymentMethodCash,
	})

	if !quote.FinalPrice.Equal(money(t, "24250.00")) {
		t.Fatalf("expected 24250.00, got %s", quote.FinalPrice)
	}
	if len(quote.Trail) != 1 {
		t.Fatalf("expected a single trail entry, got %d", len(quote.Trail))
	}
	if quote.Trail[0].Kind != types.AdjustmentPaymentMethod {
		t.Fatalf("expected payment_method entry, got %s", quote.Trail[0].Kind)
	}
	if quote.DiscountApplied {
		t.Fatal("no discount code was supplied")
	}
}

func TestCreditCardHasNoTrailEntry(t *testing.T) {
	t.Parallel()

	calc := newCalculator(t, false)
	quote := calc.Quote(context.Background(), QuoteInput{
		BasePrice:     money(t, "25000"),
		PaymentMethod: enums.PaymentMethodCreditCard,
	})

	if !quote.FinalPrice.Equal(money(t, "25000")) {
		t.Fatalf("credit card carries no discount, got %s", quote.FinalPrice)
	}
	if len(quote.Trail) != 0 {
		t.Fatalf("expected empty trail, got %+v", quote.Trail)
	}
}

func TestPercentageDiscountCap(t *testing.T) {
	t.Parallel()

	calc := newCalculator(t, false)
	maxAmount := money(t, "500")
	quote := calc.Quote(context.Background(), QuoteInput{
		BasePrice:     money(t, "100000"),
		PaymentMethod: enums.PaymentMethodCreditCard,
		Discount: &models.Discount{
			Code:              "MEGA90",
			DiscountType:      enums.DiscountTypePercentage,
			Value:             money(t, "90"),
			MaxDiscountAmount: &maxAmount,
		},
	})

	if !quote.FinalPrice.Equal(money(t, "99500.00")) {
		t.Fatalf("cap must limit the reduction to 500, got final %s", quote.FinalPrice)
	}
	if !quote.Trail[0].Amount.Equal(maxAmount) {
		t.Fatalf("trail must record the capped amount, got %s", quote.Trail[0].Amount)
	}
}

func TestFixedAmountFloorsAtZero(t *testing.T) {
	t.Parallel()

	calc := newCalculator(t, false)
	quote := calc.Quote(context.Background(), QuoteInput{
		BasePrice:     money(t, "300"),
		PaymentMethod: enums.PaymentMethodCreditCard,
		Discount: &models.Discount{
			Code:         "BIGFIX",
			DiscountType: enums.DiscountTypeFixedAmount,
			Value:        money(t, "1000"),
		},
	})

	if !quote.FinalPrice.Equal(decimal.Zero) {
		t.Fatalf("fixed discount must floor at zero, got %s", quote.FinalPrice)
	}
}

func TestTradeInFloorsAtZero(t *testing.T) {
	t.Parallel()

	calc := newCalculator(t, false)
	tradeIn := money(t, "30000")
	quote := calc.Quote(context.Background(), QuoteInput{
		BasePrice:     money(t, "25000"),
		PaymentMethod: enums.PaymentMethodCreditCard,
		TradeInValue:  &tradeIn,
	})

	if !quote.FinalPrice.Equal(decimal.Zero) {
		t.Fatalf("trade-in must never push price negative, got %s", quote.FinalPrice)
	}
	if quote.FinalPrice.IsNegative() {
		t.Fatal("final price is negative")
	}
}

func TestPipelineOrderAndLoyalty(t *testing.T) {
	t.Parallel()

	calc := newCalculator(t, true)
	customerID := int64(8)
	tradeIn := money(t, "2000")
	quote := calc.Quote(context.Background(), QuoteInput{
		BasePrice:     money(t, "30000"),
		CustomerID:    &customerID,
		PaymentMethod: enums.PaymentMethodLease,
		TradeInValue:  &tradeIn,
		Discount: &models.Discount{
			Code:         "SPRING10",
			DiscountType: enums.DiscountTypePercentage,
			Value:        money(t, "10"),
		},
	})

	// 30000 -> 27000 (code) -> 26460 (lease 2%) -> 25137 (loyalty 5%) -> 23137 (trade-in)
	if !quote.FinalPrice.Equal(money(t, "23137.00")) {
		t.Fatalf("expected 23137.00, got %s", quote.FinalPrice)
	}

	kinds := make([]string, 0, len(quote.Trail))
	for _, entry := range quote.Trail {
		kinds = append(kinds, entry.Kind)
	}
	want := []string{
		types.AdjustmentDiscountCode,
		types.AdjustmentPaymentMethod,
		types.AdjustmentLoyalty,
		types.AdjustmentTradeIn,
	}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d trail entries, got %v", len(want), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("trail out of order at %d: got %v", i, kinds)
		}
	}
}

func TestQuoteIsDeterministic(t *testing.T) {
	t.Parallel()

	calc := newCalculator(t, true)
	customerID := int64(4)
	input := QuoteInput{
		BasePrice:     money(t, "19999.99"),
		CustomerID:    &customerID,
		PaymentMethod: enums.PaymentMethodFinancing,
	}

	first := calc.Quote(context.Background(), input)
	for i := 0; i < 5; i++ {
		again := calc.Quote(context.Background(), input)
		if !again.FinalPrice.Equal(first.FinalPrice) {
			t.Fatalf("run %d diverged: %s vs %s", i, again.FinalPrice, first.FinalPrice)
		}
		if len(again.Trail) != len(first.Trail) {
			t.Fatalf("run %d trail diverged", i)
		}
	}
}

func TestFinalPriceRoundedToTwoPlaces(t *testing.T) {
	t.Parallel()

	calc := newCalculator(t, false)
	quote := calc.Quote(context.Background(), QuoteInput{
		BasePrice:     money(t, "10001.37"),
		PaymentMethod: enums.PaymentMethodCash,
	})

	if quote.FinalPrice.Exponent() < -2 {
		t.Fatalf("final price has more than 2 decimal places: %s", quote.FinalPrice)
	}
}

func TestDiscountUsablePredicate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	limit := 10
	base := models.Discount{
		Code:                 "SUMMER",
		DiscountType:         enums.DiscountTypePercentage,
		Value:                money(t, "10"),
		ValidFrom:            now.AddDate(0, -1, 0),
		ValidTo:              now.AddDate(0, 1, 0),
		IsActive:             true,
		UsageLimit:           &limit,
		AppliesToAllVehicles: true,
	}

	cases := []struct {
		name     string
		mutate   func(*models.Discount)
		vehicle  *int64
		purchase decimal.Decimal
		want     bool
	}{
		{name: "valid", purchase: money(t, "1000"), want: true},
		{name: "expired", mutate: func(d *models.Discount) { d.ValidTo = now.AddDate(0, -1, 0) }, purchase: money(t, "1000"), want: false},
		{name: "inactive", mutate: func(d *models.Discount) { d.IsActive = false }, purchase: money(t, "1000"), want: false},
		{name: "exhausted", mutate: func(d *models.Discount) { d.UsedCount = 10 }, purchase: money(t, "1000"), want: false},
		{name: "below minimum", mutate: func(d *models.Discount) { d.MinPurchaseAmount = money(t, "5000") }, purchase: money(t, "1000"), want: false},
		{
			name: "wrong vehicle",
			mutate: func(d *models.Discount) {
				d.AppliesToAllVehicles = false
				d.VehicleIDs = []int64{5}
			},
			vehicle:  ptrInt64(9),
			purchase: money(t, "1000"),
			want:     false,
		},
		{
			name: "listed vehicle",
			mutate: func(d *models.Discount) {
				d.AppliesToAllVehicles = false
				d.VehicleIDs = []int64{9}
			},
			vehicle:  ptrInt64(9),
			purchase: money(t, "1000"),
			want:     true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := base
			if tc.mutate != nil {
				tc.mutate(&d)
			}
			got, _ := discountUsable(&d, tc.vehicle, tc.purchase, now)
			if got != tc.want {
				t.Fatalf("expected %v", tc.want)
			}
		})
	}
}

func ptrInt64(v int64) *int64 {
	return &v
}
