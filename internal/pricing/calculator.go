package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/motorline/dealership-backend/pkg/db/models"
	"github.com/motorline/dealership-backend/pkg/enums"
	"github.com/motorline/dealership-backend/pkg/types"
)

// paymentMethodRates maps each payment method to its multiplicative
// discount rate.
var paymentMethodRates = map[enums.PaymentMethod]decimal.Decimal{
	enums.PaymentMethodCash:       decimal.RequireFromString("0.03"),
	enums.PaymentMethodCreditCard: decimal.Zero,
	enums.PaymentMethodFinancing:  decimal.RequireFromString("0.01"),
	enums.PaymentMethodLease:      decimal.RequireFromString("0.02"),
}

var (
	one            = decimal.NewFromInt(1)
	hundred        = decimal.NewFromInt(100)
	loyaltyRate    = decimal.RequireFromString("0.05")
	loyaltyRatePct = loyaltyRate.Mul(hundred)
)

// QuoteInput is everything the pipeline needs for one price calculation.
// Discount, when non-nil, must already have passed the validity predicate.
type QuoteInput struct {
	BasePrice     decimal.Decimal
	CustomerID    *int64
	PaymentMethod enums.PaymentMethod
	TradeInValue  *decimal.Decimal
	Discount      *models.Discount
}

// Quote is the result of one calculation: the final price plus the ordered
// trail of every adjustment that fired.
type Quote struct {
	BasePrice       decimal.Decimal
	FinalPrice      decimal.Decimal
	Currency        string
	Trail           types.DiscountTrail
	DiscountApplied bool
}

// Calculator runs the fixed-order discount pipeline: discount code, then
// payment method, then loyalty, then trade-in, then rounding. The order
// matters because each percentage step multiplies the running price.
type Calculator struct {
	loyalty LoyaltyPolicy
}

func NewCalculator(loyalty LoyaltyPolicy) (*Calculator, error) {
	if loyalty == nil {
		return nil, fmt.Errorf("loyalty policy required")
	}
	return &Calculator{loyalty: loyalty}, nil
}

func (c *Calculator) Quote(ctx context.Context, input QuoteInput) Quote {
	price := input.BasePrice
	trail := types.DiscountTrail{}
	discountApplied := false

	if input.Discount != nil {
		discounted := applyDiscountRule(price, input.Discount)
		value := input.Discount.Value
		trail = append(trail, types.AppliedDiscount{
			Kind:         types.AdjustmentDiscountCode,
			Code:         input.Discount.Code,
			DiscountType: input.Discount.DiscountType.String(),
			Value:        &value,
			Amount:       price.Sub(discounted),
		})
		price = discounted
		discountApplied = true
	}

	if rate, ok := paymentMethodRates[input.PaymentMethod]; ok && rate.IsPositive() {
		next := price.Mul(one.Sub(rate))
		pct := rate.Mul(hundred)
		trail = append(trail, types.AppliedDiscount{
			Kind:       types.AdjustmentPaymentMethod,
			Method:     input.PaymentMethod.String(),
			Percentage: &pct,
			Amount:     price.Sub(next),
		})
		price = next
	}

	if input.CustomerID != nil && c.loyalty.IsLoyal(ctx, *input.CustomerID) {
		next := price.Mul(one.Sub(loyaltyRate))
		pct := loyaltyRatePct
		trail = append(trail, types.AppliedDiscount{
			Kind:       types.AdjustmentLoyalty,
			CustomerID: input.CustomerID,
			Percentage: &pct,
			Amount:     price.Sub(next),
		})
		price = next
	}

	if input.TradeInValue != nil && input.TradeInValue.IsPositive() {
		next := price.Sub(*input.TradeInValue)
		if next.IsNegative() {
			next = decimal.Zero
		}
		value := *input.TradeInValue
		trail = append(trail, types.AppliedDiscount{
			Kind:   types.AdjustmentTradeIn,
			Value:  &value,
			Amount: price.Sub(next),
		})
		price = next
	}

	return Quote{
		BasePrice:       input.BasePrice,
		FinalPrice:      price.Round(2),
		Currency:        "USD",
		Trail:           trail,
		DiscountApplied: discountApplied,
	}
}

// applyDiscountRule applies one discount to a price. Percentage discounts
// are capped at max_discount_amount when set, fixed amounts floor at zero.
func applyDiscountRule(price decimal.Decimal, d *models.Discount) decimal.Decimal {
	switch d.DiscountType {
	case enums.DiscountTypePercentage:
		discounted := price.Mul(one.Sub(d.Value.Div(hundred)))
		if d.MaxDiscountAmount != nil {
			reduction := price.Sub(discounted)
			if reduction.GreaterThan(*d.MaxDiscountAmount) {
				discounted = price.Sub(*d.MaxDiscountAmount)
			}
		}
		return discounted.Round(2)
	case enums.DiscountTypeFixedAmount:
		discounted := price.Sub(d.Value)
		if discounted.IsNegative() {
			return decimal.Zero
		}
		return discounted.Round(2)
	default:
		return price
	}
}

// discountUsable is the single validity predicate shared by price
// calculation and standalone validation so the two can never disagree.
func discountUsable(d *models.Discount, vehicleID *int64, purchaseAmount decimal.Decimal, now time.Time) (bool, string) {
	if now.Before(d.ValidFrom) || now.After(d.ValidTo) {
		return false, "discount is outside its validity window"
	}
	if !d.IsActive {
		return false, "discount is not active"
	}
	if d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit {
		return false, "discount usage limit reached"
	}
	if purchaseAmount.LessThan(d.MinPurchaseAmount) {
		return false, "purchase amount below the discount minimum"
	}
	if !d.AppliesToAllVehicles && vehicleID != nil {
		applies := false
		for _, id := range d.VehicleIDs {
			if id == *vehicleID {
				applies = true
				break
			}
		}
		if !applies {
			return false, "discount does not apply to this vehicle"
		}
	}
	return true, ""
}
