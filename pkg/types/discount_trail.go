package types

import "github.com/shopspring/decimal"

// Adjustment kinds recorded in a discount trail, in the order the pricing
// pipeline applies them.
const (
	AdjustmentDiscountCode  = "discount_code"
	AdjustmentPaymentMethod = "payment_method"
	AdjustmentLoyalty       = "loyalty"
	AdjustmentTradeIn       = "trade_in"
)

// AppliedDiscount is one entry of a discount trail: which rule fired and by
// how much it reduced the running price.
type AppliedDiscount struct {
	Kind         string           `json:"type"`
	Code         string           `json:"code,omitempty"`
	DiscountType string           `json:"discount_type,omitempty"`
	Method       string           `json:"method,omitempty"`
	CustomerID   *int64           `json:"customer_id,omitempty"`
	Percentage   *decimal.Decimal `json:"percentage,omitempty"`
	Value        *decimal.Decimal `json:"value,omitempty"`
	Amount       decimal.Decimal  `json:"amount"`
}

// DiscountTrail is the ordered audit record of every adjustment applied
// during one price calculation.
type DiscountTrail []AppliedDiscount
