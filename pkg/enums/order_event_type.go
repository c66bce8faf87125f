package enums

import "fmt"

// OrderEventType names the domain events emitted by the fulfillment saga.
type OrderEventType string

const (
	EventOrderCreated   OrderEventType = "OrderCreated"
	EventOrderConfirmed OrderEventType = "OrderConfirmed"
	EventOrderCancelled OrderEventType = "OrderCancelled"
	EventOrderCompleted OrderEventType = "OrderCompleted"
)

var validOrderEventTypes = []OrderEventType{
	EventOrderCreated,
	EventOrderConfirmed,
	EventOrderCancelled,
	EventOrderCompleted,
}

// String implements fmt.Stringer.
func (o OrderEventType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderEventType.
func (o OrderEventType) IsValid() bool {
	for _, candidate := range validOrderEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderEventType converts raw input into an OrderEventType.
func ParseOrderEventType(value string) (OrderEventType, error) {
	for _, candidate := range validOrderEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order event type %q", value)
}
