package orders

import "github.com/motorline/dealership-backend/pkg/enums"

// statusTransitions enumerates the reachable next states per order status.
// cancelled is reachable from every non-terminal state, refunded only after
// the order was confirmed or delivered.
var statusTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusDraft: {
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusPending: {
		enums.OrderStatusConfirmed,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusConfirmed: {
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
		enums.OrderStatusRefunded,
	},
	enums.OrderStatusProcessing: {
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusShipped: {
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusDelivered: {
		enums.OrderStatusRefunded,
	},
}

func canTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range statusTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

var paymentTransitions = map[enums.PaymentStatus][]enums.PaymentStatus{
	enums.PaymentStatusPending: {
		enums.PaymentStatusPaid,
		enums.PaymentStatusFailed,
	},
	enums.PaymentStatusFailed: {
		enums.PaymentStatusPaid,
	},
	enums.PaymentStatusPaid: {
		enums.PaymentStatusRefunded,
		enums.PaymentStatusPartiallyRefunded,
	},
	enums.PaymentStatusPartiallyRefunded: {
		enums.PaymentStatusRefunded,
	},
}

func canTransitionPayment(from, to enums.PaymentStatus) bool {
	for _, candidate := range paymentTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
