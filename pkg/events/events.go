package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/motorline/dealership-backend/pkg/enums"
)

// OrderEvent is the domain event emitted after a saga step commits.
type OrderEvent struct {
	Type       enums.OrderEventType `json:"event_type"`
	OrderID    uuid.UUID            `json:"order_id"`
	CustomerID int64                `json:"customer_id"`
	VehicleID  int64                `json:"vehicle_id"`
	Amount     decimal.Decimal      `json:"amount"`
	Extra      map[string]any       `json:"extra,omitempty"`
}

// Envelope is the stable wire structure wrapping every published event.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Publisher delivers order events best-effort. Delivery is not guaranteed and
// a publish failure must never affect already-committed state.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

func wrap(event OrderEvent) ([]byte, string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, "", err
	}
	envelope := Envelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, "", err
	}
	return payload, envelope.EventID, nil
}
