package events

import (
	"context"

	"github.com/motorline/dealership-backend/pkg/logger"
)

// LogPublisher writes events to the structured log instead of a broker. Used
// in dev and anywhere no Pub/Sub project is configured.
type LogPublisher struct {
	logg *logger.Logger
}

func NewLogPublisher(logg *logger.Logger) *LogPublisher {
	return &LogPublisher{logg: logg}
}

func (p *LogPublisher) Publish(ctx context.Context, event OrderEvent) error {
	if p.logg == nil {
		return nil
	}
	logCtx := p.logg.WithFields(ctx, map[string]any{
		"event_type":  event.Type.String(),
		"order_id":    event.OrderID.String(),
		"customer_id": event.CustomerID,
		"vehicle_id":  event.VehicleID,
		"amount":      event.Amount.String(),
	})
	p.logg.Info(logCtx, "order event published")
	return nil
}

var _ Publisher = (*LogPublisher)(nil)
