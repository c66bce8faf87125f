package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/motorline/dealership-backend/internal/saga"
	pkgerrors "github.com/motorline/dealership-backend/pkg/errors"
)

// InventoryClient talks to a remote inventory service over its JSON API.
type InventoryClient struct {
	http *resty.Client
}

func NewInventoryClient(baseURL string) (*InventoryClient, error) {
	client, err := newClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("inventory client: %w", err)
	}
	return &InventoryClient{http: client}, nil
}

type availabilityPayload struct {
	Available bool   `json:"available"`
	VIN       string `json:"vin"`
}

type reservePayload struct {
	OrderID  string `json:"order_id,omitempty"`
	Quantity int    `json:"quantity"`
}

func (c *InventoryClient) CheckAvailability(ctx context.Context, vehicleID int64) (*saga.Availability, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/api/v1/inventory/%d/availability", vehicleID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inventory service unreachable")
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	var payload availabilityPayload
	if err := decodeData(resp.Body(), &payload); err != nil {
		return nil, err
	}
	return &saga.Availability{Available: payload.Available, VIN: payload.VIN}, nil
}

func (c *InventoryClient) Reserve(ctx context.Context, vehicleID int64, orderID uuid.UUID, quantity int) error {
	return c.post(ctx, fmt.Sprintf("/api/v1/inventory/%d/reserve", vehicleID),
		reservePayload{OrderID: orderID.String(), Quantity: quantity})
}

func (c *InventoryClient) Release(ctx context.Context, vehicleID int64, quantity int) error {
	return c.post(ctx, fmt.Sprintf("/api/v1/inventory/%d/release", vehicleID),
		reservePayload{Quantity: quantity})
}

func (c *InventoryClient) Sell(ctx context.Context, vehicleID int64, orderID uuid.UUID, quantity int) error {
	return c.post(ctx, fmt.Sprintf("/api/v1/inventory/%d/sell", vehicleID),
		reservePayload{OrderID: orderID.String(), Quantity: quantity})
}

func (c *InventoryClient) post(ctx context.Context, path string, body any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inventory service unreachable")
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	return nil
}

// decodeData unwraps the success envelope around a response body.
func decodeData(body []byte, out any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "malformed collaborator response")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "malformed collaborator response")
	}
	return nil
}
