package redis

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/motorline/dealership-backend/pkg/errors"
)

// OrderLocker serializes saga instances per order id.
type OrderLocker interface {
	Acquire(ctx context.Context, orderID string, ttl time.Duration) (release func(context.Context), err error)
}

// OrderLock is a SetNX lease keyed by order id. The TTL bounds how long a
// crashed holder can block other saga instances for the same order.
type OrderLock struct {
	store cmdable
}

// NewOrderLock builds an order lock on top of the shared client.
func NewOrderLock(client *Client) *OrderLock {
	if client == nil {
		return nil
	}
	return &OrderLock{store: client.store}
}

func (l *OrderLock) Acquire(ctx context.Context, orderID string, ttl time.Duration) (func(context.Context), error) {
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required for lock")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}

	lockKey := key(sagaLockPrefix, orderID)
	token := uuid.NewString()

	ok, err := l.store.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire order lock")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "another operation is in progress for this order")
	}

	release := func(ctx context.Context) {
		current, err := l.store.Get(ctx, lockKey).Result()
		if err != nil || current != token {
			// Expired or taken over; never delete someone else's lease.
			return
		}
		_ = l.store.Del(ctx, lockKey).Err()
	}
	return release, nil
}

var _ OrderLocker = (*OrderLock)(nil)
