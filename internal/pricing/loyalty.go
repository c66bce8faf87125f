package pricing

import "context"

// LoyaltyPolicy decides whether a customer qualifies for the loyalty
// discount. The production criterion lives outside this service, so the
// rule is injectable.
type LoyaltyPolicy interface {
	IsLoyal(ctx context.Context, customerID int64) bool
}

// EvenIDPolicy is the placeholder rule carried over until the customer
// service exposes a real membership lookup. TODO: replace with a call to
// the customer profile collaborator once it publishes loyalty tiers.
type EvenIDPolicy struct{}

func (EvenIDPolicy) IsLoyal(_ context.Context, customerID int64) bool {
	return customerID%2 == 0
}
