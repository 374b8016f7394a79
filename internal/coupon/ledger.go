package coupon

import (
	"context"
	"time"

	"backend/internal/models"
)

// Store is the persistence contract for coupons. IncrementUsage must check
// the usage limit and increment in one conditional operation; a separate
// read-then-write pair would race concurrent redemptions.
type Store interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	IncrementUsage(ctx context.Context, code string) error
}

// Ledger validates coupons against orders and consumes usage slots.
type Ledger struct {
	store Store
	now   func() time.Time
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Validate resolves a code and checks eligibility for the given order amount
// (subtotal plus delivery). Returns the discount it would grant.
func (l *Ledger) Validate(ctx context.Context, code string, orderAmount int64) (int64, *models.Coupon, error) {
	c, err := l.store.FindByCode(ctx, code)
	if err != nil {
		return 0, nil, err
	}

	if err := Validate(*c, orderAmount, l.now()); err != nil {
		return 0, nil, err
	}

	return ComputeDiscount(*c, orderAmount), c, nil
}

// Redeem consumes exactly one usage slot. Called at most once per completed
// order, inside the order-creation transaction.
func (l *Ledger) Redeem(ctx context.Context, code string) error {
	return l.store.IncrementUsage(ctx, code)
}
