// Package coupon separates coupon eligibility (Validate, pure) from coupon
// consumption (Redeem, a conditional increment). The preview endpoint and the
// order-creation path share the same validation rules; only order creation
// ever redeems.
package coupon

import (
	"errors"
	"time"

	"backend/internal/models"
)

var (
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponInactive    = errors.New("coupon is not active")
	ErrCouponExpired     = errors.New("coupon has expired")
	ErrCouponExhausted   = errors.New("coupon usage limit reached")
	ErrOrderBelowMinimum = errors.New("order amount below coupon minimum")
)

// Validate checks eligibility against an order amount. It never mutates
// anything and never counts as a redemption.
func Validate(c models.Coupon, orderAmount int64, now time.Time) error {
	if !c.IsActive {
		return ErrCouponInactive
	}
	if now.After(c.ExpirationDate) {
		return ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return ErrCouponExhausted
	}
	if orderAmount < c.MinimumOrderAmount {
		return ErrOrderBelowMinimum
	}
	return nil
}

// ComputeDiscount returns the discount for an eligible coupon, floored at
// zero and capped at orderAmount so a total can never go negative.
func ComputeDiscount(c models.Coupon, orderAmount int64) int64 {
	var discount int64
	switch c.DiscountType {
	case models.DiscountTypePercentage:
		discount = orderAmount * c.DiscountValue / 100
	case models.DiscountTypeFixedAmount:
		discount = c.DiscountValue
	}

	if discount < 0 {
		return 0
	}
	if discount > orderAmount {
		return orderAmount
	}
	return discount
}
