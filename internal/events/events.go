// Package events publishes domain events for external audit/observability
// subscribers. The order core emits and forgets; a publish failure is logged
// by the caller and never propagated.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Routing keys, one per domain event.
const (
	KeyOrderCreated      = "order.created"
	KeyOrderCanceled     = "order.canceled"
	KeyPaymentReconciled = "payment.reconciled"
	KeyOrderRefunded     = "order.refunded"
	KeyCouponRedeemed    = "coupon.redeemed"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Envelope wraps every event with a unique id and emission time so
// subscribers can deduplicate.
type Envelope struct {
	EventID    string    `json:"eventId"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

func NewEnvelope(payload any) Envelope {
	return Envelope{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Payload:    payload,
	}
}

type OrderCreated struct {
	OrderID    string `json:"orderId"`
	UserID     string `json:"userId"`
	TotalPrice int64  `json:"totalPrice"`
	CouponCode string `json:"couponCode,omitempty"`
}

type OrderCanceled struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

type PaymentReconciled struct {
	OrderID    string `json:"orderId"`
	AppTransID string `json:"appTransId"`
	ZPTransID  int64  `json:"zpTransId"`
}

type OrderRefunded struct {
	OrderID  string `json:"orderId"`
	RefundID string `json:"refundId"`
	Amount   int64  `json:"amount"`
}

type CouponRedeemed struct {
	Code    string `json:"code"`
	OrderID string `json:"orderId"`
}

// NopPublisher drops every event; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
