package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCanceled   OrderStatus = "canceled"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	StatusPending:    {},
	StatusConfirmed:  {},
	StatusProcessing: {},
	StatusShipped:    {},
	StatusDelivered:  {},
	StatusCanceled:   {},
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}
	return "", errors.New("invalid order status")
}

// IsTerminal reports whether no further fulfillment transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func ToPaymentStatus(s string) (PaymentStatus, error) {
	switch status := PaymentStatus(s); status {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return status, nil
	}
	return "", errors.New("invalid payment status")
}

const (
	PaymentMethodCash    = "cash"
	PaymentMethodZaloPay = "zalopay"
)

// OrderItem snapshots a product at order time: the price recorded here is the
// effective unit price and never changes when the catalog does.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     int64              `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	LineTotal int64              `bson:"lineTotal" json:"lineTotal"`
}

// ShippingAddress is copied onto the order so later address-book edits do not
// rewrite history.
type ShippingAddress struct {
	ReceiverName string `bson:"receiverName" json:"receiverName"`
	Phone        string `bson:"phone" json:"phone"`
	Address      string `bson:"address" json:"address"`
}

// Order is the persisted order document.
type Order struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID               primitive.ObjectID `bson:"userId" json:"userId"`
	Items                []OrderItem        `bson:"items" json:"items"`
	Subtotal             int64              `bson:"subtotal" json:"subtotal"`
	DeliveryFee          int64              `bson:"deliveryFee" json:"deliveryFee"`
	DiscountAmount       int64              `bson:"discountAmount" json:"discountAmount"`
	TotalPrice           int64              `bson:"totalPrice" json:"totalPrice"`
	CouponCode           *string            `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	Status               OrderStatus        `bson:"status" json:"status"`
	PaymentMethod        string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus        PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	PaymentDate          *time.Time         `bson:"paymentDate,omitempty" json:"paymentDate,omitempty"`
	TransactionID        *string            `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	GatewayTransactionID *string            `bson:"gatewayTransactionId,omitempty" json:"gatewayTransactionId,omitempty"`
	RefundID             *string            `bson:"refundId,omitempty" json:"refundId,omitempty"`
	RefundInProgress     bool               `bson:"refundInProgress,omitempty" json:"-"`
	CancelReason         *string            `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	ShippingAddress      ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	CreatedAt            time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RecomputeTotals rebuilds every derived money field from the items. Totals
// are always recomputed whole, never patched incrementally.
func (o *Order) RecomputeTotals() {
	var subtotal int64
	for i := range o.Items {
		o.Items[i].LineTotal = o.Items[i].Price * int64(o.Items[i].Quantity)
		subtotal += o.Items[i].LineTotal
	}
	o.Subtotal = subtotal
	o.TotalPrice = o.Subtotal + o.DeliveryFee - o.DiscountAmount
}
