package order

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

// Filter narrows admin order listings. AND semantics across fields.
type Filter struct {
	Status *models.OrderStatus
	From   *time.Time
	To     *time.Time
}

// Store is the persistence contract for orders. Every state transition is a
// single conditional update so concurrent actors cannot interleave a
// read-then-write race.
type Store interface {
	Insert(ctx context.Context, o *models.Order) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	List(ctx context.Context, f Filter, page, limit int64) ([]models.Order, int64, error)

	// SetStatus moves the fulfillment status, conditional on the order not
	// already sitting in a terminal state; reports whether the transition
	// happened.
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (bool, error)
	// CancelIfPending flips status to canceled only while it is still
	// pending; reports whether the transition happened.
	CancelIfPending(ctx context.Context, id primitive.ObjectID, reason string) (bool, error)
	SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus, method string, when time.Time) error
	// MarkPaidByTransactionID resolves a verified gateway callback: flips
	// paymentStatus pending->paid for the order correlated by appTransID,
	// records the gateway transaction id and payment date, and advances a
	// pending fulfillment status to confirmed. Returns the updated order and
	// whether the transition happened; an unknown id or an already-paid
	// order is (nil, false, nil) so redelivered callbacks stay no-ops.
	MarkPaidByTransactionID(ctx context.Context, appTransID string, zpTransID int64, when time.Time) (*models.Order, bool, error)
	// BeginRefund claims the order for refunding: a single conditional
	// update that succeeds only while the order is neither refunded nor
	// already claimed. Reports whether the claim was won; the loser must
	// not reach the gateway.
	BeginRefund(ctx context.Context, id primitive.ObjectID) (bool, error)
	// AbortRefund releases a claim after a failed gateway call so the
	// refund can be retried.
	AbortRefund(ctx context.Context, id primitive.ObjectID) error
	// MarkRefunded records a gateway-confirmed refund: paymentStatus
	// refunded, fulfillment canceled, refund id stored, claim released.
	MarkRefunded(ctx context.Context, id primitive.ObjectID, refundID string) error
}
