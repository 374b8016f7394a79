// Package order owns the order lifecycle: creation, the fulfillment and
// payment state machines, and reconciliation against gateway callbacks.
package order

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/events"
	"backend/internal/models"
	"backend/internal/notify"
	"backend/internal/pricing"
	"backend/internal/zalopay"
)

// Actor identifies who is performing an operation. Admins bypass ownership
// checks.
type Actor struct {
	UserID  primitive.ObjectID
	IsAdmin bool
}

type CouponLedger interface {
	Validate(ctx context.Context, code string, orderAmount int64) (int64, *models.Coupon, error)
	Redeem(ctx context.Context, code string) error
}

type CartReconciler interface {
	ReconcileAfterOrder(ctx context.Context, userID primitive.ObjectID, orderedProductIDs []primitive.ObjectID) error
}

type Catalog interface {
	GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

type Notifier interface {
	NotifyUser(ctx context.Context, userID primitive.ObjectID, n notify.Input) error
	NotifyAdmin(ctx context.Context, n notify.Input) error
}

type Gateway interface {
	CreatePayment(ctx context.Context, p zalopay.CreateOrderParams) (*zalopay.CreateResponse, error)
	Refund(ctx context.Context, p zalopay.RefundParams) (*zalopay.RefundResponse, string, error)
}

type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Deps struct {
	Store       Store
	Tx          TxRunner
	Coupons     CouponLedger
	Carts       CartReconciler
	Catalog     Catalog
	Notifier    Notifier
	Publisher   events.Publisher
	Gateway     Gateway
	DeliveryFee int64
}

type Service struct {
	store       Store
	tx          TxRunner
	coupons     CouponLedger
	carts       CartReconciler
	catalog     Catalog
	notifier    Notifier
	publisher   events.Publisher
	gateway     Gateway
	deliveryFee int64
	now         func() time.Time
}

func NewService(d Deps) *Service {
	return &Service{
		store:       d.Store,
		tx:          d.Tx,
		coupons:     d.Coupons,
		carts:       d.Carts,
		catalog:     d.Catalog,
		notifier:    d.Notifier,
		publisher:   d.Publisher,
		gateway:     d.Gateway,
		deliveryFee: d.DeliveryFee,
		now:         time.Now,
	}
}

type CreateItemInput struct {
	ProductID string
	Quantity  int
}

type CreateInput struct {
	Items           []CreateItemInput
	CouponCode      string
	PaymentMethod   string
	ShippingAddress models.ShippingAddress
}

type CreateResult struct {
	Order        *models.Order
	PaymentURL   string
	PaymentToken string
}

// Create converts a priced, coupon-adjusted request into a persisted order.
// Coupon redemption and the order insert commit together; a failed
// redemption aborts the whole creation. Cart reconciliation and
// notifications run after commit and are best-effort.
func (s *Service) Create(ctx context.Context, userID primitive.ObjectID, in CreateInput) (*CreateResult, error) {
	lines, err := s.validateCreateInput(in)
	if err != nil {
		return nil, err
	}

	products := make(map[string]models.Product, len(lines))
	for _, line := range lines {
		p, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, pricing.ProductNotFoundError{ProductID: line.ProductID}
		}
		products[line.ProductID.Hex()] = *p
	}

	items, subtotal, err := pricing.PriceItems(lines, products)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o := &models.Order{
		UserID:          userID,
		Items:           items,
		Subtotal:        subtotal,
		DeliveryFee:     s.deliveryFee,
		Status:          models.StatusPending,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   models.PaymentPending,
		ShippingAddress: in.ShippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if in.CouponCode != "" {
		discount, _, err := s.coupons.Validate(ctx, in.CouponCode, subtotal+s.deliveryFee)
		if err != nil {
			return nil, err
		}
		code := in.CouponCode
		o.CouponCode = &code
		o.DiscountAmount = discount
	}
	o.RecomputeTotals()

	var appTransID string
	if in.PaymentMethod == models.PaymentMethodZaloPay {
		// The correlation key goes onto the order before the gateway ever
		// sees the request; a callback racing the response still finds it.
		appTransID = zalopay.NewAppTransID(now)
		o.TransactionID = &appTransID
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if o.CouponCode != nil {
			if err := s.coupons.Redeem(txCtx, *o.CouponCode); err != nil {
				return err
			}
		}
		id, err := s.store.Insert(txCtx, o)
		if err != nil {
			return err
		}
		o.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CreateResult{Order: o}
	if in.PaymentMethod == models.PaymentMethodZaloPay {
		resp, err := s.gateway.CreatePayment(ctx, zalopay.CreateOrderParams{
			AppTransID:  appTransID,
			AppUser:     userID.Hex(),
			Amount:      o.TotalPrice,
			Description: fmt.Sprintf("Payment for order %s", o.ID.Hex()),
			Items:       gatewayItems(o.Items),
			EmbedData:   map[string]string{"orderId": o.ID.Hex()},
		})
		if err != nil {
			// The order is persisted with its transactionId; the status
			// query path recovers it once the gateway is reachable again.
			return nil, fmt.Errorf("payment session for order %s: %w", o.ID.Hex(), err)
		}
		result.PaymentURL = resp.OrderURL
		result.PaymentToken = resp.ZPTransToken
	}

	s.afterCreate(ctx, o)
	return result, nil
}

func (s *Service) validateCreateInput(in CreateInput) ([]pricing.Line, error) {
	if len(in.Items) == 0 {
		return nil, ValidationError{Msg: "at least one item is required"}
	}
	if in.PaymentMethod != models.PaymentMethodCash && in.PaymentMethod != models.PaymentMethodZaloPay {
		return nil, ValidationError{Msg: "invalid payment method"}
	}
	if in.ShippingAddress.ReceiverName == "" || in.ShippingAddress.Phone == "" || in.ShippingAddress.Address == "" {
		return nil, ValidationError{Msg: "shipping address is incomplete"}
	}

	lines := make([]pricing.Line, 0, len(in.Items))
	for _, item := range in.Items {
		productID, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return nil, ValidationError{Msg: "invalid productId"}
		}
		lines = append(lines, pricing.Line{ProductID: productID, Quantity: item.Quantity})
	}
	return lines, nil
}

func (s *Service) afterCreate(ctx context.Context, o *models.Order) {
	orderedIDs := make([]primitive.ObjectID, 0, len(o.Items))
	for _, item := range o.Items {
		orderedIDs = append(orderedIDs, item.ProductID)
	}
	// Crash between the order commit and here leaves stale cart lines; an
	// accepted inconsistency window, there is no compensating transaction.
	if err := s.carts.ReconcileAfterOrder(ctx, o.UserID, orderedIDs); err != nil {
		slog.Error("cart reconciliation failed", "orderId", o.ID.Hex(), "error", err)
	}

	s.publish(ctx, events.KeyOrderCreated, events.OrderCreated{
		OrderID:    o.ID.Hex(),
		UserID:     o.UserID.Hex(),
		TotalPrice: o.TotalPrice,
		CouponCode: couponCodeOrEmpty(o),
	})
	if o.CouponCode != nil {
		s.publish(ctx, events.KeyCouponRedeemed, events.CouponRedeemed{Code: *o.CouponCode, OrderID: o.ID.Hex()})
	}

	s.notifyUser(ctx, o.UserID, notify.Input{
		Title:   "Order placed",
		Message: fmt.Sprintf("Your order %s has been placed.", o.ID.Hex()),
		Type:    models.NotificationTypeOrder,
		OrderID: &o.ID,
	})
	s.notifyAdmin(ctx, notify.Input{
		Title:   "New order",
		Message: fmt.Sprintf("Order %s was placed (%d VND).", o.ID.Hex(), o.TotalPrice),
		Type:    models.NotificationTypeOrder,
		OrderID: &o.ID,
	})
}

// GetByID returns an order to its owner or an admin.
func (s *Service) GetByID(ctx context.Context, id primitive.ObjectID, actor Actor) (*models.Order, error) {
	o, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && o.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *Service) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) List(ctx context.Context, f Filter, page, limit int64) ([]models.Order, int64, error) {
	return s.store.List(ctx, f, page, limit)
}

// UpdateStatus sets the fulfillment status. Admins may set any enumerated
// value without ordering checks, but nothing leaves a terminal state.
func (s *Service) UpdateStatus(ctx context.Context, id primitive.ObjectID, newStatus models.OrderStatus, actor Actor) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}

	o, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if o.Status.IsTerminal() {
		return ConflictError{Msg: fmt.Sprintf("order is already %s", o.Status)}
	}

	// The store rejects the write if the order went terminal since the read.
	ok, err := s.store.SetStatus(ctx, id, newStatus)
	if err != nil {
		return err
	}
	if !ok {
		return ConflictError{Msg: "order is in a terminal state"}
	}

	s.notifyUser(ctx, o.UserID, notify.Input{
		Title:   "Order updated",
		Message: fmt.Sprintf("Your order %s is now %s.", id.Hex(), newStatus),
		Type:    models.NotificationTypeOrder,
		OrderID: &id,
	})
	return nil
}

// Cancel is allowed only to the order's owner or an admin and only while the
// order is still pending; any other status, including canceled itself, is a
// conflict.
func (s *Service) Cancel(ctx context.Context, id primitive.ObjectID, reason string, actor Actor) error {
	o, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin && o.UserID != actor.UserID {
		return ErrForbidden
	}

	ok, err := s.store.CancelIfPending(ctx, id, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ConflictError{Msg: "only pending orders can be canceled"}
	}

	s.publish(ctx, events.KeyOrderCanceled, events.OrderCanceled{OrderID: id.Hex(), Reason: reason})
	s.notifyUser(ctx, o.UserID, notify.Input{
		Title:   "Order canceled",
		Message: fmt.Sprintf("Your order %s was canceled.", id.Hex()),
		Type:    models.NotificationTypeOrder,
		OrderID: &id,
	})
	s.notifyAdmin(ctx, notify.Input{
		Title:   "Order canceled",
		Message: fmt.Sprintf("Order %s was canceled: %s", id.Hex(), reason),
		Type:    models.NotificationTypeOrder,
		OrderID: &id,
	})
	return nil
}

// UpdatePaymentStatus handles manual payment bookkeeping: pending->paid and
// pending->failed are the only legal transitions.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, newStatus models.PaymentStatus, method string, actor Actor) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}

	o, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if o.PaymentStatus != models.PaymentPending {
		return ConflictError{Msg: fmt.Sprintf("payment is already %s", o.PaymentStatus)}
	}
	if newStatus != models.PaymentPaid && newStatus != models.PaymentFailed {
		return ConflictError{Msg: fmt.Sprintf("cannot move payment from pending to %s", newStatus)}
	}

	if err := s.store.SetPaymentStatus(ctx, id, newStatus, method, s.now()); err != nil {
		return err
	}

	if newStatus == models.PaymentPaid {
		s.notifyAdmin(ctx, notify.Input{
			Title:   "Payment received",
			Message: fmt.Sprintf("Order %s was marked paid.", id.Hex()),
			Type:    models.NotificationTypePayment,
			OrderID: &id,
		})
	}
	return nil
}

// ApplyGatewayCallback reconciles a verified gateway callback with the
// order it correlates to. Idempotent under at-least-once delivery: a
// redelivered or unknown callback mutates nothing and still succeeds, per
// provider requirements.
func (s *Service) ApplyGatewayCallback(ctx context.Context, appTransID string, zpTransID int64) error {
	o, transitioned, err := s.store.MarkPaidByTransactionID(ctx, appTransID, zpTransID, s.now())
	if err != nil {
		return err
	}
	if !transitioned {
		slog.Info("gateway callback matched no pending order", "appTransId", appTransID)
		return nil
	}

	s.publish(ctx, events.KeyPaymentReconciled, events.PaymentReconciled{
		OrderID:    o.ID.Hex(),
		AppTransID: appTransID,
		ZPTransID:  zpTransID,
	})
	s.notifyUser(ctx, o.UserID, notify.Input{
		Title:   "Payment confirmed",
		Message: fmt.Sprintf("Payment for order %s was confirmed.", o.ID.Hex()),
		Type:    models.NotificationTypePayment,
		OrderID: &o.ID,
	})
	s.notifyAdmin(ctx, notify.Input{
		Title:   "Payment received",
		Message: fmt.Sprintf("Order %s was paid via %s.", o.ID.Hex(), models.PaymentMethodZaloPay),
		Type:    models.NotificationTypePayment,
		OrderID: &o.ID,
	})
	return nil
}

// Refund reverses a gateway payment. All local preconditions are checked
// before any gateway call; a provider refusal surfaces its message without
// mutating the order.
func (s *Service) Refund(ctx context.Context, id primitive.ObjectID, reason string, actor Actor) (string, error) {
	if !actor.IsAdmin {
		return "", ErrForbidden
	}

	o, err := s.store.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if o.PaymentMethod != models.PaymentMethodZaloPay {
		return "", ConflictError{Msg: "only gateway payments can be refunded"}
	}
	if o.GatewayTransactionID == nil {
		return "", ConflictError{Msg: "order has no gateway transaction"}
	}
	if o.PaymentStatus == models.PaymentRefunded {
		return "", ConflictError{Msg: "order is already refunded"}
	}

	zpTransID, err := strconv.ParseInt(*o.GatewayTransactionID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("malformed gateway transaction id %q: %w", *o.GatewayTransactionID, err)
	}

	// Claim the order before touching the gateway: of two concurrent refund
	// requests, exactly one wins the conditional update and only the winner
	// sends money back.
	ok, err := s.store.BeginRefund(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ConflictError{Msg: "refund already in progress or completed"}
	}

	_, refundID, err := s.gateway.Refund(ctx, zalopay.RefundParams{
		ZPTransID:   zpTransID,
		Amount:      o.TotalPrice,
		Description: reason,
	})
	if err != nil {
		// Release the claim so the refund can be retried once the gateway
		// recovers.
		if abortErr := s.store.AbortRefund(ctx, id); abortErr != nil {
			slog.Error("failed to release refund claim", "orderId", id.Hex(), "error", abortErr)
		}
		return "", err
	}

	if err := s.store.MarkRefunded(ctx, id, refundID); err != nil {
		return "", err
	}

	s.publish(ctx, events.KeyOrderRefunded, events.OrderRefunded{
		OrderID:  id.Hex(),
		RefundID: refundID,
		Amount:   o.TotalPrice,
	})
	s.notifyUser(ctx, o.UserID, notify.Input{
		Title:   "Order refunded",
		Message: fmt.Sprintf("Order %s was refunded (%d VND).", id.Hex(), o.TotalPrice),
		Type:    models.NotificationTypePayment,
		OrderID: &id,
	})
	return refundID, nil
}

func gatewayItems(items []models.OrderItem) []zalopay.Item {
	out := make([]zalopay.Item, 0, len(items))
	for _, item := range items {
		out = append(out, zalopay.Item{
			ItemID:       item.ProductID.Hex(),
			ItemName:     item.Name,
			ItemPrice:    item.Price,
			ItemQuantity: item.Quantity,
		})
	}
	return out
}

func couponCodeOrEmpty(o *models.Order) string {
	if o.CouponCode == nil {
		return ""
	}
	return *o.CouponCode
}

func (s *Service) publish(ctx context.Context, key string, payload any) {
	if err := s.publisher.Publish(ctx, key, payload); err != nil {
		slog.Error("event publish failed", "routingKey", key, "error", err)
	}
}

func (s *Service) notifyUser(ctx context.Context, userID primitive.ObjectID, n notify.Input) {
	if err := s.notifier.NotifyUser(ctx, userID, n); err != nil {
		slog.Error("user notification failed", "userId", userID.Hex(), "error", err)
	}
}

func (s *Service) notifyAdmin(ctx context.Context, n notify.Input) {
	if err := s.notifier.NotifyAdmin(ctx, n); err != nil {
		slog.Error("admin notification failed", "error", err)
	}
}
