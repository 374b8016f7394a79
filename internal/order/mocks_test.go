package order

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
	"backend/internal/notify"
	"backend/internal/zalopay"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Insert(ctx context.Context, o *models.Order) (primitive.ObjectID, error) {
	args := m.Called(ctx, o)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *mockStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockStore) List(ctx context.Context, f Filter, page, limit int64) ([]models.Order, int64, error) {
	args := m.Called(ctx, f, page, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Order), args.Get(1).(int64), args.Error(2)
}

func (m *mockStore) SetStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (bool, error) {
	args := m.Called(ctx, id, status)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) CancelIfPending(ctx context.Context, id primitive.ObjectID, reason string) (bool, error) {
	args := m.Called(ctx, id, reason)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus, method string, when time.Time) error {
	args := m.Called(ctx, id, status, method, when)
	return args.Error(0)
}

func (m *mockStore) MarkPaidByTransactionID(ctx context.Context, appTransID string, zpTransID int64, when time.Time) (*models.Order, bool, error) {
	args := m.Called(ctx, appTransID, zpTransID, when)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Order), args.Bool(1), args.Error(2)
}

func (m *mockStore) BeginRefund(ctx context.Context, id primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) AbortRefund(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockStore) MarkRefunded(ctx context.Context, id primitive.ObjectID, refundID string) error {
	args := m.Called(ctx, id, refundID)
	return args.Error(0)
}

type mockCoupons struct {
	mock.Mock
}

func (m *mockCoupons) Validate(ctx context.Context, code string, orderAmount int64) (int64, *models.Coupon, error) {
	args := m.Called(ctx, code, orderAmount)
	if args.Get(1) == nil {
		return args.Get(0).(int64), nil, args.Error(2)
	}
	return args.Get(0).(int64), args.Get(1).(*models.Coupon), args.Error(2)
}

func (m *mockCoupons) Redeem(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

type mockCarts struct {
	mock.Mock
}

func (m *mockCarts) ReconcileAfterOrder(ctx context.Context, userID primitive.ObjectID, orderedProductIDs []primitive.ObjectID) error {
	args := m.Called(ctx, userID, orderedProductIDs)
	return args.Error(0)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyUser(ctx context.Context, userID primitive.ObjectID, n notify.Input) error {
	args := m.Called(ctx, userID, n)
	return args.Error(0)
}

func (m *mockNotifier) NotifyAdmin(ctx context.Context, n notify.Input) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreatePayment(ctx context.Context, p zalopay.CreateOrderParams) (*zalopay.CreateResponse, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*zalopay.CreateResponse), args.Error(1)
}

func (m *mockGateway) Refund(ctx context.Context, p zalopay.RefundParams) (*zalopay.RefundResponse, string, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*zalopay.RefundResponse), args.String(1), args.Error(2)
}

// passthroughTx runs the transaction body directly; transactional semantics
// are the Mongo runner's concern, the service only cares about ordering.
type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
