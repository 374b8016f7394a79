package coupon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/models"
)

// memStore honors the Store contract: the limit check and the increment are
// one operation under the lock, mirroring the conditional Mongo update.
type memStore struct {
	mu      sync.Mutex
	coupons map[string]*models.Coupon
}

func newMemStore(coupons ...models.Coupon) *memStore {
	s := &memStore{coupons: make(map[string]*models.Coupon)}
	for i := range coupons {
		c := coupons[i]
		s.coupons[c.Code] = &c
	}
	return s
}

func (s *memStore) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[code]
	if !ok {
		return nil, ErrCouponNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *memStore) IncrementUsage(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coupons[code]
	if !ok {
		return ErrCouponNotFound
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return ErrCouponExhausted
	}
	c.UsedCount++
	return nil
}

func TestLedgerValidateUnknownCode(t *testing.T) {
	ledger := NewLedger(newMemStore())

	_, _, err := ledger.Validate(context.Background(), "NOPE", 50000)
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestLedgerValidateReturnsDiscount(t *testing.T) {
	c := validCoupon()
	ledger := NewLedger(newMemStore(c))

	discount, got, err := ledger.Validate(context.Background(), c.Code, 85000)
	require.NoError(t, err)
	assert.Equal(t, int64(8500), discount)
	assert.Equal(t, c.Code, got.Code)
}

func TestLedgerValidateRedeemValidateRoundTrip(t *testing.T) {
	c := validCoupon()
	c.UsageLimit = int64Ptr(1)
	ledger := NewLedger(newMemStore(c))
	ctx := context.Background()

	_, _, err := ledger.Validate(ctx, c.Code, 85000)
	require.NoError(t, err)

	require.NoError(t, ledger.Redeem(ctx, c.Code))

	// Same amount, but the only slot is gone now.
	_, _, err = ledger.Validate(ctx, c.Code, 85000)
	assert.ErrorIs(t, err, ErrCouponExhausted)
}

func TestLedgerValidateDoesNotConsumeUsage(t *testing.T) {
	c := validCoupon()
	c.UsageLimit = int64Ptr(1)
	store := newMemStore(c)
	ledger := NewLedger(store)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, _, err := ledger.Validate(ctx, c.Code, 85000)
		require.NoError(t, err)
	}

	got, err := store.FindByCode(ctx, c.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.UsedCount)
}

func TestLedgerConcurrentRedemptionLastSlot(t *testing.T) {
	c := validCoupon()
	c.UsageLimit = int64Ptr(5)
	c.UsedCount = 4
	store := newMemStore(c)
	ledger := NewLedger(store)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- ledger.Redeem(context.Background(), c.Code)
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrCouponExhausted)
			losses++
		}
	}

	assert.Equal(t, 1, wins, "exactly one redemption may take the last slot")
	assert.Equal(t, attempts-1, losses)

	got, err := store.FindByCode(context.Background(), c.Code)
	require.NoError(t, err)
	assert.Equal(t, *got.UsageLimit, got.UsedCount, "usedCount must never exceed usageLimit")
}

func TestLedgerUsesInjectedClock(t *testing.T) {
	c := validCoupon()
	c.ExpirationDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ledger := NewLedger(newMemStore(c))
	ledger.now = func() time.Time { return time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) }

	_, _, err := ledger.Validate(context.Background(), c.Code, 85000)
	assert.ErrorIs(t, err, ErrCouponExpired)
}
