package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/services"
)

func TestPlaceOrderDeclinedChangesNothing(t *testing.T) {
	store := repos.NewMemoryStorage()
	sess := newShopper(t, store, services.FixedPayment{Approve: false}, services.NewRandomOrderNumbers(1))
	toReview(t, sess, 2)

	cartBefore := raw(t, store, services.KeyCart)
	draftBefore := raw(t, store, services.KeyShippingDetails)
	viewBefore := sess.Checkout.View()

	_, err := sess.Orders.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, services.ErrPaymentDeclined)

	assert.Equal(t, cartBefore, raw(t, store, services.KeyCart))
	assert.Equal(t, draftBefore, raw(t, store, services.KeyShippingDetails))
	assert.Equal(t, 0, sess.History.Len())

	v := sess.Checkout.View()
	assert.Equal(t, domain.StepReview, v.Step)
	assert.Equal(t, services.MsgPaymentFailed, v.Message)
	assert.False(t, v.Processing)
	assert.Equal(t, viewBefore.Shipping, v.Shipping)
	assert.Equal(t, viewBefore.Payment, v.Payment)

	// retry without re-entering anything
	sess.Orders.Payment = services.FixedPayment{Approve: true}
	p, err := sess.Orders.PlaceOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "50.00", p.TotalPrice)
}

func TestPlaceOrderSuccessCommitsEverything(t *testing.T) {
	store := repos.NewMemoryStorage()
	sess := newShopper(t, store, services.FixedPayment{Approve: true}, &services.SequenceOrderNumbers{Nums: []int64{424242}})
	sess.Orders.Now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }
	toReview(t, sess, 2)

	p, err := sess.Orders.PlaceOrder(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(424242), p.OrderNumber)
	assert.Equal(t, "2024-05-01T10:30:00.000Z", p.Date)
	assert.Equal(t, "46.73", p.Subtotal)
	assert.Equal(t, "3.27", p.Tax)
	assert.Equal(t, "50.00", p.TotalPrice)
	require.Len(t, p.OrderSummary, 1)
	assert.Equal(t, "Ring", p.OrderSummary[0].Title)
	assert.Equal(t, "Ann Lee", p.ShippingDetails.Name)

	assert.Equal(t, 1, sess.History.Len())
	assert.True(t, sess.Cart.Empty())
	assert.Equal(t, "[]", raw(t, store, services.KeyCart))
	assert.Equal(t, "424242", raw(t, store, services.KeyOrderNumber))
	assert.Contains(t, raw(t, store, services.KeyOrderTotals), `"totalPrice":"50.00"`)

	v := sess.Checkout.View()
	assert.Equal(t, domain.StepComplete, v.Step)
	assert.Equal(t, services.MsgPaymentSuccess, v.Message)
	assert.Equal(t, int64(424242), v.OrderNumber)

	last, ok := sess.Orders.LastOrder()
	require.True(t, ok)
	assert.Equal(t, int64(424242), last.OrderNumber)
	require.NotNil(t, last.Purchase)
	assert.Equal(t, "50.00", last.Totals.TotalPrice)

	// the placed order survives a restart of the session
	history := services.NewHistoryStore(store).List()
	require.Len(t, history, 1)
	assert.Equal(t, p.OrderNumber, history[0].OrderNumber)
	assert.Equal(t, p.Date, history[0].Date)
	assert.Equal(t, p.ShippingDetails, history[0].ShippingDetails)
	assert.True(t, p.OrderSummary[0].Price.Equal(history[0].OrderSummary[0].Price))

	_, err = sess.Orders.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, services.ErrEmptyCart)
}

func TestPlaceOrderRejectsDoubleInvocation(t *testing.T) {
	release := make(chan struct{})
	sess := newShopper(t, repos.NewMemoryStorage(), services.FixedPayment{Approve: true, Release: release}, services.NewRandomOrderNumbers(3))
	toReview(t, sess, 1)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = sess.Orders.PlaceOrder(context.Background())
	}()
	require.Eventually(t, func() bool { return sess.Checkout.View().Processing }, time.Second, time.Millisecond)

	for i := 0; i < 5; i++ {
		_, err := sess.Orders.PlaceOrder(context.Background())
		assert.ErrorIs(t, err, services.ErrPlacementInProgress)
	}
	_, err := sess.Checkout.Back()
	assert.ErrorIs(t, err, services.ErrPlacementInProgress)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, 1, sess.History.Len())
}

func TestPlaceOrderDiscardsStaleCart(t *testing.T) {
	release := make(chan struct{})
	sess := newShopper(t, repos.NewMemoryStorage(), services.FixedPayment{Approve: true, Release: release}, services.NewRandomOrderNumbers(3))
	toReview(t, sess, 1)

	done := make(chan error)
	go func() {
		_, err := sess.Orders.PlaceOrder(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return sess.Checkout.View().Processing }, time.Second, time.Millisecond)

	require.NoError(t, sess.Cart.Add(item(4, "Shirt", "15.99")))
	close(release)

	assert.ErrorIs(t, <-done, services.ErrCartChanged)
	assert.Equal(t, 0, sess.History.Len())
	assert.Len(t, sess.Cart.Items(), 2)
	v := sess.Checkout.View()
	assert.Equal(t, domain.StepReview, v.Step)
	assert.False(t, v.Processing)
}

func TestPlaceOrderAfterLeavingIsNoop(t *testing.T) {
	release := make(chan struct{})
	sess := newShopper(t, repos.NewMemoryStorage(), services.FixedPayment{Approve: true, Release: release}, services.NewRandomOrderNumbers(3))
	toReview(t, sess, 1)

	done := make(chan error)
	go func() {
		_, err := sess.Orders.PlaceOrder(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return sess.Checkout.View().Processing }, time.Second, time.Millisecond)

	sess.Checkout.Leave()
	close(release)

	assert.ErrorIs(t, <-done, services.ErrCheckoutAbandoned)
	assert.Equal(t, 0, sess.History.Len())
	assert.Len(t, sess.Cart.Items(), 1)
	assert.Equal(t, domain.StepEmpty, sess.Checkout.View().Step)
}

func TestPlaceOrderCancelledWhilePaying(t *testing.T) {
	store := repos.NewMemoryStorage()
	sess := newShopper(t, store, services.NewSimulatedPayment(time.Hour, 1, 1), services.NewRandomOrderNumbers(3))
	toReview(t, sess, 1)
	cartBefore := raw(t, store, services.KeyCart)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		_, err := sess.Orders.PlaceOrder(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return sess.Checkout.View().Processing }, time.Second, time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, cartBefore, raw(t, store, services.KeyCart))
	assert.Equal(t, 0, sess.History.Len())
	v := sess.Checkout.View()
	assert.Equal(t, domain.StepReview, v.Step)
	assert.False(t, v.Processing)
	assert.Empty(t, v.Message)
}

func TestPlaceOrderStorageFailureIsAllOrNothing(t *testing.T) {
	store := newFlaky()
	sess := newShopper(t, store, services.FixedPayment{Approve: true}, services.NewRandomOrderNumbers(3))
	toReview(t, sess, 1)
	cartBefore := raw(t, store, services.KeyCart)

	store.fail(true)
	_, err := sess.Orders.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, errDisk)

	assert.Equal(t, cartBefore, raw(t, store, services.KeyCart))
	assert.Len(t, sess.Cart.Items(), 1)
	assert.Equal(t, 0, sess.History.Len())
	_, ok, _ := store.Get(services.KeyOrderNumber)
	assert.False(t, ok)
	assert.Equal(t, domain.StepReview, sess.Checkout.View().Step)

	store.fail(false)
	_, err = sess.Orders.PlaceOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sess.History.Len())
}

func TestPlaceOrderRequiresReview(t *testing.T) {
	sess := newShopper(t, repos.NewMemoryStorage(), services.FixedPayment{Approve: true}, services.NewRandomOrderNumbers(3))
	_, err := sess.AddToCart(context.Background(), 1)
	require.NoError(t, err)
	sess.BeginCheckout()

	_, err = sess.Orders.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, services.ErrWrongStep)
	assert.Equal(t, 0, sess.History.Len())
}

func TestOrderNumbersUniqueAgainstHistory(t *testing.T) {
	nums := &services.SequenceOrderNumbers{Nums: []int64{7, 7, 8}}
	sess := newShopper(t, repos.NewMemoryStorage(), services.FixedPayment{Approve: true}, nums)

	toReview(t, sess, 4)
	p1, err := sess.Orders.PlaceOrder(context.Background())
	require.NoError(t, err)
	toReview(t, sess, 4)
	p2, err := sess.Orders.PlaceOrder(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(7), p1.OrderNumber)
	assert.Equal(t, int64(8), p2.OrderNumber)
}

func TestOrderNumbersExhausted(t *testing.T) {
	sess := newShopper(t, repos.NewMemoryStorage(), services.FixedPayment{Approve: true}, &services.SequenceOrderNumbers{Nums: []int64{7}})
	toReview(t, sess, 4)
	_, err := sess.Orders.PlaceOrder(context.Background())
	require.NoError(t, err)

	toReview(t, sess, 4)
	_, err = sess.Orders.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, services.ErrOrderNumber)
	assert.Equal(t, 1, sess.History.Len())
	assert.False(t, sess.Cart.Empty())

	// collisions are accepted when uniqueness is off
	sess.Orders.Unique = false
	_, err = sess.Orders.PlaceOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sess.History.Len())
}
