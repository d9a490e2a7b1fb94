package orders_test

import (
	"context"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strconv"
	"sync"
	"testing"
)

func (f *fixture) cancel(t *testing.T, o *orders.Order) *orders.Return {
	t.Helper()
	ret, err := f.returns.Request(context.Background(), f.customer, orders.ReturnInput{OrderID: o.ID.String(), Type: orders.ReturnTypeCancellation})
	require.NoError(t, err)
	return ret
}

func (f *fixture) order(t *testing.T, id uuid.UUID) *orders.Order {
	t.Helper()
	o, err := f.store.GetOrder(context.Background(), id)
	require.NoError(t, err)
	return o
}

func TestCancellationApprovedRestoresStock(t *testing.T) {
	f := newFixture(t)
	f.product(t, 1, "Mug", 10)
	f.product(t, 2, "Tee", 8, orders.SKU{Combination: orders.Combination{"Color": "Red"}, Stock: 4})
	tee := item(2, 2)
	tee.Variant = orders.Combination{"Color": "Red"}
	o := f.place(t, item(1, 3), tee)
	f.store.SetOrderStatus(o.ID, orders.StatusConfirmed)

	ret := f.cancel(t, o)
	assert.Equal(t, orders.StatusCancellationRequested, f.order(t, o.ID).Status)
	assert.Equal(t, orders.StatusConfirmed, ret.PreviousOrderStatus)
	assert.Regexp(t, `^CAN-\d+$`, ret.Ref)
	assert.Equal(t, "Whole Order Cancellation", ret.Product.Name)
	assert.Equal(t, "User requested cancellation", ret.Reason)

	_, err := f.returns.UpdateStatus(context.Background(), ret.ID.String(), orders.ReturnStatusInput{Status: orders.ReturnApproved})
	require.NoError(t, err)

	assert.Equal(t, orders.StatusCancelled, f.order(t, o.ID).Status)
	assert.Equal(t, 10, f.stock(t, 1))
	p, err := f.store.GetProduct(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)
	assert.Equal(t, 4, p.SKUs[0].Stock)
	assert.Contains(t, f.events.topics(), orders.TopicOrderCancelled)
	assert.Contains(t, f.events.topics(), orders.TopicReturnUpdated)
}

func TestCancellationNotAllowedOnceDispatched(t *testing.T) {
	f := newFixture(t)
	f.product(t, 1, "Mug", 10)
	o := f.place(t, item(1, 1))
	f.store.SetOrderStatus(o.ID, orders.StatusDispatched)

	_, err := f.returns.Request(context.Background(), f.customer, orders.ReturnInput{OrderID: o.ID.String(), Type: orders.ReturnTypeCancellation})
	require.ErrorIs(t, err, orders.ErrValidation)
	assert.EqualError(t, err, "Order cannot be cancelled in its current status: Dispatched")

	assert.Equal(t, orders.StatusDispatched, f.order(t, o.ID).Status)
	all, err := f.store.ListReturns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCancellationRejectedRestoresPreviousStatus(t *testing.T) {
	f := newFixture(t)
	f.product(t, 1, "Mug", 10)
	o := f.place(t, item(1, 2))
	f.store.SetOrderStatus(o.ID, orders.StatusConfirmed)

	ret := f.cancel(t, o)
	_, err := f.returns.UpdateStatus(context.Background(), ret.Ref, orders.ReturnStatusInput{Status: orders.ReturnRejected, Note: "already packed"})
	require.NoError(t, err)

	assert.Equal(t, orders.StatusConfirmed, f.order(t, o.ID).Status)
	assert.Equal(t, 8, f.stock(t, 1), "rejection does not restore stock")
}

func TestCancellationApprovedTwiceRestoresOnce(t *testing.T) {
	f := newFixture(t)
	f.product(t, 1, "Mug", 10)
	o := f.place(t, item(1, 4))
	ret := f.cancel(t, o)
	ctx := context.Background()

	_, err := f.returns.UpdateStatus(ctx, ret.ID.String(), orders.ReturnStatusInput{Status: orders.ReturnApproved})
	require.NoError(t, err)
	_, err = f.returns.UpdateStatus(ctx, ret.ID.String(), orders.ReturnStatusInput{Status: orders.ReturnApproved, Note: "again"})
	require.NoError(t, err)
	_, err = f.returns.UpdateStatus(ctx, ret.ID.String(), orders.ReturnStatusInput{Status: orders.ReturnCompleted})
	require.NoError(t, err)

	assert.Equal(t, 10, f.stock(t, 1))
}

func TestConcurrentApprovalsRestoreOnce(t *testing.T) {
	f := newFixture(t)
	f.product(t, 1, "Mug", 10)
	o := f.place(t, item(1, 4))
	ret := f.cancel(t, o)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.returns.UpdateStatus(context.Background(), ret.ID.String(), orders.ReturnStatusInput{Status: orders.ReturnApproved})
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, f.stock(t, 1))
}

func TestTerminalReturnRejectsTransitions(t *testing.T) {
	f := newFixture(t)
	f.product(t, 1, "Mug", 10)
	o := f.place(t, item(1, 1))
	ctx := context.Background()

	ret, err := f.returns.Request(ctx, f.customer, orders.ReturnInput{OrderID: o.ID.String(), ProductID: "1", Reason: "Damaged", Type: orders.ReturnTypeReturn})
	require.NoError(t, err)
	_, err = f.returns.UpdateStatus(ctx, ret.ID.String(), orders.ReturnStatusInput{Status: orders.ReturnCompleted})
	require.NoError(t, err)

	_, err = f.returns.UpdateStatus(ctx, ret.ID.String(), orders.ReturnStatusInput{Status: orders.ReturnApproved})
	require.ErrorIs(t, err, orders.ErrConflict)

	got, err := f.store.GetReturn(ctx, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.ReturnCompleted, got.Status)
	assert.Len(t, got.Timeline, 2)
}

func TestReturnLifecycleTracksLineItem(t *testing.T) {
	f := newFixture(t)
	f.product(t, 1, "Mug", 10)
	f.product(t, 2, "Mug", 10) // same name, different product
	o := f.place(t, item(1, 1), item(2, 1))
	ctx := context.Background()
	second := o.Items[1]

	ret, err := f.returns.Request(ctx, f.customer, orders.ReturnInput{
		OrderID:                  o.ID.String(),
		ProductID:                second.ID.String(),
		Reason:                   "Wrong size",
		Type:                     orders.ReturnTypeReplacement,
		Comment:                  "please swap",
		SelectedReplacementSize:  "L",
		SelectedReplacementColor: "Black",
	})
	require.NoError(t, err)
	require.NotNil(t, ret.LineItemID)
	assert.Equal(t, second.ID, *ret.LineItemID)
	assert.Regexp(t, `^RET-\d+$`, ret.Ref)
	assert.Equal(t, "please swap [Replacement: Size L, Color Black]", ret.Comment)
	assert.Equal(t, "Replacement request initiated", ret.Timeline[0].Note)

	got := f.order(t, o.ID)
	assert.Equal(t, "", got.Items[0].Status)
	assert.Equal(t, "Replacement Requested", got.Items[1].Status)

	_, err = f.returns.UpdateStatus(ctx, ret.ID.String(), orders.ReturnStatusInput{Status: orders.ReturnPickupScheduled})
	require.NoError(t, err)
	assert.Equal(t, "Pickup Scheduled", f.order(t, o.ID).Items[1].Status)

	_, err = f.returns.UpdateStatus(ctx, ret.ID.String(), orders.ReturnStatusInput{Status: orders.ReturnCompleted})
	require.NoError(t, err)
	got = f.order(t, o.ID)
	assert.Equal(t, "Replaced", got.Items[1].Status)
	assert.Equal(t, "", got.Items[0].Status)

	notes := f.notifications(t, orders.NotificationReturn)
	require.Len(t, notes, 1)
	assert.Equal(t, "New Replacement Request", notes[0].Title)
}

func TestReturnRejectedMarksItemDelivered(t *testing.T) {
	f := newFixture(t)
	f.product(t, 7, "Lamp", 10)
	o := f.place(t, item(7, 1))
	ctx := context.Background()

	ret, err := f.returns.Request(ctx, f.customer, orders.ReturnInput{OrderID: o.ID.String(), ProductID: strconv.Itoa(7), Reason: "Changed mind", Type: orders.ReturnTypeReturn})
	require.NoError(t, err)
	assert.Equal(t, "Return Requested", f.order(t, o.ID).Items[0].Status)

	_, err = f.returns.UpdateStatus(ctx, ret.ID.String(), orders.ReturnStatusInput{Status: orders.ReturnRejected})
	require.NoError(t, err)
	assert.Equal(t, "Delivered", f.order(t, o.ID).Items[0].Status)
}

func TestOneOpenReturnPerLineItem(t *testing.T) {
	f := newFixture(t)
	f.product(t, 1, "Mug", 10)
	o := f.place(t, item(1, 1))
	ctx := context.Background()
	in := orders.ReturnInput{OrderID: o.ID.String(), ProductID: "1", Reason: "Cracked", Type: orders.ReturnTypeReturn}

	ret, err := f.returns.Request(ctx, f.customer, in)
	require.NoError(t, err)
	_, err = f.returns.Request(ctx, f.customer, in)
	require.ErrorIs(t, err, orders.ErrConflict)

	_, err = f.returns.UpdateStatus(ctx, ret.ID.String(), orders.ReturnStatusInput{Status: orders.ReturnRejected})
	require.NoError(t, err)
	_, err = f.returns.Request(ctx, f.customer, in)
	require.NoError(t, err, "a closed return frees the line item")
}

func TestConcurrentReturnRequestsOpenOne(t *testing.T) {
	f := newFixture(t)
	f.product(t, 1, "Mug", 10)
	o := f.place(t, item(1, 1))
	in := orders.ReturnInput{OrderID: o.ID.String(), ProductID: "1", Reason: "Cracked", Type: orders.ReturnTypeReturn}

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.returns.Request(context.Background(), f.customer, in)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, orders.ErrConflict)
	}
	assert.Equal(t, 1, ok)
	list, err := f.store.ListReturns(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReturnRequestValidation(t *testing.T) {
	f := newFixture(t)
	f.product(t, 1, "Mug", 10)
	o := f.place(t, item(1, 1))
	ctx := context.Background()

	_, err := f.returns.Request(ctx, f.customer, orders.ReturnInput{OrderID: o.ID.String(), Type: "Refund"})
	require.ErrorIs(t, err, orders.ErrValidation)

	_, err = f.returns.Request(ctx, f.customer, orders.ReturnInput{OrderID: "nope", Type: orders.ReturnTypeReturn})
	assert.EqualError(t, err, "Invalid order ID format")

	_, err = f.returns.Request(ctx, f.customer, orders.ReturnInput{OrderID: uuid.NewString(), Type: orders.ReturnTypeReturn})
	require.ErrorIs(t, err, orders.ErrNotFound)

	_, err = f.returns.Request(ctx, orders.Identity{ID: "u-2"}, orders.ReturnInput{OrderID: o.ID.String(), ProductID: "1", Reason: "x", Type: orders.ReturnTypeReturn})
	require.ErrorIs(t, err, orders.ErrForbidden)

	_, err = f.returns.Request(ctx, f.customer, orders.ReturnInput{OrderID: o.ID.String(), ProductID: "99", Reason: "x", Type: orders.ReturnTypeReturn})
	assert.EqualError(t, err, "Product not found in order")

	_, err = f.returns.Request(ctx, f.customer, orders.ReturnInput{OrderID: o.ID.String(), ProductID: "1", Type: orders.ReturnTypeReturn})
	assert.EqualError(t, err, "Reason is required")
}

func TestUpdateReturnStatusValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.returns.UpdateStatus(ctx, "RET-1", orders.ReturnStatusInput{Status: orders.ReturnApproved})
	require.ErrorIs(t, err, orders.ErrNotFound)
	assert.EqualError(t, err, "Return request not found")

	f.product(t, 1, "Mug", 10)
	o := f.place(t, item(1, 1))
	ret := f.cancel(t, o)

	_, err = f.returns.UpdateStatus(ctx, ret.Ref, orders.ReturnStatusInput{})
	assert.EqualError(t, err, "Status is required")
	_, err = f.returns.UpdateStatus(ctx, ret.Ref, orders.ReturnStatusInput{Status: "Lost"})
	require.ErrorIs(t, err, orders.ErrValidation)
}

func TestReturnViewsCarryDisplayID(t *testing.T) {
	f := newFixture(t)
	f.product(t, 1, "Mug", 10)
	o := f.place(t, item(1, 1))
	f.cancel(t, o)
	ctx := context.Background()

	mine, err := f.returns.Mine(ctx, f.customer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, o.DisplayID, mine[0].OrderDisplayID)

	others, err := f.returns.Mine(ctx, orders.Identity{ID: "u-2"})
	require.NoError(t, err)
	assert.Empty(t, others)

	all, err := f.returns.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
