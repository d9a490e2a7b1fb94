package postgres

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-storefront-orders/internal/inventory"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"os"
	"testing"
	"time"
)

var (
	_ orders.ProductStore      = (*Store)(nil)
	_ orders.OrderStore        = (*Store)(nil)
	_ orders.ReturnStore       = (*Store)(nil)
	_ orders.NotificationStore = (*Store)(nil)
	_ orders.ZoneStore         = (*Store)(nil)
	_ inventory.StockStore     = (*Store)(nil)
)

// testStore connects to POSTGRES_TEST_DSN; the tests are skipped without it.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	return New(pool)
}

func productID() int64 { return time.Now().UnixNano() % 1_000_000_000_000 }

func TestAdjustStockNeverOversells(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	red := orders.Combination{"Color": "Red"}
	p := &orders.Product{ID: productID(), Name: "Lamp", Price: decimal.RequireFromString("499.00"), Stock: 8,
		SKUs: []orders.SKU{{Combination: red, Stock: 5}, {Combination: orders.Combination{"Color": "Blue"}, Stock: 3}}}
	require.NoError(t, s.CreateProduct(ctx, p))

	results := make([]error, 12)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			_, results[i] = s.AdjustStock(ctx, p.ID, red, -1)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok, short := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, orders.ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 5, ok)
	assert.Equal(t, 7, short)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
	assert.Equal(t, 0, got.SKUs[0].Stock)
	assert.Equal(t, 3, got.SKUs[1].Stock)
}

func TestAdjustStockShortfall(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	p := &orders.Product{ID: productID(), Name: "Kettle", Stock: 2}
	require.NoError(t, s.CreateProduct(ctx, p))

	_, err := s.AdjustStock(ctx, p.ID, nil, -3)
	var se *orders.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Available)
	assert.Equal(t, "Kettle", se.Name)

	_, err = s.AdjustStock(ctx, p.ID, orders.Combination{"Size": "XL"}, -1)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 0, se.Available)

	lvl, err := s.AdjustStock(ctx, p.ID, orders.Combination{"Size": "XL"}, 4)
	require.NoError(t, err)
	assert.Equal(t, 6, lvl.Stock)
	assert.Equal(t, -1, lvl.SKUIndex)

	_, err = s.AdjustStock(ctx, -1, nil, -1)
	assert.ErrorIs(t, err, orders.ErrNotFound)
}

func newOrder(displayID string) *orders.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &orders.Order{
		ID:              uuid.New(),
		DisplayID:       displayID,
		UserID:          "u-pg",
		Items:           []orders.LineItem{{ID: uuid.New(), ProductID: 1, Name: "Lamp", Qty: 1, Price: decimal.NewFromInt(499)}},
		ShippingAddress: orders.ShippingAddress{Name: "Asha", PostalCode: "560001"},
		PaymentMethod:   "COD",
		TotalPrice:      decimal.NewFromInt(499),
		Status:          orders.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestCreateOrderDuplicateDisplayID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	display := "ORD-" + uuid.NewString()[:6]

	first := newOrder(display)
	require.NoError(t, s.CreateOrder(ctx, first))
	assert.ErrorIs(t, s.CreateOrder(ctx, newOrder(display)), orders.ErrDuplicateDisplayID)

	exists, err := s.DisplayIDExists(ctx, display)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := s.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, first.Items[0].ID, got.Items[0].ID)

	ok, err := s.CompareAndSetStatus(ctx, first.ID, orders.StatusPending, orders.StatusCancelled)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.CompareAndSetStatus(ctx, first.ID, orders.StatusPending, orders.StatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateReturnCompareAndSet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	o := newOrder("ORD-" + uuid.NewString()[:6])
	require.NoError(t, s.CreateOrder(ctx, o))

	now := time.Now().UTC()
	itemID := o.Items[0].ID
	ret := &orders.Return{
		ID:         uuid.New(),
		Ref:        "RET-" + uuid.NewString(),
		OrderID:    o.ID,
		LineItemID: &itemID,
		Type:       orders.ReturnTypeReturn,
		Status:     orders.ReturnPending,
		Timeline:   []orders.TimelineEntry{{Status: orders.ReturnPending, Time: now}},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, s.CreateReturn(ctx, ret))

	dup := *ret
	dup.ID, dup.Ref = uuid.New(), "RET-"+uuid.NewString()
	assert.ErrorIs(t, s.CreateReturn(ctx, &dup), orders.ErrConflict)

	ret.Status = orders.ReturnApproved
	require.NoError(t, s.UpdateReturn(ctx, ret, orders.ReturnPending))
	ret.Status = orders.ReturnRejected
	assert.ErrorIs(t, s.UpdateReturn(ctx, ret, orders.ReturnPending), orders.ErrConflict)

	missing := *ret
	missing.ID = uuid.New()
	assert.ErrorIs(t, s.UpdateReturn(ctx, &missing, orders.ReturnPending), orders.ErrNotFound)
}
