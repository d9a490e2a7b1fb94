package orders_test

import (
	"context"
	"github.com/ariefcatur/go-storefront-orders/internal/inventory"
	"github.com/ariefcatur/go-storefront-orders/internal/memstore"
	"github.com/ariefcatur/go-storefront-orders/internal/notify"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
)

type event struct {
	topic, eventType, key string
	payload               any
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) PublishEvent(_ context.Context, topic, eventType, key string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{topic, eventType, key, payload})
	return nil
}

func (r *recorder) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.topic)
	}
	return out
}

type fixture struct {
	store    *memstore.Store
	events   *recorder
	svc      *orders.Service
	returns  *orders.Reconciler
	customer orders.Identity
	admin    orders.Identity
}

const pincode = "560001"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	rec := &recorder{}
	log := zerolog.Nop()
	sink := &notify.Sink{Store: st, Log: log}
	ledger := &inventory.Ledger{Store: st, Notifier: sink, Log: log}

	require.NoError(t, st.CreateZone(context.Background(), &orders.DeliveryZone{Code: pincode, DeliveryTime: 2, Unit: "days", IsCOD: true, IsActive: true}))

	return &fixture{
		store:  st,
		events: rec,
		svc: &orders.Service{
			Validator: &orders.Validator{Zones: st, Products: st},
			Writer:    &orders.Writer{Orders: st},
			Orders:    st,
			Ledger:    ledger,
			Notifier:  sink,
			Events:    rec,
			Log:       log,
		},
		returns: &orders.Reconciler{
			Orders:   st,
			Returns:  st,
			Ledger:   ledger,
			Notifier: sink,
			Events:   rec,
			Log:      log,
		},
		customer: orders.Identity{ID: "u-1", Name: "Asha", Role: "user"},
		admin:    orders.Identity{ID: "a-1", Name: "Admin", Role: "admin"},
	}
}

func (f *fixture) product(t *testing.T, id int64, name string, stock int, skus ...orders.SKU) {
	t.Helper()
	require.NoError(t, f.store.CreateProduct(context.Background(), &orders.Product{
		ID: id, Name: name, Price: decimal.NewFromInt(100), Stock: stock, SKUs: skus,
	}))
}

func (f *fixture) stock(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) notifications(t *testing.T, typ orders.NotificationType) []orders.Notification {
	t.Helper()
	all, err := f.store.ListNotifications(context.Background(), 0)
	require.NoError(t, err)
	var out []orders.Notification
	for _, n := range all {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func orderInput(items ...orders.ItemInput) *orders.PlaceOrderInput {
	return &orders.PlaceOrderInput{
		Items:           items,
		ShippingAddress: orders.ShippingAddress{Name: "Asha", Email: "asha@example.com", Street: "1 MG Road", City: "Bengaluru", PostalCode: pincode, Country: "IN"},
		PaymentMethod:   "COD",
		ItemsPrice:      decimal.NewFromInt(300),
		TotalPrice:      decimal.RequireFromString("354.00"),
	}
}

func item(product int64, qty int) orders.ItemInput {
	return orders.ItemInput{Product: product, Qty: qty, Price: decimal.NewFromInt(100)}
}

func (f *fixture) place(t *testing.T, items ...orders.ItemInput) *orders.Order {
	t.Helper()
	o, err := f.svc.PlaceOrder(context.Background(), f.customer, orderInput(items...))
	require.NoError(t, err)
	return o
}
