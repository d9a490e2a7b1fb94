package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-storefront-orders/internal/memstore"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/ariefcatur/go-storefront-orders/internal/redisx"
	"github.com/ariefcatur/go-storefront-orders/internal/redisx/redistest"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
)

type published struct {
	topic, eventType, key string
	payload               any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, eventType, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic, eventType, key, payload})
	return p.err
}

func TestSinkStoresAndPublishes(t *testing.T) {
	store := memstore.New()
	pub := &recordingPublisher{}
	sink := &Sink{Store: store, Events: pub, Log: zerolog.Nop()}

	n := &orders.Notification{Type: orders.NotificationStock, Title: "Low Stock Alert", Message: "m", RelatedID: "7"}
	require.NoError(t, sink.Notify(context.Background(), n))
	assert.NotEqual(t, uuid.Nil, n.ID)
	assert.False(t, n.CreatedAt.IsZero())

	list, err := store.ListNotifications(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Low Stock Alert", list[0].Title)

	require.Len(t, pub.events, 1)
	assert.Equal(t, orders.TopicNotificationCreated, pub.events[0].topic)
	p := pub.events[0].payload.(orders.NotificationCreatedPayload)
	assert.Equal(t, n.ID.String(), p.NotificationID)
	assert.Equal(t, orders.NotificationStock, p.Type)
}

func TestSinkIgnoresPublishFailure(t *testing.T) {
	store := memstore.New()
	sink := &Sink{Store: store, Events: &recordingPublisher{err: errors.New("broker down")}, Log: zerolog.Nop()}

	require.NoError(t, sink.Notify(context.Background(), &orders.Notification{Type: orders.NotificationOrder, Title: "t"}))
	list, err := store.ListNotifications(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

type recordingDispatcher struct {
	got []orders.NotificationCreatedPayload
	err error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, p orders.NotificationCreatedPayload) error {
	if d.err != nil {
		return d.err
	}
	d.got = append(d.got, p)
	return nil
}

func envelope(t *testing.T, eventID, eventType string, payload any) kafkago.Message {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	b, err := json.Marshal(orders.Envelope{EventID: eventID, EventType: eventType, EventVersion: 1, Payload: body})
	require.NoError(t, err)
	return kafkago.Message{Value: b}
}

func TestHandleNotificationDedup(t *testing.T) {
	rdb := redistest.New()
	d := &recordingDispatcher{}
	svc := &Service{Redis: rdb, Dispatcher: d, ServiceName: "notifier", Log: zerolog.Nop()}
	ctx := context.Background()

	m := envelope(t, "ev-1", orders.EventNotificationCreated, orders.NotificationCreatedPayload{NotificationID: "n1", Type: orders.NotificationOrder})
	require.NoError(t, svc.HandleNotification(ctx, m))
	require.NoError(t, svc.HandleNotification(ctx, m))

	assert.Len(t, d.got, 1)
	_, ok := rdb.Value(fmt.Sprintf(redisx.KeyDedup, "notifier", "ev-1"))
	assert.True(t, ok)
}

func TestHandleNotificationSkipsOtherEvents(t *testing.T) {
	d := &recordingDispatcher{}
	svc := &Service{Redis: redistest.New(), Dispatcher: d, ServiceName: "notifier", Log: zerolog.Nop()}

	m := envelope(t, "ev-2", orders.EventOrderCreated, orders.OrderCreatedPayload{OrderID: "o1"})
	require.NoError(t, svc.HandleNotification(context.Background(), m))
	require.NoError(t, svc.HandleNotification(context.Background(), kafkago.Message{Value: []byte("{not json")}))
	assert.Empty(t, d.got)
}

func TestHandleNotificationRetriesOnDispatchError(t *testing.T) {
	rdb := redistest.New()
	d := &recordingDispatcher{err: errors.New("push gateway down")}
	svc := &Service{Redis: rdb, Dispatcher: d, ServiceName: "notifier", Log: zerolog.Nop()}

	m := envelope(t, "ev-3", orders.EventNotificationCreated, orders.NotificationCreatedPayload{NotificationID: "n3"})
	require.Error(t, svc.HandleNotification(context.Background(), m))
	_, ok := rdb.Value(fmt.Sprintf(redisx.KeyDedup, "notifier", "ev-3"))
	assert.False(t, ok, "failed events must stay eligible for redelivery")
}
