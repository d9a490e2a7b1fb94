package kafka

import (
	"context"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"strconv"
	"time"
)

const envelopeVersion = 1

// Publisher wraps payloads in an orders.Envelope and queues them on the
// producer.
type Publisher struct {
	Producer *Producer
	Service  string
	Now      func() time.Time
}

func (p *Publisher) PublishEvent(ctx context.Context, topic, eventType, key string, payload any) error {
	body, err := marshal(payload)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if p.Now != nil {
		now = p.Now()
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  envelopeVersion,
		OccurredAt:    now,
		Producer:      p.Service,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: key,
		Payload:       body,
	}
	value, err := marshal(ev)
	if err != nil {
		return err
	}
	return p.Producer.Publish(topic, orders.PartitionKey(key), value,
		kafka.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(envelopeVersion))},
	)
}
