package notify

import (
	"context"
	"fmt"
	kafkax "github.com/ariefcatur/go-storefront-orders/internal/kafka"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/ariefcatur/go-storefront-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// Dispatcher delivers a notification to admin devices. Routing by type is
// its concern.
type Dispatcher interface {
	Dispatch(ctx context.Context, p orders.NotificationCreatedPayload) error
}

// LogDispatcher stands in for the push gateway.
type LogDispatcher struct {
	Log zerolog.Logger
}

func (d LogDispatcher) Dispatch(_ context.Context, p orders.NotificationCreatedPayload) error {
	d.Log.Info().
		Str("notification_id", p.NotificationID).
		Str("type", string(p.Type)).
		Str("title", p.Title).
		Str("related_id", p.RelatedID).
		Msg(p.Message)
	return nil
}

type Service struct {
	Redis       redis.Cmdable
	Dispatcher  Dispatcher
	ServiceName string
	Log         zerolog.Logger
}

// HandleNotification is the consumer handler for notification.created.
func (s *Service) HandleNotification(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		// poison message; commit and move on
		s.Log.Error().Err(err).Int64("offset", m.Offset).Msg("bad envelope")
		return nil
	}
	if env.EventType != orders.EventNotificationCreated {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if seen, err := redisx.Exists(ctx, s.Redis, dkey); err == nil && seen {
		s.Log.Debug().Str("event_id", env.EventID).Msg("duplicate event")
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.NotificationCreatedPayload](env.Payload)
	if err != nil {
		s.Log.Error().Err(err).Str("event_id", env.EventID).Msg("bad payload")
		return nil
	}
	if err := s.Dispatcher.Dispatch(ctx, p); err != nil {
		return fmt.Errorf("dispatch %s: %w", p.NotificationID, err)
	}
	first, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		s.Log.Warn().Err(err).Str("event_id", env.EventID).Msg("mark event processed")
	} else if !first {
		s.Log.Warn().Str("event_id", env.EventID).Msg("event dispatched by another worker too")
	}
	return nil
}
