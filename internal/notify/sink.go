// Package notify persists admin notifications and fans them out to the push
// dispatcher through the notification.created topic.
package notify

import (
	"context"
	"fmt"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"time"
)

// Sink implements orders.Notifier. The stored row is the record of truth;
// the event is best effort.
type Sink struct {
	Store  orders.NotificationStore
	Events orders.EventPublisher // optional
	Log    zerolog.Logger
	Now    func() time.Time
}

func (s *Sink) Notify(ctx context.Context, n *orders.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		if s.Now != nil {
			n.CreatedAt = s.Now()
		} else {
			n.CreatedAt = time.Now().UTC()
		}
	}
	if err := s.Store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	if s.Events == nil {
		return nil
	}
	err := s.Events.PublishEvent(ctx, orders.TopicNotificationCreated, orders.EventNotificationCreated, n.RelatedID,
		orders.NotificationCreatedPayload{
			NotificationID: n.ID.String(),
			Type:           n.Type,
			Title:          n.Title,
			Message:        n.Message,
			RelatedID:      n.RelatedID,
		})
	if err != nil {
		s.Log.Warn().Err(err).Str("notification_id", n.ID.String()).Msg("publish notification")
	}
	return nil
}
