package orders

import (
	"context"
	"errors"
	"github.com/google/uuid"
)

const notificationPage = 50

// Inbox is the admin view over stored notifications.
type Inbox struct {
	Store NotificationStore
}

func (i *Inbox) Latest(ctx context.Context) ([]Notification, error) {
	return i.Store.ListNotifications(ctx, notificationPage)
}

func (i *Inbox) MarkRead(ctx context.Context, id uuid.UUID) (*Notification, error) {
	n, err := i.Store.MarkRead(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("Notification not found")
	}
	return n, err
}

func (i *Inbox) MarkAllRead(ctx context.Context) error {
	return i.Store.MarkAllRead(ctx)
}

func (i *Inbox) Delete(ctx context.Context, id uuid.UUID) error {
	err := i.Store.DeleteNotification(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return notFound("Notification not found")
	}
	return err
}
