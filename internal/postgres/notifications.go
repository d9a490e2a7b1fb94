package postgres

import (
	"context"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/google/uuid"
)

func (s *Store) CreateNotification(ctx context.Context, n *orders.Notification) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO notifications (id, type, title, message, related_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.Type, n.Title, n.Message, n.RelatedID, n.IsRead, n.CreatedAt)
	return err
}

func (s *Store) ListNotifications(ctx context.Context, limit int) ([]orders.Notification, error) {
	q := `SELECT id, type, title, message, related_id, is_read, created_at FROM notifications ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []orders.Notification{}
	for rows.Next() {
		var n orders.Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.RelatedID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, id uuid.UUID) (*orders.Notification, error) {
	var n orders.Notification
	err := s.DB.QueryRow(ctx, `
		UPDATE notifications SET is_read = true WHERE id=$1
		RETURNING id, type, title, message, related_id, is_read, created_at`, id,
	).Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.RelatedID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

func (s *Store) MarkAllRead(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, `UPDATE notifications SET is_read = true WHERE is_read = false`)
	return err
}

func (s *Store) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM notifications WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return orders.ErrNotFound
	}
	return nil
}
