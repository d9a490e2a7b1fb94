package postgres

import (
	"context"
	"fmt"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"strings"
)

const orderCols = `id, display_id, user_id, shipping_address, payment_method, payment_result, transaction_id,
	items_price, tax_price, shipping_price, total_price, is_paid, paid_at, is_delivered, delivered_at,
	status, created_at, updated_at`

func scanOrder(row pgx.Row) (*orders.Order, error) {
	var o orders.Order
	err := row.Scan(&o.ID, &o.DisplayID, &o.UserID, &o.ShippingAddress, &o.PaymentMethod, &o.PaymentResult, &o.TransactionID,
		&o.ItemsPrice, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice, &o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt,
		&o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func (s *Store) loadItems(ctx context.Context, list []*orders.Order) error {
	if len(list) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*orders.Order, len(list))
	ids := make([]uuid.UUID, 0, len(list))
	for _, o := range list {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	rows, err := s.DB.Query(ctx, `
		SELECT order_id, id, product_id, name, image, qty, price, variant, status, serial_number, serial_type
		FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, position`, uuidStrings(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			oid uuid.UUID
			it  orders.LineItem
		)
		if err := rows.Scan(&oid, &it.ID, &it.ProductID, &it.Name, &it.Image, &it.Qty, &it.Price, &it.Variant,
			&it.Status, &it.SerialNumber, &it.SerialType); err != nil {
			return err
		}
		byID[oid].Items = append(byID[oid].Items, it)
	}
	return rows.Err()
}

func (s *Store) queryOrders(ctx context.Context, sql string, args ...any) ([]orders.Order, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*orders.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, list); err != nil {
		return nil, err
	}
	out := make([]orders.Order, 0, len(list))
	for _, o := range list {
		out = append(out, *o)
	}
	return out, nil
}

func (s *Store) CreateOrder(ctx context.Context, o *orders.Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (`+orderCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		o.ID, o.DisplayID, o.UserID, o.ShippingAddress, o.PaymentMethod, o.PaymentResult, o.TransactionID,
		o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalPrice, o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt,
		o.Status, o.CreatedAt, o.UpdatedAt)
	if isUnique(err, "orders_display_id_key") {
		return orders.ErrDuplicateDisplayID
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, position, product_id, name, image, qty, price, variant, status, serial_number, serial_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			it.ID, o.ID, i, it.ProductID, it.Name, it.Image, it.Qty, it.Price, it.Variant,
			it.Status, it.SerialNumber, it.SerialType); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*orders.Order, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.loadItems(ctx, []*orders.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) DisplayIDExists(ctx context.Context, displayID string) (bool, error) {
	var ok bool
	err := s.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE display_id=$1)`, displayID).Scan(&ok)
	return ok, err
}

func (s *Store) DisplayIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `SELECT id, display_id FROM orders WHERE id = ANY($1::uuid[])`, uuidStrings(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id  uuid.UUID
			did string
		)
		if err := rows.Scan(&id, &did); err != nil {
			return nil, err
		}
		out[id] = did
	}
	return out, rows.Err()
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]orders.Order, error) {
	return s.queryOrders(ctx, `SELECT `+orderCols+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (s *Store) ListOrders(ctx context.Context, f orders.OrderFilter) ([]orders.Order, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}
	if f.Email != "" {
		where = append(where, "shipping_address->>'email' = "+arg(f.Email))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf("(display_id ILIKE %[1]s OR shipping_address->>'name' ILIKE %[1]s OR shipping_address->>'email' ILIKE %[1]s OR id::text = %[2]s)", p, arg(f.Search)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := `SELECT ` + orderCols + ` FROM orders` + cond + ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %s OFFSET %s", arg(f.Limit), arg((f.Page-1)*f.Limit))
	}
	list, err := s.queryOrders(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (s *Store) UpdateOrder(ctx context.Context, o *orders.Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, is_paid=$3, paid_at=$4, is_delivered=$5, delivered_at=$6, updated_at=$7
		WHERE id=$1`, o.ID, o.Status, o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt, o.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return orders.ErrNotFound
	}
	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			UPDATE order_items SET status=$3, serial_number=$4, serial_type=$5
			WHERE order_id=$1 AND id=$2`, o.ID, it.ID, it.Status, it.SerialNumber, it.SerialType); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to orders.OrderStatus) (bool, error) {
	ct, err := s.DB.Exec(ctx, `UPDATE orders SET status=$3, updated_at=now() WHERE id=$1 AND status=$2`, id, from, to)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := s.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, orders.ErrNotFound
	}
	return false, nil
}

func (s *Store) SetItemStatus(ctx context.Context, orderID, itemID uuid.UUID, status string) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `UPDATE order_items SET status=$3 WHERE order_id=$1 AND id=$2`, orderID, itemID, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return orders.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET updated_at=now() WHERE id=$1`, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
