package postgres

import (
	"context"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const returnCols = `id, ref, order_id, line_item_id, customer, product, type, reason, comment, images,
	status, previous_order_status, timeline, created_at, updated_at`

func scanReturn(row pgx.Row) (*orders.Return, error) {
	var r orders.Return
	err := row.Scan(&r.ID, &r.Ref, &r.OrderID, &r.LineItemID, &r.Customer, &r.Product, &r.Type, &r.Reason, &r.Comment, &r.Images,
		&r.Status, &r.PreviousOrderStatus, &r.Timeline, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) queryReturns(ctx context.Context, sql string, args ...any) ([]orders.Return, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []orders.Return{}
	for rows.Next() {
		r, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) CreateReturn(ctx context.Context, r *orders.Return) error {
	images := r.Images
	if images == nil {
		images = []string{}
	}
	_, err := s.DB.Exec(ctx, `
		INSERT INTO returns (`+returnCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		r.ID, r.Ref, r.OrderID, r.LineItemID, r.Customer, r.Product, r.Type, r.Reason, r.Comment, images,
		r.Status, r.PreviousOrderStatus, r.Timeline, r.CreatedAt, r.UpdatedAt)
	if isUnique(err, "") {
		return orders.ErrConflict
	}
	return err
}

func (s *Store) GetReturn(ctx context.Context, id uuid.UUID) (*orders.Return, error) {
	r, err := scanReturn(s.DB.QueryRow(ctx, `SELECT `+returnCols+` FROM returns WHERE id=$1`, id))
	return r, notFound(err)
}

func (s *Store) GetReturnByRef(ctx context.Context, ref string) (*orders.Return, error) {
	r, err := scanReturn(s.DB.QueryRow(ctx, `SELECT `+returnCols+` FROM returns WHERE ref=$1`, ref))
	return r, notFound(err)
}

func (s *Store) UpdateReturn(ctx context.Context, r *orders.Return, from orders.ReturnStatus) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE returns SET status=$2, timeline=$3, updated_at=$4
		WHERE id=$1 AND status=$5`, r.ID, r.Status, r.Timeline, r.UpdatedAt, from)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	if _, err := s.GetReturn(ctx, r.ID); err != nil {
		return err
	}
	return orders.ErrConflict
}

func (s *Store) ListReturns(ctx context.Context) ([]orders.Return, error) {
	return s.queryReturns(ctx, `SELECT `+returnCols+` FROM returns ORDER BY created_at DESC`)
}

func (s *Store) ListReturnsByOrders(ctx context.Context, orderIDs []uuid.UUID) ([]orders.Return, error) {
	if len(orderIDs) == 0 {
		return []orders.Return{}, nil
	}
	return s.queryReturns(ctx, `SELECT `+returnCols+` FROM returns WHERE order_id = ANY($1::uuid[]) ORDER BY created_at DESC`,
		uuidStrings(orderIDs))
}

func (s *Store) HasOpenReturn(ctx context.Context, orderID, lineItemID uuid.UUID) (bool, error) {
	var ok bool
	err := s.DB.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM returns
			WHERE order_id=$1 AND line_item_id=$2 AND status NOT IN ('Completed', 'Rejected')
		)`, orderID, lineItemID).Scan(&ok)
	return ok, err
}
