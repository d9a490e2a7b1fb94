package postgres

import (
	"context"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"time"
)

const zoneCols = `id, code, delivery_time, unit, is_cod, is_active, created_at, updated_at`

func scanZone(row pgx.Row) (*orders.DeliveryZone, error) {
	var z orders.DeliveryZone
	if err := row.Scan(&z.ID, &z.Code, &z.DeliveryTime, &z.Unit, &z.IsCOD, &z.IsActive, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &z, nil
}

func (s *Store) ZoneByCode(ctx context.Context, code string) (*orders.DeliveryZone, error) {
	return scanZone(s.DB.QueryRow(ctx, `SELECT `+zoneCols+` FROM delivery_zones WHERE code=$1`, code))
}

func (s *Store) GetZone(ctx context.Context, id uuid.UUID) (*orders.DeliveryZone, error) {
	return scanZone(s.DB.QueryRow(ctx, `SELECT `+zoneCols+` FROM delivery_zones WHERE id=$1`, id))
}

func (s *Store) ListZones(ctx context.Context) ([]orders.DeliveryZone, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+zoneCols+` FROM delivery_zones ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []orders.DeliveryZone{}
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *z)
	}
	return out, rows.Err()
}

func (s *Store) CreateZone(ctx context.Context, z *orders.DeliveryZone) error {
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	now := time.Now().UTC()
	z.CreatedAt, z.UpdatedAt = now, now
	_, err := s.DB.Exec(ctx, `INSERT INTO delivery_zones (`+zoneCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		z.ID, z.Code, z.DeliveryTime, z.Unit, z.IsCOD, z.IsActive, z.CreatedAt, z.UpdatedAt)
	if isUnique(err, "delivery_zones_code_key") {
		return orders.ErrConflict
	}
	return err
}

func (s *Store) UpdateZone(ctx context.Context, z *orders.DeliveryZone) error {
	z.UpdatedAt = time.Now().UTC()
	ct, err := s.DB.Exec(ctx, `
		UPDATE delivery_zones SET code=$2, delivery_time=$3, unit=$4, is_cod=$5, is_active=$6, updated_at=$7
		WHERE id=$1`, z.ID, z.Code, z.DeliveryTime, z.Unit, z.IsCOD, z.IsActive, z.UpdatedAt)
	if isUnique(err, "delivery_zones_code_key") {
		return orders.ErrConflict
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return orders.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteZone(ctx context.Context, id uuid.UUID) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM delivery_zones WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return orders.ErrNotFound
	}
	return nil
}
