package postgres

import (
	"context"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/jackc/pgx/v5"
)

const productCols = `id, name, image, price, stock, variant_headings, created_at, updated_at`

func scanProduct(row pgx.Row) (*orders.Product, error) {
	var p orders.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Image, &p.Price, &p.Stock, &p.VariantHeadings, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) loadSKUs(ctx context.Context, ps []*orders.Product) error {
	if len(ps) == 0 {
		return nil
	}
	byID := make(map[int64]*orders.Product, len(ps))
	ids := make([]int64, 0, len(ps))
	for _, p := range ps {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	rows, err := s.DB.Query(ctx, `
		SELECT product_id, combination, stock FROM product_skus
		WHERE product_id = ANY($1) ORDER BY product_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			pid int64
			sku orders.SKU
		)
		if err := rows.Scan(&pid, &sku.Combination, &sku.Stock); err != nil {
			return err
		}
		byID[pid].SKUs = append(byID[pid].SKUs, sku)
	}
	return rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*orders.Product, error) {
	p, err := scanProduct(s.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.loadSKUs(ctx, []*orders.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]orders.Product, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+productCols+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ps []*orders.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadSKUs(ctx, ps); err != nil {
		return nil, err
	}
	out := make([]orders.Product, 0, len(ps))
	for _, p := range ps {
		out = append(out, *p)
	}
	return out, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *orders.Product) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	headings := p.VariantHeadings
	if headings == nil {
		headings = []orders.VariantHeading{}
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO products (id, name, image, price, stock, variant_headings)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Image, p.Price, p.Stock, headings,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if isUnique(err, "") {
		return orders.ErrConflict
	}
	if err != nil {
		return err
	}
	for i, sku := range p.SKUs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_skus (product_id, position, combination, stock)
			VALUES ($1, $2, $3, $4)`, p.ID, i, sku.Combination, sku.Stock); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// AdjustStock changes the SKU row (when variant matches one) and the
// product row in one transaction. Both UPDATEs carry the stock >= 0 guard,
// so concurrent decrements serialize on the row locks and never oversell.
func (s *Store) AdjustStock(ctx context.Context, productID int64, variant orders.Combination, delta int) (orders.StockLevel, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return orders.StockLevel{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lvl := orders.StockLevel{ProductID: productID, SKUIndex: -1}
	if !variant.Empty() {
		err := tx.QueryRow(ctx, `
			UPDATE product_skus SET stock = stock + $3
			WHERE product_id = $1 AND combination = $2::jsonb AND stock + $3 >= 0
			RETURNING position, stock`, productID, variant, delta,
		).Scan(&lvl.SKUIndex, &lvl.SKUStock)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			if delta < 0 {
				return orders.StockLevel{}, s.shortfall(ctx, tx, productID, variant, -delta)
			}
			lvl.SKUIndex = -1
		case err != nil:
			return orders.StockLevel{}, fmt.Errorf("adjust sku stock: %w", err)
		}
	}

	err = tx.QueryRow(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING name, stock`, productID, delta,
	).Scan(&lvl.Name, &lvl.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return orders.StockLevel{}, s.shortfall(ctx, tx, productID, variant, -delta)
	}
	if err != nil {
		return orders.StockLevel{}, fmt.Errorf("adjust product stock: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return orders.StockLevel{}, err
	}
	return lvl, nil
}

// shortfall builds the StockError for a refused decrement, or ErrNotFound
// when the product does not exist.
func (s *Store) shortfall(ctx context.Context, tx pgx.Tx, productID int64, variant orders.Combination, need int) error {
	var (
		name     string
		stock    int
		skuStock *int
	)
	err := tx.QueryRow(ctx, `
		SELECT p.name, p.stock,
		       (SELECT k.stock FROM product_skus k WHERE k.product_id = p.id AND k.combination = $2::jsonb LIMIT 1)
		FROM products p WHERE p.id = $1`, productID, variant,
	).Scan(&name, &stock, &skuStock)
	if err != nil {
		return notFound(err)
	}
	avail := stock
	if !variant.Empty() {
		switch {
		case skuStock == nil:
			avail = 0
		case *skuStock < avail:
			avail = *skuStock
		}
	}
	return &orders.StockError{ProductID: productID, Name: name, Variant: variant, Requested: need, Available: avail}
}
