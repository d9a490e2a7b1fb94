package orders

import (
	"context"
	"errors"
	"strings"
)

// Catalog is the slice of product management that stock depends on.
type Catalog struct {
	Store ProductStore
}

func (c *Catalog) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := c.Store.GetProduct(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("Product not found")
	}
	return p, err
}

func (c *Catalog) List(ctx context.Context) ([]Product, error) {
	return c.Store.ListProducts(ctx)
}

func (c *Catalog) Create(ctx context.Context, p *Product) error {
	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.ID <= 0:
		return validation("Product id is required")
	case p.Name == "":
		return validation("Product name is required")
	case p.Stock < 0:
		return validation("Stock cannot be negative")
	case p.Price.IsNegative():
		return validation("Price cannot be negative")
	}
	for _, sku := range p.SKUs {
		if sku.Stock < 0 {
			return validation("Stock cannot be negative for %s", sku.Combination)
		}
		if sku.Combination.Empty() {
			return validation("SKU combination is required")
		}
	}
	if err := c.Store.CreateProduct(ctx, p); err != nil {
		if errors.Is(err, ErrConflict) {
			return validation("Product %d already exists", p.ID)
		}
		return err
	}
	return nil
}
