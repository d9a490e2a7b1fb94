package orders

import (
	"context"
	"errors"
	"github.com/shopspring/decimal"
	"strings"
)

type ItemInput struct {
	Product int64           `json:"product"`
	Name    string          `json:"name"`
	Image   string          `json:"image"`
	Qty     int             `json:"qty"`
	Price   decimal.Decimal `json:"price"`
	Variant Combination     `json:"variant,omitempty"`
}

type PlaceOrderInput struct {
	Items           []ItemInput     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentResult   *PaymentResult  `json:"paymentResult,omitempty"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid"`
}

// Validator is the read-only gate in front of order placement. Every item
// must pass before anything is written.
type Validator struct {
	Zones    ZoneStore
	Products ProductStore
}

// Validate checks serviceability and stock and returns the line items to
// persist, each pointing at the resolved product id.
func (v *Validator) Validate(ctx context.Context, in *PlaceOrderInput) ([]LineItem, error) {
	if len(in.Items) == 0 {
		return nil, validation("No order items")
	}
	code := strings.TrimSpace(in.ShippingAddress.PostalCode)
	if code == "" {
		return nil, validation("Shipping pincode is required")
	}
	zone, err := v.Zones.ZoneByCode(ctx, code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if zone == nil || !zone.IsActive {
		return nil, validation("Delivery not available for pincode %s", code)
	}

	items := make([]LineItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Qty <= 0 {
			return nil, validation("Invalid quantity for %s", it.Name)
		}
		p, err := v.Products.GetProduct(ctx, it.Product)
		if errors.Is(err, ErrNotFound) {
			return nil, notFound("Product not found: %s", it.Name)
		}
		if err != nil {
			return nil, err
		}
		name := it.Name
		if name == "" {
			name = p.Name
		}
		if err := checkStock(p, name, it); err != nil {
			return nil, err
		}
		image := it.Image
		if image == "" {
			image = p.Image
		}
		items = append(items, LineItem{
			ProductID: p.ID,
			Name:      name,
			Image:     image,
			Qty:       it.Qty,
			Price:     it.Price,
			Variant:   it.Variant,
		})
	}
	return items, nil
}

func checkStock(p *Product, name string, it ItemInput) error {
	if it.Variant.Empty() {
		if p.Stock < it.Qty {
			return &StockError{ProductID: p.ID, Name: name, Requested: it.Qty, Available: p.Stock}
		}
		return nil
	}
	available := 0
	if i := p.SKUIndex(it.Variant); i >= 0 {
		available = p.SKUs[i].Stock
	}
	if available < it.Qty {
		return &StockError{ProductID: p.ID, Name: name, Variant: it.Variant, Requested: it.Qty, Available: available}
	}
	return nil
}
