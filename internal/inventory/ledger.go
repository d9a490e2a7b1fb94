package inventory

import (
	"context"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/rs/zerolog"
	"time"
)

const DefaultLowStockThreshold = 5

// restoreTimeout bounds stock writes that run after the caller's context is
// gone.
const restoreTimeout = 10 * time.Second

// detached keeps ctx's values but drops its cancellation. Stock taken must be
// put back even when the request that took it was cancelled or timed out.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
}

// StockStore applies one stock adjustment atomically. A negative delta only
// succeeds if the product (and the SKU matching variant, when given) holds
// at least -delta units; otherwise it returns *orders.StockError and changes
// nothing. A positive delta is unconditional; an unmatched variant then
// adjusts the aggregate stock only.
type StockStore interface {
	AdjustStock(ctx context.Context, productID int64, variant orders.Combination, delta int) (orders.StockLevel, error)
}

// Ledger is the only writer of product stock.
type Ledger struct {
	Store     StockStore
	Notifier  orders.Notifier
	Threshold int
	Log       zerolog.Logger
}

func (l *Ledger) threshold() int {
	if l.Threshold > 0 {
		return l.Threshold
	}
	return DefaultLowStockThreshold
}

// Reserve decrements stock item by item in line order. When an item cannot
// be served, the items already taken are put back and the stock error is
// returned.
func (l *Ledger) Reserve(ctx context.Context, items []orders.LineItem) ([]orders.StockLevel, error) {
	levels := make([]orders.StockLevel, 0, len(items))
	for i, it := range items {
		lvl, err := l.Store.AdjustStock(ctx, it.ProductID, it.Variant, -it.Qty)
		if err != nil {
			var se *orders.StockError
			if errors.As(err, &se) && se.Name == "" {
				se.Name = it.Name
			}
			l.compensate(ctx, items[:i])
			return nil, err
		}
		levels = append(levels, lvl)
	}
	return levels, nil
}

func (l *Ledger) compensate(ctx context.Context, taken []orders.LineItem) {
	ctx, cancel := detached(ctx)
	defer cancel()
	for _, it := range taken {
		if _, err := l.Store.AdjustStock(ctx, it.ProductID, it.Variant, it.Qty); err != nil {
			l.Log.Error().Err(err).Int64("product_id", it.ProductID).Int("qty", it.Qty).Msg("compensate reservation")
		}
	}
}

// Release puts the quantities of items back. It keeps going past failures
// and returns the first one. It runs to completion even if ctx is already
// cancelled.
func (l *Ledger) Release(ctx context.Context, items []orders.LineItem) ([]orders.StockLevel, error) {
	ctx, cancel := detached(ctx)
	defer cancel()
	var first error
	levels := make([]orders.StockLevel, 0, len(items))
	for _, it := range items {
		lvl, err := l.Store.AdjustStock(ctx, it.ProductID, it.Variant, it.Qty)
		if err != nil {
			if first == nil {
				first = fmt.Errorf("restore product %d: %w", it.ProductID, err)
			}
			continue
		}
		levels = append(levels, lvl)
	}
	return levels, first
}

// AlertLowStock creates one stock notification per level at or below the
// threshold, plus one for the SKU when a variant took part. There is no
// deduplication across orders.
func (l *Ledger) AlertLowStock(ctx context.Context, levels []orders.StockLevel) {
	limit := l.threshold()
	for _, lvl := range levels {
		if lvl.Stock <= limit {
			l.notify(ctx, &orders.Notification{
				Type:      orders.NotificationStock,
				Title:     "Low Stock Alert",
				Message:   fmt.Sprintf("Product %q is running low on stock (%d remaining).", lvl.Name, lvl.Stock),
				RelatedID: fmt.Sprint(lvl.ProductID),
			})
		}
		if lvl.SKUIndex >= 0 && lvl.SKUStock <= limit {
			l.notify(ctx, &orders.Notification{
				Type:      orders.NotificationStock,
				Title:     "Low Stock Alert (Variant)",
				Message:   fmt.Sprintf("Product %q variant has low stock (%d remaining).", lvl.Name, lvl.SKUStock),
				RelatedID: fmt.Sprint(lvl.ProductID),
			})
		}
	}
}

func (l *Ledger) notify(ctx context.Context, n *orders.Notification) {
	if err := l.Notifier.Notify(ctx, n); err != nil {
		l.Log.Warn().Err(err).Str("related_id", n.RelatedID).Msg("low stock notification")
	}
}
