// Package memstore keeps every store in process memory behind one mutex.
// It backs the tests and STORE_DRIVER=memory runs.
package memstore

import (
	"context"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/google/uuid"
	"sort"
	"strings"
	"sync"
	"time"
)

type Store struct {
	mu            sync.Mutex
	products      map[int64]*orders.Product
	orders        map[uuid.UUID]*orders.Order
	returns       map[uuid.UUID]*orders.Return
	notifications map[uuid.UUID]*orders.Notification
	zones         map[uuid.UUID]*orders.DeliveryZone

	// FailCreateOrder, when set, is returned by CreateOrder.
	FailCreateOrder error
}

func New() *Store {
	return &Store{
		products:      map[int64]*orders.Product{},
		orders:        map[uuid.UUID]*orders.Order{},
		returns:       map[uuid.UUID]*orders.Return{},
		notifications: map[uuid.UUID]*orders.Notification{},
		zones:         map[uuid.UUID]*orders.DeliveryZone{},
	}
}

// ---- products & stock ----

func copyProduct(p *orders.Product) *orders.Product {
	cp := *p
	cp.VariantHeadings = append([]orders.VariantHeading(nil), p.VariantHeadings...)
	cp.SKUs = make([]orders.SKU, len(p.SKUs))
	for i, s := range p.SKUs {
		cp.SKUs[i] = orders.SKU{Combination: copyCombination(s.Combination), Stock: s.Stock}
	}
	return &cp
}

func copyCombination(c orders.Combination) orders.Combination {
	if c == nil {
		return nil
	}
	out := make(orders.Combination, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func (s *Store) GetProduct(_ context.Context, id int64) (*orders.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return copyProduct(p), nil
}

func (s *Store) ListProducts(_ context.Context) ([]orders.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]orders.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *copyProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateProduct(_ context.Context, p *orders.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; ok {
		return orders.ErrConflict
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	s.products[p.ID] = copyProduct(p)
	return nil
}

func (s *Store) AdjustStock(_ context.Context, productID int64, variant orders.Combination, delta int) (orders.StockLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return orders.StockLevel{}, orders.ErrNotFound
	}
	idx := -1
	if !variant.Empty() {
		idx = p.SKUIndex(variant)
	}
	if need := -delta; need > 0 {
		avail := p.Stock
		if !variant.Empty() {
			switch {
			case idx < 0:
				avail = 0
			case p.SKUs[idx].Stock < avail:
				avail = p.SKUs[idx].Stock
			}
		}
		if avail < need {
			return orders.StockLevel{}, &orders.StockError{ProductID: p.ID, Name: p.Name, Variant: variant, Requested: need, Available: avail}
		}
	}
	p.Stock += delta
	lvl := orders.StockLevel{ProductID: p.ID, Name: p.Name, Stock: p.Stock, SKUIndex: idx}
	if idx >= 0 {
		p.SKUs[idx].Stock += delta
		lvl.SKUStock = p.SKUs[idx].Stock
	}
	p.UpdatedAt = time.Now().UTC()
	return lvl, nil
}

// ---- orders ----

func copyOrder(o *orders.Order) *orders.Order {
	cp := *o
	cp.Items = make([]orders.LineItem, len(o.Items))
	for i, it := range o.Items {
		it.Variant = copyCombination(it.Variant)
		cp.Items[i] = it
	}
	if o.PaymentResult != nil {
		pr := *o.PaymentResult
		cp.PaymentResult = &pr
	}
	return &cp
}

func (s *Store) CreateOrder(_ context.Context, o *orders.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreateOrder != nil {
		return s.FailCreateOrder
	}
	for _, existing := range s.orders {
		if existing.DisplayID == o.DisplayID {
			return orders.ErrDuplicateDisplayID
		}
	}
	s.orders[o.ID] = copyOrder(o)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id uuid.UUID) (*orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return copyOrder(o), nil
}

func (s *Store) DisplayIDExists(_ context.Context, displayID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.DisplayID == displayID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) DisplayIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if o, ok := s.orders[id]; ok {
			out[id] = o.DisplayID
		}
	}
	return out, nil
}

func (s *Store) newestOrders(keep func(*orders.Order) bool) []orders.Order {
	out := []orders.Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListOrdersByUser(_ context.Context, userID string) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newestOrders(func(o *orders.Order) bool { return o.UserID == userID }), nil
}

func (s *Store) ListOrders(_ context.Context, f orders.OrderFilter) ([]orders.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	search := strings.ToLower(f.Search)
	list := s.newestOrders(func(o *orders.Order) bool {
		if f.Status != "" && o.Status != f.Status {
			return false
		}
		if f.Email != "" && o.ShippingAddress.Email != f.Email {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(o.DisplayID), search) &&
			!strings.Contains(strings.ToLower(o.ShippingAddress.Name), search) &&
			!strings.Contains(strings.ToLower(o.ShippingAddress.Email), search) &&
			o.ID.String() != f.Search {
			return false
		}
		return true
	})
	total := len(list)
	if f.Limit > 0 {
		start := (f.Page - 1) * f.Limit
		if start > total {
			start = total
		}
		end := start + f.Limit
		if end > total {
			end = total
		}
		list = list[start:end]
	}
	return list, total, nil
}

func (s *Store) UpdateOrder(_ context.Context, o *orders.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orders[o.ID]
	if !ok {
		return orders.ErrNotFound
	}
	next := copyOrder(o)
	// line item quantities are immutable
	for i := range next.Items {
		if i < len(cur.Items) {
			next.Items[i].Qty = cur.Items[i].Qty
		}
	}
	s.orders[o.ID] = next
	return nil
}

func (s *Store) CompareAndSetStatus(_ context.Context, id uuid.UUID, from, to orders.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false, orders.ErrNotFound
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *Store) SetItemStatus(_ context.Context, orderID, itemID uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return orders.ErrNotFound
	}
	item, ok := o.Item(itemID)
	if !ok {
		return orders.ErrNotFound
	}
	item.Status = status
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// SetOrderStatus is a test helper that overwrites the status unconditionally.
func (s *Store) SetOrderStatus(id uuid.UUID, status orders.OrderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		o.Status = status
	}
}

// ---- returns ----

func copyReturn(r *orders.Return) *orders.Return {
	cp := *r
	cp.Timeline = append([]orders.TimelineEntry(nil), r.Timeline...)
	cp.Images = append([]string(nil), r.Images...)
	if r.LineItemID != nil {
		id := *r.LineItemID
		cp.LineItemID = &id
	}
	return &cp
}

func (s *Store) CreateReturn(_ context.Context, r *orders.Return) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.returns {
		if existing.Ref == r.Ref {
			return orders.ErrConflict
		}
		// one open return per line item
		if r.LineItemID != nil && existing.LineItemID != nil &&
			*existing.LineItemID == *r.LineItemID && !existing.Status.Terminal() && !r.Status.Terminal() {
			return orders.ErrConflict
		}
	}
	s.returns[r.ID] = copyReturn(r)
	return nil
}

func (s *Store) GetReturn(_ context.Context, id uuid.UUID) (*orders.Return, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.returns[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return copyReturn(r), nil
}

func (s *Store) GetReturnByRef(_ context.Context, ref string) (*orders.Return, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.returns {
		if r.Ref == ref {
			return copyReturn(r), nil
		}
	}
	return nil, orders.ErrNotFound
}

func (s *Store) UpdateReturn(_ context.Context, r *orders.Return, from orders.ReturnStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.returns[r.ID]
	if !ok {
		return orders.ErrNotFound
	}
	if cur.Status != from {
		return orders.ErrConflict
	}
	s.returns[r.ID] = copyReturn(r)
	return nil
}

func (s *Store) sortedReturns(keep func(*orders.Return) bool) []orders.Return {
	out := []orders.Return{}
	for _, r := range s.returns {
		if keep(r) {
			out = append(out, *copyReturn(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListReturns(_ context.Context) ([]orders.Return, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedReturns(func(*orders.Return) bool { return true }), nil
}

func (s *Store) ListReturnsByOrders(_ context.Context, orderIDs []uuid.UUID) ([]orders.Return, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(orderIDs))
	for _, id := range orderIDs {
		want[id] = true
	}
	return s.sortedReturns(func(r *orders.Return) bool { return want[r.OrderID] }), nil
}

func (s *Store) HasOpenReturn(_ context.Context, orderID, lineItemID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.returns {
		if r.OrderID == orderID && r.LineItemID != nil && *r.LineItemID == lineItemID && !r.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

// ---- notifications ----

func (s *Store) CreateNotification(_ context.Context, n *orders.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *Store) ListNotifications(_ context.Context, limit int) ([]orders.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]orders.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkRead(_ context.Context, id uuid.UUID) (*orders.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	n.IsRead = true
	cp := *n
	return &cp, nil
}

func (s *Store) MarkAllRead(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		n.IsRead = true
	}
	return nil
}

func (s *Store) DeleteNotification(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[id]; !ok {
		return orders.ErrNotFound
	}
	delete(s.notifications, id)
	return nil
}

// ---- delivery zones ----

func (s *Store) ZoneByCode(_ context.Context, code string) (*orders.DeliveryZone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, z := range s.zones {
		if z.Code == code {
			cp := *z
			return &cp, nil
		}
	}
	return nil, orders.ErrNotFound
}

func (s *Store) GetZone(_ context.Context, id uuid.UUID) (*orders.DeliveryZone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zones[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	cp := *z
	return &cp, nil
}

func (s *Store) ListZones(_ context.Context) ([]orders.DeliveryZone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]orders.DeliveryZone, 0, len(s.zones))
	for _, z := range s.zones {
		out = append(out, *z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateZone(_ context.Context, z *orders.DeliveryZone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.zones {
		if existing.Code == z.Code {
			return orders.ErrConflict
		}
	}
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	now := time.Now().UTC()
	z.CreatedAt, z.UpdatedAt = now, now
	cp := *z
	s.zones[z.ID] = &cp
	return nil
}

func (s *Store) UpdateZone(_ context.Context, z *orders.DeliveryZone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.zones[z.ID]; !ok {
		return orders.ErrNotFound
	}
	for _, existing := range s.zones {
		if existing.Code == z.Code && existing.ID != z.ID {
			return orders.ErrConflict
		}
	}
	z.UpdatedAt = time.Now().UTC()
	cp := *z
	s.zones[z.ID] = &cp
	return nil
}

func (s *Store) DeleteZone(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.zones[id]; !ok {
		return orders.ErrNotFound
	}
	delete(s.zones, id)
	return nil
}
