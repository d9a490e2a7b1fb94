package orders

import (
	"context"
	"github.com/google/uuid"
)

// Storage contracts. internal/postgres and internal/memstore implement all of them.

type ProductStore interface {
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	CreateProduct(ctx context.Context, p *Product) error
}

// StockLevel is a product's stock right after an adjustment.
// SKUIndex is -1 when no SKU took part.
type StockLevel struct {
	ProductID int64
	Name      string
	Stock     int
	SKUIndex  int
	SKUStock  int
}

type OrderFilter struct {
	Status OrderStatus
	Search string // display id, shipping name or email
	Email  string // shipping email, exact
	Page   int
	Limit  int // 0 = no pagination
}

type OrderStore interface {
	// CreateOrder returns ErrDuplicateDisplayID when the display id is taken.
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	DisplayIDExists(ctx context.Context, displayID string) (bool, error)
	DisplayIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]Order, int, error)
	// UpdateOrder persists status, delivery/payment flags and line item status and serials.
	UpdateOrder(ctx context.Context, o *Order) error
	// CompareAndSetStatus moves the order to `to` only if it is currently `from`.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to OrderStatus) (bool, error)
	SetItemStatus(ctx context.Context, orderID, itemID uuid.UUID, status string) error
}

type ReturnStore interface {
	CreateReturn(ctx context.Context, r *Return) error
	GetReturn(ctx context.Context, id uuid.UUID) (*Return, error)
	GetReturnByRef(ctx context.Context, ref string) (*Return, error)
	// UpdateReturn saves r only if the stored status still equals from.
	UpdateReturn(ctx context.Context, r *Return, from ReturnStatus) error
	ListReturns(ctx context.Context) ([]Return, error)
	ListReturnsByOrders(ctx context.Context, orderIDs []uuid.UUID) ([]Return, error)
	HasOpenReturn(ctx context.Context, orderID, lineItemID uuid.UUID) (bool, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) (*Notification, error)
	MarkAllRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id uuid.UUID) error
}

type ZoneStore interface {
	ZoneByCode(ctx context.Context, code string) (*DeliveryZone, error)
	GetZone(ctx context.Context, id uuid.UUID) (*DeliveryZone, error)
	ListZones(ctx context.Context) ([]DeliveryZone, error)
	CreateZone(ctx context.Context, z *DeliveryZone) error
	UpdateZone(ctx context.Context, z *DeliveryZone) error
	DeleteZone(ctx context.Context, id uuid.UUID) error
}

// StockLedger adjusts product stock for order line items.
type StockLedger interface {
	// Reserve decrements stock for every item or for none of them.
	Reserve(ctx context.Context, items []LineItem) ([]StockLevel, error)
	// Release and the compensation inside Reserve must not depend on ctx
	// staying alive.
	Release(ctx context.Context, items []LineItem) ([]StockLevel, error)
	AlertLowStock(ctx context.Context, levels []StockLevel)
}

type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, eventType, key string, payload any) error
}
