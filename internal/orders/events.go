package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated        = "OrderCreated"
	EventOrderCancelled      = "OrderCancelled"
	EventReturnUpdated       = "ReturnUpdated"
	EventNotificationCreated = "NotificationCreated"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id for order/return events
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID int64       `json:"product_id"`
	Qty       int         `json:"qty"`
	Variant   Combination `json:"variant,omitempty"`
}

func itemQtys(items []LineItem) []ItemQty {
	out := make([]ItemQty, 0, len(items))
	for _, it := range items {
		out = append(out, ItemQty{ProductID: it.ProductID, Qty: it.Qty, Variant: it.Variant})
	}
	return out
}

type OrderCreatedPayload struct {
	OrderID    string    `json:"order_id"`
	DisplayID  string    `json:"display_id"`
	UserID     string    `json:"user_id"`
	Items      []ItemQty `json:"items"`
	TotalPrice string    `json:"total_price"`
}

type OrderCancelledPayload struct {
	OrderID  string    `json:"order_id"`
	ReturnID string    `json:"return_id"`
	Restored []ItemQty `json:"restored"`
}

type ReturnUpdatedPayload struct {
	ReturnID string       `json:"return_id"`
	OrderID  string       `json:"order_id"`
	Type     ReturnType   `json:"type"`
	From     ReturnStatus `json:"from"`
	To       ReturnStatus `json:"to"`
}

type NotificationCreatedPayload struct {
	NotificationID string           `json:"notification_id"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	RelatedID      string           `json:"related_id,omitempty"`
}
