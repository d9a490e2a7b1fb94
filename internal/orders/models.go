package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"time"
)

type VariantOption struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// VariantHeading is one axis of variation, e.g. "Color" with its options.
type VariantHeading struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Options []VariantOption `json:"options"`
}

type SKU struct {
	Combination Combination `json:"combination"`
	Stock       int         `json:"stock"`
}

type Product struct {
	ID              int64            `json:"id"` // external numeric id
	Name            string           `json:"name"`
	Image           string           `json:"image,omitempty"`
	Price           decimal.Decimal  `json:"price"`
	Stock           int              `json:"stock"`
	VariantHeadings []VariantHeading `json:"variantHeadings,omitempty"`
	SKUs            []SKU            `json:"skus,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// SKUIndex returns the position of the SKU matching c, or -1.
func (p *Product) SKUIndex(c Combination) int {
	for i := range p.SKUs {
		if p.SKUs[i].Combination.Matches(c) {
			return i
		}
	}
	return -1
}

type ShippingAddress struct {
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type PaymentResult struct {
	ID             string `json:"id,omitempty"`
	Status         string `json:"status,omitempty"`
	UpdateTime     string `json:"update_time,omitempty"`
	EmailAddress   string `json:"email_address,omitempty"`
	GatewayOrderID string `json:"gateway_order_id,omitempty"`
}

type LineItem struct {
	ID           uuid.UUID       `json:"_id"`
	ProductID    int64           `json:"product"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	Qty          int             `json:"qty"`
	Price        decimal.Decimal `json:"price"`
	Variant      Combination     `json:"variant,omitempty"`
	Status       string          `json:"status,omitempty"`
	SerialNumber string          `json:"serialNumber,omitempty"`
	SerialType   string          `json:"serialType,omitempty"`
}

type Order struct {
	ID              uuid.UUID       `json:"_id"`
	DisplayID       string          `json:"displayId"`
	UserID          string          `json:"user"`
	Items           []LineItem      `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentResult   *PaymentResult  `json:"paymentResult,omitempty"`
	TransactionID   string          `json:"transactionId,omitempty"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Item returns the line item with the given id.
func (o *Order) Item(id uuid.UUID) (*LineItem, bool) {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i], true
		}
	}
	return nil, false
}

type ProductSnapshot struct {
	Name  string          `json:"name"`
	Image string          `json:"image"`
	Price decimal.Decimal `json:"price"`
}

type TimelineEntry struct {
	Status ReturnStatus `json:"status"`
	Note   string       `json:"note,omitempty"`
	Time   time.Time    `json:"time"`
}

// Return covers Return, Replacement and Cancellation requests.
type Return struct {
	ID                  uuid.UUID       `json:"_id"`
	Ref                 string          `json:"id"`
	OrderID             uuid.UUID       `json:"orderId"`
	LineItemID          *uuid.UUID      `json:"lineItemId,omitempty"`
	Customer            string          `json:"customer"`
	Product             ProductSnapshot `json:"product"`
	Type                ReturnType      `json:"type"`
	Reason              string          `json:"reason"`
	Comment             string          `json:"comment,omitempty"`
	Images              []string        `json:"images,omitempty"`
	Status              ReturnStatus    `json:"status"`
	PreviousOrderStatus OrderStatus     `json:"previousOrderStatus,omitempty"`
	Timeline            []TimelineEntry `json:"timeline"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

type NotificationType string

const (
	NotificationOrder   NotificationType = "order"
	NotificationReturn  NotificationType = "return"
	NotificationStock   NotificationType = "stock"
	NotificationGeneral NotificationType = "general"
)

type Notification struct {
	ID        uuid.UUID        `json:"_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	RelatedID string           `json:"relatedId,omitempty"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}

// DeliveryZone is a serviceable postal code.
type DeliveryZone struct {
	ID           uuid.UUID `json:"_id"`
	Code         string    `json:"code"`
	DeliveryTime int       `json:"deliveryTime"`
	Unit         string    `json:"unit"` // hours | days | minutes
	IsCOD        bool      `json:"isCOD"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var deliveryUnits = map[string]bool{"hours": true, "days": true, "minutes": true}

func ValidDeliveryUnit(u string) bool { return deliveryUnits[u] }

// Identity is the caller as supplied by the auth collaborator.
type Identity struct {
	ID   string
	Name string
	Role string
}

var adminRoles = map[string]bool{"admin": true, "superadmin": true, "editor": true, "moderator": true}

func (i Identity) IsAdmin() bool { return adminRoles[i.Role] }
