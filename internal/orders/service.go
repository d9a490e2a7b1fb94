package orders

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"time"
)

// Service runs order placement: validate -> reserve stock -> write order ->
// alerts. A failed write releases the reservation again.
type Service struct {
	Validator *Validator
	Writer    *Writer
	Orders    OrderStore
	Ledger    StockLedger
	Notifier  Notifier
	Events    EventPublisher // optional
	Log       zerolog.Logger
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) PlaceOrder(ctx context.Context, user Identity, in *PlaceOrderInput) (*Order, error) {
	items, err := s.Validator.Validate(ctx, in)
	if err != nil {
		return nil, err
	}

	levels, err := s.Ledger.Reserve(ctx, items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range items {
		items[i].ID = uuid.New()
	}
	o := &Order{
		ID:              uuid.New(),
		UserID:          user.ID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		PaymentResult:   in.PaymentResult,
		ItemsPrice:      in.ItemsPrice,
		TaxPrice:        in.TaxPrice,
		ShippingPrice:   in.ShippingPrice,
		TotalPrice:      in.TotalPrice,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = "COD"
	}
	if in.PaymentResult != nil {
		o.TransactionID = in.PaymentResult.ID
	}
	if in.IsPaid {
		o.IsPaid = true
		o.PaidAt = &now
	}

	if err := s.Writer.Write(ctx, o); err != nil {
		if _, rerr := s.Ledger.Release(ctx, items); rerr != nil {
			s.Log.Error().Err(rerr).Str("user_id", user.ID).Msg("release stock after failed order write")
		}
		return nil, err
	}

	s.Ledger.AlertLowStock(ctx, levels)

	s.notify(ctx, &Notification{
		Type:      NotificationOrder,
		Title:     "New Order Received",
		Message:   fmt.Sprintf("Order #%s placed by %s for ₹%s", o.DisplayID, user.Name, o.TotalPrice.StringFixed(2)),
		RelatedID: o.ID.String(),
	})
	s.publish(ctx, TopicOrderCreated, EventOrderCreated, o.ID.String(), OrderCreatedPayload{
		OrderID:    o.ID.String(),
		DisplayID:  o.DisplayID,
		UserID:     o.UserID,
		Items:      itemQtys(o.Items),
		TotalPrice: o.TotalPrice.String(),
	})

	s.Log.Info().Str("order_id", o.ID.String()).Str("display_id", o.DisplayID).Int("items", len(o.Items)).Msg("order placed")
	return o, nil
}

// GetOrder returns the order if user owns it or is an admin.
func (s *Service) GetOrder(ctx context.Context, user Identity, id uuid.UUID) (*Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != user.ID && !user.IsAdmin() {
		return nil, forbidden("Not authorized to view this order")
	}
	return o, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.Orders.GetOrder(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("Order not found")
	}
	return o, err
}

func (s *Service) MyOrders(ctx context.Context, user Identity) ([]Order, error) {
	return s.Orders.ListOrdersByUser(ctx, user.ID)
}

type OrderPage struct {
	Orders []Order `json:"orders"`
	Page   int     `json:"page"`
	Pages  int     `json:"pages"`
	Total  int     `json:"total"`
}

func (s *Service) ListOrders(ctx context.Context, f OrderFilter) (*OrderPage, error) {
	if f.Limit > 0 && f.Page <= 0 {
		f.Page = 1
	}
	list, total, err := s.Orders.ListOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	page := &OrderPage{Orders: list, Page: f.Page, Total: total}
	if f.Limit > 0 {
		page.Pages = (total + f.Limit - 1) / f.Limit
	}
	return page, nil
}

type SerialInput struct {
	ItemID string `json:"itemId"`
	Serial string `json:"serial"`
	Type   string `json:"type"`
}

type StatusInput struct {
	Status        OrderStatus   `json:"status"`
	SerialNumbers []SerialInput `json:"serialNumbers"`
}

// UpdateStatus is the admin status change. It does not touch stock.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, in StatusInput) (*Order, error) {
	if !in.Status.Valid() {
		return nil, validation("Invalid order status: %s", in.Status)
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	o.Status = in.Status
	if in.Status == StatusDelivered {
		o.IsDelivered = true
		o.DeliveredAt = &now
	}
	for _, sn := range in.SerialNumbers {
		itemID, err := uuid.Parse(sn.ItemID)
		if err != nil {
			continue
		}
		if item, ok := o.Item(itemID); ok {
			item.SerialNumber = sn.Serial
			item.SerialType = sn.Type
			if item.SerialType == "" {
				item.SerialType = "Serial Number"
			}
		}
	}
	o.UpdatedAt = now
	if err := s.Orders.UpdateOrder(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) notify(ctx context.Context, n *Notification) {
	if err := s.Notifier.Notify(ctx, n); err != nil {
		s.Log.Warn().Err(err).Str("type", string(n.Type)).Msg("create notification")
	}
}

func (s *Service) publish(ctx context.Context, topic, eventType, key string, payload any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, topic, eventType, key, payload); err != nil {
		s.Log.Warn().Err(err).Str("topic", topic).Msg("publish event")
	}
}
