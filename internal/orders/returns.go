package orders

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"strconv"
	"sync/atomic"
	"time"
)

type ReturnInput struct {
	OrderID                  string     `json:"orderId"`
	ProductID                string     `json:"productId"` // product id or line item id
	Reason                   string     `json:"reason"`
	Comment                  string     `json:"comment"`
	Type                     ReturnType `json:"type"`
	Images                   []string   `json:"images"`
	SelectedReplacementSize  string     `json:"selectedReplacementSize"`
	SelectedReplacementColor string     `json:"selectedReplacementColor"`
}

type ReturnStatusInput struct {
	Status ReturnStatus `json:"status"`
	Note   string       `json:"note"`
}

var lastRef atomic.Int64

// nextRef returns PREFIX-<unix millis>, bumped past the last ref handed out
// so refs stay unique within the process.
func nextRef(prefix string, now time.Time) string {
	for {
		last := lastRef.Load()
		n := now.UnixMilli()
		if n <= last {
			n = last + 1
		}
		if lastRef.CompareAndSwap(last, n) {
			return fmt.Sprintf("%s-%d", prefix, n)
		}
	}
}

// ReturnView is a return with its order's display id resolved.
type ReturnView struct {
	Return
	OrderDisplayID string `json:"orderDisplayId"`
}

// Reconciler keeps orders and stock in step with return and cancellation
// requests.
type Reconciler struct {
	Orders   OrderStore
	Returns  ReturnStore
	Ledger   StockLedger
	Notifier Notifier
	Events   EventPublisher // optional
	Log      zerolog.Logger
	Now      func() time.Time
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

// Request opens a Return, Replacement or Cancellation for one of user's orders.
func (r *Reconciler) Request(ctx context.Context, user Identity, in ReturnInput) (*Return, error) {
	if !in.Type.Valid() {
		return nil, validation("Invalid request type: %s", in.Type)
	}
	orderID, err := uuid.Parse(in.OrderID)
	if err != nil {
		return nil, validation("Invalid order ID format")
	}
	o, err := r.Orders.GetOrder(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	if o.UserID != user.ID {
		return nil, forbidden("Not authorized to return items for this order")
	}
	if in.Type == ReturnTypeCancellation {
		return r.requestCancellation(ctx, user, o, in)
	}
	return r.requestReturn(ctx, user, o, in)
}

func (r *Reconciler) requestReturn(ctx context.Context, user Identity, o *Order, in ReturnInput) (*Return, error) {
	var item *LineItem
	for i := range o.Items {
		it := &o.Items[i]
		if strconv.FormatInt(it.ProductID, 10) == in.ProductID || it.ID.String() == in.ProductID {
			item = it
			break
		}
	}
	if item == nil {
		return nil, notFound("Product not found in order")
	}
	if in.Reason == "" {
		return nil, validation("Reason is required")
	}
	open, err := r.Returns.HasOpenReturn(ctx, o.ID, item.ID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, conflict("An open request already exists for %s", item.Name)
	}

	now := r.now()
	comment := in.Comment
	if in.SelectedReplacementSize != "" || in.SelectedReplacementColor != "" {
		comment = fmt.Sprintf("%s [Replacement: Size %s, Color %s]", comment, in.SelectedReplacementSize, in.SelectedReplacementColor)
	}
	itemID := item.ID
	ret := &Return{
		ID:         uuid.New(),
		Ref:        nextRef("RET", now),
		OrderID:    o.ID,
		LineItemID: &itemID,
		Customer:   user.Name,
		Product:    ProductSnapshot{Name: item.Name, Image: item.Image, Price: item.Price},
		Type:       in.Type,
		Reason:     in.Reason,
		Comment:    comment,
		Images:     in.Images,
		Status:     ReturnPending,
		Timeline:   []TimelineEntry{{Status: ReturnPending, Note: fmt.Sprintf("%s request initiated", in.Type), Time: now}},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.Returns.CreateReturn(ctx, ret); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, conflict("An open request already exists for %s", item.Name)
		}
		return nil, err
	}

	itemStatus := "Replacement Requested"
	if in.Type == ReturnTypeReturn {
		itemStatus = "Return Requested"
	}
	if err := r.Orders.SetItemStatus(ctx, o.ID, item.ID, itemStatus); err != nil {
		return nil, err
	}

	r.notify(ctx, &Notification{
		Type:      NotificationReturn,
		Title:     fmt.Sprintf("New %s Request", in.Type),
		Message:   fmt.Sprintf("%s requested for Order #%s", in.Type, o.DisplayID),
		RelatedID: ret.ID.String(),
	})
	return ret, nil
}

func (r *Reconciler) requestCancellation(ctx context.Context, user Identity, o *Order, in ReturnInput) (*Return, error) {
	if !o.Status.Cancellable() {
		return nil, validation("Order cannot be cancelled in its current status: %s", o.Status)
	}
	prev := o.Status
	ok, err := r.Orders.CompareAndSetStatus(ctx, o.ID, prev, StatusCancellationRequested)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, conflict("Order status changed, please retry")
	}

	now := r.now()
	reason := in.Reason
	if reason == "" {
		reason = "User requested cancellation"
	}
	image := ""
	if len(o.Items) > 0 {
		image = o.Items[0].Image
	}
	ret := &Return{
		ID:                  uuid.New(),
		Ref:                 nextRef("CAN", now),
		OrderID:             o.ID,
		Customer:            user.Name,
		Product:             ProductSnapshot{Name: "Whole Order Cancellation", Image: image, Price: o.TotalPrice},
		Type:                ReturnTypeCancellation,
		Reason:              reason,
		Comment:             in.Comment,
		Status:              ReturnPending,
		PreviousOrderStatus: prev,
		Timeline:            []TimelineEntry{{Status: ReturnPending, Note: "Cancellation request initiated", Time: now}},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := r.Returns.CreateReturn(ctx, ret); err != nil {
		if _, rerr := r.Orders.CompareAndSetStatus(ctx, o.ID, StatusCancellationRequested, prev); rerr != nil {
			r.Log.Error().Err(rerr).Str("order_id", o.ID.String()).Msg("revert cancellation request")
		}
		return nil, err
	}

	r.notify(ctx, &Notification{
		Type:      NotificationReturn,
		Title:     "New Cancellation Request",
		Message:   fmt.Sprintf("Cancellation requested for Order #%s", o.DisplayID),
		RelatedID: ret.ID.String(),
	})
	return ret, nil
}

// UpdateStatus advances a return and syncs its order. The order sync is
// best effort: a missing order or a failed stock restore is logged, not
// returned.
func (r *Reconciler) UpdateStatus(ctx context.Context, idOrRef string, in ReturnStatusInput) (*Return, error) {
	ret, err := r.find(ctx, idOrRef)
	if err != nil {
		return nil, err
	}
	if in.Status == "" {
		return nil, validation("Status is required")
	}
	if !in.Status.Valid() {
		return nil, validation("Invalid return status: %s", in.Status)
	}
	from := ret.Status
	if !CanTransition(from, in.Status) {
		return nil, conflict("Return request is %s and cannot move to %s", from, in.Status)
	}

	now := r.now()
	note := in.Note
	if note == "" {
		note = fmt.Sprintf("Status updated to %s", in.Status)
	}
	ret.Status = in.Status
	ret.Timeline = append(ret.Timeline, TimelineEntry{Status: in.Status, Note: note, Time: now})
	ret.UpdatedAt = now
	if err := r.Returns.UpdateReturn(ctx, ret, from); err != nil {
		return nil, err
	}

	r.syncOrder(ctx, ret)
	r.publish(ctx, TopicReturnUpdated, EventReturnUpdated, ret.OrderID.String(), ReturnUpdatedPayload{
		ReturnID: ret.ID.String(),
		OrderID:  ret.OrderID.String(),
		Type:     ret.Type,
		From:     from,
		To:       ret.Status,
	})
	return ret, nil
}

func (r *Reconciler) find(ctx context.Context, idOrRef string) (*Return, error) {
	var (
		ret *Return
		err error
	)
	if id, perr := uuid.Parse(idOrRef); perr == nil {
		ret, err = r.Returns.GetReturn(ctx, id)
	} else {
		ret, err = r.Returns.GetReturnByRef(ctx, idOrRef)
	}
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("Return request not found")
	}
	return ret, err
}

func (r *Reconciler) syncOrder(ctx context.Context, ret *Return) {
	log := r.Log.With().Str("return_id", ret.ID.String()).Str("order_id", ret.OrderID.String()).Logger()
	o, err := r.Orders.GetOrder(ctx, ret.OrderID)
	if errors.Is(err, ErrNotFound) {
		log.Debug().Msg("order gone, skipping sync")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("load order for return sync")
		return
	}

	if ret.Type == ReturnTypeCancellation {
		switch ret.Status {
		case ReturnApproved, ReturnCompleted:
			r.cancelOrder(ctx, log, ret, o)
		case ReturnRejected:
			prev := ret.PreviousOrderStatus
			if prev == "" {
				prev = StatusPending
			}
			if _, err := r.Orders.CompareAndSetStatus(ctx, o.ID, StatusCancellationRequested, prev); err != nil {
				log.Error().Err(err).Msg("restore order status")
			}
		}
		return
	}

	item := returnedItem(o, ret)
	if item == nil {
		log.Debug().Msg("line item not found, skipping sync")
		return
	}
	var status string
	switch ret.Status {
	case ReturnRejected:
		status = string(StatusDelivered)
	case ReturnCompleted:
		status = "Replaced"
		if ret.Type == ReturnTypeReturn {
			status = "Returned"
		}
	default:
		status = string(ret.Status)
	}
	if err := r.Orders.SetItemStatus(ctx, o.ID, item.ID, status); err != nil {
		log.Error().Err(err).Msg("update item status")
	}
}

// cancelOrder restores stock only for the caller that moves the order to
// Cancelled, so repeated approvals restore once.
func (r *Reconciler) cancelOrder(ctx context.Context, log zerolog.Logger, ret *Return, o *Order) {
	if o.Status == StatusCancelled {
		return
	}
	ok, err := r.Orders.CompareAndSetStatus(ctx, o.ID, o.Status, StatusCancelled)
	if err != nil {
		log.Error().Err(err).Msg("cancel order")
		return
	}
	if !ok {
		return
	}
	if _, err := r.Ledger.Release(ctx, o.Items); err != nil {
		log.Error().Err(err).Msg("restore stock for cancelled order")
	}
	r.publish(ctx, TopicOrderCancelled, EventOrderCancelled, o.ID.String(), OrderCancelledPayload{
		OrderID:  o.ID.String(),
		ReturnID: ret.ID.String(),
		Restored: itemQtys(o.Items),
	})
}

// returnedItem finds the line item by id; records without one fall back to
// the snapshot name.
func returnedItem(o *Order, ret *Return) *LineItem {
	if ret.LineItemID != nil {
		item, _ := o.Item(*ret.LineItemID)
		return item
	}
	for i := range o.Items {
		if o.Items[i].Name == ret.Product.Name {
			return &o.Items[i]
		}
	}
	return nil
}

func (r *Reconciler) List(ctx context.Context) ([]ReturnView, error) {
	list, err := r.Returns.ListReturns(ctx)
	if err != nil {
		return nil, err
	}
	return r.withDisplayIDs(ctx, list)
}

func (r *Reconciler) Mine(ctx context.Context, user Identity) ([]ReturnView, error) {
	mine, err := r.Orders.ListOrdersByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(mine))
	for _, o := range mine {
		ids = append(ids, o.ID)
	}
	list, err := r.Returns.ListReturnsByOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	return r.withDisplayIDs(ctx, list)
}

func (r *Reconciler) withDisplayIDs(ctx context.Context, list []Return) ([]ReturnView, error) {
	ids := make([]uuid.UUID, 0, len(list))
	for _, ret := range list {
		ids = append(ids, ret.OrderID)
	}
	names, err := r.Orders.DisplayIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ReturnView, 0, len(list))
	for _, ret := range list {
		v := ReturnView{Return: ret, OrderDisplayID: names[ret.OrderID]}
		if v.OrderDisplayID == "" {
			v.OrderDisplayID = ret.OrderID.String()
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *Reconciler) notify(ctx context.Context, n *Notification) {
	if err := r.Notifier.Notify(ctx, n); err != nil {
		r.Log.Warn().Err(err).Str("type", string(n.Type)).Msg("create notification")
	}
}

func (r *Reconciler) publish(ctx context.Context, topic, eventType, key string, payload any) {
	if r.Events == nil {
		return
	}
	if err := r.Events.PublishEvent(ctx, topic, eventType, key, payload); err != nil {
		r.Log.Warn().Err(err).Str("topic", topic).Msg("publish event")
	}
}
