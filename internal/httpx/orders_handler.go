package httpx

import (
	"context"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/ariefcatur/go-storefront-orders/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
	"net/http"
	"strconv"
)

const defaultPageSize = 12

// API serves the storefront order workflow. Idempotency and StatusCache are
// optional; without them every request goes to the store.
type API struct {
	Orders      *orders.Service
	Returns     *orders.Reconciler
	Zones       *orders.Zones
	Catalog     *orders.Catalog
	Inbox       *orders.Inbox
	Idempotency *redisx.Idempotency
	StatusCache *redisx.StatusCache
}

func (a *API) Register(r chi.Router) {
	r.Get("/products", a.listProducts)
	r.Get("/products/{id}", a.getProduct)
	r.Get("/pincodes/check/{code}", a.checkZone)

	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.Post("/orders", a.placeOrder)
		r.Get("/orders/mine", a.myOrders)
		r.Get("/orders/{id}", a.getOrder)
		r.Get("/orders/{id}/status", a.orderStatus)
		r.Post("/returns", a.requestReturn)
		r.Get("/returns/mine", a.myReturns)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/orders", a.listOrders)
			r.Put("/orders/{id}/status", a.updateOrderStatus)

			r.Get("/returns", a.listReturns)
			r.Put("/returns/{id}", a.updateReturn)

			r.Get("/notifications", a.listNotifications)
			r.Put("/notifications/read-all", a.markAllRead)
			r.Put("/notifications/{id}/read", a.markRead)
			r.Delete("/notifications/{id}", a.deleteNotification)

			r.Get("/pincodes", a.listZones)
			r.Post("/pincodes", a.createZone)
			r.Put("/pincodes/{id}", a.updateZone)
			r.Delete("/pincodes/{id}", a.deleteZone)

			r.Post("/products", a.createProduct)
		})
	})
}

func pathUUID(w http.ResponseWriter, r *http.Request, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, msg)
		return uuid.Nil, false
	}
	return id, true
}

func (a *API) placeOrder(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFrom(r.Context())
	var in orders.PlaceOrderInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ctx := r.Context()
	log := hlog.FromRequest(r)

	key := r.Header.Get("Idempotency-Key")
	claimed := false
	if key != "" && a.Idempotency != nil {
		ok, orderID, err := a.Idempotency.Claim(ctx, user.ID, key)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("idempotency unavailable, placing without it")
		case !ok && orderID == "":
			writeMessage(w, http.StatusConflict, "A request with this Idempotency-Key is still in progress")
			return
		case !ok:
			a.replayOrder(w, r, user, orderID)
			return
		default:
			claimed = true
		}
	}

	o, err := a.Orders.PlaceOrder(ctx, user, &in)
	if err != nil {
		if claimed {
			if rerr := a.Idempotency.Release(context.WithoutCancel(ctx), user.ID, key); rerr != nil {
				log.Warn().Err(rerr).Msg("release idempotency key")
			}
		}
		writeError(w, r, err)
		return
	}
	if claimed {
		if err := a.Idempotency.Complete(context.WithoutCancel(ctx), user.ID, key, o.ID.String()); err != nil {
			log.Warn().Err(err).Msg("complete idempotency key")
		}
	}
	a.cacheStatus(ctx, r, o)
	writeJSON(w, http.StatusCreated, o)
}

func (a *API) replayOrder(w http.ResponseWriter, r *http.Request, user orders.Identity, orderID string) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		writeMessage(w, http.StatusConflict, "Idempotency-Key is bound to an unknown order")
		return
	}
	o, err := a.Orders.GetOrder(r.Context(), user, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Idempotent-Replayed", "true")
	writeJSON(w, http.StatusOK, o)
}

func (a *API) cacheStatus(ctx context.Context, r *http.Request, o *orders.Order) {
	if a.StatusCache == nil {
		return
	}
	err := a.StatusCache.Set(ctx, o.ID.String(), redisx.CachedStatus{Status: string(o.Status), UserID: o.UserID, UpdatedAt: o.UpdatedAt})
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("cache order status")
	}
}

func (a *API) invalidateStatus(ctx context.Context, r *http.Request, orderID uuid.UUID) {
	if a.StatusCache == nil {
		return
	}
	if err := a.StatusCache.Invalidate(ctx, orderID.String()); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("invalidate order status")
	}
}

func (a *API) myOrders(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFrom(r.Context())
	list, err := a.Orders.MyOrders(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "Invalid order ID format")
	if !ok {
		return
	}
	user, _ := identityFrom(r.Context())
	o, err := a.Orders.GetOrder(r.Context(), user, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (a *API) orderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "Invalid order ID format")
	if !ok {
		return
	}
	ctx := r.Context()
	user, _ := identityFrom(ctx)

	if a.StatusCache != nil {
		s, hit, err := a.StatusCache.Get(ctx, id.String())
		if err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("read order status cache")
		}
		if hit {
			if s.UserID != user.ID && !user.IsAdmin() {
				writeMessage(w, http.StatusUnauthorized, "Not authorized to view this order")
				return
			}
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	o, err := a.Orders.GetOrder(ctx, user, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.cacheStatus(ctx, r, o)
	writeJSON(w, http.StatusOK, redisx.CachedStatus{Status: string(o.Status), UserID: o.UserID, UpdatedAt: o.UpdatedAt})
}

func (a *API) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := orders.OrderFilter{
		Search: q.Get("search"),
		Email:  q.Get("user"),
	}
	if s := q.Get("status"); s != "" && s != "All" {
		f.Status = orders.OrderStatus(s)
	}
	paged := q.Has("pageNumber") || q.Has("limit")
	if paged {
		f.Page, _ = strconv.Atoi(q.Get("pageNumber"))
		f.Limit, _ = strconv.Atoi(q.Get("limit"))
		if f.Page <= 0 {
			f.Page = 1
		}
		if f.Limit <= 0 {
			f.Limit = defaultPageSize
		}
	}
	page, err := a.Orders.ListOrders(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !paged {
		writeJSON(w, http.StatusOK, page.Orders)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "Invalid order ID format")
	if !ok {
		return
	}
	var in orders.StatusInput
	if !decodeJSON(w, r, &in) {
		return
	}
	o, err := a.Orders.UpdateStatus(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.invalidateStatus(r.Context(), r, o.ID)
	writeJSON(w, http.StatusOK, o)
}
