package httpx

import (
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"net/http"
	"strconv"
)

// notifications

func (a *API) listNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := a.Inbox.Latest(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) markRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "Invalid notification ID")
	if !ok {
		return
	}
	n, err := a.Inbox.MarkRead(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (a *API) markAllRead(w http.ResponseWriter, r *http.Request) {
	if err := a.Inbox.MarkAllRead(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "All notifications marked as read")
}

func (a *API) deleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "Invalid notification ID")
	if !ok {
		return
	}
	if err := a.Inbox.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Notification removed")
}

// delivery zones

func (a *API) checkZone(w http.ResponseWriter, r *http.Request) {
	res, err := a.Zones.Check(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) listZones(w http.ResponseWriter, r *http.Request) {
	list, err := a.Zones.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) createZone(w http.ResponseWriter, r *http.Request) {
	var in orders.ZoneInput
	if !decodeJSON(w, r, &in) {
		return
	}
	z, err := a.Zones.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, z)
}

func (a *API) updateZone(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "Invalid PIN Code ID")
	if !ok {
		return
	}
	var in orders.ZoneInput
	if !decodeJSON(w, r, &in) {
		return
	}
	z, err := a.Zones.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, z)
}

func (a *API) deleteZone(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "Invalid PIN Code ID")
	if !ok {
		return
	}
	if err := a.Zones.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "PIN Code removed")
}

// products

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := a.Catalog.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (a *API) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return
	}
	p, err := a.Catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	var p orders.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := a.Catalog.Create(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}
