package httpx

import (
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"net/http"
)

func (a *API) requestReturn(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFrom(r.Context())
	var in orders.ReturnInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ret, err := a.Returns.Request(r.Context(), user, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ret.Type == orders.ReturnTypeCancellation {
		a.invalidateStatus(r.Context(), r, ret.OrderID)
	}
	writeJSON(w, http.StatusCreated, ret)
}

func (a *API) myReturns(w http.ResponseWriter, r *http.Request) {
	user, _ := identityFrom(r.Context())
	list, err := a.Returns.Mine(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) listReturns(w http.ResponseWriter, r *http.Request) {
	list, err := a.Returns.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) updateReturn(w http.ResponseWriter, r *http.Request) {
	var in orders.ReturnStatusInput
	if !decodeJSON(w, r, &in) {
		return
	}
	ret, err := a.Returns.UpdateStatus(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.invalidateStatus(r.Context(), r, ret.OrderID)
	writeJSON(w, http.StatusOK, ret)
}
