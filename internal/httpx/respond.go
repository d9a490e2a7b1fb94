package httpx

import (
	"encoding/json"
	"errors"
	"github.com/ariefcatur/go-storefront-orders/internal/orders"
	"github.com/rs/zerolog/hlog"
	"net/http"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Message   string `json:"message"`
	Available *int   `json:"available,omitempty"`
}

// writeError maps the orders error taxonomy onto HTTP.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Message: err.Error()}
	var se *orders.StockError
	if errors.As(err, &se) {
		body.Available = &se.Available
	}
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, orders.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, orders.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, orders.ErrForbidden):
		code = http.StatusUnauthorized
	case errors.Is(err, orders.ErrConflict):
		code = http.StatusConflict
	case errors.Is(err, orders.ErrDisplayIDExhausted):
		code = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", "1")
	}
	if code == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}
	writeJSON(w, code, body)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Message: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}
