// internal/booking/handler.go
package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the booking endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/reservations", h.HandleReserve)
	r.Delete("/reservations/{id}", h.HandleRelease)
	r.Get("/items/{id}/availability", h.HandleAvailability)
	return r
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg, Code: code})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
	case errors.Is(err, ErrItemNotFound):
		writeError(w, http.StatusNotFound, "item_not_found", err.Error())
	case errors.Is(err, ErrMemberNotFound):
		writeError(w, http.StatusUnauthorized, "unknown_member", err.Error())
	case errors.Is(err, ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ErrReservationNotFound):
		writeError(w, http.StatusNotFound, "reservation_not_found", err.Error())
	case errors.Is(err, ErrNotHolder):
		writeError(w, http.StatusForbidden, "not_holder", err.Error())
	case errors.Is(err, ErrStorageTimeout):
		writeError(w, http.StatusServiceUnavailable, "storage_timeout", err.Error())
	default:
		writeError(w, http.StatusServiceUnavailable, "storage_error", "reservation store unavailable")
	}
}

func (h *Handler) HandleReserve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID uuid.UUID `json:"member_id"`
		ItemID   uuid.UUID `json:"item_id"`
		StartsAt time.Time `json:"starts_at"`
		EndsAt   time.Time `json:"ends_at"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
		return
	}
	if req.MemberID == uuid.Nil || req.ItemID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "missing_required_field", "member_id and item_id are required")
		return
	}

	res, err := h.service.Reserve(r.Context(), req.MemberID, req.ItemID, req.StartsAt, req.EndsAt)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(res)
}

func (h *Handler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid item ID")
		return
	}

	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		asOf, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_as_of", "as_of must be RFC 3339")
			return
		}
	}

	avail, err := h.service.CheckAvailability(r.Context(), itemID, asOf)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(avail)
}

func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid reservation ID")
		return
	}

	memberID, err := uuid.Parse(r.Header.Get("X-Member-ID"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unknown_member", "missing or invalid X-Member-ID header")
		return
	}

	if err := h.service.Release(r.Context(), memberID, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
