// internal/catalog/handler.go
package catalog

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service     Service
	adminAPIKey string
}

func NewHandler(service Service, adminAPIKey string) *Handler {
	return &Handler{service: service, adminAPIKey: adminAPIKey}
}

// Routes mounts the catalog endpoints. Mutations require the admin API key.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/books", h.HandleSearch)
	r.Get("/books/{id}", h.HandleGetBook)
	r.Post("/books", h.requireAdmin(h.HandleAddBook))
	r.Delete("/books/{id}", h.requireAdmin(h.HandleRemoveBook))
	return r
}

func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(h.adminAPIKey)) != 1 {
			http.Error(w, "unauthorized access", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (h *Handler) HandleAddBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ISBN   string `json:"isbn"`
		Title  string `json:"title"`
		Author string `json:"author"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ISBN == "" || req.Title == "" || req.Author == "" {
		http.Error(w, "isbn, title and author are required", http.StatusBadRequest)
		return
	}

	book, err := h.service.AddBook(r.Context(), req.ISBN, req.Title, req.Author)
	if err != nil {
		if errors.Is(err, ErrDuplicateISBN) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(book)
}

func (h *Handler) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid book ID", http.StatusBadRequest)
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(book)
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("title")
	if query == "" {
		http.Error(w, "missing title parameter", http.StatusBadRequest)
		return
	}

	books, err := h.service.SearchByTitle(r.Context(), query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(books) == 0 {
		http.Error(w, "no books found matching the search query", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(books)
}

func (h *Handler) HandleRemoveBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid book ID", http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveBook(r.Context(), id); err != nil {
		if errors.Is(err, ErrBookNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
