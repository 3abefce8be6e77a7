package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/kasir/internal/domain/menu"
)

// ListMenu returns the menu. ?available=true hides switched-off items and
// ?category narrows to one category.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	f := menu.Filter{
		OnlyAvailable: r.URL.Query().Get("available") == "true",
		Category:      r.URL.Query().Get("category"),
	}
	items, err := h.menu.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range items {
				encodeMenuItem(e, &items[i])
			}
		})
	})
}

// GetMenuItem returns one menu item.
func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	h.writeMenuItem(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

// UpsertMenuItem creates a menu item or replaces an existing one.
func (h *Handler) UpsertMenuItem(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := decodeMenuItem(data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := item.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.menu.Upsert(r.Context(), item); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeMenuItem(e, &item) })
}

// SetMenuAvailability switches an item on or off with {"isAvailable": bool}.
func (h *Handler) SetMenuAvailability(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	available, err := decodeField(data, "isAvailable", decodeBool)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.menu.SetAvailability(r.Context(), id, available); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeMenuItem(w, r, id, http.StatusOK)
}

// SetMenuPrice changes an item's price with {"price": "12.50"}. Existing
// orders keep their snapshot.
func (h *Handler) SetMenuPrice(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	price, err := decodeField(data, "price", decodeDecimal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if price.IsNegative() {
		writeError(w, r, menu.ErrNegativePrice)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.menu.SetPrice(r.Context(), id, price); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeMenuItem(w, r, id, http.StatusOK)
}

func (h *Handler) writeMenuItem(w http.ResponseWriter, r *http.Request, id string, status int) {
	item, err := h.menu.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, func(e *jx.Encoder) { encodeMenuItem(e, item) })
}
