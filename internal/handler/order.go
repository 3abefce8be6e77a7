package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/kasir/internal/domain/auth"
	"github.com/xenking/kasir/internal/domain/order"
)

// SubmitOrder persists a checkout and responds 201 with the stored order.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	h.checkout(w, r, http.StatusCreated, h.orders.SubmitOrder)
}

// QuoteOrder prices a cart without storing it.
func (h *Handler) QuoteOrder(w http.ResponseWriter, r *http.Request) {
	h.checkout(w, r, http.StatusOK, h.orders.Quote)
}

func (h *Handler) checkout(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	run func(ctx context.Context, req order.SubmitRequest) (*order.Order, error),
) {
	data, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := decodeSubmitBody(data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Repeated lines of the same item and notes collapse into one.
	cart := order.NewCart(body.TableNumber)
	cart.MemberID = body.MemberID
	for _, line := range body.Items {
		if err := cart.Add(line.MenuItemID, line.Quantity, line.Notes); err != nil {
			writeError(w, r, err)
			return
		}
	}

	var createdBy string
	if u := auth.UserFromContext(r.Context()); u != nil {
		createdBy = u.ID
	}

	o, err := run(r.Context(), cart.Request(createdBy, body.PayNow))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// GetOrder returns one order with its items.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// ListOrders returns orders filtered by the status, from, to, memberId and
// limit query parameters.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q, err := parseOrderQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	orders, err := h.orders.List(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrders(e, orders) })
}

// StreamOrders sends the filtered order list now and after every change.
func (h *Handler) StreamOrders(w http.ResponseWriter, r *http.Request) {
	q, err := parseOrderQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := h.streamContext(r.Context())
	defer cancel()
	streamSSE(w, h.orders.Watch(ctx, q), encodeOrders)
}

// UpdateOrderStatus applies a lifecycle transition given as {"status": "..."}.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	raw, err := decodeField(data, "status", decodeStr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	next, err := order.ParseStatus(raw)
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.orders.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), next)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func parseOrderQuery(r *http.Request) (order.Query, error) {
	var (
		q   order.Query
		err error
	)
	for _, s := range queryList(r, "status") {
		st, err := order.ParseStatus(s)
		if err != nil {
			return order.Query{}, err
		}
		q.Statuses = append(q.Statuses, st)
	}
	if q.From, err = queryTime(r, "from"); err != nil {
		return order.Query{}, err
	}
	if q.To, err = queryTime(r, "to"); err != nil {
		return order.Query{}, err
	}
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		return order.Query{}, err
	}
	q.MemberID = r.URL.Query().Get("memberId")
	return q, nil
}
