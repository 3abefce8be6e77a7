package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/pkg/changefeed"
)

// ListMembers returns all loyalty members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range members {
				encodeMember(e, &members[i])
			}
		})
	})
}

// GetMember returns one member with its statistics.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.members.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeMember(e, m) })
}

// CreateMember registers a member. Statistics always start at zero.
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, err := decodeMember(data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := m.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	m.ID = h.newID()
	m.JoinDate = h.now().UTC()

	if err := h.members.Create(r.Context(), &m); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeMember(e, &m) })
}

// StreamMember sends the member now and after every member change.
func (h *Handler) StreamMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.members.GetByID(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := h.streamContext(r.Context())
	defer cancel()

	updates := changefeed.Watch(ctx, h.changes, member.Topic,
		func(ctx context.Context) (*member.Member, error) { return h.members.GetByID(ctx, id) },
		func(err error) { zctx.From(ctx).Warn("Reload watched member", zap.Error(err)) },
	)
	streamSSE(w, updates, encodeMember)
}
