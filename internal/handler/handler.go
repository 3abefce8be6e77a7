// Package handler exposes the point-of-sale operations over HTTP.
package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/kasir/internal/domain/auth"
	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/menu"
	"github.com/xenking/kasir/internal/domain/order"
	"github.com/xenking/kasir/internal/domain/report"
	"github.com/xenking/kasir/pkg/changefeed"
)

// Handler serves the /api routes, delegating business logic to the domain
// services and repositories.
type Handler struct {
	orders  *order.Service
	menu    menu.Repository
	members member.Repository
	reports *report.Service
	changes changefeed.Source

	now   func() time.Time
	newID func() string

	closing      context.Context
	closeStreams context.CancelFunc
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	orders *order.Service,
	menuRepo menu.Repository,
	members member.Repository,
	reports *report.Service,
	changes changefeed.Source,
) *Handler {
	closing, closeStreams := context.WithCancel(context.Background())
	return &Handler{
		orders:       orders,
		menu:         menuRepo,
		members:      members,
		reports:      reports,
		changes:      changes,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
		closing:      closing,
		closeStreams: closeStreams,
	}
}

// CloseStreams ends all open and future event streams. The server calls it
// on shutdown since streams never finish on their own.
func (h *Handler) CloseStreams() {
	h.closeStreams()
}

// streamContext derives a context that is also cancelled by CloseStreams.
func (h *Handler) streamContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(h.closing, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Routes returns the API router. Every route requires an authenticated user
// whose role grants the route's permission.
func (h *Handler) Routes(sec *SecurityHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(sec.Authenticate)

	r.Route("/menu", func(r chi.Router) {
		r.With(sec.Require(auth.PermReadMenu)).Get("/", h.ListMenu)
		r.With(sec.Require(auth.PermManageMenu)).Post("/", h.UpsertMenuItem)
		r.With(sec.Require(auth.PermReadMenu)).Get("/{id}", h.GetMenuItem)
		r.With(sec.Require(auth.PermManageMenu)).Put("/{id}/availability", h.SetMenuAvailability)
		r.With(sec.Require(auth.PermManageMenu)).Put("/{id}/price", h.SetMenuPrice)
	})

	r.Route("/members", func(r chi.Router) {
		r.With(sec.Require(auth.PermReadMembers)).Get("/", h.ListMembers)
		r.With(sec.Require(auth.PermManageMembers)).Post("/", h.CreateMember)
		r.With(sec.Require(auth.PermReadMembers)).Get("/{id}", h.GetMember)
		r.With(sec.Require(auth.PermReadMembers)).Get("/{id}/stream", h.StreamMember)
	})

	r.Route("/orders", func(r chi.Router) {
		r.With(sec.Require(auth.PermSubmitOrder)).Post("/", h.SubmitOrder)
		r.With(sec.Require(auth.PermSubmitOrder)).Post("/quote", h.QuoteOrder)
		r.With(sec.Require(auth.PermReadOrders)).Get("/", h.ListOrders)
		r.With(sec.Require(auth.PermReadOrders)).Get("/stream", h.StreamOrders)
		r.With(sec.Require(auth.PermReadOrders)).Get("/{id}", h.GetOrder)
		r.With(sec.Require(auth.PermUpdateOrderStatus)).Put("/{id}/status", h.UpdateOrderStatus)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Use(sec.Require(auth.PermReadReports))
		r.Get("/sales", h.SalesReport)
		r.Get("/daily", h.DailyReport)
		r.Get("/top-items", h.TopItemsReport)
	})

	return r
}

// writeError maps domain errors to HTTP status codes. Unexpected errors are
// logged and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, status, func(e *jx.Encoder) { encodeError(e, status, msg) })
}

func errorStatus(err error) int {
	var (
		iqErr *order.InvalidQuantityError
		nfErr *order.MenuItemNotFoundError
		uaErr *order.UnavailableItemError
		itErr *order.InvalidTransitionError
	)
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, order.ErrEmptyOrder),
		errors.As(err, &iqErr),
		errors.Is(err, order.ErrInvalidPercentage),
		errors.Is(err, order.ErrNegativePrice),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, menu.ErrInvalidItem),
		errors.Is(err, menu.ErrNegativePrice),
		errors.Is(err, member.ErrInvalidMember),
		errors.Is(err, member.ErrInvalidDiscount),
		errors.Is(err, report.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, menu.ErrNotFound),
		errors.Is(err, member.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &itErr):
		return http.StatusConflict
	case errors.As(err, &nfErr), errors.As(err, &uaErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Errorf("%w: read body: %v", errBadRequest, err)
	}
	return data, nil
}

// queryTime parses an RFC 3339 timestamp or a calendar date (UTC midnight).
func queryTime(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, errors.Errorf("%w: invalid %s %q", errBadRequest, name, v)
	}
	return t, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.Errorf("%w: invalid %s %q", errBadRequest, name, v)
	}
	return n, nil
}

// queryList splits repeated and comma-separated values of a parameter.
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
