package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/menu"
	"github.com/xenking/kasir/pkg/changefeed"
)

// DefaultTaxPercentage is applied when no tax percentage is configured.
var DefaultTaxPercentage = decimal.NewFromInt(10)

// SubmitRequest holds the input for submitting an order at checkout.
type SubmitRequest struct {
	TableNumber string
	Items       []Line
	MemberID    string
	CreatedBy   string
	// PayNow completes the order immediately instead of leaving it in
	// PROCESSING.
	PayNow bool
}

// Option configures a Service.
type Option func(*Service)

// WithTaxPercentage overrides DefaultTaxPercentage.
func WithTaxPercentage(p decimal.Decimal) Option {
	return func(s *Service) { s.taxPercentage = p }
}

// WithMeterProvider sets the provider for order metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// WithTracerProvider sets the provider for order spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// Service encapsulates the order lifecycle: pricing, submission, status
// changes and live reads.
type Service struct {
	menu    menu.Repository
	members member.Repository
	orders  Repository
	changes changefeed.Source

	taxPercentage  decimal.Decimal
	now            func() time.Time
	newID          func() string
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	tracer      trace.Tracer
	submitted   metric.Int64Counter
	revenue     metric.Float64Counter
	transitions metric.Int64Counter
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	menuRepo menu.Repository,
	members member.Repository,
	orders Repository,
	changes changefeed.Source,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		menu:           menuRepo,
		members:        members,
		orders:         orders,
		changes:        changes,
		taxPercentage:  DefaultTaxPercentage,
		now:            time.Now,
		newID:          func() string { return uuid.New().String() },
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !validPercentage(s.taxPercentage) {
		return nil, errors.Wrap(ErrInvalidPercentage, "tax")
	}

	s.tracer = s.tracerProvider.Tracer("kasir/order")
	meter := s.meterProvider.Meter("kasir/order")

	var err error
	if s.submitted, err = meter.Int64Counter("kasir.orders.submitted",
		metric.WithDescription("Orders persisted at checkout"),
	); err != nil {
		return nil, errors.Wrap(err, "submitted counter")
	}
	if s.revenue, err = meter.Float64Counter("kasir.orders.final_price",
		metric.WithDescription("Sum of final prices of submitted orders"),
	); err != nil {
		return nil, errors.Wrap(err, "revenue counter")
	}
	if s.transitions, err = meter.Int64Counter("kasir.orders.transitions",
		metric.WithDescription("Order status changes"),
	); err != nil {
		return nil, errors.Wrap(err, "transitions counter")
	}

	return s, nil
}

// TaxPercentage returns the tax applied to new orders.
func (s *Service) TaxPercentage() decimal.Decimal {
	return s.taxPercentage
}

// Quote prices a cart without persisting anything. The returned order is in
// PENDING status and has no identifier.
func (s *Service) Quote(ctx context.Context, req SubmitRequest) (*Order, error) {
	return s.draft(ctx, req)
}

// SubmitOrder validates items against the menu, snapshots them, computes the
// totals with the member's discount tier, and persists the order together
// with the member statistics in one unit.
func (s *Service) SubmitOrder(ctx context.Context, req SubmitRequest) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Submit")
	defer func() { endSpan(span, rerr) }()

	o, err := s.draft(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o.ID = s.newID()
	o.CreatedBy = req.CreatedBy
	o.CreatedAt = now
	o.UpdatedAt = now
	o.Status = StatusProcessing
	if req.PayNow {
		o.Status = StatusCompleted
		o.CompletedAt = &now
	}
	span.SetAttributes(attribute.String("order.id", o.ID))

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, &PersistenceError{Op: "create order", Err: err}
	}

	attrs := metric.WithAttributes(attribute.String("status", string(o.Status)))
	s.submitted.Add(ctx, 1, attrs)
	s.revenue.Add(ctx, o.FinalPrice.InexactFloat64(), attrs)

	zctx.From(ctx).Info("Order submitted",
		zap.String("order_id", o.ID),
		zap.String("status", string(o.Status)),
		zap.Stringer("final_price", o.FinalPrice),
		zap.Int("items", len(o.Items)),
	)

	return o, nil
}

// UpdateOrderStatus moves an order along its lifecycle. Forbidden moves
// return InvalidTransitionError and leave the order untouched.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, next Status) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.UpdateStatus",
		trace.WithAttributes(
			attribute.String("order.id", id),
			attribute.String("order.status", string(next)),
		),
	)
	defer func() { endSpan(span, rerr) }()

	var from Status
	o, err := s.orders.Update(ctx, id, func(o *Order) error {
		from = o.Status
		return o.Transition(next, s.now())
	})
	if err != nil {
		var itErr *InvalidTransitionError
		if errors.Is(err, ErrOrderNotFound) || errors.As(err, &itErr) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "update order status", Err: err}
	}

	s.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", string(from)),
		attribute.String("to", string(next)),
	))
	zctx.From(ctx).Info("Order status changed",
		zap.String("order_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
	)

	return o, nil
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "get order", Err: err}
	}
	return o, nil
}

// List returns the orders matching q.
func (s *Service) List(ctx context.Context, q Query) ([]Order, error) {
	orders, err := s.orders.List(ctx, q)
	if err != nil {
		return nil, &PersistenceError{Op: "list orders", Err: err}
	}
	return orders, nil
}

// Watch streams the full result set of q now and after every change to the
// orders. The channel closes when ctx is done.
func (s *Service) Watch(ctx context.Context, q Query) <-chan []Order {
	return changefeed.Watch(ctx, s.changes, Topic,
		func(ctx context.Context) ([]Order, error) { return s.List(ctx, q) },
		func(err error) { zctx.From(ctx).Warn("Reload watched orders", zap.Error(err)) },
	)
}

// draft validates the request, snapshots the menu items and computes totals.
func (s *Service) draft(ctx context.Context, req SubmitRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	// Validate quantities and collect menu item IDs.
	ids := make([]string, len(req.Items))
	for i, line := range req.Items {
		if !validQuantity(line.Quantity) {
			return nil, &InvalidQuantityError{MenuItemID: line.MenuItemID}
		}
		ids[i] = line.MenuItemID
	}

	// Batch fetch all menu items in a single query.
	fetched, err := s.menu.GetByIDs(ctx, ids)
	if err != nil {
		return nil, &PersistenceError{Op: "get menu items", Err: err}
	}
	byID := make(map[string]menu.Item, len(fetched))
	for _, m := range fetched {
		byID[m.ID] = m
	}

	items := make([]Item, len(req.Items))
	for i, line := range req.Items {
		m, ok := byID[line.MenuItemID]
		if !ok {
			return nil, &MenuItemNotFoundError{MenuItemID: line.MenuItemID}
		}
		if !m.Available {
			return nil, &UnavailableItemError{MenuItemID: line.MenuItemID}
		}
		items[i] = Item{
			MenuItemID:  m.ID,
			Name:        m.Name,
			Description: m.Description,
			Price:       m.Price,
			Category:    m.Category,
			ImageURL:    m.ImageURL,
			Quantity:    line.Quantity,
			Notes:       line.Notes,
			Subtotal:    lineSubtotal(m.Price, line.Quantity),
		}
	}

	discountPercentage := decimal.Zero
	var memberID *string
	if req.MemberID != "" {
		m, err := s.members.GetByID(ctx, req.MemberID)
		if err != nil {
			if errors.Is(err, member.ErrNotFound) {
				return nil, errors.Wrapf(member.ErrNotFound, "member %s", req.MemberID)
			}
			return nil, &PersistenceError{Op: "get member", Err: err}
		}
		discountPercentage = m.DiscountPercentage
		memberID = &m.ID
	}

	totals, err := ComputeTotals(items, s.taxPercentage, discountPercentage)
	if err != nil {
		return nil, err
	}

	return &Order{
		TableNumber:   req.TableNumber,
		Items:         items,
		TotalPrice:    totals.Total,
		TaxPercentage: s.taxPercentage,
		TaxAmount:     totals.Tax,
		Discount:      totals.Discount,
		FinalPrice:    totals.Final,
		Status:        StatusPending,
		MemberID:      memberID,
	}, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
