package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/foodya/foodya-backend/internal/auth"
	"github.com/foodya/foodya-backend/internal/cache"
	"github.com/foodya/foodya-backend/internal/config"
	"github.com/foodya/foodya-backend/internal/dto"
	"github.com/foodya/foodya-backend/internal/entity"
	"github.com/foodya/foodya-backend/internal/messaging"
	"github.com/foodya/foodya-backend/internal/pricing"
	"github.com/foodya/foodya-backend/internal/validation"
	"github.com/foodya/foodya-backend/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/foodya/foodya-backend/service/order")

// ErrNotFound marks a missing order at the persistence boundary.
var ErrNotFound = errors.New("order not found")

// SearchFilter carries the optional admin search criteria; nil fields are
// skipped and the rest are AND-combined.
type SearchFilter struct {
	Status       *entity.Status
	RestaurantID *uuid.UUID
	CustomerID   *uuid.UUID
	StartDate    *time.Time
	EndDate      *time.Time
}

// Store is the persistence contract for order aggregates. Update must run
// its mutate callback inside the same transaction as the write so that
// status-legality checks never race against concurrent transitions.
type Store interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	Update(ctx context.Context, id uuid.UUID, mutate func(*entity.Order) error) (*entity.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*entity.Order, error)
	ListActiveByCustomer(ctx context.Context, customerID uuid.UUID) ([]*entity.Order, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*entity.Order, error)
	Search(ctx context.Context, filter SearchFilter) ([]*entity.Order, error)
	SumDeliveredRevenue(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) (float64, error)
}

// Catalog is the snapshot provider for current restaurant/menu state,
// consulted only at order creation time.
type Catalog interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (*entity.Restaurant, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (*entity.MenuItem, error)
}

// ErrCatalogNotFound marks a missing restaurant or menu item.
var ErrCatalogNotFound = errors.New("catalog entry not found")

// Service owns the order lifecycle: creation, status transitions,
// cancellation, deletion, and the read-side projections.
type Service struct {
	store     Store
	catalog   Catalog
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store     Store
	Catalog   Catalog
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:     p.Store,
		catalog:   p.Catalog,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}
}

// Create builds a PENDING order from the request, freezing each item's
// current catalog price into a new line, and persists the aggregate
// atomically.
func (s *Service) Create(ctx context.Context, principal auth.Principal, req dto.CreateOrderRequest) (*entity.Order, error) {
	if err := auth.Require(principal, auth.RoleCustomer); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(
		attribute.String("restaurant.id", req.RestaurantID.String()),
		attribute.Int("order.items", len(req.Items)),
	))
	defer span.End()

	restaurant, err := s.catalog.GetRestaurant(ctx, req.RestaurantID)
	if err != nil {
		if errors.Is(err, ErrCatalogNotFound) {
			return nil, errorbank.NotFound(fmt.Sprintf("restaurant not found: %s", req.RestaurantID))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog error")
		return nil, errorbank.Internal("failed to load restaurant", errorbank.WithCause(err))
	}

	now := time.Now().UTC()
	orderDate := now
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}

	order := &entity.Order{
		ID:              uuid.New(),
		CustomerID:      principal.UserID,
		RestaurantID:    restaurant.ID,
		Status:          entity.StatusPending,
		OrderDate:       orderDate,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryFee:     req.DeliveryFee,
		OrderNotes:      req.OrderNotes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, item := range req.Items {
		line, err := s.buildLine(ctx, order, restaurant, item)
		if err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}

	pricing.Recalculate(order)

	if err := s.store.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", order.CustomerID.String()),
		zap.Float64("total_price", order.TotalPrice),
	)

	s.cacheOrder(ctx, order)
	s.publishEvent(ctx, EventOrderCreated, order, "")
	return order, nil
}

// buildLine resolves one requested item against the catalog snapshot and
// freezes its price.
func (s *Service) buildLine(ctx context.Context, order *entity.Order, restaurant *entity.Restaurant, item dto.OrderItemRequest) (*entity.OrderLine, error) {
	menuItem, err := s.catalog.GetMenuItem(ctx, item.MenuItemID)
	if err != nil {
		if errors.Is(err, ErrCatalogNotFound) {
			return nil, errorbank.NotFound(fmt.Sprintf("menu item not found: %s", item.MenuItemID))
		}
		return nil, errorbank.Internal("failed to load menu item", errorbank.WithCause(err))
	}

	if menuItem.RestaurantID != restaurant.ID {
		return nil, errorbank.BusinessRule(
			fmt.Sprintf("menu item %s does not belong to this restaurant", menuItem.Name),
			errorbank.WithDetail("menuItemId", menuItem.ID.String()))
	}
	if !menuItem.Orderable() {
		return nil, errorbank.BusinessRule(
			fmt.Sprintf("menu item %s is not available", menuItem.Name),
			errorbank.WithDetail("menuItemId", menuItem.ID.String()))
	}
	if menuItem.Price < 0 {
		return nil, errorbank.BusinessRule(
			fmt.Sprintf("menu item %s has no valid price", menuItem.Name))
	}

	subtotal, err := pricing.LineSubtotal(item.Quantity, menuItem.Price)
	if err != nil {
		return nil, err
	}

	return &entity.OrderLine{
		ID:              uuid.New(),
		OrderID:         order.ID,
		MenuItemID:      menuItem.ID,
		MenuItemName:    menuItem.Name,
		Quantity:        item.Quantity,
		PriceAtPurchase: menuItem.Price,
		Subtotal:        subtotal,
		CreatedAt:       order.CreatedAt,
	}, nil
}

// UpdateStatus applies a merchant/admin-driven transition. Legality is
// checked against the in-transaction state of the order.
func (s *Service) UpdateStatus(ctx context.Context, principal auth.Principal, orderID uuid.UUID, newStatus entity.Status) (*entity.Order, error) {
	if err := auth.Require(principal, auth.RoleMerchant, auth.RoleAdmin); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
		attribute.String("order.status", string(newStatus)),
	))
	defer span.End()

	var oldStatus entity.Status
	order, err := s.store.Update(ctx, orderID, func(order *entity.Order) error {
		oldStatus = order.Status
		if order.Status.Terminal() {
			return errorbank.InvalidTransition(
				fmt.Sprintf("order is already %s", order.Status))
		}
		if !order.Status.CanTransitionTo(newStatus) {
			return errorbank.InvalidTransition(
				fmt.Sprintf("cannot move order from %s to %s", order.Status, newStatus))
		}
		if newStatus == entity.StatusCancelled {
			order.Cancel("cancelled by staff")
			return nil
		}
		order.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, s.mapStoreError(span, err, "failed to update order status")
	}

	s.logger.Info("order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(order.Status)),
	)

	s.invalidateOrder(ctx, orderID)
	s.publishEvent(ctx, EventOrderStatusChanged, order, oldStatus)
	return order, nil
}

// CancelOwn cancels a customer's own order. Ownership is enforced before
// the cancellable check; cancellation from SHIPPING or DELIVERED is
// rejected.
func (s *Service) CancelOwn(ctx context.Context, principal auth.Principal, orderID uuid.UUID, reason string) (*entity.Order, error) {
	if err := auth.Require(principal, auth.RoleCustomer); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.CancelOwn", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
	))
	defer span.End()

	var oldStatus entity.Status
	order, err := s.store.Update(ctx, orderID, func(order *entity.Order) error {
		if order.CustomerID != principal.UserID {
			return errorbank.Forbidden("you are not allowed to cancel this order")
		}
		oldStatus = order.Status
		if !order.Cancellable() {
			return errorbank.InvalidTransition(
				fmt.Sprintf("order cannot be cancelled in status %s", order.Status))
		}
		order.Cancel(reason)
		return nil
	})
	if err != nil {
		return nil, s.mapStoreError(span, err, "failed to cancel order")
	}

	s.logger.Info("order cancelled",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", principal.UserID.String()),
	)

	s.invalidateOrder(ctx, orderID)
	s.publishEvent(ctx, EventOrderStatusChanged, order, oldStatus)
	return order, nil
}

// Delete removes the order and its lines permanently. Administrative
// override; not a state-machine transition.
func (s *Service) Delete(ctx context.Context, principal auth.Principal, orderID uuid.UUID) error {
	if err := auth.Require(principal, auth.RoleAdmin); err != nil {
		return err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
	))
	defer span.End()

	if err := s.store.Delete(ctx, orderID); err != nil {
		return s.mapStoreError(span, err, "failed to delete order")
	}

	s.logger.Info("order deleted", zap.String("order_id", orderID.String()))
	s.invalidateOrder(ctx, orderID)
	return nil
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*entity.Order, error) {
	if err := auth.Require(principal, auth.RoleMerchant, auth.RoleAdmin); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	if order, err := s.cachedOrder(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.String("id", id.String()), zap.Error(err))
	}

	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreError(span, err, "failed to load order")
	}

	s.cacheOrder(ctx, order)
	return order, nil
}

// ListMine returns the caller's orders, newest first.
func (s *Service) ListMine(ctx context.Context, principal auth.Principal) ([]*entity.Order, error) {
	if err := auth.Require(principal, auth.RoleCustomer); err != nil {
		return nil, err
	}
	return s.store.ListByCustomer(ctx, principal.UserID)
}

// ListMineActive returns the caller's non-terminal orders, newest first.
func (s *Service) ListMineActive(ctx context.Context, principal auth.Principal) ([]*entity.Order, error) {
	if err := auth.Require(principal, auth.RoleCustomer); err != nil {
		return nil, err
	}
	return s.store.ListActiveByCustomer(ctx, principal.UserID)
}

// ListByRestaurant returns a restaurant's orders for merchant fulfilment.
func (s *Service) ListByRestaurant(ctx context.Context, principal auth.Principal, restaurantID uuid.UUID) ([]*entity.Order, error) {
	if err := auth.Require(principal, auth.RoleMerchant, auth.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.ListByRestaurant(ctx, restaurantID)
}

// AdminSearch applies optional filters over all orders, newest first.
func (s *Service) AdminSearch(ctx context.Context, principal auth.Principal, filter SearchFilter) ([]*entity.Order, error) {
	if err := auth.Require(principal, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, errorbank.BadRequest("endDate must not be before startDate")
	}
	return s.store.Search(ctx, filter)
}

// Revenue sums total_price over DELIVERED orders for the restaurant within
// the inclusive date range. Zero matching rows yield 0.
func (s *Service) Revenue(ctx context.Context, principal auth.Principal, restaurantID uuid.UUID, start, end time.Time) (float64, error) {
	if err := auth.Require(principal, auth.RoleAdmin); err != nil {
		return 0, err
	}
	if end.Before(start) {
		return 0, errorbank.BadRequest("endDate must not be before startDate")
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.Revenue", trace.WithAttributes(
		attribute.String("restaurant.id", restaurantID.String()),
	))
	defer span.End()

	revenue, err := s.store.SumDeliveredRevenue(ctx, restaurantID, start, end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store error")
		return 0, errorbank.Internal("failed to aggregate revenue", errorbank.WithCause(err))
	}
	return revenue, nil
}

// mapStoreError translates persistence failures into the error taxonomy;
// domain errors raised inside Update callbacks pass through unchanged.
func (s *Service) mapStoreError(span trace.Span, err error, message string) error {
	if errors.Is(err, ErrNotFound) {
		return errorbank.NotFound("order not found")
	}
	var appErr *errorbank.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "store error")
	return errorbank.Internal(message, errorbank.WithCause(err))
}

func (s *Service) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("orders:%s", id)
}

func (s *Service) cachedOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) cacheOrder(ctx context.Context, order *entity.Order) {
	if s.cache == nil || order == nil {
		return
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("id", order.ID.String()), zap.Error(err))
	}
}

func (s *Service) invalidateOrder(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		s.logger.Warn("orders cache invalidation failed", zap.String("id", id.String()), zap.Error(err))
	}
}
