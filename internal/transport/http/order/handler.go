package order

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/foodya/foodya-backend/internal/auth"
	"github.com/foodya/foodya-backend/internal/dto"
	"github.com/foodya/foodya-backend/internal/entity"
	"github.com/foodya/foodya-backend/internal/presentation/http/response"
	service "github.com/foodya/foodya-backend/internal/service/order"
	"github.com/foodya/foodya-backend/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/foodya/foodya-backend/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.POST("", h.create)
	g.GET("/me", h.listMine)
	g.GET("/me/active", h.listMineActive)
	g.GET("/metrics/revenue", h.revenue)
	g.GET("", h.adminSearch)
	g.GET("/:id", h.getByID)
	g.PATCH("/:id/cancel", h.cancel)
	g.PATCH("/:id/status", h.updateStatus)
	g.DELETE("/:id", h.remove)
	e.GET("/restaurants/:id/orders", h.listByRestaurant)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.FromContext(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload dto.CreateOrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(
		attribute.String("restaurant.id", payload.RestaurantID.String()),
	))
	defer span.End()

	order, err := h.svc.Create(ctx, principal, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) listMine(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.FromContext(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listMine")
	defer span.End()

	orders, err := h.svc.ListMine(ctx, principal)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrders(orders)).Build()
}

func (h *Handler) listMineActive(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.FromContext(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listMineActive")
	defer span.End()

	orders, err := h.svc.ListMineActive(ctx, principal)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrders(orders)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.FromContext(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid order id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	order, err := h.svc.Get(ctx, principal, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) cancel(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.FromContext(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid order id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.cancel", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	order, err := h.svc.CancelOwn(ctx, principal, id, c.QueryParam("reason"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) updateStatus(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.FromContext(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid order id", errorbank.WithCause(err))).Build()
	}

	status, err := entity.ParseStatus(c.QueryParam("status"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid status", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.updateStatus", trace.WithAttributes(
		attribute.String("order.id", id.String()),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	order, err := h.svc.UpdateStatus(ctx, principal, id, status)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) remove(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.FromContext(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid order id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	if err := h.svc.Delete(ctx, principal, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}

func (h *Handler) listByRestaurant(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.FromContext(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	restaurantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid restaurant id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listByRestaurant", trace.WithAttributes(attribute.String("restaurant.id", restaurantID.String())))
	defer span.End()

	orders, err := h.svc.ListByRestaurant(ctx, principal, restaurantID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrders(orders)).Build()
}

func (h *Handler) adminSearch(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.FromContext(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	filter, err := parseSearchFilter(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.adminSearch")
	defer span.End()

	orders, err := h.svc.AdminSearch(ctx, principal, filter)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromOrders(orders)).Build()
}

func (h *Handler) revenue(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.FromContext(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	restaurantID, err := uuid.Parse(c.QueryParam("restaurantId"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid restaurantId", errorbank.WithCause(err))).Build()
	}
	start, err := parseTime(c.QueryParam("startDate"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid startDate", errorbank.WithCause(err))).Build()
	}
	end, err := parseTime(c.QueryParam("endDate"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid endDate", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.revenue", trace.WithAttributes(
		attribute.String("restaurant.id", restaurantID.String()),
	))
	defer span.End()

	revenue, err := h.svc.Revenue(ctx, principal, restaurantID, start, end)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.RevenueResponse{
		RestaurantID: restaurantID,
		StartDate:    start,
		EndDate:      end,
		Revenue:      revenue,
	}).Build()
}

func parseSearchFilter(c echo.Context) (service.SearchFilter, error) {
	var filter service.SearchFilter

	if raw := c.QueryParam("status"); raw != "" {
		status, err := entity.ParseStatus(raw)
		if err != nil {
			return filter, errorbank.BadRequest("invalid status filter", errorbank.WithCause(err))
		}
		filter.Status = &status
	}
	if raw := c.QueryParam("restaurantId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errorbank.BadRequest("invalid restaurantId filter", errorbank.WithCause(err))
		}
		filter.RestaurantID = &id
	}
	if raw := c.QueryParam("customerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errorbank.BadRequest("invalid customerId filter", errorbank.WithCause(err))
		}
		filter.CustomerID = &id
	}
	if raw := c.QueryParam("startDate"); raw != "" {
		ts, err := parseTime(raw)
		if err != nil {
			return filter, errorbank.BadRequest("invalid startDate filter", errorbank.WithCause(err))
		}
		filter.StartDate = &ts
	}
	if raw := c.QueryParam("endDate"); raw != "" {
		ts, err := parseTime(raw)
		if err != nil {
			return filter, errorbank.BadRequest("invalid endDate filter", errorbank.WithCause(err))
		}
		filter.EndDate = &ts
	}
	return filter, nil
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, raw)
}
