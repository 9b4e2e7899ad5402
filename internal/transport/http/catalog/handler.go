package catalog

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/foodya/foodya-backend/internal/auth"
	"github.com/foodya/foodya-backend/internal/dto"
	"github.com/foodya/foodya-backend/internal/presentation/http/response"
	service "github.com/foodya/foodya-backend/internal/service/catalog"
	"github.com/foodya/foodya-backend/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/foodya/foodya-backend/transport/http/catalog")

// Handler exposes the catalog read side over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a catalog Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/restaurants/:id/menu", h.menu)
	e.PATCH("/menu-items/:id/availability", h.setAvailability)
}

func (h *Handler) menu(c echo.Context) error {
	b := response.New(c)

	restaurantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid restaurant id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "catalog.menu", trace.WithAttributes(
		attribute.String("restaurant.id", restaurantID.String()),
	))
	defer span.End()

	restaurant, items, err := h.svc.Menu(ctx, restaurantID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromRestaurantMenu(restaurant, items)).Build()
}

func (h *Handler) setAvailability(c echo.Context) error {
	b := response.New(c)

	principal, err := auth.FromContext(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid menu item id", errorbank.WithCause(err))).Build()
	}

	available, err := strconv.ParseBool(c.QueryParam("available"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid available flag", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "catalog.setAvailability", trace.WithAttributes(
		attribute.String("menu_item.id", itemID.String()),
	))
	defer span.End()

	item, err := h.svc.SetAvailability(ctx, principal, itemID, available)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromMenuItem(item)).Build()
}
