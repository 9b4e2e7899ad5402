package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/foodya/foodya-backend/internal/auth"
	"github.com/foodya/foodya-backend/internal/entity"
	repo "github.com/foodya/foodya-backend/internal/repository/catalog"
	"github.com/foodya/foodya-backend/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/foodya/foodya-backend/service/catalog")

// Service exposes the catalog read side plus the merchant availability
// toggle. Full catalog management lives outside the order engine.
type Service struct {
	repo   *repo.Repository
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{repo: p.Repository, logger: p.Logger}
}

// Menu returns a restaurant together with its active menu items.
func (s *Service) Menu(ctx context.Context, restaurantID uuid.UUID) (*entity.Restaurant, []*entity.MenuItem, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.Menu", trace.WithAttributes(
		attribute.String("restaurant.id", restaurantID.String()),
	))
	defer span.End()

	restaurant, err := s.repo.GetRestaurant(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, errorbank.NotFound("restaurant not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, nil, errorbank.Internal("failed to load restaurant", errorbank.WithCause(err))
	}

	items, err := s.repo.ListMenu(ctx, restaurantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, nil, errorbank.Internal("failed to load menu", errorbank.WithCause(err))
	}
	return restaurant, items, nil
}

// SetAvailability lets a merchant or admin toggle whether a menu item can
// currently be ordered.
func (s *Service) SetAvailability(ctx context.Context, principal auth.Principal, itemID uuid.UUID, available bool) (*entity.MenuItem, error) {
	if err := auth.Require(principal, auth.RoleMerchant, auth.RoleAdmin); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "CatalogService.SetAvailability", trace.WithAttributes(
		attribute.String("menu_item.id", itemID.String()),
	))
	defer span.End()

	item, err := s.repo.SetAvailability(ctx, itemID, available)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("menu item not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update availability", errorbank.WithCause(err))
	}

	s.logger.Info("menu item availability updated",
		zap.String("menu_item_id", item.ID.String()),
		zap.Bool("available", item.IsAvailable),
	)
	return item, nil
}
