package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/foodya/foodya-backend/internal/database"
	"github.com/foodya/foodya-backend/internal/entity"
	ordersvc "github.com/foodya/foodya-backend/internal/service/order"
)

var repoTracer = otel.Tracer("github.com/foodya/foodya-backend/repository/catalog")

// ErrNotFound is returned when a restaurant or menu item is missing.
var ErrNotFound = ordersvc.ErrCatalogNotFound

// Repository reads current restaurant/menu state and handles the one
// catalog mutation the order engine cares about: availability.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// GetRestaurant fetches a restaurant snapshot by id.
func (r *Repository) GetRestaurant(ctx context.Context, id uuid.UUID) (*entity.Restaurant, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.GetRestaurant", trace.WithAttributes(attribute.String("restaurant.id", id.String())))
	defer span.End()

	restaurant := new(entity.Restaurant)
	err := r.reader.NewSelect().Model(restaurant).Where("r.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return restaurant, nil
}

// GetMenuItem fetches a menu item snapshot by id.
func (r *Repository) GetMenuItem(ctx context.Context, id uuid.UUID) (*entity.MenuItem, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.GetMenuItem", trace.WithAttributes(attribute.String("menu_item.id", id.String())))
	defer span.End()

	item := new(entity.MenuItem)
	err := r.reader.NewSelect().Model(item).Where("mi.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return item, nil
}

// ListMenu returns the active menu items of a restaurant.
func (r *Repository) ListMenu(ctx context.Context, restaurantID uuid.UUID) ([]*entity.MenuItem, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.ListMenu", trace.WithAttributes(attribute.String("restaurant.id", restaurantID.String())))
	defer span.End()

	var items []*entity.MenuItem
	err := r.reader.NewSelect().Model(&items).
		Where("mi.restaurant_id = ?", restaurantID).
		Where("mi.is_active").
		Order("category ASC", "name ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return items, nil
}

// SetAvailability flips a menu item's availability flag.
func (r *Repository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*entity.MenuItem, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.SetAvailability", trace.WithAttributes(
		attribute.String("menu_item.id", id.String()),
		attribute.Bool("menu_item.available", available),
	))
	defer span.End()

	item := new(entity.MenuItem)
	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(item).Where("mi.id = ?", id).For("UPDATE").Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		item.IsAvailable = available
		item.UpdatedAt = time.Now().UTC()
		_, err = tx.NewUpdate().Model(item).
			Column("is_available", "updated_at").
			WherePK().
			Exec(ctx)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "update failed")
		}
		return nil, err
	}
	return item, nil
}
