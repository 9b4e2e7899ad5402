package order

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

var repoTracer = otel.Tracer("github.com/foodya/foodya-backend/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = ordersvc.ErrNotFound

// Repository encapsulates read/write access for order aggregates.
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

// Create persists the order and all of its lines in one transaction; either
// everything is written or nothing is.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.id", order.ID.String())))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		if len(order.Lines) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&order.Lines).Exec(ctx)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// GetByID fetches an order with its lines using the read replica.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).
		Relation("Lines").
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// Update performs a transactional read-modify-write: the row is locked,
// mutate runs against the in-transaction state, and the write only happens
// when mutate succeeds. This keeps the status-legality check and the write
// inside one transaction so concurrent transitions cannot both validate
// against stale state.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, mutate func(*entity.Order) error) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Update", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	order := new(entity.Order)
	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(order).
			Relation("Lines").
			Where("o.id = ?", id).
			For("UPDATE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := mutate(order); err != nil {
			return err
		}

		order.UpdatedAt = time.Now().UTC()
		_, err = tx.NewUpdate().Model(order).WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "update failed")
		}
		return nil, err
	}
	return order, nil
}

// Delete removes the order and its lines permanently.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Delete", trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	return r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*entity.OrderLine)(nil)).
			Where("order_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*entity.Order)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListByCustomer returns a customer's orders, newest first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*entity.Order, error) {
	return r.list(ctx, "OrderRepository.ListByCustomer", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("o.customer_id = ?", customerID)
	})
}

// ListActiveByCustomer returns a customer's non-terminal orders, newest first.
func (r *Repository) ListActiveByCustomer(ctx context.Context, customerID uuid.UUID) ([]*entity.Order, error) {
	return r.list(ctx, "OrderRepository.ListActiveByCustomer", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("o.customer_id = ?", customerID).
			Where("o.status IN (?)", bun.In(entity.ActiveStatuses))
	})
}

// ListByRestaurant returns a restaurant's orders, newest first.
func (r *Repository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*entity.Order, error) {
	return r.list(ctx, "OrderRepository.ListByRestaurant", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("o.restaurant_id = ?", restaurantID)
	})
}

// Search applies the optional admin filters, AND-combined, newest first.
func (r *Repository) Search(ctx context.Context, filter ordersvc.SearchFilter) ([]*entity.Order, error) {
	return r.list(ctx, "OrderRepository.Search", func(q *bun.SelectQuery) *bun.SelectQuery {
		if filter.Status != nil {
			q = q.Where("o.status = ?", *filter.Status)
		}
		if filter.RestaurantID != nil {
			q = q.Where("o.restaurant_id = ?", *filter.RestaurantID)
		}
		if filter.CustomerID != nil {
			q = q.Where("o.customer_id = ?", *filter.CustomerID)
		}
		if filter.StartDate != nil {
			q = q.Where("o.order_date >= ?", *filter.StartDate)
		}
		if filter.EndDate != nil {
			q = q.Where("o.order_date <= ?", *filter.EndDate)
		}
		return q
	})
}

// SumDeliveredRevenue sums total_price over DELIVERED orders in the
// inclusive date range; zero rows yield 0.
func (r *Repository) SumDeliveredRevenue(ctx context.Context, restaurantID uuid.UUID, start, end time.Time) (float64, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.SumDeliveredRevenue", trace.WithAttributes(attribute.String("restaurant.id", restaurantID.String())))
	defer span.End()

	var revenue sql.NullFloat64
	err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		ColumnExpr("SUM(o.total_price)").
		Where("o.restaurant_id = ?", restaurantID).
		Where("o.status = ?", entity.StatusDelivered).
		Where("o.order_date >= ?", start).
		Where("o.order_date <= ?", end).
		Scan(ctx, &revenue)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return 0, err
	}
	if !revenue.Valid {
		return 0, nil
	}
	return revenue.Float64, nil
}

func (r *Repository) list(ctx context.Context, spanName string, apply func(*bun.SelectQuery) *bun.SelectQuery) ([]*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, spanName)
	defer span.End()

	var orders []*entity.Order
	q := r.reader.NewSelect().Model(&orders).Relation("Lines")
	q = apply(q)
	if err := q.Order("order_date DESC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}
