package seeder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/foodya/foodya-backend/internal/database"
	"github.com/foodya/foodya-backend/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Catalog seeds an example restaurant and menu if they are missing.
func (s *Seeder) Catalog(ctx context.Context) error {
	now := time.Now().UTC()

	restaurant := entity.Restaurant{
		ID:          uuid.MustParse("7b1f4f1e-5f5e-4a57-9c37-1d2f6f9b0a01"),
		Name:        "Pho Corner",
		Address:     "12 Nguyen Hue, District 1",
		IsOpen:      true,
		IsActive:    true,
		DeliveryFee: 2.00,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.db.NewInsert().Model(&restaurant).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx); err != nil {
		return err
	}

	items := []entity.MenuItem{
		{
			ID:           uuid.MustParse("91c6b3fb-6f8e-4fd4-8f5a-3a2c8d1e0b11"),
			RestaurantID: restaurant.ID,
			Name:         "Pho Bo",
			Description:  "Beef noodle soup",
			Price:        12.99,
			Category:     "Main Course",
			IsAvailable:  true,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		{
			ID:           uuid.MustParse("b27e4a9f-30b8-45e1-a8f4-5c6d7e8f9a22"),
			RestaurantID: restaurant.ID,
			Name:         "Goi Cuon",
			Description:  "Fresh spring rolls",
			Price:        4.50,
			Category:     "Appetizer",
			IsAvailable:  true,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		{
			ID:           uuid.MustParse("c38f5baf-41c9-4f62-b9a5-6d7e8f9a0b33"),
			RestaurantID: restaurant.ID,
			Name:         "Ca Phe Sua Da",
			Description:  "Iced milk coffee",
			Price:        3.25,
			Category:     "Beverage",
			IsAvailable:  true,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}

	for _, sample := range items {
		item := sample
		if _, err := s.db.NewInsert().Model(&item).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded catalog",
			zap.String("restaurant", restaurant.Name),
			zap.Int("menu_items", len(items)),
		)
	}
	return nil
}
