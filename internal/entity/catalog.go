package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Restaurant is the read-side projection of a restaurant as the order engine
// sees it. Catalog management (menus, profiles, search) lives elsewhere.
type Restaurant struct {
	bun.BaseModel `bun:"table:restaurants,alias:r"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	Name        string    `bun:"name,notnull"`
	Address     string    `bun:"address"`
	IsOpen      bool      `bun:"is_open,notnull,default:true"`
	IsActive    bool      `bun:"is_active,notnull,default:true"`
	DeliveryFee float64   `bun:"delivery_fee,notnull"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}

// MenuItem is a sellable catalog entry. An item can only be ordered while
// both IsActive and IsAvailable hold; orders copy Price at creation time.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items,alias:mi"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	RestaurantID uuid.UUID `bun:"restaurant_id,notnull,type:uuid"`
	Name         string    `bun:"name,notnull"`
	Description  string    `bun:"description"`
	Price        float64   `bun:"price,notnull"`
	Category     string    `bun:"category"`
	IsAvailable  bool      `bun:"is_available,notnull,default:true"`
	IsActive     bool      `bun:"is_active,notnull,default:true"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}

// Orderable reports whether the item may be placed on a new order.
func (m *MenuItem) Orderable() bool {
	return m.IsActive && m.IsAvailable
}
