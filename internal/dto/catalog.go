package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/foodya/foodya-backend/internal/entity"
)

// MenuItemResponse is the public view of a sellable catalog entry.
type MenuItemResponse struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurantId"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Price        float64   `json:"price"`
	Category     string    `json:"category,omitempty"`
	IsAvailable  bool      `json:"isAvailable"`
}

// RestaurantMenuResponse bundles a restaurant with its menu.
type RestaurantMenuResponse struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Address     string             `json:"address,omitempty"`
	IsOpen      bool               `json:"isOpen"`
	DeliveryFee float64            `json:"deliveryFee"`
	Menu        []MenuItemResponse `json:"menu"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// FromMenuItem maps a menu item onto its response projection.
func FromMenuItem(item *entity.MenuItem) MenuItemResponse {
	return MenuItemResponse{
		ID:           item.ID,
		RestaurantID: item.RestaurantID,
		Name:         item.Name,
		Description:  item.Description,
		Price:        item.Price,
		Category:     item.Category,
		IsAvailable:  item.IsAvailable,
	}
}

// FromRestaurantMenu maps a restaurant and its items onto one response.
func FromRestaurantMenu(r *entity.Restaurant, items []*entity.MenuItem) RestaurantMenuResponse {
	menu := make([]MenuItemResponse, 0, len(items))
	for _, item := range items {
		menu = append(menu, FromMenuItem(item))
	}
	return RestaurantMenuResponse{
		ID:          r.ID,
		Name:        r.Name,
		Address:     r.Address,
		IsOpen:      r.IsOpen,
		DeliveryFee: r.DeliveryFee,
		Menu:        menu,
		UpdatedAt:   r.UpdatedAt,
	}
}
