package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/foodya/foodya-backend/internal/entity"
)

// OrderItemRequest references one menu item to order.
type OrderItemRequest struct {
	MenuItemID uuid.UUID `json:"menuItemId" validate:"required"`
	Quantity   int       `json:"quantity" validate:"required,min=1"`
}

// CreateOrderRequest is the payload for POST /orders.
type CreateOrderRequest struct {
	RestaurantID    uuid.UUID          `json:"restaurantId" validate:"required"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress string             `json:"deliveryAddress" validate:"required,notblank,max=500"`
	DeliveryFee     float64            `json:"deliveryFee" validate:"gte=0"`
	OrderNotes      string             `json:"orderNotes" validate:"max=1000"`
	OrderDate       *time.Time         `json:"orderDate"`
}

// OrderLineResponse is one frozen line within an order projection.
type OrderLineResponse struct {
	ID              uuid.UUID `json:"id"`
	MenuItemID      uuid.UUID `json:"menuItemId"`
	MenuItemName    string    `json:"menuItemName"`
	Quantity        int       `json:"quantity"`
	PriceAtPurchase float64   `json:"priceAtPurchase"`
	Subtotal        float64   `json:"subtotal"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	CustomerID      uuid.UUID           `json:"customerId"`
	RestaurantID    uuid.UUID           `json:"restaurantId"`
	Items           []OrderLineResponse `json:"items"`
	TotalPrice      float64             `json:"totalPrice"`
	TotalItems      int                 `json:"totalItems"`
	Status          string              `json:"status"`
	OrderDate       time.Time           `json:"orderDate"`
	DeliveryAddress string              `json:"deliveryAddress"`
	DeliveryFee     float64             `json:"deliveryFee"`
	OrderNotes      string              `json:"orderNotes,omitempty"`
	CancelReason    string              `json:"cancelReason,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// RevenueResponse is the admin revenue aggregation result.
type RevenueResponse struct {
	RestaurantID uuid.UUID `json:"restaurantId"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	Revenue      float64   `json:"revenue"`
}

// FromOrder maps an order aggregate onto its response projection.
func FromOrder(order *entity.Order) OrderResponse {
	items := make([]OrderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, OrderLineResponse{
			ID:              line.ID,
			MenuItemID:      line.MenuItemID,
			MenuItemName:    line.MenuItemName,
			Quantity:        line.Quantity,
			PriceAtPurchase: line.PriceAtPurchase,
			Subtotal:        line.Subtotal,
		})
	}
	return OrderResponse{
		ID:              order.ID,
		CustomerID:      order.CustomerID,
		RestaurantID:    order.RestaurantID,
		Items:           items,
		TotalPrice:      order.TotalPrice,
		TotalItems:      order.TotalItems,
		Status:          string(order.Status),
		OrderDate:       order.OrderDate,
		DeliveryAddress: order.DeliveryAddress,
		DeliveryFee:     order.DeliveryFee,
		OrderNotes:      order.OrderNotes,
		CancelReason:    order.CancelReason,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

// FromOrders maps a list of aggregates, preserving order.
func FromOrders(orders []*entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, FromOrder(o))
	}
	return out
}
