// Package pricing holds the pure total-consistency rules for orders. It is
// deliberately free of persistence and transport concerns so the invariants
// can be tested in isolation; callers must invoke Recalculate explicitly
// after any change to an order's line set or delivery fee.
package pricing

import (
	"github.com/foodya/foodya-backend/internal/entity"
	"github.com/foodya/foodya-backend/pkg/errorbank"
)

// LineSubtotal computes quantity * priceAtPurchase for one order line.
func LineSubtotal(quantity int, priceAtPurchase float64) (float64, error) {
	if quantity <= 0 {
		return 0, errorbank.BadRequest("quantity must be positive",
			errorbank.WithDetail("quantity", quantity))
	}
	if priceAtPurchase < 0 {
		return 0, errorbank.BadRequest("price must not be negative",
			errorbank.WithDetail("priceAtPurchase", priceAtPurchase))
	}
	return float64(quantity) * priceAtPurchase, nil
}

// Recalculate rewrites the order's derived totals from its lines:
//
//	TotalPrice = sum(line.Subtotal) + DeliveryFee
//	TotalItems = sum(line.Quantity)
//
// It is idempotent and has no side effects beyond the two derived fields.
func Recalculate(order *entity.Order) {
	var price float64
	var items int
	for _, line := range order.Lines {
		price += line.Subtotal
		items += line.Quantity
	}
	order.TotalPrice = price + order.DeliveryFee
	order.TotalItems = items
}
