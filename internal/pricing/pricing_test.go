package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodya/foodya-backend/internal/entity"
	"github.com/foodya/foodya-backend/pkg/errorbank"
)

func TestLineSubtotal(t *testing.T) {
	got, err := LineSubtotal(2, 12.99)
	require.NoError(t, err)
	assert.InDelta(t, 25.98, got, 1e-9)

	got, err = LineSubtotal(3, 0)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestLineSubtotalRejectsBadInput(t *testing.T) {
	cases := []struct {
		name     string
		quantity int
		price    float64
	}{
		{"zero quantity", 0, 9.50},
		{"negative quantity", -1, 9.50},
		{"negative price", 1, -0.01},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LineSubtotal(tc.quantity, tc.price)
			require.Error(t, err)
			assert.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
		})
	}
}

func TestRecalculate(t *testing.T) {
	order := &entity.Order{
		DeliveryFee: 2.00,
		Lines: []*entity.OrderLine{
			{Quantity: 2, PriceAtPurchase: 12.99, Subtotal: 25.98},
			{Quantity: 1, PriceAtPurchase: 4.50, Subtotal: 4.50},
		},
	}

	Recalculate(order)
	assert.InDelta(t, 32.48, order.TotalPrice, 1e-9)
	assert.Equal(t, 3, order.TotalItems)
}

func TestRecalculateIsIdempotent(t *testing.T) {
	order := &entity.Order{
		DeliveryFee: 1.50,
		Lines: []*entity.OrderLine{
			{Quantity: 4, PriceAtPurchase: 3.25, Subtotal: 13.00},
		},
	}

	Recalculate(order)
	first := *order
	Recalculate(order)

	assert.Equal(t, first.TotalPrice, order.TotalPrice)
	assert.Equal(t, first.TotalItems, order.TotalItems)
}

func TestRecalculateEmptyLines(t *testing.T) {
	order := &entity.Order{DeliveryFee: 5.00}
	Recalculate(order)
	assert.InDelta(t, 5.00, order.TotalPrice, 1e-9)
	assert.Zero(t, order.TotalItems)
}
