package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Status tracks where an order sits in its lifecycle.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPreparing Status = "PREPARING"
	StatusShipping  Status = "SHIPPING"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// ActiveStatuses are the non-terminal states; "active order" queries must
// stay in sync with the transition table below.
var ActiveStatuses = []Status{StatusPending, StatusPreparing, StatusShipping}

// transitions is the closed set of legal status edges. Skipping intermediate
// states (e.g. PENDING straight to DELIVERED) is not allowed.
var transitions = map[Status][]Status{
	StatusPending:   {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusShipping, StatusCancelled},
	StatusShipping:  {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ParseStatus converts a request-supplied string into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := transitions[status]; !ok {
		return "", fmt.Errorf("unknown order status: %q", s)
	}
	return status, nil
}

// CanTransitionTo reports whether moving from s to target is a legal edge.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are accepted from s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Active reports whether s counts as an in-flight order state.
func (s Status) Active() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// Order is the aggregate root of a purchase. It owns its lines; restaurant
// and customer are referenced by id only and never re-validated after
// creation. TotalPrice and TotalItems are derived fields maintained by the
// pricing package and must never be set directly.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	CustomerID   uuid.UUID `bun:"customer_id,notnull,type:uuid"`
	RestaurantID uuid.UUID `bun:"restaurant_id,notnull,type:uuid"`

	Lines []*OrderLine `bun:"rel:has-many,join:id=order_id"`

	TotalPrice float64 `bun:"total_price,notnull"`
	TotalItems int     `bun:"total_items,notnull"`

	Status          Status    `bun:"status,notnull"`
	OrderDate       time.Time `bun:"order_date,notnull"`
	DeliveryAddress string    `bun:"delivery_address,notnull"`
	DeliveryFee     float64   `bun:"delivery_fee,notnull"`
	OrderNotes      string    `bun:"order_notes"`
	CancelReason    string    `bun:"cancel_reason"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}

// OrderLine is a frozen record of one catalog item within an order.
// PriceAtPurchase is copied from the menu item at creation time and is never
// re-read from the catalog, so later price changes do not affect the order.
type OrderLine struct {
	bun.BaseModel `bun:"table:order_lines,alias:ol"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	OrderID    uuid.UUID `bun:"order_id,notnull,type:uuid"`
	MenuItemID uuid.UUID `bun:"menu_item_id,nullzero,type:uuid"`

	// MenuItemName is a denormalised display copy, not authoritative.
	MenuItemName    string  `bun:"menu_item_name"`
	Quantity        int     `bun:"quantity,notnull"`
	PriceAtPurchase float64 `bun:"price_at_purchase,notnull"`
	Subtotal        float64 `bun:"subtotal,notnull"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// Cancellable reports whether the order may still be cancelled.
func (o *Order) Cancellable() bool {
	return o.Status == StatusPending || o.Status == StatusPreparing
}

// Cancel marks the order cancelled with the supplied reason. Callers are
// responsible for checking Cancellable first.
func (o *Order) Cancel(reason string) {
	o.Status = StatusCancelled
	o.CancelReason = reason
}
