package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foodya/foodya-backend/internal/entity"
)

// Event types published to the orders topic.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the envelope emitted for every order mutation.
type OrderEvent struct {
	Type           string        `json:"type"`
	OrderID        uuid.UUID     `json:"orderId"`
	CustomerID     uuid.UUID     `json:"customerId"`
	RestaurantID   uuid.UUID     `json:"restaurantId"`
	Status         entity.Status `json:"status"`
	PreviousStatus entity.Status `json:"previousStatus,omitempty"`
	TotalPrice     float64       `json:"totalPrice"`
	OccurredAt     time.Time     `json:"occurredAt"`
}

func (s *Service) publishEvent(ctx context.Context, eventType string, order *entity.Order, previous entity.Status) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := OrderEvent{
		Type:           eventType,
		OrderID:        order.ID,
		CustomerID:     order.CustomerID,
		RestaurantID:   order.RestaurantID,
		Status:         order.Status,
		PreviousStatus: previous,
		TotalPrice:     order.TotalPrice,
		OccurredAt:     time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order event", zap.Error(err))
		return
	}
	key := []byte(fmt.Sprintf("order-%s", order.ID))
	if err := s.publisher.Publish(ctx, key, payload); err != nil {
		s.logger.Error("publish order event", zap.String("type", eventType), zap.Error(err))
	}
}
