package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/foodya/foodya-backend/internal/config"
	"github.com/foodya/foodya-backend/internal/messaging"
	ordersvc "github.com/foodya/foodya-backend/internal/service/order"
	"github.com/foodya/foodya-backend/internal/worker"
)

var workerTracer = otel.Tracer("github.com/foodya/foodya-backend/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderEventHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrderEventHandler sets up a worker handler that processes order
// lifecycle events from the bus. Downstream side effects (receipts,
// notifications) hang off this consumer; today it records the event.
func NewOrderEventHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.OrderEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		switch event.Type {
		case ordersvc.EventOrderCreated:
			logger.Info("order created event processed",
				zap.String("order_id", event.OrderID.String()),
				zap.String("restaurant_id", event.RestaurantID.String()),
				zap.Float64("total_price", event.TotalPrice),
			)
		case ordersvc.EventOrderStatusChanged:
			logger.Info("order status event processed",
				zap.String("order_id", event.OrderID.String()),
				zap.String("from", string(event.PreviousStatus)),
				zap.String("to", string(event.Status)),
			)
		default:
			logger.Warn("unknown order event type", zap.String("type", event.Type))
		}

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
