package order

import (
	"go.uber.org/fx"

	ordersvc "github.com/foodya/foodya-backend/internal/service/order"
)

// Module provides the order repository to Fx, bound to the service's
// store contract.
var Module = fx.Options(
	fx.Provide(NewRepository),
	fx.Provide(func(r *Repository) ordersvc.Store { return r }),
)
