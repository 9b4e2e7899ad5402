package catalog

import (
	"go.uber.org/fx"

	ordersvc "github.com/foodya/foodya-backend/internal/service/order"
)

// Module provides the catalog repository to Fx, doubling as the order
// service's snapshot provider.
var Module = fx.Options(
	fx.Provide(NewRepository),
	fx.Provide(func(r *Repository) ordersvc.Catalog { return r }),
)
