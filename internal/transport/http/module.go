package http

import (
	"go.uber.org/fx"

	catalogtransport "github.com/foodya/foodya-backend/internal/transport/http/catalog"
	ordertransport "github.com/foodya/foodya-backend/internal/transport/http/order"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	catalogtransport.Module,
)
