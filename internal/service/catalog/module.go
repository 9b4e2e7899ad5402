package catalog

import "go.uber.org/fx"

// Module provides the catalog service to Fx.
var Module = fx.Provide(NewService)
