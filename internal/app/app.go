package app

import (
	"go.uber.org/fx"

	"github.com/foodya/foodya-backend/internal/cache"
	"github.com/foodya/foodya-backend/internal/config"
	"github.com/foodya/foodya-backend/internal/database"
	"github.com/foodya/foodya-backend/internal/logger"
	"github.com/foodya/foodya-backend/internal/messaging"
	"github.com/foodya/foodya-backend/internal/observability"
	repositorycatalog "github.com/foodya/foodya-backend/internal/repository/catalog"
	repositoryorder "github.com/foodya/foodya-backend/internal/repository/order"
	grpcserver "github.com/foodya/foodya-backend/internal/server/grpc"
	httpserver "github.com/foodya/foodya-backend/internal/server/http"
	servicecatalog "github.com/foodya/foodya-backend/internal/service/catalog"
	serviceorder "github.com/foodya/foodya-backend/internal/service/order"
	transporthttp "github.com/foodya/foodya-backend/internal/transport/http"
	"github.com/foodya/foodya-backend/internal/worker"
	workerorder "github.com/foodya/foodya-backend/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositorycatalog.Module,
	repositoryorder.Module,
	servicecatalog.Module,
	serviceorder.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
