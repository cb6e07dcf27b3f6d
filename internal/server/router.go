package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/visaport/docserve/internal/config"
	"github.com/visaport/docserve/internal/document"
	"github.com/visaport/docserve/internal/logger"
	"github.com/visaport/docserve/internal/metrics"
	"github.com/visaport/docserve/internal/storage"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config          config.Config
	Logger          *zap.Logger
	Store           storage.Store
	DocumentService *document.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(logger.RequestLogger(deps.Logger))
	router.Use(CORS(deps.Config.CORS))

	metrics.InitMetrics()
	router.Use(metrics.Middleware())
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	registerHealthRoutes(router, deps)

	if deps.DocumentService != nil {
		document.RegisterRoutes(router, deps.DocumentService, deps.Logger)
	}

	return router
}
