package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const probeTimeout = 5 * time.Second

func registerHealthRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
		defer cancel()

		if err := deps.Store.Probe(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "degraded",
				"component": "storage",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"baseUrl":       deps.Config.BaseURL,
			"storageDriver": deps.Config.Storage.Driver,
		})
	})
}
