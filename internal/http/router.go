// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"loadapp/internal/http/handlers"
	"loadapp/internal/http/middleware"
)

type RouterDeps struct {
	Routes      handlers.RoutePlanner
	Costs       handlers.CostEstimator
	Offers      handlers.OfferService
	Settings    handlers.SettingsService
	CORSOrigins []string
	Logger      *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.Logging(logger), middleware.Recovery(logger))
	r.Use(cors.New(corsConfig(deps.CORSOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := r.Group("/api")

	routeHandler := handlers.NewRouteHandler(deps.Routes, deps.Costs)
	api.POST("/routes", routeHandler.Create)
	api.GET("/routes/:id", routeHandler.Get)
	api.POST("/routes/:id/costs", routeHandler.Estimate)

	offerHandler := handlers.NewOfferHandler(deps.Offers)
	api.POST("/offers", offerHandler.Create)
	api.GET("/offers", offerHandler.List)
	api.GET("/offers/:id", offerHandler.Get)
	api.POST("/offers/:id/status", offerHandler.UpdateStatus)
	api.GET("/offers/:id/alternatives", offerHandler.Alternatives)
	api.GET("/offers/:id/events", offerHandler.Events)

	settingsHandler := handlers.NewSettingsHandler(deps.Settings)
	api.GET("/settings", settingsHandler.Get)
	api.PUT("/settings", settingsHandler.Update)
	api.GET("/settings/history", settingsHandler.History)
	api.POST("/settings/validate", settingsHandler.Validate)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "code": "NOT_FOUND"})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
