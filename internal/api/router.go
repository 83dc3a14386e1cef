package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sensekit/behavior-engine-go/internal/config"
	"github.com/sensekit/behavior-engine-go/internal/engine"
	"github.com/sensekit/behavior-engine-go/internal/handler"
	"github.com/sensekit/behavior-engine-go/internal/middleware"
)

// SetupRouter wires the HTTP surface over the engine.
func SetupRouter(cfg *config.Config, eng *engine.Engine) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS for local dashboard consumers
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Behavior engine is running",
		})
	})

	h := handler.NewBehaviorHandler(eng)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(120, time.Minute))
	{
		behavior := api.Group("/behavior")
		{
			behavior.GET("/context", h.GetContext)
			behavior.GET("/privacy", h.GetPrivacy)

			// Lifecycle and privacy reset require a token
			protected := behavior.Group("")
			protected.Use(middleware.Auth(cfg.JWTSecret))
			{
				protected.POST("/enable", h.Enable)
				protected.POST("/disable", h.Disable)
				protected.DELETE("/data", h.ClearData)
			}
		}
	}

	return r
}
