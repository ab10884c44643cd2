package api

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/markdown-blog-api/internal/config"
	"github.com/markdown-blog-api/internal/service"
	"github.com/rs/zerolog"
)

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, db HealthChecker, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	postHandler := NewPostHandler(services, log)
	subscriberHandler := NewSubscriberHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(db))

	api := router.Group("/api")
	{
		posts := api.Group("/posts")
		{
			posts.GET("", postHandler.ListPosts)
			posts.GET("/:id", postHandler.GetPost)
			posts.POST("", postHandler.CreatePost)
			posts.PUT("/:id", postHandler.UpdatePost)
			posts.DELETE("/:id", postHandler.DeletePost)
		}

		api.GET("/export/posts", postHandler.ExportPosts)

		api.POST("/subscribe", subscriberHandler.Subscribe)
		api.DELETE("/subscribe", subscriberHandler.Unsubscribe)

		api.GET("/settings/fonts", fontsHandler(services, log))
	}

	if cfg.Server.StaticDir != "" {
		registerPages(router, cfg.Server.StaticDir)
	}

	return router
}

// pages maps clean page URLs onto the HTML files in the static directory
var pages = map[string]string{
	"/":          "dashboard.html",
	"/dashboard": "dashboard.html",
	"/viewer":    "viewer.html",
	"/editor":    "editor.html",
}

// registerPages serves the editor UI; anything else falls through to static assets
func registerPages(router *gin.Engine, dir string) {
	for route, file := range pages {
		router.StaticFile(route, filepath.Join(dir, file))
	}
	router.NoRoute(gin.WrapH(http.FileServer(http.Dir(dir))))
}

// healthCheck returns the health status
func healthCheck(db HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		database := "ok"

		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.HealthCheck(ctx); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
				database = err.Error()
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"database":  database,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "markdown-blog-api",
		})
	}
}

// fontsHandler handles GET /api/settings/fonts
func fontsHandler(services *service.Services, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		fonts, err := services.Settings.Fonts()
		if err != nil {
			log.Error().Err(err).Msg("Font settings unavailable")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load font settings."})
			return
		}
		c.JSON(http.StatusOK, fonts)
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"message": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
