package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/roster-import-api/internal/config"
	"github.com/roster-import-api/internal/models"
	"github.com/roster-import-api/internal/service"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	importHandler := NewImportHandler(services, cfg, log)
	templateHandler := NewTemplateHandler(services, cfg, log)

	// Health check
	router.GET("/health", healthCheck)

	// Emitted error/credential reports
	router.Static(cfg.Reports.WebBase, cfg.Reports.Dir)

	// API v1
	v1 := router.Group("/v1")
	{
		roster := v1.Group("/roster")
		{
			roster.POST("/imports", importHandler.CreateImport)
			roster.GET("/templates/:role", templateHandler.Download)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "roster-import-api",
	})
}

// callerScope resolves the administrator's authorization scope from the
// headers set by the upstream auth proxy. An admin whose department is one of
// the configured department-admin departments is scoped to it; anyone else is
// system-wide.
func callerScope(c *gin.Context, cfg *config.Config) models.CallerScope {
	dept := c.GetHeader("X-Admin-Department")
	if cfg.Import.IsDeptAdminDepartment(dept) {
		return models.CallerScope{Department: dept, IsSystemWide: false}
	}
	return models.CallerScope{Department: dept, IsSystemWide: true}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"message": "Server error",
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
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Admin-Department, X-CSRF-Token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
