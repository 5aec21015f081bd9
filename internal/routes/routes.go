package routes

import (
	"github.com/damoang/angple-wiki/internal/handler"
	"github.com/damoang/angple-wiki/internal/middleware"
	"github.com/damoang/angple-wiki/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Options route dependencies beyond the handlers
type Options struct {
	JWT *jwt.Manager
	// Redis backs the edit rate limit; nil disables it
	Redis          *redis.Client
	EditsPerMinute int
}

// Setup configures all API routes
func Setup(router *gin.Engine, wiki *handler.WikiHandler, health *handler.HealthHandler, opts Options) {
	// page names may contain an escaped slash (Guide%2FInstall)
	router.UseRawPath = true
	router.UnescapePathValues = true

	router.GET("/health", health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/wiki", middleware.Identity(opts.JWT))

	pages := api.Group("/pages")
	pages.GET("", wiki.ListPages)
	pages.GET("/:name", wiki.GetPage)
	pages.GET("/:name/source", wiki.GetSource)
	pages.GET("/:name/history", wiki.GetHistory)
	pages.PUT("/:name", middleware.EditRateLimit(opts.Redis, "angple-wiki:edits:", opts.EditsPerMinute), wiki.UpdatePage)

	api.GET("/search", wiki.Search)
}
