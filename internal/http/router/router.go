// Package router sets up the HTTP routes for the Top 5 API server.
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/tiaocarreiro/top5/internal/http/handler"
	"github.com/tiaocarreiro/top5/internal/http/middleware"
	"github.com/tiaocarreiro/top5/pkg"
)

// Config carries the knobs the router needs beyond its handlers.
type Config struct {
	AdminToken string

	// SuggestRateLimit caps suggestions per client IP per minute. Zero or a
	// nil RateLimitClient disables limiting.
	SuggestRateLimit int
	RateLimitClient  *redis.Client
}

// New initializes the Gin engine with middleware and all API routes.
func New(music *handler.MusicHandler, admin *handler.AdminHandler, health *handler.HealthHandler, cfg Config) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.RequestLogger(), middleware.Recovery())

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, pkg.Fail("route not found"))
	})

	engine.GET(pkg.HealthCheckPath+"/live", health.Liveness)
	engine.GET(pkg.HealthCheckPath+"/ready", health.Readiness)

	api := engine.Group(pkg.BasePath)

	musics := api.Group("/musics")
	musics.GET("", music.List)
	musics.GET("/top5", music.Top5)
	musics.GET("/statuses", music.Statuses)
	musics.GET("/:id", music.Get)
	musics.POST("/:id/play", music.Play)
	musics.POST("/suggest",
		middleware.RateLimit(cfg.RateLimitClient, cfg.SuggestRateLimit, time.Minute),
		music.Suggest)

	adm := api.Group("/admin", middleware.AdminAuth(cfg.AdminToken))
	adm.GET("/suggestions", admin.Suggestions)
	adm.POST("/suggestions/:id/approve", admin.Approve)
	adm.POST("/suggestions/:id/reject", admin.Reject)
	adm.GET("/musics", music.List)
	adm.GET("/musics/:id", music.Get)
	adm.POST("/musics", admin.Create)
	adm.PUT("/musics/:id", admin.Update)
	adm.DELETE("/musics/:id", admin.Delete)
	adm.POST("/musics/:id/refresh-views", admin.RefreshViews)
	adm.GET("/statistics", admin.Statistics)

	return engine
}
