package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tiaocarreiro/top5/pkg"
	"github.com/tiaocarreiro/top5/pkg/logger"
)

// Pinger is the minimal surface needed from a downstream dependency for
// readiness probing.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides liveness and readiness probes checking downstream deps.
type HealthHandler struct {
	pg          Pinger
	redis       Pinger
	pingTimeout time.Duration
}

// NewHealthHandler constructs a HealthHandler. Nil clients are skipped during
// readiness checks.
func NewHealthHandler(pg *pgxpool.Pool, redis *redis.Client) *HealthHandler {
	var pgPinger Pinger
	if pg != nil {
		pgPinger = pgPingerAdapter{pg}
	}
	var redisPinger Pinger
	if redis != nil {
		redisPinger = redisPingerAdapter{redis}
	}
	return &HealthHandler{
		pg:          pgPinger,
		redis:       redisPinger,
		pingTimeout: 1 * time.Second,
	}
}

type pgPingerAdapter struct{ pool *pgxpool.Pool }

func (p pgPingerAdapter) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

type redisPingerAdapter struct{ c *redis.Client }

func (r redisPingerAdapter) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

type dependencyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Liveness reports that the process is up. Do not check external deps here.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, pkg.OK(gin.H{"status": "alive"}, "ok"))
}

// Readiness checks external dependencies to decide if we can serve traffic.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.pingTimeout)
	defer cancel()

	results := make([]dependencyCheck, 0, 2)
	ready := true

	if h.pg != nil {
		if err := h.pg.Ping(ctx); err != nil {
			ready = false
			results = append(results, dependencyCheck{Name: "postgres", Status: "down", Error: err.Error()})
		} else {
			results = append(results, dependencyCheck{Name: "postgres", Status: "up"})
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			ready = false
			results = append(results, dependencyCheck{Name: "redis", Status: "down", Error: err.Error()})
		} else {
			results = append(results, dependencyCheck{Name: "redis", Status: "up"})
		}
	}

	if ready {
		c.JSON(http.StatusOK, pkg.OK(gin.H{"ready": true, "checks": results}, "ready"))
		return
	}
	logger.Warn(c.Request.Context(), "readiness failed: %+v", results)
	c.JSON(http.StatusServiceUnavailable, pkg.FailWith("not ready", results))
}
