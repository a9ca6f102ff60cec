package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/healthsync/healthsync-api/internal/handler"
	"github.com/healthsync/healthsync-api/internal/middleware"
	"github.com/healthsync/healthsync-api/pkg/metrics"
)

type Config struct {
	Mode           string
	BasePath       string
	RequestTimeout time.Duration
	// MaxBodyBytes 0 leaves request bodies unbounded.
	MaxBodyBytes   int64
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	// RateLimit nil disables rate limiting.
	RateLimit *middleware.RateLimiterConfig
}

type Router struct {
	engine  *gin.Engine
	metrics *metrics.Metrics
}

// NewRouter mounts system handlers (health, metrics) at the root and
// resource handlers under cfg.BasePath.
func NewRouter(cfg Config, m *metrics.Metrics, system []handler.Routes, resources []handler.Routes) *Router {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	engine := gin.New()

	r := &Router{engine: engine, metrics: m}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
		middleware.Recovery(),
		middleware.ErrorHandler(),
		middleware.CORS(cfg.CORS),
		middleware.SecurityHeaders(cfg.Security),
	)
	if cfg.MaxBodyBytes > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	}
	if cfg.RateLimit != nil {
		engine.Use(middleware.NewRateLimiter(*cfg.RateLimit).RateLimit())
	}
	engine.Use(middleware.Timeout(cfg.RequestTimeout))

	root := engine.Group("/")
	for _, h := range system {
		h.RegisterRoutes(root)
	}

	api := engine.Group(cfg.BasePath)
	for _, h := range resources {
		h.RegisterRoutes(api)
	}
	return r
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		r.metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		r.metrics.RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
