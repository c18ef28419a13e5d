package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowOrigins []string
	Logger       *zap.Logger
	Metrics      *Metrics // nil creates a fresh registry
}

// NewRouter wires middleware and routes around h.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	r := gin.New()
	r.Use(RequestID())
	r.Use(ZapLogger(logger))
	r.Use(RecoveryWithZap(logger))
	r.Use(metrics.Middleware())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(opts.AllowOrigins) == 0 || (len(opts.AllowOrigins) == 1 && opts.AllowOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.AllowOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", h.Health)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/summary", h.Summary)
	api.GET("/aggregate", h.Aggregate)
	api.GET("/top", h.Top)
	api.GET("/correlation", h.Correlation)
	api.GET("/trend", h.Trend)
	api.GET("/segments", h.Segments)
	api.GET("/report", h.Report)

	r.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, CodeNotFound, "not found")
	})
	return r
}
