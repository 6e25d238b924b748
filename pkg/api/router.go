package api

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"form-intake/pkg/middleware"
	"form-intake/pkg/web"
)

// RouterOptions tunes the shared middleware.
type RouterOptions struct {
	// RateLimiter guards POST /form. Nil disables limiting.
	RateLimiter *rate.Limiter
	EnableGzip  bool
}

// NewRouter wires every route behind one middleware chain.
func NewRouter(h *Handlers, opts RouterOptions) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("error parsing templates: %w", err)
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)

	router.Use(
		middleware.Metrics(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.CORS(),
	)
	if opts.EnableGzip {
		router.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	submit := []gin.HandlerFunc{h.Submit}
	if opts.RateLimiter != nil {
		submit = append([]gin.HandlerFunc{middleware.RateLimit(opts.RateLimiter)}, submit...)
	}

	router.GET("/", h.Welcome)
	router.GET("/form", h.Form)
	router.POST("/form", submit...)
	router.GET("/health", h.HealthCheck)
	router.GET("/ready", h.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.StaticFS("/public", http.FS(web.Public()))

	return router, nil
}
