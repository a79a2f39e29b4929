package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"accountdesk/internal/config"
	"accountdesk/internal/handlers"
	"accountdesk/internal/middleware"
	"accountdesk/internal/ratelimit"
)

// maxBodyBytes matches the JSON body cap the service has always enforced.
const maxBodyBytes = 100 << 10

type HTTPServer struct {
	engine *gin.Engine
	server *http.Server
	log    zerolog.Logger
	cfg    *config.AppConfig
}

func NewHTTPServer(
	cfg *config.AppConfig,
	log zerolog.Logger,
	handlerSet handlers.HandlerSet,
	limiter ratelimit.Limiter,
	registry *prometheus.Registry,
) *HTTPServer {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.RedirectTrailingSlash = true
	engine.RedirectFixedPath = true

	engine.Use(
		otelgin.Middleware(cfg.Tracing.ServiceName),
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.SecureHeaders(!cfg.IsDevelopment()),
		middleware.CORS(cfg.CORS.AllowedOrigins, cfg.IsProduction()),
	)

	if cfg.Metrics.Enabled && registry != nil {
		engine.Use(middleware.NewMetrics(registry).Handler())
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api")
	if limiter != nil {
		api.Use(middleware.RateLimit(limiter, log))
	}
	api.Use(middleware.BodyLimit(maxBodyBytes))
	handlerSet.Register(api)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      gzhttp.GzipHandler(engine),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &HTTPServer{
		engine: engine,
		server: srv,
		log:    log,
		cfg:    cfg,
	}
}

// Handler is the full middleware-wrapped handler the listener serves.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.log.Info().
		Str("addr", s.server.Addr).
		Msg("http server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}
