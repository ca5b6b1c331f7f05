package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/procpipe/internal/api/http"
	"github.com/GriffinCanCode/procpipe/internal/api/middleware"
	"github.com/GriffinCanCode/procpipe/internal/api/ws"
	"github.com/GriffinCanCode/procpipe/internal/infrastructure/config"
	"github.com/GriffinCanCode/procpipe/internal/infrastructure/logging"
	"github.com/GriffinCanCode/procpipe/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/procpipe/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/procpipe/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/procpipe/internal/providers/process"
	"github.com/GriffinCanCode/procpipe/internal/providers/system"
	"github.com/GriffinCanCode/procpipe/internal/service"
	"github.com/GriffinCanCode/procpipe/internal/spawn"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	registry   *service.Registry
	engine     *spawn.Engine
	tracer     *tracing.Tracer
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// Option configures NewServer
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	logger     *logging.Logger
}

// WithRegistry registers server metrics on reg instead of the default
// Prometheus registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registerer = reg
		o.gatherer = reg
	}
}

// WithLogger replaces the logger built from the logging config
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	o := options{
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	logger.Info("Initializing procpipe server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("stderr_mode", cfg.Spawn.StderrMode),
		zap.Strings("allowed_programs", cfg.Spawn.AllowedPrograms),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics(o.registerer)
	collector := spawn.NewPrometheusMetricsCollector(cfg.Metrics.Namespace)

	tracer := tracing.New("procpipe", logger.Component("trace"))

	engine := spawn.NewEngine(
		spawn.WithLogger(logger.Component("spawn")),
		spawn.WithMetrics(collector),
		spawn.WithStderrMode(cfg.StderrMode()),
	)

	providerOpts := []process.Option{
		process.WithAllowedPrograms(cfg.Spawn.AllowedPrograms),
		process.WithLogger(logger.Component("process")),
	}
	if threshold := cfg.Spawn.ForkFailureThreshold; threshold > 0 {
		breakerLog := logger.Component("breaker")
		providerOpts = append(providerOpts, process.WithLaunchBreaker(resilience.New("launch", resilience.Settings{
			Timeout: cfg.Spawn.ForkCooldown,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold)
			},
			OnStateChange: func(name string, from, to resilience.State) {
				breakerLog.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})))
	}

	serviceRegistry := service.NewRegistry()
	processProvider := process.NewProvider(engine, providerOpts...)
	for _, provider := range []service.Provider{processProvider, system.NewProvider()} {
		if err := serviceRegistry.Register(provider); err != nil {
			tracer.Close()
			return nil, fmt.Errorf("failed to register %s provider: %w", provider.Definition().ID, err)
		}
	}

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(serviceRegistry, metrics, tracer, logger.Component("http"))
	metricsAggregator := apihttp.NewMetricsAggregator(metrics, serviceRegistry)
	wsHandler := ws.NewHandler(engine, metrics, logger.Component("stream"), ws.Config{
		PollInterval: cfg.Stream.PollInterval,
		MaxBackoff:   cfg.Stream.MaxBackoff,
	})

	// Register routes
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Service management
	router.GET("/services", handlers.ListServices)
	router.POST("/services/execute", handlers.ExecuteService)

	// Output streaming
	router.GET("/stream", wsHandler.HandleConnection)

	// Metrics endpoints
	router.GET("/metrics", gin.WrapH(monitoring.Handler(o.gatherer, collector.Registry())))
	router.GET("/metrics/json", metricsAggregator.GetAggregatedMetrics)

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		registry: serviceRegistry,
		engine:   engine,
		tracer:   tracer,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until Shutdown
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones. Open
// output streams are hijacked connections and are not waited for.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// Close releases the tracer and flushes the logger
func (s *Server) Close() error {
	s.tracer.Close()
	if err := s.logger.Close(); err != nil {
		return fmt.Errorf("failed to sync logger: %w", err)
	}
	return nil
}
