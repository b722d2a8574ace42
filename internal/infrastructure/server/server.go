package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/taskdock/internal/api/http"
	"github.com/GriffinCanCode/taskdock/internal/api/middleware"
	"github.com/GriffinCanCode/taskdock/internal/api/ws"
	"github.com/GriffinCanCode/taskdock/internal/domain/app"
	"github.com/GriffinCanCode/taskdock/internal/domain/autostart"
	"github.com/GriffinCanCode/taskdock/internal/domain/catalog"
	"github.com/GriffinCanCode/taskdock/internal/domain/installer"
	"github.com/GriffinCanCode/taskdock/internal/domain/ports"
	"github.com/GriffinCanCode/taskdock/internal/domain/process"
	"github.com/GriffinCanCode/taskdock/internal/domain/scanner"
	"github.com/GriffinCanCode/taskdock/internal/infrastructure/config"
	"github.com/GriffinCanCode/taskdock/internal/infrastructure/logging"
	"github.com/GriffinCanCode/taskdock/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/taskdock/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/taskdock/internal/providers/http/client"
	"github.com/GriffinCanCode/taskdock/internal/shared/cache"
	"github.com/GriffinCanCode/taskdock/internal/shared/paths"
	"github.com/GriffinCanCode/taskdock/internal/shared/types"
)

const shutdownTimeout = 5 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	config  *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
	manager *app.Manager
	router  *gin.Engine
	http    *http.Server
}

// NewServer wires every component from cfg
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	layout := paths.NewLayout(cfg.Paths.CLIBin, cfg.Paths.Lib, cfg.Paths.WebApps, cfg.Paths.Profile)
	logger.Info("Initializing taskdock",
		zap.String("port", cfg.Server.Port),
		zap.String("cli_bin", layout.CLIBin),
		zap.String("web_apps", layout.WebApps),
		zap.String("profile", layout.Profile),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("taskdock", logger.Component("tracing"))

	remote := client.New(client.Config{
		Timeout:   cfg.Remote.Timeout,
		Retries:   cfg.Remote.Retries,
		UserAgent: client.DefaultConfig().UserAgent,
	}, logger.Component("remote")).WithObserver(metrics.RecordRemoteFetch)

	remoteCache := cache.New[[]byte](cfg.Cache.RemoteTTL).
		WithObserver(cacheObserver(metrics, "remote"))
	installedCache := cache.New[[]types.AppRecord](cfg.Cache.InstalledTTL).
		WithObserver(cacheObserver(metrics, "installed"))

	store := catalog.New(catalog.Config{
		CLIURL:    cfg.Remote.CLIURL,
		WebURL:    cfg.Remote.WebURL,
		ExtrasURL: cfg.Remote.ExtrasURL,
		SelfName:  cfg.Process.SelfName,
	}, remote, remoteCache, logger.Component("catalog"))

	scan := scanner.New(layout, installedCache, logger.Component("scanner"))

	detector := ports.NewDefault(
		ports.SystemSockets{},
		ports.NewTCPProber(cfg.Process.ProbeTimeout),
		logger.Component("ports"),
	).WithObserver(metrics.RecordPortDetection)

	tracker := process.NewTracker(process.Config{
		Layout:      layout,
		Interpreter: cfg.Process.Interpreter,
		StartGrace:  cfg.Process.StartGrace,
		SelfName:    cfg.Process.SelfName,
	}, process.NewRegistry(), process.NewLister(cfg.Process.Lister), detector, logger.Component("process"))

	manager := app.NewManager(app.Deps{
		Scanner:   scan,
		Tracker:   tracker,
		Installer: installer.New(layout, store, remote, scan, logger.Component("installer")),
		AutoStart: autostart.New(layout, cfg.Process.Interpreter, logger.Component("autostart")),
		Catalog:   store,
	}, logger.Component("app")).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, tracing.TraceHeader, tracing.SpanHeader)
	corsCfg.ExposeHeaders = append(corsCfg.ExposeHeaders, tracing.TraceHeader, tracing.SpanHeader)
	router.Use(middleware.CORS(corsCfg))

	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limits := middleware.DefaultRateLimitConfig()
		limits.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limits.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limits))
	}

	handlers := apihttp.NewHandlers(manager, metrics, remote, logger.Component("api"))
	handlers.Register(router)
	router.GET("/ws", ws.NewHandler(manager, ws.DefaultInterval, logger.Component("ws")).HandleConnection)

	logger.Info("Server initialized")

	return &Server{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		manager: manager,
		router:  router,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler exposes the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Manager exposes the app manager
func (s *Server) Manager() *app.Manager {
	return s.manager
}

// Run serves until Shutdown is called
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests. Launched apps are left running.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	err := s.http.Shutdown(ctx)
	s.tracer.Close()
	_ = s.logger.Sync()
	if err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

func cacheObserver(metrics *monitoring.Metrics, name string) cache.Observer {
	return func(_ string, result cache.Result) {
		metrics.RecordCacheLookup(name, string(result))
	}
}
