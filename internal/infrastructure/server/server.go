package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/galaxy/internal/api/http"
	"github.com/GriffinCanCode/galaxy/internal/api/middleware"
	"github.com/GriffinCanCode/galaxy/internal/api/ws"
	"github.com/GriffinCanCode/galaxy/internal/domain/registry"
	"github.com/GriffinCanCode/galaxy/internal/events"
	"github.com/GriffinCanCode/galaxy/internal/identity"
	"github.com/GriffinCanCode/galaxy/internal/infrastructure/config"
	"github.com/GriffinCanCode/galaxy/internal/infrastructure/logging"
	"github.com/GriffinCanCode/galaxy/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/galaxy/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/galaxy/internal/shared/paths"
	"github.com/GriffinCanCode/galaxy/internal/shared/types"
	"github.com/GriffinCanCode/galaxy/internal/storage/cache"
	"github.com/GriffinCanCode/galaxy/internal/storage/snapshot"
	"github.com/GriffinCanCode/galaxy/internal/storage/sqlite"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	http       *http.Server
	manager    *registry.Manager
	accounts   *identity.Accounts
	store      registry.Store
	dispatcher *events.Dispatcher
	tracer     *tracing.Tracer
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
	watch      *seedWatch
}

// seedWatch runs Seeder.Watch for the server's lifetime
type seedWatch struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startSeedWatch(seeder *registry.Seeder, debounce time.Duration, logger *zap.Logger) *seedWatch {
	ctx, cancel := context.WithCancel(context.Background())
	w := &seedWatch{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		if err := seeder.Watch(ctx, debounce); err != nil {
			logger.Warn("Seed watcher stopped", zap.Error(err))
		}
	}()
	return w
}

func (w *seedWatch) stop() {
	w.cancel()
	<-w.done
}

// NewServer creates a new server instance
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Initializing galaxy server",
		zap.String("addr", cfg.Addr()),
		zap.String("storage", cfg.Storage.Backend),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("galaxy", logger.Logger)

	store, err := openStore(ctx, cfg, logger.Logger)
	if err != nil {
		tracer.Close()
		return nil, err
	}
	if cfg.Cache.Enabled {
		store = cache.New(store, cfg.Cache.TTL, cfg.Cache.Cleanup).WithMetrics(metrics)
		logger.Info("Link cache enabled", zap.Duration("ttl", cfg.Cache.TTL))
	}

	// Notification sinks
	broker := events.NewBrokerWithBuffer(cfg.Events.Buffer).WithMetrics(metrics)
	sinks := []events.Sink{broker}
	if cfg.Events.WebhookURL != "" {
		hook := events.DefaultWebhookConfig(cfg.Events.WebhookURL)
		hook.Retries = cfg.Events.WebhookRetries
		hook.QueueSize = cfg.Events.Buffer
		sinks = append(sinks, events.NewWebhook(hook, logger.Logger))
		logger.Info("Webhook notifications enabled", zap.String("url", cfg.Events.WebhookURL))
	}
	dispatcher := events.NewDispatcher(sinks...).WithMetrics(metrics).WithLogger(logger.Logger)

	manager := registry.NewManager(store).
		WithNotifier(dispatcher).
		WithMetrics(metrics).
		WithLogger(logger.Logger)

	var watch *seedWatch
	if cfg.Seed.Dir != "" {
		seeder := registry.NewSeeder(manager, cfg.Seed.Dir, types.UserID(cfg.Seed.Owner)).
			WithPattern(cfg.Seed.Pattern).
			WithLogger(logger.Logger)
		if _, err := seeder.Seed(ctx); err != nil {
			logger.Warn("Failed to seed layers", zap.Error(err))
		}
		if cfg.Seed.Watch {
			watch = startSeedWatch(seeder, cfg.Seed.Debounce, logger.Logger)
		}
	}

	accounts := identity.NewAccounts(cfg.Auth.SessionTTL).WithLogger(logger.Logger)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.Middleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(manager, accounts, cfg.Storage.Backend).WithLogger(logger.Logger)
	handlers.Routes(router, accounts)

	wsHandler := ws.NewHandler(broker).WithMetrics(metrics).WithLogger(logger.Logger)
	router.GET("/events", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		manager:    manager,
		accounts:   accounts,
		store:      store,
		dispatcher: dispatcher,
		tracer:     tracer,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
		watch:      watch,
	}, nil
}

// openStore builds the configured persistence backend
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (registry.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, cfg.Storage.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil
	case config.BackendSnapshot:
		path := cfg.Storage.Path
		if path == paths.Database() {
			path = paths.Snapshot()
		}
		store, err := snapshot.Open(path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot store: %w", err)
		}
		return store, nil
	default:
		return registry.NewMemoryStore(), nil
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Manager returns the layer registry
func (s *Server) Manager() *registry.Manager {
	return s.manager
}

// Run starts the HTTP server and blocks until it stops.
// It returns nil after a graceful Shutdown.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and the seed watcher, then closes sinks,
// tracer and store
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop http server: %w", err))
	}
	if s.watch != nil {
		s.watch.stop()
	}
	if err := s.dispatcher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close event sinks: %w", err))
	}
	s.tracer.Close()
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Error("Shutdown finished with errors", zap.Error(err))
	}

	// Sync logger before exit
	_ = s.logger.Sync()
	return err
}
