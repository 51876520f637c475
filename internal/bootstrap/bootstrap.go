// Package bootstrap wires the platform together: configuration, logging,
// storage, domain services, the gateway and both transports, then supervises
// them until shutdown.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	domainauth "hashhive-server-go/internal/domain/auth"
	authstore "hashhive-server-go/internal/domain/auth/store"
	"hashhive-server-go/internal/domain/cloudminer"
	"hashhive-server-go/internal/domain/eventbus"
	fleetservice "hashhive-server-go/internal/domain/fleet/service"
	"hashhive-server-go/internal/gateway"
	platformconfig "hashhive-server-go/internal/platform/config"
	platformerrors "hashhive-server-go/internal/platform/errors"
	platformlogging "hashhive-server-go/internal/platform/logging"
	platformstorage "hashhive-server-go/internal/platform/storage"
	httptransport "hashhive-server-go/internal/transport/http"
	httpwebapi "hashhive-server-go/internal/transport/http/webapi"
	wstransport "hashhive-server-go/internal/transport/ws"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	configPath string
	config     *platformconfig.Config
	logger     *platformlogging.Logger
	db         *gorm.DB

	bus           *eventbus.Bus
	auditRecorder *eventbus.AuditRecorder

	authManager *domainauth.Manager
	fleet       *fleetservice.FleetService
	cloud       *cloudminer.Service
	gateway     *gateway.Gateway
}

// Options tunes a bootstrap run.
type Options struct {
	ConfigPath string
}

// Run starts the whole service lifecycle: it executes the init graph, starts
// the transports and blocks until a termination signal or a fatal transport
// error.
func Run(ctx context.Context, opts Options) error {
	state := &appState{configPath: opts.ConfigPath}

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}

	defer func() {
		if state.auditRecorder != nil {
			state.auditRecorder.Stop()
		}
		if state.authManager != nil {
			if closeErr := state.authManager.Close(); closeErr != nil {
				logger.ErrorTag("Auth", "auth manager close failed: %v", closeErr)
			}
		}
		logger.Close()
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startServices(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	logger.InfoTag("Bootstrap", "all services started")

	return waitForShutdown(signalCtx, cancel, logger, group)
}

// InitGraph declares the initialisation order. Each step names its
// dependencies so a reordering mistake fails fast instead of producing a
// half-wired server.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init",
			Title:     "Initialise logging",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:open-database",
			Title:     "Open database and run migrations",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindStorage,
			Execute:   openDatabaseStep,
		},
		{
			ID:        "eventbus:init",
			Title:     "Initialise event bus and audit trail",
			DependsOn: []string{"logging:init", "storage:open-database"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
		{
			ID:        "auth:init-manager",
			Title:     "Initialise auth manager",
			DependsOn: []string{"storage:open-database", "logging:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initAuthStep,
		},
		{
			ID:        "domain:init-services",
			Title:     "Initialise fleet and cloud miner services",
			DependsOn: []string{"storage:open-database", "logging:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initDomainServicesStep,
		},
		{
			ID:        "gateway:init",
			Title:     "Initialise authorization gateway",
			DependsOn: []string{"domain:init-services", "eventbus:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initGatewayStep,
		},
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "execute init steps", "nil bootstrap state")
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(platformerrors.KindBootstrap, step.ID, "missing execute function")
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}
			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader(state.configPath).Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load configuration", err)
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init", "failed to create logger", err)
	}
	state.logger = logger
	if state.configPath != "" {
		logger.InfoTag("Bootstrap", "configuration loaded from %s", state.configPath)
	} else {
		logger.InfoTag("Bootstrap", "no config file found, using defaults")
	}
	return nil
}

func openDatabaseStep(_ context.Context, state *appState) error {
	db, err := platformstorage.Open(state.config.Database.Path)
	if err != nil {
		return err
	}
	state.db = db
	state.logger.InfoTag("Storage", "database ready at %s", state.config.Database.Path)
	return nil
}

func initEventBusStep(_ context.Context, state *appState) error {
	state.bus = eventbus.New()
	recorder := eventbus.NewAuditRecorder(
		state.bus,
		platformstorage.NewAuditRepository(state.db),
		state.logger,
	)
	if err := recorder.Start(); err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "eventbus:init", "failed to start audit recorder", err)
	}
	state.auditRecorder = recorder
	return nil
}

func initAuthStep(_ context.Context, state *appState) error {
	cfg := state.config
	logger := state.logger

	storeCfg := authstore.Config{
		Driver: strings.ToLower(cfg.Auth.Store.Type),
		TTL:    cfg.Auth.SessionTTL,
	}

	switch storeCfg.Driver {
	case authstore.DriverMemory, "":
		storeCfg.Driver = authstore.DriverMemory
		if cfg.Auth.Store.Memory.Cleanup > 0 {
			storeCfg.Memory = &authstore.MemoryConfig{GCInterval: cfg.Auth.Store.Memory.Cleanup}
		}
	case authstore.DriverSQLite:
		storeCfg.SQLite = &authstore.SQLiteConfig{}
	case authstore.DriverRedis:
		if cfg.Auth.Store.Redis.Addr == "" {
			return platformerrors.New(platformerrors.KindBootstrap, "auth:init-manager", "redis store addr is required")
		}
		storeCfg.Redis = &authstore.RedisConfig{
			Addr:     cfg.Auth.Store.Redis.Addr,
			Username: cfg.Auth.Store.Redis.Username,
			Password: cfg.Auth.Store.Redis.Password,
			DB:       cfg.Auth.Store.Redis.DB,
			Prefix:   cfg.Auth.Store.Redis.Prefix,
		}
	default:
		logger.WarnTag("Auth", "unsupported session store %q, falling back to memory", cfg.Auth.Store.Type)
		storeCfg.Driver = authstore.DriverMemory
	}

	sessionStore, err := authstore.New(storeCfg, authstore.Dependencies{SQLiteDB: state.db})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "auth:init-manager", "failed to create session store", err)
	}

	manager, err := domainauth.NewManager(domainauth.Options{
		Store:      sessionStore,
		Logger:     logger,
		SessionTTL: cfg.Auth.SessionTTL,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "auth:init-manager", "failed to create auth manager", err)
	}

	state.authManager = manager
	logger.InfoTag("Auth", "session store driver: %s", storeCfg.Driver)
	return nil
}

func initDomainServicesStep(ctx context.Context, state *appState) error {
	state.fleet = fleetservice.NewFleetService(
		platformstorage.NewDeviceRepository(state.db),
		state.logger,
	)

	cloud, err := cloudminer.NewService(
		ctx,
		platformstorage.NewCloudMinerRepository(state.db),
		cloudminer.Defaults{
			Algorithm:   state.config.CloudMiner.Algorithm,
			PoolURL:     state.config.CloudMiner.PoolURL,
			ThreadLimit: state.config.CloudMiner.ThreadLimit,
		},
		state.logger,
	)
	if err != nil {
		return err
	}
	state.cloud = cloud
	return nil
}

func initGatewayStep(_ context.Context, state *appState) error {
	state.gateway = gateway.New(state.fleet, state.cloud, state.bus, state.logger).
		WithAuditReader(platformstorage.NewAuditRepository(state.db))
	return nil
}

func startServices(state *appState, group *errgroup.Group, groupCtx context.Context) error {
	if err := startHTTPServer(state, group, groupCtx); err != nil {
		return err
	}
	if state.config.Telemetry.Enabled {
		startTelemetryServer(state, group, groupCtx)
	}
	return nil
}

func startHTTPServer(state *appState, group *errgroup.Group, groupCtx context.Context) error {
	config := state.config
	logger := state.logger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config: config,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	webapiService, err := httpwebapi.NewService(config, logger, state.gateway, state.authManager, state.cloud)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "webapi:new-service", "failed to create webapi service", err)
	}
	if err := webapiService.Register(groupCtx, httpRouter.API); err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "webapi:register", "failed to register webapi routes", err)
	}

	httpRouter.Engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			httptransport.RespondErrorKind(c, platformerrors.KindNotFound, "api route not found")
			return
		}
		if config.Web.Enabled {
			c.File(config.Web.StaticDir + "/index.html")
			return
		}
		c.Status(http.StatusNotFound)
	})

	httpServer := &http.Server{
		Addr:    config.Server.IP + ":" + strconv.Itoa(config.Server.Port),
		Handler: httpRouter.Engine,
	}

	group.Go(func() error {
		logger.InfoTag("HTTP", "listening on http://%s", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server stopped")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "server failed: %v", err)
			return err
		}
		return nil
	})

	return nil
}

func startTelemetryServer(state *appState, group *errgroup.Group, groupCtx context.Context) {
	config := state.config

	server := wstransport.NewServer(wstransport.ServerConfig{
		Addr:             config.Telemetry.IP + ":" + strconv.Itoa(config.Telemetry.Port),
		Path:             config.Telemetry.Path,
		SnapshotInterval: config.Telemetry.SnapshotInterval,
	}, state.fleet, state.logger)

	group.Go(func() error {
		if err := server.Start(groupCtx); err != nil {
			state.logger.ErrorTag("WebSocket", "telemetry server failed: %v", err)
			return err
		}
		return nil
	})
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	group *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("Bootstrap", "shutdown requested: %v", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- group.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("Bootstrap", "shutdown finished with error: %v", err)
			return err
		}
		logger.InfoTag("Bootstrap", "all services stopped")
		return nil
	case <-time.After(15 * time.Second):
		logger.ErrorTag("Bootstrap", "shutdown timed out")
		return errors.New("shutdown timed out")
	}
}
