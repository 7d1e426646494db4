package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	app "github.com/kode4food/bizunit"
	"github.com/kode4food/bizunit/internal/blocks"
	"github.com/kode4food/bizunit/internal/catalog"
	"github.com/kode4food/bizunit/internal/client"
	"github.com/kode4food/bizunit/internal/config"
	"github.com/kode4food/bizunit/internal/events"
	"github.com/kode4food/bizunit/internal/plan"
	"github.com/kode4food/bizunit/internal/script"
	"github.com/kode4food/bizunit/internal/server"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/store/keyvalue"
	"github.com/kode4food/bizunit/internal/store/object"
	"github.com/kode4food/bizunit/internal/store/relational"
	"github.com/kode4food/bizunit/pkg/log"
)

type bizunit struct {
	cfg        *config.Config
	logger     *slog.Logger
	kv         *keyvalue.RedisStore
	sql        *relational.SQLStore
	objects    *object.BlobStore
	hub        *events.Hub
	catalog    *catalog.Catalog
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var (
	ErrCreateKVStore     = errors.New("failed to create key/value store")
	ErrCreateSQLStore    = errors.New("failed to create SQL store")
	ErrCreateObjectStore = errors.New("failed to create object store")
	ErrCreateCatalog     = errors.New("failed to create plan catalog")
)

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &bizunit{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *bizunit) run() error {
	ctx := context.Background()
	if err := s.initializeStores(ctx); err != nil {
		s.closeStores()
		return err
	}

	if err := s.initializeEngine(ctx); err != nil {
		s.closeStores()
		return err
	}
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *bizunit) setupLogging() {
	level := log.ParseLevel(s.cfg.LogLevel)
	env := os.Getenv("ENV")
	s.logger = log.NewWithLevel(app.Name, env, app.Version, level)
	slog.SetDefault(s.logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Bizunit starting",
		slog.String("log_level", s.cfg.LogLevel),
		slog.Bool("debug", s.cfg.Debug))

	slog.Info("Configuration loaded",
		slog.String("plan_bucket_url", s.cfg.PlanBucketURL),
		slog.String("kv_redis_addr", s.cfg.KV.Addr),
		slog.Int("kv_redis_db", s.cfg.KV.DB),
		slog.String("sql_driver", s.cfg.SQLDriver),
		slog.Bool("sql_configured", s.cfg.SQLDSN != ""),
		slog.String("object_bucket_url", s.cfg.ObjectBucketURL),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort))
}

// initializeStores opens every configured collaborator. Collaborators
// without an address, DSN or URL are left out
func (s *bizunit) initializeStores(ctx context.Context) error {
	var err error

	if s.cfg.KV.Addr != "" {
		s.kv, err = keyvalue.Open(ctx, s.cfg.KV)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCreateKVStore, err)
		}
	}

	if s.cfg.SQLDSN != "" {
		s.sql, err = relational.Open(ctx, s.cfg.SQLDriver, s.cfg.SQLDSN)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCreateSQLStore, err)
		}
	}

	if s.cfg.ObjectBucketURL != "" {
		s.objects, err = object.Open(
			ctx, s.cfg.ObjectBucketURL, s.cfg.ObjectPrefix,
		)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCreateObjectStore, err)
		}
	}

	return nil
}

func (s *bizunit) dependencies() *session.Dependencies {
	deps := &session.Dependencies{
		Logger:  s.logger,
		Events:  s.hub,
		HTTP:    client.NewHTTPClient(s.cfg.HTTPTimeout, s.logger),
		Scripts: script.NewRegistry(s.cfg.ScriptCacheSize),
	}
	if s.kv != nil {
		deps.KV = s.kv
	}
	if s.sql != nil {
		deps.SQL = s.sql
	}
	if s.objects != nil {
		deps.Objects = s.objects
	}
	return deps
}

func (s *bizunit) initializeEngine(ctx context.Context) error {
	s.hub = events.NewHub()
	registry := blocks.NewRegistry()
	manager := plan.NewManager(registry)

	cat, err := catalog.Open(ctx, s.cfg, manager, s.dependencies())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateCatalog, err)
	}
	s.catalog = cat

	s.apiServer = server.NewServer(server.Dependencies{
		Catalog:  cat,
		Manager:  manager,
		Registry: registry,
		Hub:      s.hub,
		Logger:   s.logger,
	})
	return nil
}

func (s *bizunit) startServer() {
	mux := s.apiServer.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *bizunit) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseWebSockets()
	s.closeStores()

	slog.Info("Server exited")
}

func (s *bizunit) closeStores() {
	if s.catalog != nil {
		if err := s.catalog.Close(); err != nil {
			slog.Error("Plan catalog close failed", log.Error(err))
		}
	}
	if s.hub != nil {
		s.hub.Close()
	}
	if s.kv != nil {
		_ = s.kv.Close()
	}
	if s.sql != nil {
		_ = s.sql.Close()
	}
	if s.objects != nil {
		_ = s.objects.Close()
	}
}
