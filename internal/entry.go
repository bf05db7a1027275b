// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/newsroll/internal/api"
	"github.com/starford/newsroll/internal/index"
	"github.com/starford/newsroll/internal/indexcache"
	"github.com/starford/newsroll/internal/mcpserver"
	"github.com/starford/newsroll/internal/models"
	"github.com/starford/newsroll/internal/newsservice"
	"github.com/starford/newsroll/internal/sse"
	"github.com/starford/newsroll/internal/storage"
)

const watchDebounce = 300 * time.Millisecond

// backend holds the components shared by the serve, sync and mcp commands.
type backend struct {
	cfg    *Config
	logger *slog.Logger
	key    indexcache.Key

	remote indexcache.Fetcher // upstream site, nil for the file source
	store  storage.Provider   // local index directory, file source only
	db     *index.DB          // snapshot, sqlite source only
	cache  *indexcache.Cache
}

func newApplication(opts []Option, logOut io.Writer) (*application, error) {
	app := &application{version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if app.logger == nil {
		// Initialize structured JSON logger.
		app.logger = slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
		slog.SetDefault(app.logger)
	}
	return app, nil
}

// open builds the index backend selected by cfg.Index.Source.
func open(cfg *Config, logger *slog.Logger) (*backend, error) {
	rt := &backend{
		cfg:    cfg,
		logger: logger,
		key:    indexcache.Key{Name: cfg.Index.Name, Sheet: cfg.Index.Sheet},
	}

	var fetcher indexcache.Fetcher
	switch cfg.Index.Source {
	case IndexSourceFile:
		if err := os.MkdirAll(cfg.Index.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
		store, err := storage.NewFS(cfg.Index.Dir)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		rt.store = store
		fetcher = indexcache.NewFileFetcher(store)
	case IndexSourceSQLite:
		db, err := index.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		rt.db = db
		rt.remote = indexcache.NewHTTPFetcher(cfg.Index.BaseURL, cfg.Index.Timeout)
		fetcher = db
	default:
		rt.remote = indexcache.NewHTTPFetcher(cfg.Index.BaseURL, cfg.Index.Timeout)
		fetcher = rt.remote
	}

	rt.cache = indexcache.New(fetcher, cfg.Index.PageSize, logger)
	return rt, nil
}

func (rt *backend) Close() error {
	if rt.db != nil {
		return rt.db.Close()
	}
	return nil
}

func (rt *backend) service(notifier newsservice.Notifier) (*newsservice.Service, error) {
	loc, err := rt.cfg.News.Location()
	if err != nil {
		return nil, err
	}
	opts := []newsservice.Option{newsservice.WithLogger(rt.logger)}
	if notifier != nil {
		opts = append(opts, newsservice.WithNotifier(notifier))
	}
	return newsservice.NewService(rt.cache, newsservice.Settings{
		Key:          rt.key,
		Prefix:       rt.cfg.News.SectionPrefix,
		DefaultImage: rt.cfg.News.DefaultImage,
		PageSize:     rt.cfg.News.PageSize,
		MinLoading:   rt.cfg.News.MinLoading,
		FirstYear:    rt.cfg.News.FirstYear,
		Location:     loc,
		SessionTTL:   rt.cfg.Session.TTL,
	}, opts...), nil
}

// syncSnapshot pulls the upstream index into the sqlite snapshot.
func (rt *backend) syncSnapshot(ctx context.Context) ([]models.PageIndexEntry, index.SyncResult, error) {
	entries, res, err := index.Sync(ctx, rt.db, rt.remote, rt.key, rt.cfg.Index.PageSize, rt.logger)
	if err != nil {
		return nil, res, err
	}
	rt.logger.Info("snapshot synced",
		slog.String("key", rt.key.String()),
		slog.Int("total", res.Total),
		slog.Int("upserted", res.Upserted),
		slog.Int("removed", res.Removed))
	return entries, res, nil
}

// runSnapshotSync keeps the snapshot current and invalidates the cache
// whenever a sync changed it.
func (rt *backend) runSnapshotSync(ctx context.Context, svc *newsservice.Service) error {
	if rt.cfg.Index.RefreshInterval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(rt.cfg.Index.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, res, err := rt.syncSnapshot(ctx)
			if err != nil {
				rt.logger.Warn("snapshot sync failed", slog.String("error", err.Error()))
				svc.IndexChanged(sse.KindFailed)
				continue
			}
			if res.Upserted > 0 || res.Removed > 0 {
				svc.IndexChanged(sse.KindUpdated)
			}
		}
	}
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("index_source", cfg.Index.Source),
		slog.String("index_name", cfg.Index.Name),
		slog.String("section_prefix", cfg.News.SectionPrefix),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt, err := open(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.db != nil {
		// Run initial sync.
		if _, _, err := rt.syncSnapshot(ctx); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc, err := rt.service(broker)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := svc.Ready(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api and the listing pages at the root.
	r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, rt.store))
	r.Mount("/", api.NewSiteRouter(svc))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the index current.
	switch cfg.Index.Source {
	case IndexSourceFile:
		dir := cfg.Index.Dir
		want := indexcache.FileName(rt.key)
		g.Go(func() error {
			err := indexcache.Watch(gCtx, dir, watchDebounce, logger, func(kind, name string) {
				if name == want {
					svc.IndexChanged(kind)
				}
			})
			if err != nil {
				logger.Error("index watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	case IndexSourceSQLite:
		g.Go(func() error { return rt.runSnapshotSync(gCtx, svc) })
	default:
		g.Go(func() error { return svc.RunRefresher(gCtx, cfg.Index.RefreshInterval) })
	}

	// Expire idle listing sessions.
	g.Go(func() error {
		return svc.Sessions().Run(gCtx, cfg.Session.SweepInterval)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// Sync pulls the upstream index once into the sqlite snapshot. When export is
// non-empty the fetched index is also written as JSON into the index
// directory under that file name.
func Sync(ctx context.Context, export string, opts ...Option) (index.SyncResult, error) {
	app, err := newApplication(opts, os.Stdout)
	if err != nil {
		return index.SyncResult{}, err
	}
	cfg := *app.config
	if cfg.Index.BaseURL == "" {
		return index.SyncResult{}, fmt.Errorf("index: base_url is required for sync")
	}
	cfg.Index.Source = IndexSourceSQLite
	if err := cfg.SQLite.Validate(); err != nil {
		return index.SyncResult{}, fmt.Errorf("sqlite: %w", err)
	}

	rt, err := open(&cfg, app.logger)
	if err != nil {
		return index.SyncResult{}, err
	}
	defer rt.Close()

	entries, res, err := rt.syncSnapshot(ctx)
	if err != nil {
		return res, fmt.Errorf("sync: %w", err)
	}
	if export == "" {
		return res, nil
	}

	if err := os.MkdirAll(cfg.Index.Dir, 0o755); err != nil {
		return res, fmt.Errorf("create index dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Index.Dir)
	if err != nil {
		return res, fmt.Errorf("init storage: %w", err)
	}
	raw, err := models.EncodeWire(models.IndexPage{Total: len(entries), Limit: len(entries), Data: entries})
	if err != nil {
		return res, fmt.Errorf("encode export: %w", err)
	}
	if err := store.Write(export, raw); err != nil {
		return res, fmt.Errorf("write export: %w", err)
	}
	app.logger.Info("index exported", slog.String("file", export), slog.Int("entries", len(entries)))
	return res, nil
}

// ServeMCP runs the MCP server on stdin/stdout until the client disconnects.
// Logs go to stderr.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}

	rt, err := open(app.config, app.logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	svc, err := rt.service(nil)
	if err != nil {
		return err
	}
	return mcpserver.New(svc, rt.store, app.version).ServeStdio()
}
