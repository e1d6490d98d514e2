// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/starford/denkenote/internal/api"
	"github.com/starford/denkenote/internal/index"
	"github.com/starford/denkenote/internal/mcpserver"
	"github.com/starford/denkenote/internal/metrics"
	"github.com/starford/denkenote/internal/notebook"
	"github.com/starford/denkenote/internal/pdf"
	"github.com/starford/denkenote/internal/search"
	"github.com/starford/denkenote/internal/site"
	"github.com/starford/denkenote/internal/sse"
	"github.com/starford/denkenote/internal/storage"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{mode: ModeServe, version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logOut := app.logOut
	if logOut == nil {
		logOut = os.Stdout
		if app.mode == ModeMCP {
			logOut = os.Stderr
		}
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("mode", string(app.mode)),
		slog.String("content_path", cfg.Content.Path),
		slog.String("token_strategy", string(cfg.Content.TokenStrategy)),
		slog.String("log_level", cfg.App.LogLevel.String()))

	switch app.mode {
	case ModeServe:
		return runServe(ctx, cfg, logger)
	case ModeGenerate:
		return runGenerate(ctx, cfg, logger)
	case ModeMCP:
		return runMCP(ctx, cfg, app.version, logger)
	default:
		return fmt.Errorf("unknown mode %q", app.mode)
	}
}

func runServe(ctx context.Context, cfg *Config, logger *slog.Logger) error {
	p, err := newPipeline(cfg, false, logger)
	if err != nil {
		return err
	}
	store := index.NewStore()

	var (
		recorder       metrics.Recorder = metrics.NoopRecorder{}
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	}

	rebuilder := index.NewRebuilder(p.builder, store, logger, index.WithRecorder(recorder))

	var searcher search.Searcher
	searchPath := ""
	if cfg.Search.Enabled {
		db, err := search.Open(cfg.Search.Path)
		if err != nil {
			return fmt.Errorf("init search: %w", err)
		}
		defer db.Close()
		rebuilder.OnPublish(search.Listener(db, logger))
		searcher = db
		if cfg.Search.Path != "" {
			searchPath, _ = filepath.Abs(cfg.Search.Path)
		}
	}

	// SSE broker.
	broker := sse.NewBroker(0)
	defer broker.Close()
	var events http.Handler
	if cfg.View.LiveReload {
		events = broker
		rebuilder.OnPublish(func(idx *index.Index) {
			broker.PublishRebuild(sse.RebuildInfo{
				Categories: len(idx.Categories),
				Posts:      idx.Len(),
				BuiltAt:    idx.BuiltAt,
			})
		})
	}

	var printer pdf.Renderer = pdf.Disabled{}
	if cfg.View.PDF {
		chrome := pdf.NewChromeRenderer(pdf.Options{ChromeBin: cfg.PDF.ChromeBin}, logger)
		defer chrome.Close()
		printer = chrome
	}

	router := api.NewRouter(api.Deps{
		Resolver:  notebook.NewResolver(store, p.settings),
		Views:     p.views,
		Content:   p.content,
		Index:     store,
		PDF:       printer,
		Searcher:  searcher,
		Events:    events,
		Metrics:   metricsHandler,
		Recorder:  recorder,
		StaticDir: cfg.Site.StaticDir,
		Logger:    logger,
	})

	// The port is bound before the first build so a taken port fails fast.
	ln, err := listen(cfg.App.HTTP, logger)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...",
		slog.String("http_address", ln.Addr().String()),
		slog.String("list_path", p.settings.ListPath))

	g, gCtx := errgroup.WithContext(ctx)

	// First build, then one rebuild per settled burst of changes.
	rebuilder.Trigger()
	g.Go(func() error {
		return rebuilder.Run(gCtx)
	})

	// Start file watcher.
	g.Go(func() error {
		err := index.Watch(gCtx, index.WatchConfig{
			Root:     p.root,
			Ignore:   p.ignoreFunc(searchPath),
			OnChange: rebuilder.Trigger,
			Recorder: recorder,
		}, logger)
		if err != nil {
			// Serving goes on with the last index; only live updates are lost.
			logger.Error("content watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", ln.Addr().String()))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

		// Open event streams never end on their own.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup once the server has been shut down, so
// the rebuilder and the watcher stop too.
var errShutdown = errors.New("shutdown")

func runGenerate(ctx context.Context, cfg *Config, logger *slog.Logger) error {
	p, err := newPipeline(cfg, true, logger)
	if err != nil {
		return err
	}
	idx, err := p.builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	out, err := storage.NewOutput(cfg.Site.OutputDir)
	if err != nil {
		return fmt.Errorf("init output: %w", err)
	}

	emitter := site.New(p.content, out, notebook.NewResolver(index.NewStore(), p.settings), p.views, site.Config{
		StaticDir: cfg.Site.StaticDir,
		BaseURL:   cfg.Site.BaseURL,
	}, logger)
	rep, err := emitter.Emit(ctx, idx)
	if err != nil {
		return fmt.Errorf("generate site: %w", err)
	}

	logger.Info("Site generated",
		slog.String("output_dir", out.Root()),
		slog.Int("posts", rep.Posts),
		slog.Int("categories", rep.Categories),
		slog.Int("assets", rep.Assets),
		slog.Int("media", rep.Media),
		slog.Bool("sitemap", rep.Sitemap),
		slog.Int("skipped", len(idx.Skipped)),
		slog.Duration("took", rep.Took))
	return nil
}

func runMCP(ctx context.Context, cfg *Config, version string, logger *slog.Logger) error {
	p, err := newPipeline(cfg, false, logger)
	if err != nil {
		return err
	}
	store := index.NewStore()
	rebuilder := index.NewRebuilder(p.builder, store, logger)

	var searcher search.Searcher
	if cfg.Search.Enabled {
		// The server may run next to a serving instance, so it keeps its
		// own in-memory database.
		db, err := search.Open(search.MemoryDSN)
		if err != nil {
			return fmt.Errorf("init search: %w", err)
		}
		defer db.Close()
		rebuilder.OnPublish(search.Listener(db, logger))
		searcher = db
	}

	if err := rebuilder.Rebuild(ctx); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	srv := mcpserver.New(store, notebook.NewResolver(store, p.settings), searcher, p.tokens, version)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rebuilder.Run(gCtx)
	})
	g.Go(func() error {
		if err := index.Watch(gCtx, index.WatchConfig{
			Root:     p.root,
			Ignore:   p.ignoreFunc(),
			OnChange: rebuilder.Trigger,
		}, logger); err != nil {
			logger.Error("content watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("MCP server listening on stdio")
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		return err
	}
	return nil
}
