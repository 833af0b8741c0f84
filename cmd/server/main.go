package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"moviescout/internal/analytics"
	apihttp "moviescout/internal/api/http"
	"moviescout/internal/app"
	"moviescout/internal/catalog/tmdb"
	"moviescout/internal/metrics"
	mongorepo "moviescout/internal/repository/mongo"
	"moviescout/internal/search"
	"moviescout/internal/telemetry"
	"moviescout/internal/trending"
)

const serviceVersion = "1.0.0"

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "moviescout", serviceVersion)
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "moviescout"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.String("tmdbBaseURL", cfg.TMDBBaseURL),
		slog.Bool("hasTMDBToken", cfg.TMDBToken != ""),
		slog.Bool("hasMongoURI", cfg.MongoURI != ""),
		slog.String("mongoDatabase", cfg.MongoDatabase),
		slog.String("mongoCollection", cfg.MongoCollection),
		slog.Duration("searchDebounce", cfg.SearchDebounce),
		slog.Int("trendingLimit", cfg.TrendingLimit),
		slog.Duration("trendingRefresh", cfg.TrendingRefresh),
		slog.Duration("catalogTimeout", cfg.CatalogTimeout),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, connectCancel := context.WithTimeout(rootCtx, 10*time.Second)
	defer connectCancel()

	mongoClient, err := mongorepo.Connect(connectCtx, cfg.MongoURI,
		options.Client().SetMonitor(otelmongo.NewMonitor()))
	if err != nil {
		logger.Error("mongo connect failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := mongoClient.Ping(connectCtx, readpref.Primary()); err != nil {
		logger.Error("mongo ping failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repo := mongorepo.NewSearchRepository(mongoClient, cfg.MongoDatabase, cfg.MongoCollection)
	if err := repo.EnsureIndexes(connectCtx); err != nil {
		logger.Warn("mongo ensure indexes failed", slog.String("error", err.Error()))
	}

	recorder := analytics.Recorder{Repo: repo, Limit: cfg.TrendingLimit, Now: time.Now}

	catalogClient := tmdb.New(tmdb.Config{
		Token:   cfg.TMDBToken,
		BaseURL: cfg.TMDBBaseURL,
		Client: &http.Client{
			Timeout:   cfg.CatalogTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	})

	searchService := search.NewService(catalogClient, recorder, search.WithLogger(logger))

	server := apihttp.NewServer(searchService,
		apihttp.WithLogger(logger),
		apihttp.WithDebounce(cfg.SearchDebounce),
		apihttp.WithStorePinger(repo),
	)

	watcher := trending.New(searchService, server, cfg.TrendingRefresh, logger)
	go watcher.Run(rootCtx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Search sessions hold their websocket open for the whole visit, so
		// no server-level write timeout; the write pump enforces per-frame
		// deadlines instead.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("moviescout started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	server.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", slog.String("error", err.Error()))
	}
	searchService.Close()
	if err := mongoClient.Disconnect(context.Background()); err != nil {
		logger.Warn("mongo disconnect error", slog.String("error", err.Error()))
	}

	logger.Info("moviescout stopped")
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
