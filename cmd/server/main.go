package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kitbuilder587/price-search/internal/cache"
	"github.com/kitbuilder587/price-search/internal/cache/memory"
	"github.com/kitbuilder587/price-search/internal/cache/postgres"
	"github.com/kitbuilder587/price-search/internal/cache/redis"
	"github.com/kitbuilder587/price-search/internal/config"
	"github.com/kitbuilder587/price-search/internal/fetch"
	"github.com/kitbuilder587/price-search/internal/httpapi"
	"github.com/kitbuilder587/price-search/internal/images"
	"github.com/kitbuilder587/price-search/internal/llm"
	llmmock "github.com/kitbuilder587/price-search/internal/llm/mock"
	"github.com/kitbuilder587/price-search/internal/llm/openai"
	"github.com/kitbuilder587/price-search/internal/llm/openrouter"
	"github.com/kitbuilder587/price-search/internal/metrics"
	"github.com/kitbuilder587/price-search/internal/search/google"
	"github.com/kitbuilder587/price-search/internal/service"
	"github.com/kitbuilder587/price-search/internal/summarize"
	"github.com/kitbuilder587/price-search/internal/telegram"
)

func main() {
	// .env опционален
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	store, err := newCacheStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	resultCache := cache.NewResultCache(store, cfg.Cache.TTL, logger)
	defer resultCache.Close()

	llmClient, err := newLLMClient(cfg, logger)
	if err != nil {
		return err
	}
	llmClient = llm.Instrument(llmClient, cfg.LLM.Provider, m)

	searchClient := google.New(google.Config{
		APIKey:   cfg.Search.APIKey,
		EngineID: cfg.Search.EngineID,
		BaseURL:  cfg.Search.BaseURL,
		Timeout:  cfg.Timeouts.Links,
	}, logger)

	searchService := service.NewSearchService(service.QueryServiceDeps{
		Cache:      resultCache,
		Search:     searchClient,
		Fetcher:    fetch.New(fetch.Config{Timeout: cfg.Timeouts.Fetch}, logger),
		Summarizer: summarize.New(llmClient, summarize.Config{ChunkSize: cfg.Pipeline.ChunkSize}, logger),
		Images:     images.New(searchClient, cfg.Search.ImageCount, logger),
		Logger:     logger,
		Metrics:    m,
		Config: service.QueryConfig{
			NumResults:       cfg.Search.NumResults,
			LinkTimeout:      cfg.Timeouts.Links,
			SummaryTimeout:   cfg.Timeouts.Summary,
			LinkConcurrency:  cfg.Pipeline.LinkConcurrency,
			ImageConcurrency: cfg.Pipeline.ImageConcurrency,
		},
	})

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Searcher: searchService,
		Logger:   logger,
		Metrics:  m,
		Gatherer: prometheus.DefaultGatherer,
		Config: httpapi.RouterConfig{
			RequestTimeout: cfg.Timeouts.Request,
			CORSOrigins:    cfg.Server.CORSOrigins,
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if cfg.Telegram.Token != "" {
		bot, err := telegram.New(telegram.BotConfig{
			Token:          cfg.Telegram.Token,
			Debug:          cfg.Telegram.Debug,
			RequestTimeout: cfg.Timeouts.Request,
		}, searchService, logger, m)
		if err != nil {
			return err
		}
		go func() {
			if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("telegram bot: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("component failed, shutting down", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newCacheStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Store, error) {
	switch cfg.Cache.Type {
	case "redis":
		store := redis.New(redis.Config{
			Addr:     cfg.Redis.Addr(),
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, err
		}
		logger.Info("redis cache connected", zap.String("addr", cfg.Redis.Addr()))
		return store, nil
	case "postgres":
		db, err := postgres.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		store := postgres.NewStore(db)
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrate cache table: %w", err)
		}
		go purgeExpired(ctx, store, time.Hour, logger)
		logger.Info("postgres cache connected")
		return store, nil
	default:
		logger.Info("using in-memory cache")
		return memory.NewWithContext(ctx, time.Minute), nil
	}
}

// purgeExpired чистит протухшие строки; Get их и так не отдаёт
func purgeExpired(ctx context.Context, store *postgres.Store, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("purge expired cache rows", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("purged expired cache rows", zap.Int64("rows", n))
			}
		}
	}
}

func newLLMClient(cfg *config.Config, logger *zap.Logger) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return openai.New(openai.Config{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			Model:   cfg.LLM.OpenAI.Model,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
			Timeout: cfg.LLM.Timeout,
		}, logger), nil
	case "openrouter":
		return openrouter.New(openrouter.Config{
			APIKey:  cfg.LLM.OpenRouter.APIKey,
			Model:   cfg.LLM.OpenRouter.Model,
			BaseURL: cfg.LLM.OpenRouter.BaseURL,
			Timeout: cfg.LLM.Timeout,
		}, logger), nil
	case "mock":
		logger.Warn("using mock llm client")
		return llmmock.New(), nil
	default:
		return nil, config.ErrInvalidLLMProvider
	}
}
