package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kitbuilder587/price-search/internal/domain"
	"github.com/kitbuilder587/price-search/internal/metrics"
	"github.com/kitbuilder587/price-search/internal/search"
)

type ResultStore interface {
	Get(ctx context.Context, key string) ([]domain.EnrichedResult, bool, error)
	Set(ctx context.Context, key string, results []domain.EnrichedResult) error
}

type PageFetcher interface {
	Fetch(ctx context.Context, url string) domain.PageContent
}

type PageSummarizer interface {
	Summarize(ctx context.Context, page domain.PageContent, query string) ([]domain.SummaryEntry, error)
}

type ImageFinder interface {
	FindImages(ctx context.Context, name string) ([]string, error)
}

type QueryConfig struct {
	NumResults       int
	LinkTimeout      time.Duration
	SummaryTimeout   time.Duration
	LinkConcurrency  int
	ImageConcurrency int
}

type QueryServiceDeps struct {
	Cache      ResultStore
	Search     search.Client
	Fetcher    PageFetcher
	Summarizer PageSummarizer
	Images     ImageFinder
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Config     QueryConfig
}

// SearchService - пайплайн: кеш -> поиск ссылок -> скачивание и суммаризация
// каждой ссылки -> фильтр -> картинки -> запись в кеш.
type SearchService struct {
	cache      ResultStore
	search     search.Client
	fetcher    PageFetcher
	summarizer PageSummarizer
	images     ImageFinder
	logger     *zap.Logger
	metrics    *metrics.Metrics
	config     QueryConfig

	// одинаковые запросы в полёте делят один прогон пайплайна, см. HandleSearch
	inflight singleflight.Group
}

func NewSearchService(deps QueryServiceDeps) *SearchService {
	if deps.Config.NumResults == 0 {
		deps.Config.NumResults = 3
	}
	if deps.Config.LinkTimeout == 0 {
		deps.Config.LinkTimeout = 30 * time.Second
	}
	if deps.Config.SummaryTimeout == 0 {
		deps.Config.SummaryTimeout = 120 * time.Second
	}
	if deps.Config.LinkConcurrency < 1 {
		deps.Config.LinkConcurrency = 1
	}
	if deps.Config.ImageConcurrency < 1 {
		deps.Config.ImageConcurrency = 1
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &SearchService{
		cache:      deps.Cache,
		search:     deps.Search,
		fetcher:    deps.Fetcher,
		summarizer: deps.Summarizer,
		images:     deps.Images,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		config:     deps.Config,
	}
}

// HandleSearch возвращает найденные товары с ценами и картинками.
// Ошибки: ErrEmptyQuery/ErrQueryTooLong/ErrInvalidStart на валидации,
// ErrRequestTimeout по дедлайнам, всё остальное - фатальные ошибки стадий.
//
// Одинаковые запросы в полёте делят один прогон. Прогон не наследует отмену
// вызвавшего его запроса (только дедлайн), поэтому отключившийся клиент не
// обрывает выдачу остальным; каждый вызывающий ждёт результат под своим ctx.
func (s *SearchService) HandleSearch(ctx context.Context, text string, start int) ([]domain.EnrichedResult, error) {
	q := domain.NewSearchQuery(text, start)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := q.CacheKey() + "\x00" + strconv.Itoa(q.Start)
	ch := s.inflight.DoChan(key, func() (v interface{}, err error) {
		// DoChan паникует в своей горутине, поэтому панику превращаем в ошибку здесь
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in search pipeline", zap.Any("panic", r), zap.String("query", q.Text))
				err = fmt.Errorf("search pipeline panic: %v", r)
			}
		}()

		runCtx, cancel := detach(ctx)
		defer cancel()
		return s.run(runCtx, q)
	})

	select {
	case <-ctx.Done():
		return nil, callerError(ctx.Err())
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("joined in-flight search", zap.String("query", q.Text))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.EnrichedResult), nil
	}
}

// detach - контекст для общего прогона: значения и дедлайн от ctx, без его отмены.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(base, deadline)
	}
	return context.WithCancel(base)
}

func callerError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrRequestTimeout, err)
	}
	return err
}

func (s *SearchService) run(ctx context.Context, q domain.SearchQuery) ([]domain.EnrichedResult, error) {
	startTime := time.Now()
	key := q.CacheKey()

	s.logger.Info("processing search",
		zap.String("query", q.Text),
		zap.Int("start", q.Start),
	)

	cached, ok, err := s.cache.Get(ctx, key)
	if err := s.handleStageError(stageCache, err, zap.String("key", key)); err != nil {
		s.recordPipeline("error")
		return nil, err
	}
	if ok {
		if s.metrics != nil {
			s.metrics.RecordCacheHit()
		}
		s.recordPipeline("cache_hit")
		s.logger.Info("cache hit", zap.String("key", key), zap.Int("results", len(cached)))
		return cached, nil
	}
	if s.metrics != nil {
		s.metrics.RecordCacheMiss()
	}

	links, err := s.getLinks(ctx, q)
	if err != nil {
		s.recordPipeline(outcome(err))
		return nil, err
	}

	entries, err := s.summarizeLinks(ctx, q, links)
	if err != nil {
		s.recordPipeline(outcome(err))
		return nil, err
	}

	filtered := filterWith(entries, hasPrice, func(i int, e domain.SummaryEntry, err error) {
		_ = s.handleStageError(stageFilter, err, zap.Int("index", i), zap.String("name", e.Name))
	})

	results, err := s.enrich(ctx, filtered)
	if err != nil {
		s.recordPipeline(outcome(err))
		return nil, err
	}

	if shouldCache(results) {
		if err := s.handleStageError(stageCache, s.cache.Set(ctx, key, results), zap.String("key", key)); err != nil {
			s.recordPipeline("error")
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.RecordCacheWrite()
		}
	}

	s.logger.Info("search processed",
		zap.String("query", q.Text),
		zap.Int("links", len(links)),
		zap.Int("entries", len(entries)),
		zap.Int("results", len(results)),
		zap.Duration("took", time.Since(startTime)),
	)
	s.recordPipeline("success")

	return results, nil
}

// shouldCache: пишем, только если результат не пуст и у первого больше одной картинки
func shouldCache(results []domain.EnrichedResult) bool {
	return len(results) > 0 && len(results[0].ImageURLs) > 1
}

func (s *SearchService) getLinks(ctx context.Context, q domain.SearchQuery) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.LinkTimeout)
	defer cancel()

	searchStart := time.Now()
	resp, err := s.search.Search(ctx, search.SearchRequest{
		Query: q.Text,
		Num:   s.config.NumResults,
		Start: q.Start,
	})
	if err == nil {
		if s.metrics != nil {
			s.metrics.RecordSearchRequest("success", time.Since(searchStart))
		}
		links := resp.Links()
		s.logger.Debug("links retrieved", zap.Int("count", len(links)))
		return links, nil
	}

	if s.metrics != nil {
		s.metrics.RecordSearchRequest("error", time.Since(searchStart))
	}
	if ctx.Err() != nil && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	if err := s.handleStageError(stageLinks, err, zap.String("query", q.Text)); err != nil {
		return nil, err
	}
	return []string{}, nil
}

// summarizeLinks - упорядоченная стадия: записи идут в порядке ссылок, внутри - в порядке чанков.
func (s *SearchService) summarizeLinks(ctx context.Context, q domain.SearchQuery, links []string) ([]domain.SummaryEntry, error) {
	perLink, err := runOrdered(ctx, links, s.config.LinkConcurrency,
		func(ctx context.Context, _ int, link string) ([]domain.SummaryEntry, error) {
			page := s.fetch(ctx, link)

			sumCtx, cancel := context.WithTimeout(ctx, s.config.SummaryTimeout)
			defer cancel()

			entries, err := s.summarizer.Summarize(sumCtx, page, q.Text)
			if err != nil {
				if sumCtx.Err() != nil && !errors.Is(err, context.DeadlineExceeded) {
					err = fmt.Errorf("%w: %w", sumCtx.Err(), err)
				}
				return nil, s.handleStageError(stageSummarize, err, zap.String("url", link))
			}
			return entries, nil
		})
	if err != nil {
		return nil, err
	}

	var entries []domain.SummaryEntry
	for _, e := range perLink {
		entries = append(entries, e...)
	}
	return entries, nil
}

func (s *SearchService) fetch(ctx context.Context, link string) domain.PageContent {
	fetchStart := time.Now()
	page := s.fetcher.Fetch(ctx, link)
	if s.metrics != nil {
		status := "ok"
		if !page.Scraped() {
			status = "error"
		}
		s.metrics.RecordFetch(status, time.Since(fetchStart))
	}
	if !page.Scraped() {
		// Summarize сам превратит такую страницу в заглушку
		_ = s.handleStageError(stageFetch, page.Err, zap.String("url", link))
	}
	return page
}

func (s *SearchService) enrich(ctx context.Context, entries []domain.SummaryEntry) ([]domain.EnrichedResult, error) {
	results, err := runOrdered(ctx, entries, s.config.ImageConcurrency,
		func(ctx context.Context, _ int, e domain.SummaryEntry) (domain.EnrichedResult, error) {
			urls, err := s.images.FindImages(ctx, e.Name)
			if s.metrics != nil {
				s.metrics.RecordImageLookup(lookupStatus(err))
			}
			if err := s.handleStageError(stageImages, err, zap.String("name", e.Name)); err != nil {
				return domain.EnrichedResult{}, err
			}
			return domain.NewEnrichedResult(e, urls), nil
		})
	if err != nil {
		return nil, err
	}

	// частичный результат после общего дедлайна не отдаём
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %v", domain.ErrRequestTimeout, ctx.Err())
	}
	return results, nil
}

func lookupStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func outcome(err error) string {
	if errors.Is(err, domain.ErrRequestTimeout) {
		return "timeout"
	}
	return "error"
}

func (s *SearchService) recordPipeline(result string) {
	if s.metrics != nil {
		s.metrics.RecordPipeline(result)
	}
}
