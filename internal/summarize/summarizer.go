package summarize

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kitbuilder587/price-search/internal/domain"
	"github.com/kitbuilder587/price-search/internal/llm"
)

type Config struct {
	ChunkSize int
}

type Summarizer struct {
	llm       llm.Client
	chunkSize int
	logger    *zap.Logger
}

func New(client llm.Client, cfg Config, logger *zap.Logger) *Summarizer {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &Summarizer{
		llm:       client,
		chunkSize: cfg.ChunkSize,
		logger:    logger,
	}
}

// Summarize превращает страницу в список entries: чанки идут по порядку,
// внутри чанка порядок ключей из ответа модели.
// Нескачанная страница даёт один placeholder без обращения к модели.
func (s *Summarizer) Summarize(ctx context.Context, page domain.PageContent, query string) ([]domain.SummaryEntry, error) {
	if !page.Scraped() {
		return []domain.SummaryEntry{domain.UnscrapedEntry(page.URL)}, nil
	}

	var entries []domain.SummaryEntry
	for i, chunk := range Chunk(page.Text, s.chunkSize) {
		out, err := s.llm.CompleteWithSystem(ctx, systemPrompt, buildPrompt(query, chunk))
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: chunk %d of %s: %v", domain.ErrSummarization, i, page.URL, err)
		}

		parsed, err := parseEntries(out)
		if err != nil {
			s.logger.Warn("unparsable model response",
				zap.String("url", page.URL),
				zap.Int("chunk", i),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, parsed...)
	}

	s.logger.Debug("page summarized",
		zap.String("url", page.URL),
		zap.Int("entries", len(entries)),
	)
	return entries, nil
}
