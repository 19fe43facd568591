package images

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kitbuilder587/price-search/internal/domain"
	"github.com/kitbuilder587/price-search/internal/search"
)

const DefaultCount = 3

type Enricher struct {
	searcher search.ImageSearcher
	count    int
	logger   *zap.Logger
}

func New(searcher search.ImageSearcher, count int, logger *zap.Logger) *Enricher {
	if count <= 0 {
		count = DefaultCount
	}
	return &Enricher{searcher: searcher, count: count, logger: logger}
}

// FindImages возвращает ссылки на картинки для name в порядке провайдера.
// Берём превью (thumbnailLink), если его нет - полную ссылку.
func (e *Enricher) FindImages(ctx context.Context, name string) ([]string, error) {
	found, err := e.searcher.SearchImages(ctx, search.ImageRequest{Query: name, Num: e.count})
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", domain.ErrImageLookup, name, err)
	}

	urls := make([]string, 0, len(found))
	for _, img := range found {
		if img.ThumbnailURL != "" {
			urls = append(urls, img.ThumbnailURL)
			continue
		}
		if img.URL != "" {
			urls = append(urls, img.URL)
		}
	}

	e.logger.Debug("images found",
		zap.String("name", name),
		zap.Int("count", len(urls)),
	)
	return urls, nil
}
