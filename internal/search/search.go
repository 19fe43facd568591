package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kitbuilder587/price-search/internal/domain"
)

var (
	ErrUnauthorized = errors.New("invalid API key")
	ErrRateLimit    = errors.New("rate limit exceeded")
	ErrSearchFailed = errors.New("search request failed")
)

// Client - веб-поиск, отдаёт ссылки в порядке выдачи провайдера
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// ImageSearcher - поиск картинок по названию сущности
type ImageSearcher interface {
	SearchImages(ctx context.Context, req ImageRequest) ([]ImageResult, error)
}

type SearchRequest struct {
	Query string
	Num   int
	Start int
}

type SearchResponse struct {
	Query   string
	Results []SearchResult
}

type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// Links возвращает непустые URL в исходном порядке
func (r *SearchResponse) Links() []string {
	if r == nil {
		return nil
	}
	links := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.URL != "" {
			links = append(links, res.URL)
		}
	}
	return links
}

type ImageRequest struct {
	Query string
	Num   int
}

type ImageResult struct {
	URL          string
	ThumbnailURL string
}

// ProviderError - ответ провайдера с не-2xx статусом
type ProviderError struct {
	Status int
	Body   string
	kind   error
}

func NewProviderError(status int, body string) *ProviderError {
	e := &ProviderError{Status: status, Body: body}
	switch {
	case status == 401 || status == 403:
		e.kind = ErrUnauthorized
	case status == 429:
		e.kind = ErrRateLimit
	}
	return e
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("search provider returned %d: %s", e.Status, e.Body)
}

func (e *ProviderError) Is(target error) bool {
	if target == ErrSearchFailed || target == domain.ErrSearchProvider {
		return true
	}
	return e.kind != nil && target == e.kind
}
