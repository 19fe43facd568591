package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/kitbuilder587/price-search/internal/domain"
)

const (
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	maxBodySize      = 5 << 20
)

// Fetcher скачивает страницу и вытаскивает видимый текст.
type Fetcher interface {
	Fetch(ctx context.Context, url string) domain.PageContent
}

type Config struct {
	Timeout   time.Duration
	UserAgent string
}

type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *HTTPFetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// Fetch никогда не возвращает ошибку наружу: неудача кодируется в PageContent.Err.
// Статус ответа не проверяется, страница с 404 тоже разбирается как текст.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) domain.PageContent {
	text, err := f.fetchText(ctx, url)
	if err != nil {
		f.logger.Warn("error scraping url",
			zap.String("url", url),
			zap.Error(err),
		)
		return domain.FailedPage(url, fmt.Errorf("%w: %v", domain.ErrFetch, err))
	}
	return domain.ScrapedPage(url, text)
}

func (f *HTTPFetcher) fetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	return ExtractText(doc), nil
}

// ExtractText - все текстовые узлы документа через пробел, каждый обрезан по краям.
// script/style/noscript/template выкидываются, пустые узлы пропускаются.
func ExtractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template").Remove()

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		case html.CommentNode, html.DoctypeNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}

	return strings.Join(parts, " ")
}
