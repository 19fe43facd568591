package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kitbuilder587/price-search/internal/search"
)

const DefaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// maxBodyLog - сколько байт тела ошибки кладём в ProviderError
const maxBodyLog = 2048

type Config struct {
	APIKey   string
	EngineID string
	BaseURL  string
	Timeout  time.Duration
}

// Client - Google Custom Search JSON API; одна попытка, без ретраев
type Client struct {
	apiKey   string
	engineID string
	baseURL  string
	client   *http.Client
	logger   *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
		baseURL:  cfg.BaseURL,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

type cseResponse struct {
	Items []cseItem `json:"items"`
}

type cseItem struct {
	Title   string    `json:"title"`
	Link    string    `json:"link"`
	Snippet string    `json:"snippet"`
	Image   *cseImage `json:"image,omitempty"`
}

type cseImage struct {
	ThumbnailLink string `json:"thumbnailLink"`
	ContextLink   string `json:"contextLink"`
}

func (c *Client) Search(ctx context.Context, req search.SearchRequest) (*search.SearchResponse, error) {
	if req.Num <= 0 {
		req.Num = 3
	}
	if req.Start <= 0 {
		req.Start = 1
	}

	params := c.baseParams(req.Query, req.Num)
	params.Set("start", strconv.Itoa(req.Start))

	resp, err := c.do(ctx, params)
	if err != nil {
		return nil, err
	}

	results := make([]search.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, search.SearchResult{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
		})
	}

	c.logger.Debug("search completed",
		zap.String("query", req.Query),
		zap.Int("start", req.Start),
		zap.Int("links", len(results)),
	)

	return &search.SearchResponse{Query: req.Query, Results: results}, nil
}

func (c *Client) SearchImages(ctx context.Context, req search.ImageRequest) ([]search.ImageResult, error) {
	if req.Num <= 0 {
		req.Num = 3
	}

	params := c.baseParams(req.Query, req.Num)
	params.Set("searchType", "image")

	resp, err := c.do(ctx, params)
	if err != nil {
		return nil, err
	}

	images := make([]search.ImageResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		img := search.ImageResult{URL: item.Link}
		if item.Image != nil {
			img.ThumbnailURL = item.Image.ThumbnailLink
		}
		if img.URL == "" && img.ThumbnailURL == "" {
			continue
		}
		images = append(images, img)
	}
	return images, nil
}

func (c *Client) baseParams(query string, num int) url.Values {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(num))
	return params
}

func (c *Client) do(ctx context.Context, params url.Values) (*cseResponse, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	endpoint.RawQuery = params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, search.NewProviderError(resp.StatusCode, truncateBody(body, maxBodyLog))
	}

	var out cseResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &out, nil
}

// truncateBody режет тело до limit байт, не разрывая UTF-8 руну на конце
func truncateBody(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut])
}
