package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/price-search/internal/search"
)

type Client struct {
	Results    []search.SearchResult
	Images     map[string][]search.ImageResult
	Error      error
	ImageError error
	Delay      time.Duration

	CallCount      int
	ImageCallCount int
	LastRequest    search.SearchRequest
	AllRequests    []search.SearchRequest
	ImageQueries   []string

	mu sync.Mutex
}

func New() *Client {
	return &Client{Images: make(map[string][]search.ImageResult)}
}

func (c *Client) WithResults(results []search.SearchResult) *Client {
	c.Results = results
	return c
}

func (c *Client) WithLinks(links ...string) *Client {
	results := make([]search.SearchResult, len(links))
	for i, l := range links {
		results[i] = search.SearchResult{URL: l}
	}
	c.Results = results
	return c
}

func (c *Client) WithImages(query string, urls ...string) *Client {
	images := make([]search.ImageResult, len(urls))
	for i, u := range urls {
		images[i] = search.ImageResult{URL: u}
	}
	c.mu.Lock()
	c.Images[query] = images
	c.mu.Unlock()
	return c
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) WithImageError(err error) *Client {
	c.ImageError = err
	return c
}

func (c *Client) WithDelay(delay time.Duration) *Client {
	c.Delay = delay
	return c
}

func (c *Client) Search(ctx context.Context, req search.SearchRequest) (*search.SearchResponse, error) {
	c.mu.Lock()
	c.CallCount++
	c.LastRequest = req
	c.AllRequests = append(c.AllRequests, req)
	delay := c.Delay
	err := c.Error
	results := c.Results
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if err != nil {
		return nil, err
	}

	return &search.SearchResponse{
		Query:   req.Query,
		Results: results,
	}, nil
}

func (c *Client) SearchImages(ctx context.Context, req search.ImageRequest) ([]search.ImageResult, error) {
	c.mu.Lock()
	c.ImageCallCount++
	c.ImageQueries = append(c.ImageQueries, req.Query)
	err := c.ImageError
	images := c.Images[req.Query]
	c.mu.Unlock()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (c *Client) Calls() (searches, images int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CallCount, c.ImageCallCount
}

func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCount = 0
	c.ImageCallCount = 0
	c.LastRequest = search.SearchRequest{}
	c.AllRequests = nil
	c.ImageQueries = nil
}

var (
	_ search.Client        = (*Client)(nil)
	_ search.ImageSearcher = (*Client)(nil)
)
