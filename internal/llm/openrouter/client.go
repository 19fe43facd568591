package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/price-search/internal/llm"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "openai/gpt-4o-mini"
)

// атрибуция приложения в статистике openrouter
var appHeaders = map[string]string{
	"HTTP-Referer": "https://github.com/kitbuilder587/price-search",
	"X-Title":      "Price Search",
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// 0 - без своего таймаута, вызов ограничен контекстом
	Timeout time.Duration
}

// Client - extraction-запросы к OpenRouter через OpenAI-совместимый /chat/completions.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &Client{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// completion - ответ openrouter: обычный chat response либо error при статусе 200
type completion struct {
	llm.ChatResponse
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

func (c *Client) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	req, err := llm.NewHTTPRequest(ctx, c.baseURL, c.apiKey, llm.NewExtractionRequest(c.model, system, prompt), appHeaders)
	if err != nil {
		return "", err
	}

	body, status, err := llm.DoRequest(c.client, req)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", llm.HandleHTTPError(status, body, c.logger, "openrouter")
	}

	return c.parse(body)
}

func (c *Client) parse(body []byte) (string, error) {
	var resp completion
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if resp.Error != nil {
		c.logger.Error("openrouter returned error",
			zap.String("message", resp.Error.Message),
			zap.Any("code", resp.Error.Code),
		)
		return "", fmt.Errorf("%w: %s", llm.ErrRequestFailed, resp.Error.Message)
	}

	return llm.ExtractContent(&resp.ChatResponse)
}

var _ llm.Client = (*Client)(nil)
