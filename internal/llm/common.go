package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"go.uber.org/zap"
)

// maxErrorBody - сколько байт тела неудачного ответа попадает в лог
const maxErrorBody = 1024

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Message Message `json:"message"`
}

func NewChatRequest(model, system, prompt string) ChatRequest {
	return ChatRequest{
		Model: model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}
}

// WithTemperature задаёт temperature в запросе
func (r ChatRequest) WithTemperature(t float64) ChatRequest {
	r.Temperature = &t
	return r
}

// NewExtractionRequest - запрос на извлечение цен: temperature 0, чтобы ответ был стабильным.
func NewExtractionRequest(model, system, prompt string) ChatRequest {
	return NewChatRequest(model, system, prompt).WithTemperature(0)
}

// NewHTTPRequest собирает POST {baseURL}/chat/completions для OpenAI-совместимого API.
// headers добавляются поверх Content-Type и Authorization.
func NewHTTPRequest(ctx context.Context, baseURL, apiKey string, payload ChatRequest, headers map[string]string) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// TimeoutError отделяет истёкшее время от прочих сбоев транспорта.
// Отмена или дедлайн ctx возвращаются как есть; таймаут самого клиента
// (http.Client.Timeout, таймаут SDK) оборачивается в context.DeadlineExceeded.
// Для остальных ошибок - nil.
func TimeoutError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return nil
}

func HandleHTTPError(statusCode int, body []byte, logger *zap.Logger, provider string) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthFailed
	case http.StatusTooManyRequests:
		return ErrRateLimit
	default:
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		logger.Error(provider+" request failed",
			zap.Int("status", statusCode),
			zap.String("body", string(body)),
		)
		return fmt.Errorf("%w: status %d", ErrRequestFailed, statusCode)
	}
}

func ParseChatResponse(body []byte) (*ChatResponse, error) {
	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}

func ExtractContent(resp *ChatResponse) (string, error) {
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// DoRequest не оборачивает таймауты и отмену в ErrRequestFailed, чтобы дедлайн был виден выше.
func DoRequest(client *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := client.Do(req)
	if err != nil {
		if tErr := TimeoutError(req.Context(), err); tErr != nil {
			return nil, 0, tErr
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if tErr := TimeoutError(req.Context(), err); tErr != nil {
			return nil, resp.StatusCode, tErr
		}
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}
