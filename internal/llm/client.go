// Package llm asks OpenAI to answer inventory questions and produce
// structured recommendations, using each user's own API key.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"stockpulse/internal/database"
	"stockpulse/internal/logger"
	"stockpulse/internal/metrics"
	"stockpulse/internal/models"
	"stockpulse/internal/retry"
)

var (
	ErrNoAPIKey      = errors.New("openai api key not configured")
	ErrEmptyResponse = errors.New("empty completion")
)

const (
	answerPrompt = "You are an inventory analyst for an online store. Answer the merchant's question " +
		"using only the store data provided. Be concise, cite product names and numbers, and say so " +
		"when the data does not contain the answer."
	recommendPrompt = "You are an inventory analyst for an online store. Using the store data provided, " +
		"return a JSON object {\"recommendations\": [...]} where each item has type, priority " +
		"(HIGH, MEDIUM or LOW), title, message, action, sku and estimated_impact (a number in the " +
		"store currency or null). Return at most 5 recommendations."
)

// KeyStore returns a user's stored OpenAI key.
type KeyStore interface {
	OpenAIKey(ctx context.Context, userID string) (string, error)
}

type Options struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Retry      retry.Config
	MaxTokens  int
}

type Client struct {
	keys    KeyStore
	opts    Options
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewClient(keys KeyStore, opts Options, m *metrics.Metrics, log *logger.Logger) *Client {
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.Once(log)
	}
	if opts.Retry.ShouldRetry == nil {
		opts.Retry.ShouldRetry = transient
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 800
	}
	return &Client{keys: keys, opts: opts, metrics: m, logger: log}
}

func (c *Client) clientFor(ctx context.Context, userID string) (*openai.Client, error) {
	key, err := c.keys.OpenAIKey(ctx, userID)
	if errors.Is(err, database.ErrCredentialNotFound) || (err == nil && strings.TrimSpace(key) == "") {
		return nil, ErrNoAPIKey
	}
	if err != nil {
		return nil, err
	}
	cfg := openai.DefaultConfig(key)
	if c.opts.BaseURL != "" {
		cfg.BaseURL = c.opts.BaseURL
	}
	cfg.HTTPClient = c.opts.HTTPClient
	return openai.NewClientWithConfig(cfg), nil
}

func (c *Client) complete(ctx context.Context, kind, userID string, req openai.ChatCompletionRequest) (string, error) {
	client, err := c.clientFor(ctx, userID)
	if err != nil {
		return "", err
	}

	content, err := retry.DoWithResult(ctx, c.opts.Retry, func() (string, error) {
		resp, err := client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("failed to create completion: %w", err)
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return "", ErrEmptyResponse
		}
		c.logger.Debug("LLM %s completion: %d prompt tokens, %d completion tokens", kind, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		return resp.Choices[0].Message.Content, nil
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.LLMCalls.WithLabelValues(kind, status).Inc()
	return content, err
}

// transient reports whether a completion error may succeed on retry. Client
// errors such as a rejected key or a bad request do not.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func retryableStatus(code int) bool {
	return code == 0 || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Answer responds to a free-text question given the rendered context block.
func (c *Client) Answer(ctx context.Context, userID, question, contextBlock string) (string, error) {
	return c.complete(ctx, "answer", userID, openai.ChatCompletionRequest{
		Model:     c.opts.Model,
		MaxTokens: c.opts.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: answerPrompt},
			{Role: openai.ChatMessageRoleSystem, Content: contextBlock},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	})
}

type recommendationPayload struct {
	Recommendations []struct {
		Type            string           `json:"type"`
		Priority        string           `json:"priority"`
		Title           string           `json:"title"`
		Message         string           `json:"message"`
		Action          string           `json:"action"`
		SKU             string           `json:"sku"`
		EstimatedImpact *decimal.Decimal `json:"estimated_impact"`
	} `json:"recommendations"`
}

// Recommend asks for structured recommendations in JSON object mode.
func (c *Client) Recommend(ctx context.Context, userID, contextBlock string) ([]models.Recommendation, error) {
	content, err := c.complete(ctx, "recommend", userID, openai.ChatCompletionRequest{
		Model:          c.opts.Model,
		MaxTokens:      c.opts.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: recommendPrompt},
			{Role: openai.ChatMessageRoleSystem, Content: contextBlock},
			{Role: openai.ChatMessageRoleUser, Content: "What should I do next with my inventory?"},
		},
	})
	if err != nil {
		return nil, err
	}
	return ParseRecommendations(content)
}

// ParseRecommendations decodes the JSON object returned in recommendation mode.
// Unknown priorities become MEDIUM.
func ParseRecommendations(content string) ([]models.Recommendation, error) {
	var payload recommendationPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse recommendations: %w", err)
	}

	out := make([]models.Recommendation, 0, len(payload.Recommendations))
	for _, r := range payload.Recommendations {
		if strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.Message) == "" {
			continue
		}
		prio := models.Priority(strings.ToUpper(strings.TrimSpace(r.Priority)))
		if prio.Rank() == 0 {
			prio = models.PriorityMedium
		}
		out = append(out, models.Recommendation{
			Type:            r.Type,
			Priority:        prio,
			Title:           r.Title,
			Message:         r.Message,
			Action:          r.Action,
			EstimatedImpact: r.EstimatedImpact,
			SKU:             r.SKU,
			Source:          "ai",
		})
	}
	return out, nil
}
