// Package openai implements ai.Generator with the Chat Completions HTTP API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/utils"
)

const (
	ProviderName = "openai"

	apiURL             = "https://api.openai.com/v1/chat/completions"
	defaultModel       = "gpt-4"
	defaultTemperature = 0.3
	defaultMaxTokens   = 1000
	defaultTimeout     = 30 * time.Second
	maxErrorBody       = 500
)

type Options struct {
	APIKey      string
	Model string
	// Temperature is used as given, zero included. Nil selects the default.
	Temperature *float32
	MaxTokens   int
	Timeout     time.Duration
	// Endpoint overrides the chat completions URL.
	Endpoint string
}

// Generator calls the OpenAI Chat Completions endpoint.
type Generator struct {
	apiKey      string
	model       string
	temperature float32
	maxTokens   int
	endpoint    string
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewGenerator(opts Options, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	temperature := float32(defaultTemperature)
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = apiURL
	}

	return &Generator{
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		endpoint:    endpoint,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger.WithAI(log, ProviderName, model),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// StatusError is returned for any non-200 answer.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openai api error: status %d: %s", e.StatusCode, e.Body)
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	if g == nil || g.httpClient == nil {
		return "", errors.New("openai generator is not initialized")
	}

	messages := make([]chatMessage, 0, 2)
	if system = strings.TrimSpace(system); system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	temperature := g.temperature
	payload, err := json.Marshal(chatRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: &temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read openai response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: utils.TruncateForLog(string(body), maxErrorBody)}
		logger.WithFields(g.logger).Error("openai api error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", statusErr.Body),
		)
		return "", statusErr
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openai response empty content")
	}
	return content, nil
}
