// Package gemini implements ai.Generator on top of the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/utils"
)

const (
	ProviderName = "gemini"

	defaultModel       = "gemini-2.5-flash"
	defaultTemperature = 0.3
	defaultMaxRetries  = 3
	defaultTimeout     = 30 * time.Second
	baseBackoff        = 2 * time.Second
	maxQuotaDelay      = 30 * time.Second
)

var (
	wait = utils.WaitFor

	retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)
)

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Options struct {
	APIKey      string
	Model string
	// Temperature is used as given, zero included. Nil selects the default.
	Temperature *float32
	MaxRetries  int
	// Timeout bounds every GenerateContent attempt.
	Timeout time.Duration
}

// Generator sends prompts to Gemini and returns the first textual answer.
type Generator struct {
	models      contentModels
	model       string
	temperature float32
	maxRetries  int
	timeout     time.Duration
	logger      *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, opts Options, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{Timeout: &timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	temperature := float32(defaultTemperature)
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	return &Generator{
		models:      client.Models,
		model:       model,
		temperature: temperature,
		maxRetries:  retries,
		timeout:     timeout,
		logger:      logger.WithAI(log, ProviderName, model),
	}, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Generate retries server errors and short quota delays with backoff.
func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: "application/json",
	}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	attempts := max(g.maxRetries, 1)
	log := logger.WithFields(g.logger)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := g.generateContent(ctx, prompt, config)
		if err == nil {
			return responseText(resp)
		}
		lastErr = err

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == attempts {
			break
		}

		log.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := wait(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("generate content: %w", lastErr)
}

// generateContent runs one attempt under the generator timeout. A timed out
// attempt is not retried, so the caller falls back quickly.
func (g *Generator) generateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	timeout := g.timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
}

func retryDelay(err error, attempt int) (time.Duration, bool) {
	apiErr, ok := asAPIError(err)
	if !ok {
		return 0, false
	}

	backoff := baseBackoff * time.Duration(1<<(attempt-1))

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		if delay, found := quotaDelay(apiErr.Message); found {
			if delay > maxQuotaDelay {
				return 0, false
			}
			return delay, true
		}
		return backoff, true
	case apiErr.Code >= http.StatusInternalServerError:
		return backoff, true
	default:
		return 0, false
	}
}

func asAPIError(err error) (genai.APIError, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}

func quotaDelay(message string) (time.Duration, bool) {
	m := retryAfterPattern.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned empty response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}
