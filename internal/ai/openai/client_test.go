package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-matcher/internal/ai"
	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/matching"
)

func newServerGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGenerator(Options{APIKey: "sk-test", Endpoint: srv.URL}, nil)
	require.NoError(t, err)
	return g
}

func TestGenerateSendsChatRequest(t *testing.T) {
	var got chatRequest
	g := newServerGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  {\"ok\":true}  "}}]}`))
	})

	out, err := g.Generate(context.Background(), ai.SystemInstruction, "score this")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	assert.Equal(t, "gpt-4", got.Model)
	assert.Equal(t, 1000, got.MaxTokens)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.3, *got.Temperature, 0.0001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: ai.SystemInstruction}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "score this"}, got.Messages[1])
}

func TestGenerateSendsZeroTemperature(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	t.Cleanup(srv.Close)

	zero := float32(0)
	g, err := NewGenerator(Options{APIKey: "sk-test", Endpoint: srv.URL, Temperature: &zero}, nil)
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "", "prompt")
	require.NoError(t, err)
	require.NotNil(t, got.Temperature)
	assert.Zero(t, *got.Temperature)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantErr: "status 500"},
		{name: "api error body", status: http.StatusOK, body: `{"error":{"message":"bad key","type":"auth"}}`, wantErr: "bad key"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "missing choices"},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":" "}}]}`, wantErr: "empty content"},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantErr: "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newServerGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := g.Generate(context.Background(), "", "prompt")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGenerateStatusError(t *testing.T) {
	g := newServerGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := g.Generate(context.Background(), "", "prompt")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	_, err := NewGenerator(Options{APIKey: "  "}, nil)
	assert.Error(t, err)
}

func TestServerErrorFallsBackToHeuristic(t *testing.T) {
	g := newServerGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	heuristic, err := matching.NewHeuristicScorer(matching.DefaultWeights())
	require.NoError(t, err)

	core, logs := observer.New(zapcore.WarnLevel)
	scorer := matching.NewFallback(ai.NewScorer(g, nil, ai.ScorerOptions{Provider: ProviderName}), heuristic, zap.New(core))

	profile := &jobs.Profile{
		YearsExperience: 15,
		Skills:          []jobs.Skill{{Name: "HSE"}, {Name: "OSHA Compliance"}},
	}
	listing := &jobs.Listing{
		Title:       "HSE Manager",
		CompanyName: "Acme Energy",
		Description: "10+ years experience required, OSHA compliance expertise needed",
		Location:    "Oklahoma City, OK",
	}

	result, err := scorer.Score(context.Background(), profile, listing)
	require.NoError(t, err)
	assert.Equal(t, 88.0, result.OverallScore)
	assert.Equal(t, jobs.StrongMatch, result.Recommendation)
	assert.Equal(t, 1, logs.FilterMessage("primary scorer failed, using fallback").Len())
}
