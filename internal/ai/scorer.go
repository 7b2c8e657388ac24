package ai

import (
	"context"
	"errors"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/utils"
)

const defaultMaxLogLength = 200

type ScorerOptions struct {
	Provider       string
	Considerations []string
	MaxLogLength   int
}

// Scorer asks a Generator for a structured match assessment.
type Scorer struct {
	generator      Generator
	considerations []string
	logger         *zap.Logger
	maxLogLen      int
}

func NewScorer(generator Generator, log *zap.Logger, opts ScorerOptions) *Scorer {
	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	model := ""
	if generator != nil {
		model = generator.Model()
	}

	return &Scorer{
		generator:      generator,
		considerations: opts.Considerations,
		logger:         logger.WithAI(log, opts.Provider, model),
		maxLogLen:      maxLogLen,
	}
}

func (s *Scorer) Score(ctx context.Context, profile *jobs.Profile, listing *jobs.Listing) (*jobs.MatchResult, error) {
	if s == nil || s.generator == nil {
		return nil, errors.New("ai scorer is not configured")
	}
	if profile == nil {
		return nil, errors.New("profile is required")
	}
	if listing == nil {
		return nil, errors.New("listing is required")
	}

	prompt := BuildPrompt(profile, listing, s.considerations)

	s.logger.Debug("ai match request",
		zap.Int64("job_id", listing.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.Generate(ctx, SystemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("ai match response",
		zap.Int64("job_id", listing.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	return ParseResponse(raw)
}
