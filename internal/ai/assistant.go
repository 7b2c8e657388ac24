// Package ai scores listings with a language model behind a provider-neutral Generator.
package ai

import (
	"context"
	"errors"
)

// SystemInstruction frames every match request.
const SystemInstruction = "You are an expert job matching analyst. Analyze candidate-job fit and provide detailed, actionable scoring. Always respond with valid JSON only."

// ErrInvalidResponse marks model output that does not satisfy the response schema.
var ErrInvalidResponse = errors.New("invalid ai response")

// Generator sends a system instruction and a user prompt to a model and returns its text.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	Model() string
}
