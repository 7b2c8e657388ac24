package ai

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/spigell/job-matcher/internal/jobs"
)

//go:embed schema.json
var responseSchemaJSON []byte

var responseSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(responseSchemaJSON))
})

// FieldError is one schema violation.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation found in a model response.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidResponse, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidResponse
}

// ValidateResponse checks doc against the match response schema.
func ValidateResponse(doc []byte) error {
	schema, err := responseSchema()
	if err != nil {
		return fmt.Errorf("load response schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, desc := range result.Errors() {
		verr.Errors = append(verr.Errors, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return verr
}

// ParseResponse strips code fences, validates the JSON and decodes it into a
// result whose recommendation follows the overall score.
func ParseResponse(raw string) (*jobs.MatchResult, error) {
	doc := []byte(extractJSON(raw))
	if err := ValidateResponse(doc); err != nil {
		return nil, err
	}

	var result jobs.MatchResult
	if err := json.Unmarshal(doc, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	result.OverallScore = jobs.Round1(result.OverallScore)
	result.Recommendation = jobs.RecommendationFor(result.OverallScore)
	return &result, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
