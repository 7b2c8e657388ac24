package matching

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeights is returned when dimension weights do not sum to one.
var ErrInvalidWeights = errors.New("invalid scoring weights")

const weightTolerance = 0.01

// Weights are the per-dimension contributions to the overall score.
type Weights struct {
	Skill      float64 `mapstructure:"skill"`
	Experience float64 `mapstructure:"experience"`
	Location   float64 `mapstructure:"location"`
	Salary     float64 `mapstructure:"salary"`
	Culture    float64 `mapstructure:"culture"`
}

func DefaultWeights() Weights {
	return Weights{
		Skill:      0.35,
		Experience: 0.25,
		Location:   0.15,
		Salary:     0.10,
		Culture:    0.15,
	}
}

func (w Weights) Sum() float64 {
	return w.Skill + w.Experience + w.Location + w.Salary + w.Culture
}

// Validate requires non-negative weights summing to 1 within 0.01.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"skill":      w.Skill,
		"experience": w.Experience,
		"location":   w.Location,
		"salary":     w.Salary,
		"culture":    w.Culture,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s weight is negative", ErrInvalidWeights, name)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: sum is %.3f", ErrInvalidWeights, sum)
	}
	return nil
}
