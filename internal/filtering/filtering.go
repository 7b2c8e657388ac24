// Package filtering drops scraped listings before they reach the store.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
)

// Filter represents a single filtering step applied to listings.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(ctx context.Context, listings []jobs.Listing) ([]jobs.Listing, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains the settings consumed by the default filters.
type Config struct {
	RedFlags          []string `mapstructure:"red_flags"`
	ExcludedCompanies []string `mapstructure:"excluded_companies"`
	RemoteOnly        bool     `mapstructure:"remote_only"`
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Default builds the standard chain. Remote-only is present but disabled unless requested.
func Default(cfg Config) []Filter {
	redFlags := cfg.RedFlags
	if redFlags == nil {
		redFlags = DefaultRedFlags
	}

	remote := NewRemoteOnly()
	if !cfg.RemoteOnly {
		remote.Disable("remote_only is not set")
	}

	return []Filter{
		NewRedFlags(redFlags),
		NewExcludedCompanies(cfg.ExcludedCompanies),
		remote,
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially and returns the listings left.
func Run(ctx context.Context, log *zap.Logger, steps []Filter, listings []jobs.Listing) ([]jobs.Listing, error) {
	log = logger.WithFields(log)

	for _, step := range steps {
		if !step.IsEnabled() {
			log.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, listings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		log.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		listings = next
	}

	return listings, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep returns the listings accepted by pass, reusing the input's backing array.
func keep(listings []jobs.Listing, pass func(*jobs.Listing) bool) ([]jobs.Listing, Step) {
	initial := len(listings)
	left := listings[:0]
	for i := range listings {
		if pass(&listings[i]) {
			left = append(left, listings[i])
		}
	}
	return left, Step{Initial: initial, Dropped: initial - len(left), Left: len(left)}
}
