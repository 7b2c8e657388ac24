package secrets

import (
	"errors"
	"os"
	"sort"
)

const (
	OpenAIKey    = "openai"
	GeminiKey    = "gemini"
	AdzunaAppID  = "adzuna-app-id"
	AdzunaAppKey = "adzuna-app-key"
	HHToken      = "hh-token"
	SlackWebhook = "slack-webhook"
	RedisURL     = "redis-url"
	DatabaseURL  = "database-url"
)

// Status reports whether a named credential resolved.
type Status struct {
	Name       string
	Configured bool
	Err        error
}

// Provider resolves named credentials.
type Provider struct {
	sources map[string]Source
	getenv  func(string) string
}

// NewProvider returns a provider over the given sources keyed by name.
func NewProvider(sources map[string]Source) *Provider {
	return &Provider{sources: sources, getenv: os.Getenv}
}

// Get returns the secret for name. An unknown name is reported as not configured.
func (p *Provider) Get(name string) (string, error) {
	src, ok := p.sources[name]
	if !ok {
		src = Source{Name: name}
	}
	if src.Name == "" {
		src.Name = name
	}
	return load(src, p.getenv)
}

// Lookup returns the secret for name or an empty string when it is missing.
func (p *Provider) Lookup(name string) string {
	secret, err := p.Get(name)
	if err != nil {
		return ""
	}
	return secret
}

// Has reports whether name resolves to a non-empty secret.
func (p *Provider) Has(name string) bool {
	return p.Lookup(name) != ""
}

// Statuses reports every known credential sorted by name.
// A missing credential has a nil Err; a broken file is reported in Err.
func (p *Provider) Statuses() []Status {
	names := make([]string, 0, len(p.sources))
	for name := range p.sources {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Status, 0, len(names))
	for _, name := range names {
		_, err := p.Get(name)
		st := Status{Name: name, Configured: err == nil}
		if err != nil && !errors.Is(err, ErrNotConfigured) {
			st.Err = err
		}
		out = append(out, st)
	}
	return out
}
