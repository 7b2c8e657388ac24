package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned when a secret has no file, value or environment variable set.
var ErrNotConfigured = errors.New("not configured")

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration or flags.
	Value string
	// File points to a file containing the secret value. When set it takes
	// precedence over Value.
	File string
	// Env names an environment variable consulted when neither File nor
	// Value is set.
	Env string
}

// Load returns the resolved secret value from the provided source. The lookup
// order is File, Value, Env. The returned secret is always trimmed.
func Load(src Source) (string, error) {
	return load(src, os.Getenv)
}

func load(src Source, getenv func(string) string) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if src.Env != "" {
		if secret := strings.TrimSpace(getenv(src.Env)); secret != "" {
			return secret, nil
		}
	}

	return "", fmt.Errorf("%s is %w", name, ErrNotConfigured)
}
