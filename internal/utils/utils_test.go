package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: "HSE Manager", limit: 0, expect: ""},
		{name: "shorter than limit", input: "HSE", limit: 10, expect: "HSE"},
		{name: "truncates with ellipsis", input: "HSE Manager", limit: 3, expect: "HSE..."},
		{name: "counts runes", input: "Инженер по охране труда", limit: 7, expect: "Инженер..."},
		{name: "trims whitespace first", input: "  remote  ", limit: 6, expect: "remote"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestWaitFor(t *testing.T) {
	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("zero duration: %v", err)
	}
	if err := WaitFor(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("short wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
