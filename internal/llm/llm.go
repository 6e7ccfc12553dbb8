package llm

import (
	"context"
	"errors"
)

// Generator is the provider-agnostic text-generation contract.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, temperature float64) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	return f(ctx, prompt, temperature)
}

// ErrNotConfigured is returned by the placeholder generator.
var ErrNotConfigured = errors.New("ai provider not configured")

// PlaceholderGenerator is used when no provider is configured.
type PlaceholderGenerator struct{}

// Generate returns ErrNotConfigured.
func (PlaceholderGenerator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	_ = ctx
	_ = prompt
	_ = temperature
	return "", ErrNotConfigured
}
