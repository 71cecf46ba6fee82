package llm

import "context"

// GenerateOptions are the per-call settings handed to a Generator.
// Empty fields defer to the generator's own defaults.
type GenerateOptions struct {
	// APIKey overrides the credential configured for the endpoint.
	APIKey string

	// Model overrides the endpoint's default model.
	Model string

	// SystemPrompt is sent as the system message when non-empty.
	SystemPrompt string

	// Extra is merged into the provider request body as-is.
	Extra map[string]any
}

// Generator turns a prompt into raw model output text. Implementations own
// transport concerns (timeouts, retries); callers own prompt construction and
// response parsing.
type Generator interface {
	GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

// GenerateText calls f.
func (f GeneratorFunc) GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	return f(ctx, prompt, opts)
}
