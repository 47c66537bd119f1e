// Package embedder provides raw embedding clients for converting text into
// dense vectors. Each implementation talks to a different backend (OpenAI,
// Azure OpenAI, Ollama) via plain HTTP — no additional SDK dependencies are
// required. These clients return errors on provider failure; the fail-soft
// degraded-mode behaviour lives one level up, in the gateway.
package embedder

import "context"

// Client converts a batch of texts into their corresponding embeddings.
// The returned slice is parallel to the input slice.
// Implementations must be safe to call from multiple goroutines.
type Client interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
