package server

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/studyloop/mentor-go/internal/embedder"
)

// EmbedderPinger probes the embedding provider by embedding a single short
// token. It satisfies the Pinger interface and is used by GET /api/ready.
// A nil client reports not-ready, which is how a degraded-mode deployment
// shows up in readiness without failing liveness.
type EmbedderPinger struct {
	// client is the embedding client to probe. May be nil (unconfigured).
	client embedder.Client
	// name identifies the backend in readiness responses (e.g. "ollama").
	name string
}

// NewEmbedderPinger constructs an EmbedderPinger for the given client and
// backend name.
func NewEmbedderPinger(c embedder.Client, name string) *EmbedderPinger {
	return &EmbedderPinger{client: c, name: name}
}

// Name returns the backend label used in readiness responses.
func (p *EmbedderPinger) Name() string { return "embedder/" + p.name }

// Ping embeds a one-word probe text. Cheap for local backends; for hosted
// backends it costs a handful of tokens per readiness check.
func (p *EmbedderPinger) Ping(ctx context.Context) error {
	if p.client == nil {
		return fmt.Errorf("embedding provider not configured — running degraded")
	}
	vecs, err := p.client.Embed(ctx, []string{"ping"})
	if err != nil {
		return fmt.Errorf("embed probe failed: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return fmt.Errorf("embed probe returned an empty vector")
	}
	return nil
}

// ModelPinger probes the chat provider with a minimal generate request.
// It satisfies the Pinger interface and is used by GET /api/ready.
type ModelPinger struct {
	// model is the chat model to probe. May be nil (unconfigured).
	model model.ChatModel //nolint:staticcheck // SA1019: model.ChatModel deprecated upstream; migration tracked separately
	// name identifies the backend in readiness responses (e.g. "ollama").
	name string
}

// NewModelPinger constructs a ModelPinger for the given model and backend name.
func NewModelPinger(m model.ChatModel, name string) *ModelPinger { //nolint:staticcheck // SA1019: see above
	return &ModelPinger{model: m, name: name}
}

// Name returns the backend label used in readiness responses.
func (p *ModelPinger) Name() string { return "model/" + p.name }

// Ping sends a single-message generate request. This consumes a few tokens
// on hosted backends, which is why readiness is probed, not polled tightly.
func (p *ModelPinger) Ping(ctx context.Context) error {
	if p.model == nil {
		return fmt.Errorf("chat provider not configured — answers will use fallback text")
	}
	resp, err := p.model.Generate(ctx, []*schema.Message{schema.UserMessage("ping")})
	if err != nil {
		return fmt.Errorf("generate probe failed: %w", err)
	}
	if resp == nil {
		return fmt.Errorf("generate probe returned nil response")
	}
	return nil
}
