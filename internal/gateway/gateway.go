// Package gateway wraps the embedding and chat providers behind a fail-soft
// surface: Embed always returns a usable vector and Complete always returns
// displayable text, no matter what the providers do. Provider failures are
// absorbed here so callers never need an error path for them.
package gateway

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/studyloop/mentor-go/internal/embedder"
	"github.com/studyloop/mentor-go/internal/knowledge"
	"github.com/studyloop/mentor-go/internal/logging"
	"github.com/studyloop/mentor-go/internal/provider"
)

const (
	defaultEmbedTimeout    = 10 * time.Second
	defaultCompleteTimeout = 60 * time.Second

	// fallbackAnswer is returned by Complete when the chat provider is
	// unavailable or errors. It must read as an answer, not a stack trace.
	fallbackAnswer = "I'm sorry, I couldn't generate an answer right now. " +
		"The language model is unavailable. Please try again in a moment."
)

// chatModel is the slice of the eino model surface Complete needs.
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Gateway provides fail-soft access to the embedding and chat providers.
// Either provider may be nil (unconfigured); the gateway degrades instead
// of failing.
type Gateway struct {
	embed embedder.Client
	chat  chatModel
	dims  int

	embedTimeout    time.Duration
	completeTimeout time.Duration

	degradedEmbeds  atomic.Uint64
	failedCompletes atomic.Uint64
	onDegraded      func()
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithEmbedTimeout bounds each embedding provider call.
func WithEmbedTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.embedTimeout = d }
}

// WithCompleteTimeout bounds each chat provider call.
func WithCompleteTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.completeTimeout = d }
}

// WithDegradedHook registers a callback invoked on every degraded embedding,
// e.g. to increment a metrics counter.
func WithDegradedHook(fn func()) Option {
	return func(g *Gateway) { g.onDegraded = fn }
}

// New constructs a Gateway from explicit providers. Either may be nil.
// dims shapes degraded-mode vectors and must be positive.
func New(embed embedder.Client, chat chatModel, dims int, opts ...Option) *Gateway {
	g := &Gateway{
		embed:           embed,
		chat:            chat,
		dims:            dims,
		embedTimeout:    defaultEmbedTimeout,
		completeTimeout: defaultCompleteTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewFromEnv constructs a Gateway from environment configuration. Provider
// construction failures are logged and absorbed: the gateway comes up in
// degraded mode rather than the process failing to start.
func NewFromEnv(ctx context.Context, opts ...Option) *Gateway {
	log := logging.FromContext(ctx)

	embedClient, err := embedder.NewFromEnv()
	if err != nil {
		log.Warn("gateway: embedding provider unavailable, embeddings degraded",
			slog.String("error", err.Error()),
		)
		embedClient = nil
	}

	chat, err := provider.NewFromEnv(ctx)
	if err != nil {
		log.Warn("gateway: chat provider unavailable, answers will use fallback text",
			slog.String("error", err.Error()),
		)
		chat = nil
	}

	dims := embedder.DefaultDimensions(embedder.ResolveBackend())
	return New(embedClient, chat, dims, opts...)
}

var _ knowledge.Embedder = (*Gateway)(nil)

// Embed returns an embedding for text. It never fails: when the provider is
// unconfigured, times out, or errors, it returns a deterministic placeholder
// vector with Degraded set so retrieval still works on lexical fallback.
func (g *Gateway) Embed(ctx context.Context, text string) knowledge.EmbedResult {
	log := logging.FromContext(ctx)

	if g.embed == nil {
		return g.degraded(text)
	}

	ctx, cancel := context.WithTimeout(ctx, g.embedTimeout)
	defer cancel()

	vecs, err := g.embed.Embed(ctx, []string{text})
	if err != nil || len(vecs) == 0 || len(vecs[0]) == 0 {
		if err != nil {
			log.Warn("gateway: embedding call failed, using degraded vector",
				slog.String("error", err.Error()),
			)
		}
		return g.degraded(text)
	}
	return knowledge.EmbedResult{Vector: vecs[0]}
}

// degraded builds the placeholder vector for text. It is seeded from the
// text so the same input always degrades to the same vector, which keeps
// repeated queries and re-ingested documents stable across restarts.
func (g *Gateway) degraded(text string) knowledge.EmbedResult {
	g.degradedEmbeds.Add(1)
	if g.onDegraded != nil {
		g.onDegraded()
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewPCG(h.Sum64(), 0))

	vec := make([]float32, g.dims)
	for i := range vec {
		vec[i] = rng.Float32()*2 - 1
	}
	return knowledge.EmbedResult{Vector: vec, Degraded: true}
}

// Complete sends a system prompt and user prompt to the chat provider and
// returns the generated text. It never fails: on any provider error it
// returns a fixed apology so the caller always has displayable output.
func (g *Gateway) Complete(ctx context.Context, system, user string) string {
	log := logging.FromContext(ctx)

	if g.chat == nil {
		g.failedCompletes.Add(1)
		return fallbackAnswer
	}

	ctx, cancel := context.WithTimeout(ctx, g.completeTimeout)
	defer cancel()

	msg, err := g.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	})
	if err != nil || msg == nil || msg.Content == "" {
		g.failedCompletes.Add(1)
		if err != nil {
			log.Warn("gateway: completion call failed, returning fallback answer",
				slog.String("error", err.Error()),
			)
		}
		return fallbackAnswer
	}
	return msg.Content
}

// Dimensions returns the vector size used for degraded-mode embeddings.
func (g *Gateway) Dimensions() int { return g.dims }

// DegradedEmbeds returns the number of embeddings served in degraded mode.
func (g *Gateway) DegradedEmbeds() uint64 { return g.degradedEmbeds.Load() }

// FailedCompletes returns the number of completions that fell back.
func (g *Gateway) FailedCompletes() uint64 { return g.failedCompletes.Load() }
