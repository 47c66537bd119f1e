package embedder

import (
	"log/slog"
	"os"
	"strings"
)

// knownChatModelPrefixes contains name fragments that identify chat/completion
// models which are NOT suitable for embedding. If EMBEDDING_MODEL matches any
// of these, a warning is emitted so the operator knows they may have
// misconfigured the pipeline.
var knownChatModelPrefixes = []string{
	"gpt-4",
	"gpt-3.5",
	"gpt-35",
	"o1",
	"o3",
	"llama3",
	"llama2",
	"llama-3",
	"llama-2",
	"mistral",
	"mixtral",
	"gemma",
	"phi-",
	"phi3",
	"claude",
	"command-r",
	"deepseek",
	"qwen",
	"solar",
	"vicuna",
	"falcon",
	"yi-",
}

// looksLikeChatModel returns true when the model name resembles a known
// chat/completion model rather than a dedicated embedding model.
func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range knownChatModelPrefixes {
		if strings.Contains(lower, prefix) {
			return true
		}
	}
	return false
}

// WarnOnSuspectConfig inspects the embedding configuration at startup and
// logs warnings for the two common misconfigurations: a missing credential
// (search will silently run on degraded placeholder vectors) and a chat
// model configured where an embedding model is expected.
//
// This never returns an error: an unconfigured provider is a normal,
// handled condition — the gateway degrades rather than the process failing.
func WarnOnSuspectConfig(log *slog.Logger) {
	backend := ResolveBackend()

	switch backend {
	case "openai":
		if os.Getenv("EMBEDDING_API_KEY") == "" && os.Getenv("OPENAI_API_KEY") == "" {
			log.Warn("embedder: no OpenAI API key found — embeddings will run in degraded mode",
				slog.String("hint", "set OPENAI_API_KEY or EMBEDDING_API_KEY"),
			)
		}
	case "azure":
		if os.Getenv("EMBEDDING_API_KEY") == "" && os.Getenv("AZURE_OPENAI_API_KEY") == "" {
			log.Warn("embedder: no Azure API key found — embeddings will run in degraded mode",
				slog.String("hint", "set AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY"),
			)
		}
		if os.Getenv("EMBEDDING_ENDPOINT") == "" && os.Getenv("AZURE_OPENAI_ENDPOINT") == "" {
			log.Warn("embedder: no Azure endpoint found — embeddings will run in degraded mode",
				slog.String("hint", "set AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT"),
			)
		}
	}

	if model := os.Getenv("EMBEDDING_MODEL"); model != "" && looksLikeChatModel(model) {
		log.Warn("embedder: EMBEDDING_MODEL looks like a chat model, not an embedding model — "+
			"this will likely produce poor or broken embeddings",
			slog.String("model", model),
			slog.String("hint", "use a dedicated embedding model e.g. nomic-embed-text, text-embedding-3-small"),
		)
	}
}
