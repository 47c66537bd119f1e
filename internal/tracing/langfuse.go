// Package tracing wires optional Langfuse tracing for the completion calls
// the answer engine makes through the eino callback system.
package tracing

import (
	"os"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"
)

// Setup initialises the Langfuse callback handler when LANGFUSE_PUBLIC_KEY
// and LANGFUSE_SECRET_KEY are both set. The returned flush function must run
// before process exit so buffered traces are delivered. When the keys are
// absent, tracing is silently disabled and both return values are nil.
func Setup() (callbacks.Handler, func(), bool) {
	publicKey := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secretKey := os.Getenv("LANGFUSE_SECRET_KEY")
	if publicKey == "" || secretKey == "" {
		return nil, nil, false
	}

	handler, flush := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      hostOrDefault(),
		PublicKey: publicKey,
		SecretKey: secretKey,
	})
	return handler, flush, true
}

// hostOrDefault resolves the Langfuse endpoint, defaulting to a local
// self-hosted instance.
func hostOrDefault() string {
	if h := os.Getenv("LANGFUSE_HOST"); h != "" {
		return h
	}
	return "http://localhost:3000"
}
