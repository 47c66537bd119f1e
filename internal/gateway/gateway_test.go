package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type fakeEmbedClient struct {
	vecs [][]float32
	err  error
}

func (f *fakeEmbedClient) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vecs[:len(texts)], nil
}

type fakeChat struct {
	reply string
	err   error
	got   []*schema.Message
}

func (f *fakeChat) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func Test_Gateway_EmbedUsesProviderVector(t *testing.T) {
	t.Parallel()

	g := New(&fakeEmbedClient{vecs: [][]float32{{0.1, 0.2, 0.3}}}, nil, 3)
	got := g.Embed(t.Context(), "what is recursion")

	if got.Degraded {
		t.Error("Degraded = true for healthy provider, want false")
	}
	if len(got.Vector) != 3 || got.Vector[0] != 0.1 {
		t.Errorf("Vector = %v, want provider vector", got.Vector)
	}
	if n := g.DegradedEmbeds(); n != 0 {
		t.Errorf("DegradedEmbeds = %d, want 0", n)
	}
}

func Test_Gateway_EmbedDegradesWithoutProvider(t *testing.T) {
	t.Parallel()

	hookCalls := 0
	g := New(nil, nil, 8, WithDegradedHook(func() { hookCalls++ }))

	got := g.Embed(t.Context(), "what is recursion")
	if !got.Degraded {
		t.Fatal("Degraded = false without a provider, want true")
	}
	if len(got.Vector) != 8 {
		t.Fatalf("len(Vector) = %d, want 8", len(got.Vector))
	}
	for _, v := range got.Vector {
		if v < -1 || v > 1 {
			t.Fatalf("degraded component %v outside [-1, 1]", v)
		}
	}
	if hookCalls != 1 {
		t.Errorf("degraded hook called %d times, want 1", hookCalls)
	}
	if n := g.DegradedEmbeds(); n != 1 {
		t.Errorf("DegradedEmbeds = %d, want 1", n)
	}
}

func Test_Gateway_DegradedVectorIsDeterministic(t *testing.T) {
	t.Parallel()

	g := New(nil, nil, 16)
	a := g.Embed(t.Context(), "binary search trees")
	b := g.Embed(t.Context(), "binary search trees")
	other := g.Embed(t.Context(), "bubble sort")

	for i := range a.Vector {
		if a.Vector[i] != b.Vector[i] {
			t.Fatal("same text degraded to different vectors across calls")
		}
	}
	same := true
	for i := range a.Vector {
		if a.Vector[i] != other.Vector[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts degraded to the same vector")
	}
}

func Test_Gateway_EmbedDegradesOnProviderError(t *testing.T) {
	t.Parallel()

	g := New(&fakeEmbedClient{err: errors.New("connection refused")}, nil, 4)
	got := g.Embed(t.Context(), "hash tables")

	if !got.Degraded {
		t.Error("Degraded = false after provider error, want true")
	}
	if len(got.Vector) != 4 {
		t.Errorf("len(Vector) = %d, want 4", len(got.Vector))
	}
}

func Test_Gateway_CompleteReturnsModelText(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{reply: "A stack is a LIFO structure."}
	g := New(nil, chat, 4)

	got := g.Complete(t.Context(), "You are a tutor.", "What is a stack?")
	if got != "A stack is a LIFO structure." {
		t.Errorf("Complete = %q, want model reply", got)
	}
	if len(chat.got) != 2 || chat.got[0].Role != schema.System || chat.got[1].Role != schema.User {
		t.Errorf("messages sent = %v, want [system, user]", chat.got)
	}
}

func Test_Gateway_CompleteFallsBackOnError(t *testing.T) {
	t.Parallel()

	g := New(nil, &fakeChat{err: errors.New("rate limited")}, 4)
	got := g.Complete(t.Context(), "sys", "user")

	if !strings.Contains(got, "try again") {
		t.Errorf("Complete = %q, want apology text", got)
	}
	if n := g.FailedCompletes(); n != 1 {
		t.Errorf("FailedCompletes = %d, want 1", n)
	}
}

func Test_Gateway_CompleteFallsBackWithoutProvider(t *testing.T) {
	t.Parallel()

	g := New(nil, nil, 4)
	if got := g.Complete(t.Context(), "sys", "user"); got != fallbackAnswer {
		t.Errorf("Complete = %q, want fallback answer", got)
	}
}
