// Package budget provides token budget estimation and text clipping for the
// answer pipeline. Because the engine supports multiple LLM backends with
// different tokenizers, it uses a conservative character-based heuristic:
// 1 token ≈ 4 characters (English prose). This deliberately under-estimates
// so the assembled grounding context never overflows a model's input window.
package budget

import "unicode/utf8"

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English text.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default grounding-context budget in
	// tokens. Conservative enough to fit 8k-context models with room for the
	// question, prompt, and answer.
	DefaultMaxContextTokens = 3000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// Clip truncates s to at most maxTokens estimated tokens, cutting at a rune
// boundary and appending an ellipsis when anything was removed. maxTokens <= 0
// returns the empty string.
func Clip(s string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	maxChars := maxTokens * charsPerToken
	if len(s) <= maxChars {
		return s
	}
	// Back up to a rune boundary so multi-byte characters are never split.
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
