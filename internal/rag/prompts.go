package rag

import (
	"fmt"
	"strings"

	"github.com/studyloop/mentor-go/internal/budget"
	"github.com/studyloop/mentor-go/internal/knowledge"
)

// noInformationText is the canned answer when no passage clears the
// retrieval threshold.
const noInformationText = "I don't have enough information in the course material to answer that. " +
	"Try rephrasing the question, or ask about a topic covered in your lessons."

const baseSystemPrompt = `You are a patient programming mentor. Answer the learner's question using primarily the course material provided in the context block. If the context does not fully cover the question, say so explicitly instead of speculating. Never invent facts that are not supported by the context.`

// styleInstructions maps each response style to its register instruction.
var styleInstructions = map[Style]string{
	StyleConcise:        "Respond in at most three sentences. No preamble.",
	StyleDetailed:       "Respond thoroughly. Explain the underlying concepts step by step and include a short example where it helps.",
	StyleConversational: "Respond in a friendly, encouraging tone, as if tutoring one-on-one. Keep it approachable.",
}

func answerSystemPrompt(style Style) string {
	return baseSystemPrompt + "\n\n" + styleInstructions[style]
}

func answerUserPrompt(question, contextBlock string) string {
	return fmt.Sprintf("Course material:\n\n%s\n\nQuestion: %s", contextBlock, question)
}

const followUpSystemPrompt = `You suggest follow-up questions a learner might ask next. Given a question and the answer they received, propose up to three short follow-up questions that deepen or extend the topic. Output one question per line, nothing else.`

func followUpUserPrompt(question, answer string) string {
	return fmt.Sprintf("Question: %s\n\nAnswer: %s", question, answer)
}

// assembleContext concatenates the retrieved passages, each labeled with its
// title, clipped to the context token budget.
func assembleContext(docs []knowledge.ScoredDocument) string {
	var b strings.Builder
	for i, d := range docs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "### %s\n%s", d.Metadata.Title, d.Content)
	}
	return budget.Clip(b.String(), budget.DefaultMaxContextTokens)
}

// genericFollowUps is the fixed fallback set, used when follow-up generation
// degrades or when retrieval found nothing to build on.
func genericFollowUps() []string {
	return []string{
		"Can you explain that with an example?",
		"What topic should I learn next?",
		"Where is this used in practice?",
	}
}
