package chat

import (
	_ "embed"
	"strings"

	"staffrag/pkg/model"
)

//go:embed prompt/system.md
var defaultSystemPromptRaw string

// DefaultSystemPrompt is used when no system prompt is configured.
var DefaultSystemPrompt = strings.TrimSpace(defaultSystemPromptRaw)

// buildPrompt composes the final prompt handed to the generation model.
//
// Section order is load-bearing: system instructions first so they dominate,
// then the recent conversation, then the retrieved context (nearest first),
// and finally the live query right before the assistant cue. The cue
// "User: <query>\nAssistant:" must be the trailing substring so the model
// continues as the assistant.
func buildPrompt(systemPrompt string, turns []model.Turn, docs []string, query string) string {
	sections := []string{systemPrompt}

	if len(turns) > 0 {
		var b strings.Builder
		b.WriteString("Conversation:")
		for _, turn := range turns {
			b.WriteString("\nUser: ")
			b.WriteString(turn.User)
			b.WriteString("\nAssistant: ")
			b.WriteString(turn.Assistant)
		}
		sections = append(sections, b.String())
	}

	if len(docs) > 0 {
		sections = append(sections, "Context:\n"+strings.Join(docs, "\n\n"))
	}

	sections = append(sections, "User: "+query+"\nAssistant:")

	return strings.Join(sections, "\n\n")
}

// BuildPromptForTest is a test helper that exposes buildPrompt
func BuildPromptForTest(systemPrompt string, turns []model.Turn, docs []string, query string) string {
	return buildPrompt(systemPrompt, turns, docs, query)
}
