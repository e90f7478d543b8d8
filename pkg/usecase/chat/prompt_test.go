package chat_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"staffrag/pkg/model"
	"staffrag/pkg/usecase/chat"
)

func TestBuildPrompt(t *testing.T) {
	system := "You are a helpful assistant."
	docs := []string{"Alice is HR Manager.", "Bob works in AI Research."}
	turns := []model.Turn{
		{User: "hello", Assistant: "hi"},
		{User: "who are you", Assistant: "an assistant"},
	}

	prompt := chat.BuildPromptForTest(system, turns, docs, "Who is the HR manager?")

	t.Run("ends with assistant cue", func(t *testing.T) {
		gt.True(t, strings.HasSuffix(prompt, "User: Who is the HR manager?\nAssistant:"))
	})

	t.Run("system instructions come first", func(t *testing.T) {
		gt.True(t, strings.HasPrefix(prompt, system))
	})

	t.Run("retrieved documents appear in ranked order", func(t *testing.T) {
		first := strings.Index(prompt, "Alice is HR Manager.")
		second := strings.Index(prompt, "Bob works in AI Research.")
		gt.True(t, first >= 0)
		gt.True(t, second > first)
	})

	t.Run("documents joined by blank line", func(t *testing.T) {
		gt.S(t, prompt).Contains("Alice is HR Manager.\n\nBob works in AI Research.")
	})

	t.Run("history rendered chronologically", func(t *testing.T) {
		gt.S(t, prompt).Contains("User: hello\nAssistant: hi\n")
		gt.True(t, strings.Index(prompt, "User: hello") < strings.Index(prompt, "User: who are you"))
	})

	t.Run("section order is system, history, context, query", func(t *testing.T) {
		sys := strings.Index(prompt, system)
		hist := strings.Index(prompt, "Conversation:")
		ctxSec := strings.Index(prompt, "Context:")
		cue := strings.Index(prompt, "User: Who is the HR manager?")
		gt.True(t, sys < hist)
		gt.True(t, hist < ctxSec)
		gt.True(t, ctxSec < cue)
	})
}

func TestBuildPromptEmptySections(t *testing.T) {
	t.Run("history omitted when empty", func(t *testing.T) {
		prompt := chat.BuildPromptForTest("sys", nil, []string{"doc"}, "q")
		gt.S(t, prompt).NotContains("Conversation:")
		gt.S(t, prompt).Contains("Context:")
	})

	t.Run("context omitted when no documents", func(t *testing.T) {
		prompt := chat.BuildPromptForTest("sys", nil, nil, "q")
		gt.S(t, prompt).NotContains("Context:")
		gt.True(t, strings.HasSuffix(prompt, "User: q\nAssistant:"))
	})
}
