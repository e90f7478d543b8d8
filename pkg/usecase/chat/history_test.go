package chat_test

import (
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"

	"staffrag/pkg/usecase/chat"
)

func TestHistoryBounded(t *testing.T) {
	h := chat.NewHistory(3)

	for i := 1; i <= 5; i++ {
		h.Append(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
		gt.True(t, h.Len() <= 3)
	}

	// Only the last cap turns survive, in chronological order.
	turns := h.Recent(3)
	gt.A(t, turns).Length(3)
	gt.V(t, turns[0].User).Equal("q3")
	gt.V(t, turns[1].User).Equal("q4")
	gt.V(t, turns[2].User).Equal("q5")
	gt.V(t, turns[2].Assistant).Equal("a5")
}

func TestHistoryRecent(t *testing.T) {
	h := chat.NewHistory(5)
	h.Append("q1", "a1")
	h.Append("q2", "a2")
	h.Append("q3", "a3")

	t.Run("window smaller than length", func(t *testing.T) {
		turns := h.Recent(2)
		gt.A(t, turns).Length(2)
		gt.V(t, turns[0].User).Equal("q2")
		gt.V(t, turns[1].User).Equal("q3")
	})

	t.Run("window larger than length", func(t *testing.T) {
		gt.A(t, h.Recent(10)).Length(3)
	})

	t.Run("non-positive window", func(t *testing.T) {
		gt.A(t, h.Recent(0)).Length(0)
	})
}

func TestHistoryDefaultCap(t *testing.T) {
	h := chat.NewHistory(0)
	for i := 0; i < 10; i++ {
		h.Append("q", "a")
	}
	gt.V(t, h.Len()).Equal(chat.DefaultMaxTurns)
}
