package teams

import (
	"context"
	"strings"
	"testing"

	"github.com/coderunner/teamcore/pkg/llm"
)

func TestSplitPoint(t *testing.T) {
	tests := []struct {
		name           string
		messages       []llm.ChatMessage
		preserveBudget int
		wantIdx        int
	}{
		{
			"empty messages",
			nil,
			1000,
			0,
		},
		{
			"single message fits budget",
			[]llm.ChatMessage{{Role: "user", Content: "hi"}},
			1000,
			0,
		},
		{
			"all messages fit in preserve budget",
			[]llm.ChatMessage{
				{Role: "user", Content: "hello"},
				{Role: "assistant", Content: "hi there"},
			},
			10000,
			0,
		},
		{
			"split in middle",
			[]llm.ChatMessage{
				{Role: "user", Content: strings.Repeat("a", 400)},
				{Role: "assistant", Content: strings.Repeat("b", 400)},
				{Role: "user", Content: strings.Repeat("c", 400)},
				{Role: "assistant", Content: strings.Repeat("d", 400)},
			},
			250,
			2,
		},
		{
			"compact everything except last",
			[]llm.ChatMessage{
				{Role: "user", Content: strings.Repeat("a", 4000)},
				{Role: "assistant", Content: strings.Repeat("b", 4000)},
				{Role: "user", Content: strings.Repeat("c", 400)},
			},
			150,
			2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitPoint(tt.messages, tt.preserveBudget)
			if got != tt.wantIdx {
				t.Errorf("splitPoint() = %d, want %d", got, tt.wantIdx)
			}
		})
	}
}

func TestSplitPointNeverSplitsToolPair(t *testing.T) {
	messages := []llm.ChatMessage{
		{Role: "user", Content: "do stuff"},
		{Role: "assistant", Content: "ok", ToolCalls: []llm.ToolCall{{ID: "c1"}}},
		{Role: "tool", ToolCallID: "c1", Content: "result1"},
		{Role: "assistant", Content: "done"},
		{Role: "user", Content: "next"},
	}

	// budget=16 would, absent tool-pair adjustment, place the split right
	// at the tool result (index 2), separating it from the assistant's
	// tool_use at index 1.
	got := splitPoint(messages, 16)
	if got == 2 {
		t.Fatal("split fell between tool_use and its tool_result")
	}
	if messages[got].Role == "tool" {
		t.Fatalf("split index %d lands on a tool-result message", got)
	}
}

func TestTokenBudgetUtilizationPct(t *testing.T) {
	tests := []struct {
		name   string
		budget TokenBudget
		want   float64
	}{
		{"zero limit", TokenBudget{}, 0},
		{"half full", TokenBudget{ContextLimit: 1000, MessageTkns: 500}, 0.5},
		{"over full", TokenBudget{ContextLimit: 1000, MessageTkns: 2000}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.budget.UtilizationPct(); got != tt.want {
				t.Errorf("UtilizationPct() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompactorShouldCompact(t *testing.T) {
	c := NewCompactor(nil, "")
	if c.ShouldCompact(TokenBudget{ContextLimit: 1000, MessageTkns: 700}) {
		t.Error("70%% utilization should not trigger compaction")
	}
	if !c.ShouldCompact(TokenBudget{ContextLimit: 1000, MessageTkns: 900}) {
		t.Error("90%% utilization should trigger compaction")
	}
}

func TestCompactWithoutClientDropsInterior(t *testing.T) {
	c := NewCompactor(nil, "")
	messages := []llm.ChatMessage{
		{Role: "user", Content: "original prompt"},
		{Role: "user", Content: strings.Repeat("a", 200000)},
		{Role: "assistant", Content: strings.Repeat("b", 200000)},
		{Role: "user", Content: "most recent turn"},
	}

	got, err := c.Compact(context.Background(), messages)
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if got[0].Content != "original prompt" {
		t.Errorf("head not preserved: %v", got[0].Content)
	}
	if got[len(got)-1].Content != "most recent turn" {
		t.Errorf("tail not preserved: %v", got[len(got)-1].Content)
	}
	if len(got) >= len(messages) {
		t.Errorf("expected interior to shrink, got %d messages from %d", len(got), len(messages))
	}
}

func TestCompactShortConversationNoOp(t *testing.T) {
	c := NewCompactor(nil, "")
	messages := []llm.ChatMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}
	got, err := c.Compact(context.Background(), messages)
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if len(got) != len(messages) {
		t.Errorf("short conversation should be unchanged, got %d messages", len(got))
	}
}
