package teams

import (
	"context"
	"fmt"
	"strings"

	"github.com/coderunner/teamcore/pkg/llm"
)

// CompactionThreshold is the conversation-token utilization fraction past
// which a teammate loop attempts a microcompact pass before its next model
// call.
const CompactionThreshold = 0.80

// PreserveRatio is the fraction of the context window reserved for the
// verbatim tail kept after a microcompact pass.
const PreserveRatio = 0.40

// defaultContextLimit is used when the loop has no better estimate of the
// model's context window.
const defaultContextLimit = 200_000

// TokenBudget describes a conversation's token utilization against a
// model's context window.
type TokenBudget struct {
	ContextLimit int
	MessageTkns  int
}

// UtilizationPct returns the fraction of the context window currently in
// use by the conversation.
func (b TokenBudget) UtilizationPct() float64 {
	if b.ContextLimit == 0 {
		return 0
	}
	return float64(b.MessageTkns) / float64(b.ContextLimit)
}

// Compactor performs the microcompact pass: it identifies a preserved
// head (the teammate's original prompt) and a preserved tail (the most
// recent messages that fit the preserve budget), then replaces
// everything in between with one synthetic
// assistant message summarizing facts, task state, and pending
// obligations, produced by a separate LLM call given only the interior
// being replaced.
type Compactor struct {
	client llm.Client
	model  string
}

// NewCompactor builds a Compactor that summarizes through client, using
// summaryModel for the summarization call. Defaults to a cheaper model
// than the teammate's own: summarization does not need the primary
// loop's capability or cost profile.
func NewCompactor(client llm.Client, summaryModel string) *Compactor {
	if summaryModel == "" {
		summaryModel = "claude-haiku-4-5-20251001"
	}
	return &Compactor{client: client, model: summaryModel}
}

// ShouldCompact reports whether budget's utilization exceeds the
// microcompact threshold.
func (c *Compactor) ShouldCompact(budget TokenBudget) bool {
	return budget.UtilizationPct() > CompactionThreshold
}

// Compact replaces the interior of messages with a single synthetic
// summary turn, preserving messages[0] (the teammate's original prompt)
// and a verbatim tail. If fewer than three messages exist, or the
// summarization call fails, messages is returned unchanged (or, on
// failure, with the compact zone simply dropped, a safe degradation
// since the head and tail are still intact).
func (c *Compactor) Compact(ctx context.Context, messages []llm.ChatMessage) ([]llm.ChatMessage, error) {
	if len(messages) <= 2 {
		return messages, nil
	}

	head := messages[0]
	rest := messages[1:]

	preserveBudget := int(float64(defaultContextLimit) * PreserveRatio)
	splitIdx := splitPoint(rest, preserveBudget)
	if splitIdx <= 0 {
		return messages, nil
	}

	compactZone := rest[:splitIdx]
	tailZone := rest[splitIdx:]

	if c.client == nil {
		return append([]llm.ChatMessage{head}, tailZone...), nil
	}

	summary, err := c.summarize(ctx, compactZone)
	if err != nil {
		return append([]llm.ChatMessage{head}, tailZone...), nil
	}

	synthetic := llm.ChatMessage{
		Role:    "assistant",
		Content: "[conversation summary]\n\n" + summary,
	}

	out := make([]llm.ChatMessage, 0, 2+len(tailZone))
	out = append(out, head, synthetic)
	out = append(out, tailZone...)
	return out, nil
}

const summaryInstruction = `Summarize the conversation below on behalf of a teammate agent that must keep working immediately after this point. Preserve:
1. Facts already established
2. Current task/task-board state
3. Pending obligations and unresolved questions
4. Any coordination traffic (messages, shutdown/plan-approval requests) still relevant

Be concise. This summary replaces the messages below in the agent's context.`

func (c *Compactor) summarize(ctx context.Context, messages []llm.ChatMessage) (string, error) {
	req := &llm.CompletionRequest{
		Model:     c.model,
		Stream:    true,
		MaxTokens: 2048,
		Messages:  []llm.ChatMessage{{Role: "user", Content: buildSummaryPrompt(messages)}},
	}
	stream, err := c.client.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("compaction summary call: %w", err)
	}
	resp, err := stream.Accumulate()
	if err != nil {
		return "", fmt.Errorf("compaction summary accumulate: %w", err)
	}
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

func buildSummaryPrompt(messages []llm.ChatMessage) string {
	var b strings.Builder
	b.WriteString(summaryInstruction)
	b.WriteString("\n\n--- CONVERSATION ---\n")
	for _, m := range messages {
		content := contentString(m)
		if len(content) > 2000 {
			content = content[:2000] + "..."
		}
		fmt.Fprintf(&b, "[%s]: %s\n\n", m.Role, content)
	}
	return b.String()
}

func contentString(m llm.ChatMessage) string {
	if s, ok := m.Content.(string); ok {
		return s
	}
	return ""
}

// splitPoint walks backward from the end of messages, accumulating a
// rough token estimate until preserveBudget is exceeded, and returns the
// index at which the verbatim tail begins. The split is adjusted so it
// never separates a tool_use assistant turn from its tool_result turns,
// which would corrupt an in-flight tool round.
func splitPoint(messages []llm.ChatMessage, preserveBudget int) int {
	if len(messages) == 0 {
		return 0
	}

	tokens := 0
	idx := len(messages)
	for i := len(messages) - 1; i >= 0; i-- {
		tokens += estimateTokens(messages[i:i+1]) + 4
		if tokens > preserveBudget {
			idx = i + 1
			break
		}
		if i == 0 {
			return 0
		}
	}

	if idx >= len(messages) {
		idx = len(messages) - 1
	}
	if idx < 1 {
		idx = 1
	}

	for idx > 0 && messages[idx].Role == "tool" {
		idx--
	}
	if idx == 0 {
		// The tool results reach back to the first message: no split
		// keeps them with their tool_use turn, so nothing is compacted.
		return 0
	}
	if idx > 0 && messages[idx].Role == "assistant" && len(messages[idx].ToolCalls) > 0 {
		idx--
	}
	if idx < 1 {
		idx = 1
	}
	return idx
}
