package teams

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/coderunner/teamcore/pkg/llm"
	"github.com/coderunner/teamcore/pkg/tools"
)

// LoopConfig wires the shared services a TeammateLoop needs: the model
// client, the tool registry it dispatches against, and (optionally) a
// context compactor.
type LoopConfig struct {
	LLM       llm.Client
	Tools     *tools.Registry
	Compactor *Compactor
	Log       zlogger
}

// TeammateLoop drives one teammate's agentic cycle: drain inbox, check for
// a pending shutdown, fold new messages in as a user turn, call the
// model, dispatch any tool calls, compact if needed, and otherwise block
// on the inbox until new work or a fallback timeout.
type TeammateLoop struct {
	team   *Team
	mate   *Teammate
	cfg    LoopConfig
	inbox  *Inbox
	system string
}

// NewTeammateLoop builds a loop bound to one teammate within team.
func NewTeammateLoop(team *Team, mate *Teammate, cfg LoopConfig) *TeammateLoop {
	if cfg.Log == nil {
		cfg.Log = noopLogger{}
	}
	system := fmt.Sprintf(
		"You are %s, a teammate on team %s. Coordinate with other members via SendMessage and the shared task board.",
		mate.Name, team.Name,
	)
	if mate.AgentType != "" {
		system += fmt.Sprintf(" You are acting as a %s.", mate.AgentType)
	}
	return &TeammateLoop{
		team:   team,
		mate:   mate,
		cfg:    cfg,
		inbox:  team.inboxFor(mate.Name),
		system: system,
	}
}

// Run executes the loop until the teammate receives and acknowledges a
// shutdown_request, or ctx is cancelled. The initial prompt is folded in
// as the first user turn.
func (l *TeammateLoop) Run(ctx context.Context, initialPrompt string) (string, error) {
	messages := []llm.ChatMessage{{Role: "user", Content: initialPrompt}}
	l.mate.SetStatus(StatusActive)

	for {
		select {
		case <-ctx.Done():
			l.mate.SetStatus(StatusShutdown)
			return "", ctx.Err()
		default:
		}

		// Step 1: pre-round drain. drain retries once internally; an error
		// here is a second failure and is surfaced to the model as an
		// observation rather than swallowed.
		incoming, err := l.inbox.drain()
		if err != nil {
			l.cfg.Log.Warn("inbox drain failed", map[string]any{"teammate": l.mate.Name, "error": err.Error()})
			messages = append(messages, llm.ChatMessage{
				Role:    "user",
				Content: fmt.Sprintf("[message from=system type=error]Error: inbox drain failed: %s[/message]", err),
			})
		}

		// Step 2: shutdown check.
		if shutdownMsg, ok := findShutdownRequest(incoming); ok {
			return l.handleShutdown(shutdownMsg)
		}

		// Step 2b: fold remaining messages into the transcript as a
		// synthetic user turn, tagged by sender so the model can tell
		// coordination traffic from its own task output.
		if len(incoming) > 0 {
			messages = append(messages, llm.ChatMessage{Role: "user", Content: renderObservation(incoming)})
		}

		// Step 3: model call.
		if l.cfg.LLM == nil {
			return "", fmt.Errorf("teammate %s: no LLM client configured", l.mate.Name)
		}
		req := llm.BuildCompletionRequest(llm.ClientConfig{Model: l.cfg.LLM.Model()}, l.system, messages, l.cfg.Tools.LLMTools(), llm.LoopState{})
		stream, err := l.cfg.LLM.Complete(ctx, req)
		if err != nil {
			return "", fmt.Errorf("OracleError: teammate %s completion: %w", l.mate.Name, err)
		}
		resp, err := stream.Accumulate()
		if err != nil {
			return "", fmt.Errorf("OracleError: teammate %s accumulate: %w", l.mate.Name, err)
		}
		messages = append(messages, assistantMessage(resp))

		// Step 4: tool dispatch.
		if len(resp.ToolCalls) > 0 {
			for _, tc := range resp.ToolCalls {
				result := l.dispatch(ctx, tc)
				messages = append(messages, llm.ChatMessage{
					Role:       "tool",
					Content:    result,
					ToolCallID: tc.ID,
				})
			}
		}

		// Step 5: context compaction.
		if l.cfg.Compactor != nil {
			budget := TokenBudget{ContextLimit: defaultContextLimit, MessageTkns: estimateTokens(messages)}
			if l.cfg.Compactor.ShouldCompact(budget) {
				compacted, err := l.cfg.Compactor.Compact(ctx, messages)
				if err == nil {
					messages = compacted
				}
			}
		}
		if len(resp.ToolCalls) > 0 {
			continue // more tool rounds likely pending, skip the idle wait
		}

		// Step 6: idle transition, blocking on the inbox (or the fallback
		// poll interval) rather than busy-looping.
		l.mate.SetStatus(StatusIdle)
		if err := l.waitForWork(ctx); err != nil {
			l.mate.SetStatus(StatusShutdown)
			return "", err
		}
		l.mate.SetStatus(StatusActive)
	}
}

func (l *TeammateLoop) waitForWork(ctx context.Context) error {
	signal, err := l.inbox.watch(ctx)
	if err != nil {
		// fsnotify unavailable: fall back to plain polling.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(idleWaitTimeout):
			return nil
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-signal:
		return nil
	case <-time.After(idleWaitTimeout):
		return nil
	}
}

func (l *TeammateLoop) handleShutdown(req Message) (string, error) {
	l.mate.SetStatus(StatusShutdown)
	resp := Message{
		Type:      MessageKindShutdownResponse,
		Sender:    l.mate.AgentID,
		Recipient: "lead",
		Content:   "Shutdown acknowledged.",
		RequestID: req.RequestID,
	}
	leadInbox := l.team.inboxFor("lead")
	if err := leadInbox.append(resp); err != nil {
		return "", fmt.Errorf("teammate %s: send shutdown_response: %w", l.mate.Name, err)
	}
	return "shutdown acknowledged", nil
}

func (l *TeammateLoop) dispatch(ctx context.Context, tc llm.ToolCall) string {
	tool, ok := l.cfg.Tools.Get(tc.Function.Name)
	if !ok {
		return fmt.Sprintf("Error: %s", newErr(ErrInvalidInput, "no such tool %s", tc.Function.Name))
	}
	if l.cfg.Tools.IsDisabled(tc.Function.Name) {
		return fmt.Sprintf("Error: %s", newErr(ErrInvalidInput, "tool %s is disabled in this mode", tc.Function.Name))
	}
	var input map[string]any
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
		return fmt.Sprintf("Error: InvalidInput: cannot parse arguments: %s", err)
	}
	out, err := tool.Execute(ctx, input)
	if err != nil {
		return fmt.Sprintf("Error: %s", err)
	}
	return out.Content
}

func findShutdownRequest(msgs []Message) (Message, bool) {
	for _, m := range msgs {
		if m.Type == MessageKindShutdownRequest {
			return m, true
		}
	}
	return Message{}, false
}

// renderObservation folds drained messages into a single bracketed-tag
// user turn, so the model sees coordination traffic the same way it sees
// any other external observation.
func renderObservation(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "[message from=%s type=%s]%s[/message]\n", m.Sender, m.Type, m.Content)
	}
	return b.String()
}

func assistantMessage(resp *llm.CompletionResponse) llm.ChatMessage {
	msg := llm.ChatMessage{Role: "assistant", ToolCalls: resp.ToolCalls}
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() > 0 {
		msg.Content = text.String()
	}
	return msg
}

// estimateTokens is a rough, model-agnostic token estimate (1 token ≈ 4
// characters), shared by the loop's compaction trigger and the compactor's
// own split-point search.
func estimateTokens(messages []llm.ChatMessage) int {
	total := 0
	for _, m := range messages {
		if s, ok := m.Content.(string); ok {
			total += len(s) / 4
		}
	}
	return total
}
