package teams

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coderunner/teamcore/pkg/llm"
)

// LeadLoop drives the top-level, user-driven variant of the agentic
// cycle: it shares every step with TeammateLoop except the last one.
// A teammate idles on its inbox when it has no tool calls left to make; the
// lead instead treats a turn with no tool calls as its final answer and
// returns, since there is no caller left to hand control back to but the
// process's own invoker.
type LeadLoop struct {
	registry *Registry
	teamName string
	cfg      LoopConfig
	system   string
}

// NewLeadLoop builds a loop driving teamName's lead within registry.
func NewLeadLoop(registry *Registry, teamName string, cfg LoopConfig) *LeadLoop {
	if cfg.Log == nil {
		cfg.Log = noopLogger{}
	}
	return &LeadLoop{
		registry: registry,
		teamName: teamName,
		cfg:      cfg,
		system: fmt.Sprintf(
			"You are the lead of team %s. Delegate work to teammates via TeamCreate/SendMessage and the shared task board; "+
				"use TaskCreate/TaskUpdate/TaskList to track progress. Reply directly once the work is done.",
			teamName,
		),
	}
}

// Turn is one assistant turn's worth of output, surfaced to the caller
// for printing as the loop progresses.
type Turn struct {
	Text      string
	ToolCalls []llm.ToolCall
}

// Run executes the lead's loop for up to maxTurns rounds, invoking onTurn
// after each model response (including ones that only make tool calls), and
// returns the final text answer once a turn with no tool calls occurs.
func (l *LeadLoop) Run(ctx context.Context, initialPrompt string, maxTurns int, onTurn func(Turn)) (string, error) {
	team, ok := l.registry.Get(l.teamName)
	if !ok {
		return "", newErr(ErrTeamNotFound, "no team named %s", l.teamName)
	}
	leadInbox := team.inboxFor("lead")

	messages := []llm.ChatMessage{{Role: "user", Content: initialPrompt}}

	for turn := 0; turn < maxTurns; turn++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		// Step 1: pre-round drain. The lead's own inbox carries
		// shutdown_response handshakes and any message a teammate addresses
		// to "lead"; all of them are folded in below.
		// drain retries once internally; a second failure is surfaced to
		// the model as an observation.
		incoming, err := leadInbox.drain()
		if err != nil {
			l.cfg.Log.Warn("lead inbox drain failed", map[string]any{"team": l.teamName, "error": err.Error()})
			messages = append(messages, llm.ChatMessage{
				Role:    "user",
				Content: fmt.Sprintf("[message from=system type=error]Error: inbox drain failed: %s[/message]", err),
			})
		}
		for _, m := range incoming {
			if m.Type == MessageKindShutdownResponse {
				l.registry.AcknowledgeShutdownResponse(m.RequestID)
			}
		}
		// Step 2: the lead never receives shutdown_request itself; there is
		// no caller above it to issue one.
		if len(incoming) > 0 {
			messages = append(messages, llm.ChatMessage{Role: "user", Content: renderObservation(incoming)})
		}

		// Step 3: model call.
		if l.cfg.LLM == nil {
			return "", fmt.Errorf("lead %s: no LLM client configured", l.teamName)
		}
		req := llm.BuildCompletionRequest(llm.ClientConfig{Model: l.cfg.LLM.Model()}, l.system, messages, l.cfg.Tools.LLMTools(), llm.LoopState{})
		stream, err := l.cfg.LLM.Complete(ctx, req)
		if err != nil {
			return "", fmt.Errorf("OracleError: lead %s completion: %w", l.teamName, err)
		}
		resp, err := stream.Accumulate()
		if err != nil {
			return "", fmt.Errorf("OracleError: lead %s accumulate: %w", l.teamName, err)
		}
		assistant := assistantMessage(resp)
		messages = append(messages, assistant)

		turnText, _ := assistant.Content.(string)
		if onTurn != nil {
			onTurn(Turn{Text: turnText, ToolCalls: resp.ToolCalls})
		}

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

			// Step 5: context compaction.
			if l.cfg.Compactor != nil {
				budget := TokenBudget{ContextLimit: defaultContextLimit, MessageTkns: estimateTokens(messages)}
				if l.cfg.Compactor.ShouldCompact(budget) {
					if compacted, err := l.cfg.Compactor.Compact(ctx, messages); err == nil {
						messages = compacted
					}
				}
			}
			continue
		}

		// Step 6 (lead variant): no tool calls pending means the lead has
		// nothing left to delegate or check, so this turn's text is the
		// final answer.
		return turnText, nil
	}

	return "", fmt.Errorf("lead %s: exceeded %d turns without a final answer", l.teamName, maxTurns)
}

func (l *LeadLoop) dispatch(ctx context.Context, tc llm.ToolCall) string {
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

// RenderToolCalls formats a turn's tool calls for console display.
func RenderToolCalls(calls []llm.ToolCall) string {
	var b strings.Builder
	for _, tc := range calls {
		fmt.Fprintf(&b, "[tool_use] %s(%s)\n", tc.Function.Name, tc.Function.Arguments)
	}
	return b.String()
}
