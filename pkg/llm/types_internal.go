package llm

import "encoding/json"

// CompletionResponse is the accumulated result of a streaming completion.
type CompletionResponse struct {
	ID           string         // Message ID (e.g. "chatcmpl-xxx")
	Model        string         // Actual model used (from response)
	Content      []ContentBlock // Accumulated content blocks (text, tool_use, thinking)
	ToolCalls    []ToolCall     // Extracted tool calls (OpenAI format, for reference)
	FinishReason string         // OpenAI finish_reason: "stop"|"tool_calls"|"length"
	StopReason   string         // Translated Anthropic stop_reason: "end_turn"|"tool_use"|"max_tokens"
	Usage        BetaUsage      // Token usage (translated to Anthropic format)
}

// ContentBlock is a discriminated union for accumulated message content,
// mirroring the Anthropic Messages API content block shape. The Type field
// determines which other fields are populated: "text" sets Text,
// "tool_use" sets ID/Name/Input, "thinking" sets Thinking.
type ContentBlock struct {
	Type string `json:"type"`

	Text string `json:"text,omitempty"`

	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	Thinking string `json:"thinking,omitempty"`
}

// MarshalJSON produces a clean JSON representation with only the fields
// relevant to the block's type.
func (cb ContentBlock) MarshalJSON() ([]byte, error) {
	switch cb.Type {
	case "text":
		return json.Marshal(struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{Type: "text", Text: cb.Text})
	case "tool_use":
		return json.Marshal(struct {
			Type  string         `json:"type"`
			ID    string         `json:"id"`
			Name  string         `json:"name"`
			Input map[string]any `json:"input"`
		}{Type: "tool_use", ID: cb.ID, Name: cb.Name, Input: cb.Input})
	case "thinking":
		return json.Marshal(struct {
			Type     string `json:"type"`
			Thinking string `json:"thinking"`
		}{Type: "thinking", Thinking: cb.Thinking})
	default:
		type Alias ContentBlock
		return json.Marshal(Alias(cb))
	}
}

// BetaUsage mirrors Anthropic's usage object with cache token fields. All
// fields are non-optional (zero-valued if absent).
type BetaUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
}
