package teams

import "time"

// MessageType is the closed taxonomy of inter-agent message kinds.
type MessageType string

const (
	MessageKindMessage              MessageType = "message"
	MessageKindBroadcast            MessageType = "broadcast"
	MessageKindShutdownRequest      MessageType = "shutdown_request"
	MessageKindShutdownResponse     MessageType = "shutdown_response"
	MessageKindPlanApprovalResponse MessageType = "plan_approval_response"
)

// requiresRecipient reports whether a non-empty Recipient is mandatory for
// this message type. Only broadcast is exempt: its recipient set is
// resolved at send time from team membership.
func (t MessageType) requiresRecipient() bool {
	return t != MessageKindBroadcast
}

// carriesRequestID reports whether this message type is expected to
// reference a pending request (shutdown or plan-approval correlation).
func (t MessageType) carriesRequestID() bool {
	switch t {
	case MessageKindShutdownRequest, MessageKindShutdownResponse, MessageKindPlanApprovalResponse:
		return true
	default:
		return false
	}
}

// IsValid reports whether t is one of the five taxonomy values, plus the
// "plan_approval_request" sugar accepted at the tool-input layer (see
// normalizeOutboundType).
func (t MessageType) IsValid() bool {
	switch t {
	case MessageKindMessage, MessageKindBroadcast, MessageKindShutdownRequest,
		MessageKindShutdownResponse, MessageKindPlanApprovalResponse, "plan_approval_request":
		return true
	default:
		return false
	}
}

// normalizeOutboundType collapses the tool-input convenience label
// "plan_approval_request" onto the wire type "message": a plan proposal
// is an ordinary message semantically, the label just preserves intent
// in the caller's transcript.
func normalizeOutboundType(t MessageType) MessageType {
	if t == "plan_approval_request" {
		return MessageKindMessage
	}
	return t
}

// Message is an immutable record of one inter-agent communication.
// Ordering among messages for a single recipient is by append order,
// not by Timestamp (clock skew across senders must not reorder delivery).
type Message struct {
	Type      MessageType `json:"type"`
	Sender    string      `json:"sender"`
	Recipient string      `json:"recipient"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}
