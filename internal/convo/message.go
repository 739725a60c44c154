// Package convo holds the conversation data model: messages, pending tool
// calls, and the ConversationState the session loop and phase FSM operate
// on. Messages are immutable after insertion; the conversation itself is
// an append-only sequence, the way the teacher treats a tmux session's
// event log as append-only.
package convo

import "time"

// Role is the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ImageRef is a reference to an image attached to a multipart message.
type ImageRef struct {
	URL      string
	MIMEType string
	Data     []byte // inline bytes, mutually exclusive with URL
}

// ToolCallRequest is a single tool invocation requested by the model
// within an assistant message.
type ToolCallRequest struct {
	ID        string
	Tool      string
	Arguments []byte // raw JSON
}

// ToolResultPart carries a tool's output back into a tool-result message.
type ToolResultPart struct {
	ToolCallID string
	Content    string
	IsError    bool
}

// Content is a message body: either a plain string, or a structured
// multipart value combining text, image references, tool-call requests,
// and tool results. Exactly one of these combinations makes sense per
// role; the session loop is the only caller that constructs Content, so
// that invariant is enforced there rather than in this type.
type Content struct {
	Text        string
	Images      []ImageRef
	ToolCalls   []ToolCallRequest
	ToolResults []ToolResultPart
}

// IsTextOnly reports whether Content carries nothing but text.
func (c Content) IsTextOnly() bool {
	return len(c.Images) == 0 && len(c.ToolCalls) == 0 && len(c.ToolResults) == 0
}

// Message is one immutable entry in a conversation.
type Message struct {
	Role      Role
	Content   Content
	CreatedAt time.Time
	// ToolCallID is set on a RoleTool message, naming the request it answers.
	ToolCallID string
	// TurnID is the turn that appended this message, used to slice the
	// log by turn_id range for undo/redo rather than walking back by role.
	TurnID int
}

// NewTextMessage builds a plain-text message for role.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Content: Content{Text: text}, CreatedAt: time.Now()}
}

// NewToolResultMessage builds the tool-result message appended after a
// tool call completes (successfully or not).
func NewToolResultMessage(toolCallID, content string, isError bool) Message {
	return Message{
		Role:       RoleTool,
		ToolCallID: toolCallID,
		Content:    Content{ToolResults: []ToolResultPart{{ToolCallID: toolCallID, Content: content, IsError: isError}}},
		CreatedAt:  time.Now(),
	}
}
