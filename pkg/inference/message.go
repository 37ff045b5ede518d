package inference

// Role defines message roles in a conversation.
type Role string

const (
	// RoleSystem is for system instructions.
	RoleSystem Role = "system"

	// RoleUser is for user messages.
	RoleUser Role = "user"

	// RoleAssistant is for assistant responses.
	RoleAssistant Role = "assistant"

	// RoleTool is for tool/function results.
	RoleTool Role = "tool"
)

// ToolTypeFunction is the only tool type the chat API defines.
const ToolTypeFunction = "function"

// Message represents a chat message in a conversation.
// The JSON form is what the web UI sends back as history.
type Message struct {
	// Role identifies the message sender.
	Role Role `json:"role"`

	// Content is the text content of the message.
	Content string `json:"content"`

	// Name is optional, used for tool messages.
	Name string `json:"name,omitempty"`

	// ToolCalls are function calls requested by the assistant.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID identifies which tool call this message responds to.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall represents a function call request from the model.
type ToolCall struct {
	// ID uniquely identifies this tool call.
	ID string `json:"id"`

	// Type is "function" for every call the API currently emits.
	Type string `json:"type"`

	// Name of the function to call.
	Name string `json:"name"`

	// Arguments as a JSON string. Not guaranteed to be valid JSON.
	Arguments string `json:"arguments"`
}

// Tool defines a callable function for the model.
type Tool struct {
	// Type is always "function" for now.
	Type string

	// Function describes the callable function.
	Function ToolFunction
}

// ToolFunction describes a function the model can call.
type ToolFunction struct {
	// Name of the function.
	Name string

	// Description explains what the function does.
	Description string

	// Parameters as JSON Schema.
	Parameters map[string]any
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolMessage creates a tool result message.
func NewToolMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: toolCallID, Content: content}
}

// NewTool creates a function tool definition.
func NewTool(name, description string, parameters map[string]any) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// ConversationOnly returns the user and assistant messages of history,
// in order. System, tool and any unknown roles are dropped.
func ConversationOnly(history []Message) []Message {
	out := make([]Message, 0, len(history))
	for _, m := range history {
		if m.Role == RoleUser || m.Role == RoleAssistant {
			out = append(out, Message{Role: m.Role, Content: m.Content})
		}
	}
	return out
}
