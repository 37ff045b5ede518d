// Package inference provides chat completion with tool calling.
//
// The package hides the concrete chat service behind a small Provider
// interface. OpenAI is the production implementation (any
// OpenAI-compatible endpoint works); Mock scripts responses for tests.
//
// Example usage:
//
//	client, _ := inference.NewOpenAI(
//	    inference.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    inference.WithModel("gpt-4o-mini"),
//	)
//	defer client.Close()
//
//	resp, _ := client.Chat(ctx, &inference.ChatRequest{
//	    Messages: []inference.Message{
//	        inference.NewSystemMessage("You are a travel assistant."),
//	        inference.NewUserMessage("How much is a ticket to Ankara?"),
//	    },
//	    Tools:      []inference.Tool{priceTool},
//	    ToolChoice: inference.ToolChoiceAuto,
//	})
package inference

import "context"

// Provider is the chat inference interface.
type Provider interface {
	// Chat generates a response from a sequence of messages.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Finish reasons reported by the model.
const (
	FinishStop      = "stop"
	FinishLength    = "length"
	FinishToolCalls = "tool_calls"
)

// ToolChoiceAuto lets the model decide whether to call a tool. An empty
// ToolChoice leaves the decision to the service default.
const ToolChoiceAuto = "auto"

// ChatRequest for chat completions.
type ChatRequest struct {
	// Messages is the conversation, system prompt first.
	Messages []Message

	// Model overrides the default model.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0-2.0). Zero uses the provider default.
	Temperature float64

	// Tools available for the model to call.
	Tools []Tool

	// ToolChoice controls tool use: "auto", "none", "required" or empty.
	ToolChoice string
}

// ChatResponse from chat completion.
type ChatResponse struct {
	// Message is the assistant's response, including any tool calls.
	Message Message

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Usage tracks token consumption.
	Usage Usage

	// Model used for generation.
	Model string

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}

// WantsTools reports whether the model stopped to call tools.
func (r *ChatResponse) WantsTools() bool {
	return r.FinishReason == FinishToolCalls
}

// Usage tracks token consumption for billing and limits.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
