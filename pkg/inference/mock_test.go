package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockDefaults(t *testing.T) {
	m := NewMock()
	resp, err := m.Chat(context.Background(), &ChatRequest{Messages: []Message{NewUserMessage("hi")}})
	require.NoError(t, err)
	assert.Equal(t, "Mock response", resp.Message.Content)
	assert.Equal(t, 1, m.CallCount("Chat"))

	require.NoError(t, m.Health(context.Background()))
	require.NoError(t, m.Close())
	assert.Len(t, m.Calls(), 3)

	m.Reset()
	assert.Empty(t, m.Calls())
	assert.Empty(t, m.Requests())
}

func TestMockScripted(t *testing.T) {
	m := NewScripted(
		&ChatResponse{FinishReason: FinishToolCalls},
		&ChatResponse{FinishReason: FinishStop, Message: NewAssistantMessage("done")},
	)

	req := &ChatRequest{Messages: []Message{NewUserMessage("one")}}
	first, err := m.Chat(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, first.WantsTools())

	// Mutating the caller's slice after the call must not alter the record.
	req.Messages[0].Content = "changed"
	req.Messages = append(req.Messages, NewToolMessage("c1", "r"))

	second, err := m.Chat(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "done", second.Message.Content)

	_, err = m.Chat(context.Background(), req)
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	reqs := m.Requests()
	require.Len(t, reqs, 3)
	assert.Len(t, reqs[0].Messages, 1)
	assert.Len(t, reqs[1].Messages, 2)
}

func TestMockWithError(t *testing.T) {
	boom := errors.New("boom")
	m := WithError(boom)
	_, err := m.Chat(context.Background(), &ChatRequest{})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, m.Health(context.Background()), boom)
}

func TestConversationOnly(t *testing.T) {
	history := []Message{
		NewSystemMessage("sys"),
		NewUserMessage("a"),
		{Role: RoleAssistant, Content: "b", ToolCalls: []ToolCall{{ID: "x"}}},
		NewToolMessage("x", "r"),
		{Role: "moderator", Content: "?"},
	}
	got := ConversationOnly(history)
	assert.Equal(t, []Message{NewUserMessage("a"), NewAssistantMessage("b")}, got)
}
