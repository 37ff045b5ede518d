package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mustafae03/stt-tts-agent/pkg/inference"
	"github.com/mustafae03/stt-tts-agent/pkg/pricing"
)

func priceCall(id, args string) inference.ToolCall {
	return inference.ToolCall{ID: id, Type: "function", Name: TicketPrice, Arguments: args}
}

func assistantWith(calls ...inference.ToolCall) inference.Message {
	return inference.Message{Role: inference.RoleAssistant, ToolCalls: calls}
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, TicketPrice, defs[0].Function.Name)

	// The schema must survive a JSON round trip as a valid object schema.
	raw, err := json.Marshal(defs[0].Function.Parameters)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {"destination_city": {"type": "string", "description": "Gidilecek şehir"}},
		"required": ["destination_city"]
	}`, string(raw))
}

func TestDispatchNoCalls(t *testing.T) {
	out := NewDispatcher().Dispatch(inference.NewAssistantMessage("hi"))
	assert.Empty(t, out.Calls)
	assert.Empty(t, out.City)
	require.Len(t, out.Results, 1)
	assert.Equal(t, inference.RoleTool, out.Results[0].Role)
	assert.Equal(t, Ack, out.Results[0].Content)
	assert.Empty(t, out.Results[0].ToolCallID)
}

func TestDispatchTicketPrice(t *testing.T) {
	out := NewDispatcher().Dispatch(assistantWith(priceCall("call_1", `{"destination_city":"izmir"}`)))

	assert.Equal(t, "izmir", out.City)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "call_1", out.Results[0].ToolCallID)
	assert.Equal(t, "Izmir için yaklaşık bilet fiyatı: 1500 TL", out.Results[0].Content)
	require.Len(t, out.Calls, 1)
	assert.Equal(t, "call_1", out.Calls[0].ID)
}

func TestDispatchMalformedArgs(t *testing.T) {
	for _, raw := range []string{`{not json`, ``, `null`, `[1,2]`, `"ankara"`, `{"destination_city": 42}`} {
		t.Run(raw, func(t *testing.T) {
			var out Outcome
			assert.NotPanics(t, func() {
				out = NewDispatcher().Dispatch(assistantWith(priceCall("c", raw)))
			})
			assert.Empty(t, out.City)
			require.Len(t, out.Results, 1)
			assert.Equal(t, pricing.NotSpecified, out.Results[0].Content)
			assert.Equal(t, "c", out.Results[0].ToolCallID)
		})
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	call := inference.ToolCall{ID: "c9", Type: "function", Name: "book_hotel", Arguments: `{"city":"ankara"}`}
	out := NewDispatcher().Dispatch(assistantWith(call))

	assert.Empty(t, out.City)
	require.Len(t, out.Results, 1)
	assert.Equal(t, Ack, out.Results[0].Content)
	assert.Equal(t, "c9", out.Results[0].ToolCallID)
}

func TestDispatchNonFunctionType(t *testing.T) {
	call := priceCall("c1", `{"destination_city":"ankara"}`)
	call.Type = "retrieval"
	out := NewDispatcher().Dispatch(assistantWith(call))

	assert.Empty(t, out.City)
	assert.Equal(t, Ack, out.Results[0].Content)
}

func TestDispatchFirstOnly(t *testing.T) {
	msg := assistantWith(
		priceCall("a", `{"destination_city":"ankara"}`),
		priceCall("b", `{"destination_city":"antalya"}`),
	)
	out := NewDispatcher().Dispatch(msg)

	require.Len(t, out.Calls, 1)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "a", out.Calls[0].ID)
	assert.Equal(t, "ankara", out.City)
}

func TestDispatchAll(t *testing.T) {
	msg := assistantWith(
		inference.ToolCall{ID: "x", Type: "function", Name: "other"},
		priceCall("a", `{"destination_city":"ankara"}`),
		priceCall("b", `{"destination_city":"antalya"}`),
	)
	out := NewDispatcher(WithDispatchAll(true)).Dispatch(msg)

	require.Len(t, out.Calls, 3)
	require.Len(t, out.Results, 3)
	assert.Equal(t, Ack, out.Results[0].Content)
	assert.Equal(t, "Ankara için yaklaşık bilet fiyatı: 1400 TL", out.Results[1].Content)
	assert.Equal(t, "Antalya için yaklaşık bilet fiyatı: 1350 TL", out.Results[2].Content)
	assert.Equal(t, "ankara", out.City, "first city wins")
	assert.Equal(t, []string{"", "ankara", "antalya"}, out.Cities)
}

type fixedQuoter string

func (q fixedQuoter) Quote(city string) string { return string(q) + ":" + city }

func TestWithQuoter(t *testing.T) {
	out := NewDispatcher(WithQuoter(fixedQuoter("q"))).Dispatch(assistantWith(priceCall("a", `{"destination_city":"Rize"}`)))
	assert.Equal(t, "q:Rize", out.Results[0].Content)
}
