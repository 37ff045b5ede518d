package inference

import (
	"context"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/mustafae03/stt-tts-agent/internal/apierr"
	"github.com/mustafae03/stt-tts-agent/internal/httpc"
)

const providerOpenAI = "openai"

// OpenAI is a Provider backed by the OpenAI chat completions API or any
// compatible endpoint.
type OpenAI struct {
	config  *Config
	client  *openai.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewOpenAI creates a new OpenAI chat provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	} else {
		oc.HTTPClient = httpc.NewClient(cfg.Timeout)
	}

	p := &OpenAI{
		config: cfg,
		client: openai.NewClientWithConfig(oc),
		logger: cfg.Logger.With("component", "inference.openai"),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return p, nil
}

// Chat generates a chat completion.
func (p *OpenAI) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, WrapError(providerOpenAI, ErrNoMessages)
	}
	start := time.Now()

	creq := p.buildRequest(req)

	var resp openai.ChatCompletionResponse
	err := apierr.Retry(ctx, p.config.MaxRetries, p.config.RetryDelay, func(ctx context.Context) error {
		if err := p.wait(ctx); err != nil {
			return WrapError(providerOpenAI, err)
		}
		var err error
		resp, err = p.client.CreateChatCompletion(ctx, creq)
		if err != nil {
			werr := WrapError(providerOpenAI, err)
			p.logger.Warn("chat completion failed", "model", creq.Model, "error", werr)
			return werr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, WrapError(providerOpenAI, ErrNoChoices)
	}
	choice := resp.Choices[0]

	out := &ChatResponse{
		Message: Message{
			Role:      RoleAssistant,
			Content:   choice.Message.Content,
			ToolCalls: fromOpenAIToolCalls(choice.Message.ToolCalls),
		},
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Model:     resp.Model,
		LatencyMs: time.Since(start).Milliseconds(),
	}

	p.logger.Debug("chat completion",
		"model", out.Model,
		"finish_reason", out.FinishReason,
		"tool_calls", len(out.Message.ToolCalls),
		"tokens", out.Usage.TotalTokens,
		"latency_ms", out.LatencyMs,
	)
	return out, nil
}

// Health checks API connectivity by listing models.
func (p *OpenAI) Health(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return apierr.Wrap("health", providerOpenAI, err)
	}
	return nil
}

// Close releases resources. The underlying client holds none.
func (p *OpenAI) Close() error {
	return nil
}

func (p *OpenAI) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

func (p *OpenAI) buildRequest(req *ChatRequest) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.config.Temperature
	}

	creq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(req.Messages),
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
	}
	if len(req.Tools) > 0 {
		creq.Tools = toOpenAITools(req.Tools)
		if req.ToolChoice != "" {
			creq.ToolChoice = req.ToolChoice
		}
	}
	return creq
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		cm := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			typ := tc.Type
			if typ == "" {
				typ = ToolTypeFunction
			}
			cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolType(typ),
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, cm)
	}
	return out
}

func toOpenAITools(tools []Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		typ := t.Type
		if typ == "" {
			typ = ToolTypeFunction
		}
		out = append(out, openai.Tool{
			Type: openai.ToolType(typ),
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			},
		})
	}
	return out
}

func fromOpenAIToolCalls(calls []openai.ToolCall) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]ToolCall, 0, len(calls))
	for _, tc := range calls {
		out = append(out, ToolCall{
			ID:        tc.ID,
			Type:      string(tc.Type),
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

// Verify OpenAI implements Provider at compile time.
var _ Provider = (*OpenAI)(nil)
