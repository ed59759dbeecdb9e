package llmprovider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"ragcore/internal/rerrors"
)

// OpenAI is a Provider backed by an OpenAI-compatible chat completions
// endpoint (used directly, or pointed at a local llama.cpp-style server via
// WithBaseURL).
type OpenAI struct {
	client       openai.Client
	defaultModel string
}

// NewOpenAI builds an OpenAI provider. host, when non-empty, overrides the
// default API base URL so the same client code can talk to a self-hosted
// OpenAI-compatible server.
func NewOpenAI(apiKey, host, defaultModel string) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if host != "" {
		opts = append(opts, option.WithBaseURL(host))
	}
	return &OpenAI{
		client:       openai.NewClient(opts...),
		defaultModel: defaultModel,
	}
}

func (o *OpenAI) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = o.defaultModel
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return CompletionResponse{}, rerrors.ExternalService("openai", 0, err)
	}
	if len(resp.Choices) == 0 {
		return CompletionResponse{}, rerrors.ExternalService("openai", 0, fmt.Errorf("empty choices in completion response"))
	}

	choice := resp.Choices[0]
	return CompletionResponse{
		Text:         choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}, nil
}
