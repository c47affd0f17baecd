package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const systemPromptTemplate = `You are Saarthi, a helpful assistant answering questions from retrieved knowledge.
Answer in English, concisely and factually. When the context allows, end your
answer with a heading "Example Questions:" followed by up to three numbered
follow-up questions the user could ask next.`

// OpenAIGenerator implements Generator using the OpenAI chat completions API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI-backed answer generator.
func NewOpenAI(apiKey, model string, opts ...option.RequestOption) *OpenAIGenerator {
	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(clientOpts...)
	return &OpenAIGenerator{
		client: &client,
		model:  model,
	}
}

// Execute generates an answer for the query.
func (g *OpenAIGenerator) Execute(ctx context.Context, req Request) (*Result, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPromptTemplate),
	}
	if req.ChatHistory != "" {
		messages = append(messages, openai.SystemMessage(
			"Recent conversation with "+displayName(req)+":\n"+req.ChatHistory))
	}
	messages = append(messages, openai.UserMessage(req.Query))

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: no choices returned")
	}

	return &Result{
		Answer:           strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func displayName(req Request) string {
	if req.UserName != "" {
		return req.UserName
	}
	return req.Email
}
