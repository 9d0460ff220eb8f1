package categorizer

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = openai.GPT4oMini

// ChatCompleter is the part of *openai.Client the backend needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIBackend classifies through an OpenAI-compatible chat completion API.
type OpenAIBackend struct {
	client ChatCompleter
	model  string
}

func NewOpenAIBackend(client ChatCompleter, model string) *OpenAIBackend {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIBackend{client: client, model: model}
}

func (b *OpenAIBackend) Name() string { return "openai/" + b.model }

func (b *OpenAIBackend) Classify(ctx context.Context, req Request) (string, error) {
	if b.client == nil {
		return "", fmt.Errorf("openai backend has no client")
	}
	resp, err := b.client.CreateChatCompletion(ctx, b.chatRequest(req))
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}
	return decodeOutput(resp.Choices[0].Message.Content)
}

func (b *OpenAIBackend) chatRequest(req Request) openai.ChatCompletionRequest {
	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if req.Image == nil {
		user.Content = captionText(req.Caption)
	} else {
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: captionText(req.Caption)},
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: req.Image.DataURI(), Detail: openai.ImageURLDetailLow},
			},
		}
	}

	return openai.ChatCompletionRequest{
		Model:       b.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: Instructions()},
			user,
		},
	}
}
