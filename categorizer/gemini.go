package categorizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-1.5-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiBackend classifies through the Google Gemini API.
type GeminiBackend struct {
	client *genai.Client
	model  contentGenerator
	name   string
}

// NewGeminiBackend creates the client once; Close releases it.
func NewGeminiBackend(ctx context.Context, apiKey, modelName string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not provided")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	configureGeminiModel(model)

	return &GeminiBackend{client: client, model: model, name: modelName}, nil
}

func configureGeminiModel(model *genai.GenerativeModel) {
	model.SystemInstruction = genai.NewUserContent(genai.Text(Instructions()))
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = geminiOutputSchema()
	model.SetTemperature(0)
}

func geminiOutputSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"category": {
				Type:        genai.TypeString,
				Format:      "enum",
				Enum:        Names(),
				Description: "The most relevant category for the issue from the predefined list.",
			},
		},
		Required: []string{"category"},
	}
}

func (b *GeminiBackend) Name() string { return "gemini/" + b.name }

func (b *GeminiBackend) Classify(ctx context.Context, req Request) (string, error) {
	resp, err := b.model.GenerateContent(ctx, geminiParts(req)...)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text, err := geminiText(resp)
	if err != nil {
		return "", err
	}
	return decodeOutput(text)
}

func (b *GeminiBackend) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

func geminiParts(req Request) []genai.Part {
	parts := []genai.Part{genai.Text(captionText(req.Caption))}
	if req.Image != nil {
		parts = append(parts, genai.Blob{MIMEType: req.Image.MIMEType, Data: req.Image.Data})
	}
	return parts
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return "", fmt.Errorf("gemini candidate has no content")
	}
	var sb strings.Builder
	for _, part := range content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), nil
}
