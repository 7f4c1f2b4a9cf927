package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-1.5-flash"

type Gemini struct {
	model string
	key   KeySource
}

// NewGemini returns a Google Gemini provider. key is asked for on every call.
func NewGemini(model string, key KeySource) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{model: model, key: key}
}

func (g *Gemini) Name() string {
	return "gemini"
}

// client is opened per call because the key is resolved per call.
func (g *Gemini) client(ctx context.Context) (*genai.Client, error) {
	if g.key == nil {
		return nil, errors.New("gemini requires an API key")
	}
	key, err := g.key(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve API key: %w", err)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

func (g *Gemini) Complete(ctx context.Context, req Request) (*Completion, error) {
	client, err := g.client(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	name := req.Model
	if name == "" {
		name = g.model
	}
	model := client.GenerativeModel(name)
	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	var prompt strings.Builder
	for _, m := range ChatMessages(req) {
		if m.Role == "system" {
			model.SystemInstruction = genai.NewUserContent(genai.Text(m.Content))
			continue
		}
		if prompt.Len() > 0 {
			prompt.WriteString("\n\n")
		}
		prompt.WriteString(m.Content)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt.String()))
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no candidates returned from gemini API")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	out := &Completion{Text: text.String(), Model: name}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

func (g *Gemini) ListModels(ctx context.Context) ([]string, error) {
	client, err := g.client(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	var names []string
	it := client.ListModels(ctx)
	for {
		m, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gemini models: %w", err)
		}
		names = append(names, strings.TrimPrefix(m.Name, "models/"))
	}
	return names, nil
}

func (g *Gemini) Test(ctx context.Context) (string, error) {
	names, err := g.ListModels(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Gemini API reachable (%d models available)", len(names)), nil
}
