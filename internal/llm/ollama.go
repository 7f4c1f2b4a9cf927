package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultOllamaEndpoint = "http://localhost:11434"
	DefaultOllamaModel    = "qwen2.5:3b"
)

// Ollama talks to a local Ollama server.
type Ollama struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

// NewOllama returns a local Ollama provider. An empty endpoint means DefaultOllamaEndpoint.
func NewOllama(endpoint, model string, httpClient *http.Client) *Ollama {
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Ollama{
		endpoint:   strings.TrimRight(endpoint, "/"),
		model:      model,
		httpClient: httpClient,
	}
}

func (o *Ollama) Name() string {
	return "ollama"
}

func (o *Ollama) Endpoint() string {
	return o.endpoint
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  *ollamaOptions `json:"options,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Message  *struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message,omitempty"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error,omitempty"`
}

type ollamaTags struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Complete uses /api/chat when messages are given and /api/generate otherwise.
func (o *Ollama) Complete(ctx context.Context, req Request) (*Completion, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}
	var opts *ollamaOptions
	if req.Temperature > 0 || req.MaxTokens > 0 {
		opts = &ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens}
	}

	var path string
	var body any
	if len(req.Messages) > 0 {
		path = "/api/chat"
		body = ollamaChatRequest{Model: model, Messages: ChatMessages(req), Stream: false, Options: opts}
	} else {
		path = "/api/generate"
		body = ollamaGenerateRequest{Model: model, Prompt: req.Prompt, System: req.System, Stream: false, Options: opts}
	}

	raw, err := o.Raw(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	var resp ollamaResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", resp.Error)
	}

	text := resp.Response
	if resp.Message != nil {
		text = resp.Message.Content
	}
	if resp.Model != "" {
		model = resp.Model
	}
	return &Completion{
		Text:  text,
		Model: model,
		Usage: Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}, nil
}

// Raw sends an arbitrary request to the Ollama API and returns the body.
func (o *Ollama) Raw(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, o.endpoint+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request to ollama: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ollama at %s. Is ollama running?: %w", o.endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ollama response: %w", err)
	}
	if resp.StatusCode == http.StatusForbidden {
		return nil, &StatusError{Provider: o.Name(), Code: resp.StatusCode, Body: string(data),
			Troubleshooting: "Ollama rejected the origin. Start it with OLLAMA_ORIGINS=chrome-extension://* ollama serve"}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: o.Name(), Code: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	raw, err := o.Raw(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, err
	}
	var tags ollamaTags
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, fmt.Errorf("failed to decode ollama tags: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Test checks that the server answers /api/tags within 5s and that the configured model is pulled.
func (o *Ollama) Test(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	names, err := o.ListModels(ctx)
	if err != nil {
		return "", err
	}
	for _, n := range names {
		if n == o.model || strings.TrimSuffix(n, ":latest") == o.model {
			return fmt.Sprintf("Ollama is running at %s with %d models; %s is available", o.endpoint, len(names), o.model), nil
		}
	}
	return fmt.Sprintf("Ollama is running at %s with %d models; %s is not pulled yet (ollama pull %s)", o.endpoint, len(names), o.model, o.model), nil
}

// StatusError is a non-2xx provider response.
type StatusError struct {
	Provider        string
	Code            int
	Body            string
	Troubleshooting string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.Code, e.Body)
}
