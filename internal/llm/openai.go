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

const DefaultOpenAIEndpoint = "https://api.openai.com/v1"

// KeySource resolves the API key at call time so it never sits on the provider.
type KeySource func(ctx context.Context) (string, error)

// StaticKey wraps a fixed key.
func StaticKey(key string) KeySource {
	return func(context.Context) (string, error) { return key, nil }
}

// OpenAI speaks the chat/completions format, which Groq, OpenRouter and vLLM share.
type OpenAI struct {
	endpoint   string
	model      string
	key        KeySource
	httpClient *http.Client
}

// NewOpenAI returns a provider for any OpenAI-compatible endpoint. key is asked for on every call.
func NewOpenAI(endpoint, model string, key KeySource, httpClient *http.Client) *OpenAI {
	if endpoint == "" {
		endpoint = DefaultOpenAIEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &OpenAI{
		endpoint:   strings.TrimRight(endpoint, "/"),
		model:      model,
		key:        key,
		httpClient: httpClient,
	}
}

func (c *OpenAI) Name() string {
	return "openai"
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type openAIModels struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (c *OpenAI) Complete(ctx context.Context, req Request) (*Completion, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	body := openAIRequest{
		Model:       model,
		Messages:    ChatMessages(req),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	raw, err := c.do(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var resp openAIResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from %s API", c.Name())
	}

	out := &Completion{Text: resp.Choices[0].Message.Content, Model: model}
	if resp.Model != "" {
		out.Model = resp.Model
	}
	if resp.Usage != nil {
		out.Usage = Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}

func (c *OpenAI) ListModels(ctx context.Context) ([]string, error) {
	raw, err := c.do(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, err
	}
	var list openAIModels
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}
	ids := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (c *OpenAI) Test(ctx context.Context) (string, error) {
	ids, err := c.ListModels(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Connected to %s (%d models available)", c.endpoint, len(ids)), nil
}

func (c *OpenAI) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != nil {
		key, err := c.key(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve API key: %w", err)
		}
		if key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		se := &StatusError{Provider: c.Name(), Code: resp.StatusCode, Body: string(data)}
		if resp.StatusCode == http.StatusUnauthorized {
			se.Troubleshooting = "The API key was rejected. Re-enter it in the AI settings."
		}
		return nil, se
	}
	return data, nil
}
