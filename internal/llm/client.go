// Package llm is the provider-agnostic call surface used to answer application questions.
package llm

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var ErrNotSupported = errors.New("operation not supported by provider")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries either a bare Prompt (generate style) or Messages (chat style).
type Request struct {
	Model       string    `json:"model,omitempty"`
	System      string    `json:"system,omitempty"`
	Prompt      string    `json:"prompt,omitempty"`
	Messages    []Message `json:"messages,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"maxTokens,omitempty"`
}

type Usage struct {
	PromptTokens     int  `json:"promptTokens"`
	CompletionTokens int  `json:"completionTokens"`
	TotalTokens      int  `json:"totalTokens"`
	Estimated        bool `json:"estimated"`
}

type Completion struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

// Provider implements one wire format. Streaming is never requested.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Completion, error)
	// Test returns a human readable diagnostic on success.
	Test(ctx context.Context) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// ChatMessages converts a bare prompt into a single user turn, keeping the system preamble.
func ChatMessages(req Request) []Message {
	if len(req.Messages) > 0 {
		if req.System == "" || req.Messages[0].Role == "system" {
			return req.Messages
		}
		return append([]Message{{Role: "system", Content: req.System}}, req.Messages...)
	}
	var msgs []Message
	if req.System != "" {
		msgs = append(msgs, Message{Role: "system", Content: req.System})
	}
	return append(msgs, Message{Role: "user", Content: req.Prompt})
}

var reThink = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Clean strips reasoning blocks, markdown fences and wrapping quotes models like to add.
func Clean(content string) string {
	content = reThink.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if i := strings.Index(content, "\n"); i >= 0 && !strings.Contains(content[:i], " ") {
			content = content[i+1:]
		}
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	content = strings.TrimSpace(content)
	if len(content) >= 2 && content[0] == '"' && content[len(content)-1] == '"' {
		content = content[1 : len(content)-1]
	}
	return strings.TrimSpace(content)
}
