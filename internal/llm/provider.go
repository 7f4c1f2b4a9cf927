package llm

import (
	"fmt"
	"net/http"
	"strings"

	"go-easyapply-automation/internal/models"
)

const (
	KindOllama = "ollama"
	KindOpenAI = "openai"
	KindGemini = "gemini"
)

// Kind maps a provider name from the AI settings to the wire format it speaks, or "".
func Kind(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "ollama":
		return KindOllama
	case "openai", "groq", "openrouter", "openai-compatible":
		return KindOpenAI
	case "gemini", "google":
		return KindGemini
	}
	return ""
}

// NewProvider builds the provider named by settings. key may be nil for keyless providers.
func NewProvider(settings models.AISettings, key KeySource, httpClient *http.Client) (Provider, error) {
	switch Kind(settings.Provider) {
	case KindOllama:
		return NewOllama(settings.Endpoint, settings.Model, httpClient), nil
	case KindOpenAI:
		return NewOpenAI(settings.Endpoint, settings.Model, key, httpClient), nil
	case KindGemini:
		return NewGemini(settings.Model, key), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", settings.Provider)
	}
}
