package models

import (
	"time"
)

type ApplicationStatus string

const (
	StatusApplied ApplicationStatus = "applied"
	StatusFailed  ApplicationStatus = "failed"
	StatusStopped ApplicationStatus = "stopped"
)

// Terminal reports whether the status ends an application's lifecycle.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusApplied || s == StatusFailed || s == StatusStopped
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Location  string    `json:"location,omitempty"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AISettings selects the LLM provider used to answer questions.
// APIKey is never populated from the service; hosted keys are fetched per call.
type AISettings struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	Provider    string  `json:"provider"` // ollama, openai, gemini
	Model       string  `json:"model"`
	Endpoint    string  `json:"endpoint,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
	IsDefault   bool    `json:"isDefault"`
	HasAPIKey   bool    `json:"hasApiKey"`
}

type Resume struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	FileName   string         `json:"fileName"`
	Structured map[string]any `json:"structured,omitempty"`
	Text       string         `json:"text,omitempty"`
	IsDefault  bool           `json:"isDefault"`
	CreatedAt  time.Time      `json:"createdAt"`
}

type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Job struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"companyId"`
	Platform      string    `json:"platform"`
	PlatformJobID string    `json:"platformJobId,omitempty"`
	Title         string    `json:"title"`
	Location      string    `json:"location,omitempty"`
	JobType       string    `json:"jobType,omitempty"`
	RemoteType    string    `json:"remoteType,omitempty"`
	Description   string    `json:"description,omitempty"`
	URL           string    `json:"url,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Application struct {
	ID           string            `json:"id"`
	UserID       string            `json:"userId"`
	JobID        string            `json:"jobId"`
	AISettingsID string            `json:"aiSettingsId,omitempty"`
	ResumeID     string            `json:"resumeId,omitempty"`
	Status       ApplicationStatus `json:"status"`
	Notes        string            `json:"notes,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// QARecord is one answered (or skipped) field of an application.
type QARecord struct {
	ID            string       `json:"id,omitempty"`
	ApplicationID string       `json:"applicationId"`
	Question      string       `json:"question"`
	Answer        string       `json:"answer"`
	QuestionType  QuestionType `json:"questionType"`
	ModelUsed     string       `json:"modelUsed,omitempty"`
	Skipped       bool         `json:"skipped"`
	CreatedAt     time.Time    `json:"createdAt"`
}
