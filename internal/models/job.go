package models

// JobInfo is what the job board shows about the currently opened posting.
// Missing fields stay nil.
type JobInfo struct {
	PlatformID     *string `json:"platformId"`
	Title          *string `json:"title"`
	Company        *string `json:"company"`
	Location       *string `json:"location"`
	JobType        *string `json:"jobType"`
	RemoteType     *string `json:"remoteType"`
	Description    *string `json:"description"`
	ApplicantCount *string `json:"applicantCount"`
	PostedDate     *string `json:"postedDate"`
	URL            *string `json:"url"`
}

// Str dereferences an optional field.
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Ptr returns nil for an empty string.
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type AnswerSource string

const (
	SourceDirect   AnswerSource = "direct"
	SourceRule     AnswerSource = "rule"
	SourceLLM      AnswerSource = "llm"
	SourceFallback AnswerSource = "fallback"
)

type Answer struct {
	Text       string       `json:"text"`
	Source     AnswerSource `json:"source"`
	Confidence float64      `json:"confidence"`
	Type       QuestionType `json:"type"`
	Model      string       `json:"model,omitempty"`
}
