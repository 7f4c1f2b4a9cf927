package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/question"
	"go-easyapply-automation/internal/resume"
)

func fixedResolver() *Resolver {
	return &Resolver{Now: func() time.Time { return time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC) }}
}

func sampleResume() *resume.Context {
	return resume.New(map[string]any{
		"personal": map[string]any{
			"name":               "Ada Lovelace",
			"email":              "ada@example.com",
			"phone":              "1512 3456789",
			"phone_country_code": "49",
			"country":            "Germany",
			"location":           "Berlin",
			"citizenship":        "British",
			"visa":               "EU Blue Card",
			"salary_expectation": "75000 EUR",
			"relocate":           "Yes",
		},
		"skills": map[string]any{
			"python": map[string]any{"experience_years": float64(8)},
			"go":     float64(4),
		},
		"languages": []any{
			map[string]any{"language": "English", "level": "C2"},
			map[string]any{"language": "Deutsch", "level": "B2"},
		},
	}, "")
}

func resolve(r *Resolver, q string, rc *resume.Context, db map[string]any) Result {
	return r.Resolve(q, question.Classify(q), rc, db)
}

func TestResolve_DirectFields(t *testing.T) {
	r := fixedResolver()
	rc := sampleResume()

	tests := []struct {
		question string
		expected string
	}{
		{"What is your email address?", "ada@example.com"},
		{"Mobile phone number", "+49 1512 3456789"},
		{"Country code?", "Germany"},
		{"First Name", "Ada"},
		{"Last Name", "Lovelace"},
		{"What is your current location?", "Berlin"},
		{"What is your citizenship?", "British"},
		{"Do you require visa sponsorship?", "EU Blue Card"},
		{"What are your salary expectations?", "75000 EUR"},
		{"Years of experience with Python", "8"},
		{"How many years of experience with Go?", "4"},
		{"What is your level of German?", "B2"},
		{"Are you fluent in English?", "C2"},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			res := resolve(r, tt.question, rc, nil)
			assert.True(t, res.OK)
			assert.Equal(t, tt.expected, res.Text)
			assert.Equal(t, models.SourceDirect, res.Source)
		})
	}
}

func TestResolve_NeverInvents(t *testing.T) {
	r := fixedResolver()
	rc := sampleResume()

	for _, q := range []string{
		"What is your level of French?",
		"How many years of experience with Rust?",
		"Ready to relocate?",
		"Which university did you attend?",
	} {
		assert.False(t, resolve(r, q, rc, nil).OK, q)
	}

	assert.False(t, resolve(r, "What is your email address?", resume.FromText("ada@example.com"), nil).OK)
}

func TestResolve_DBFirst(t *testing.T) {
	r := fixedResolver()
	db := map[string]any{"languages": map[string]any{"German": "C1"}}

	res := resolve(r, "What is your level of German?", sampleResume(), db)
	assert.Equal(t, "C1", res.Text)

	res = resolve(r, "What is your level of English?", sampleResume(), db)
	assert.Equal(t, "C2", res.Text, "falls back to the session resume")
}

func TestResolve_Notice(t *testing.T) {
	r := fixedResolver()

	res := resolve(r, "Earliest start date?", nil, nil)
	assert.Equal(t, "15.03.2025", res.Text)
	assert.Equal(t, models.SourceRule, res.Source)

	assert.Equal(t, "2 months", resolve(r, "What is your notice period?", nil, nil).Text)
	assert.Equal(t, "2 Monate", resolve(r, "Wie lange ist Ihre Kündigungsfrist?", nil, nil).Text)
	assert.Equal(t, "15.03.2025", resolve(r, "When can you start?", nil, nil).Text)
}
