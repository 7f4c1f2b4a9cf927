package question

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-easyapply-automation/internal/models"
)

func TestClassify_SampleRoundTrip(t *testing.T) {
	for _, qt := range models.AllQuestionTypes {
		t.Run(string(qt), func(t *testing.T) {
			sample := SampleQuestion(qt)
			assert.NotEmpty(t, sample)
			assert.Equal(t, qt, Classify(sample))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		question string
		expected models.QuestionType
	}{
		{"Years of experience with Python", models.TypeExperience},
		{"How many years of experience with Rust do you have?", models.TypeExperience},
		{"Wie viele Jahre Berufserfahrung haben Sie?", models.TypeExperience},
		{"Earliest start date?", models.TypeNotice},
		{"Ready to relocate?", models.TypeGeneral},
		{"Are you fluent in English?", models.TypeLanguageLevel},
		{"What is your proficiency in Spanish?", models.TypeLanguageLevel},
		{"What is your highest level of education?", models.TypeEducation},
		{"Wie lange ist Ihre Kündigungsfrist?", models.TypeNoticePeriod},
		{"Do you speak German?", models.TypeLanguages},
		{"Are you AWS certified?", models.TypeSkills},
		{"Are you familiar with employment laws?", models.TypeGeneral},
		{"Country code?", models.TypePhone},
		{"Mobile phone number", models.TypePhone},
		{"How many years of smartphone app development experience do you have?", models.TypeExperience},
		{"Wie viele Jahre Erfahrung haben Sie im telefonischen Kundenservice?", models.TypeExperience},
		{"Do you have experience with mobile development?", models.TypeSkills},
		{"Email address", models.TypeEmail},
		{"Gehaltsvorstellung (brutto/Jahr)", models.TypeSalary},
		{"Anything else?", models.TypeGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.question))
		})
	}
}

func TestShouldSkip(t *testing.T) {
	skipped := []string{
		"Email address", "E-Mail-Adresse", "Mobile phone number", "Phone country code",
		"First Name", "Last name", "Vorname", "Nachname", "Telefonnummer",
		"Landesvorwahl", "Contact information",
	}
	for _, label := range skipped {
		assert.True(t, ShouldSkip(label), label)
	}

	kept := []string{
		"Years of experience with Python", "Ready to relocate?", "Excellent communication skills?",
		"Company name of your current employer?",
	}
	for _, label := range kept {
		assert.False(t, ShouldSkip(label), label)
	}
}

func TestCollapseLabel(t *testing.T) {
	assert.Equal(t, "Ready to relocate?", CollapseLabel("Ready to relocate?Ready to relocate?"))
	assert.Equal(t, "Ready to relocate?", CollapseLabel("Ready to relocate? Ready to relocate?"))
	assert.Equal(t, "Good", CollapseLabel("Good"))
	assert.Equal(t, "First Name", CollapseLabel("  First   Name "))
}

func TestIsGerman(t *testing.T) {
	assert.True(t, IsGerman("Ab wann können Sie anfangen?"))
	assert.True(t, IsGerman("Wie lange ist Ihre Kundigungsfrist?"))
	assert.False(t, IsGerman("Earliest start date?"))
}

func TestLanguageIn(t *testing.T) {
	name, ok := LanguageIn("Wie gut sprechen Sie Französisch?")
	assert.True(t, ok)
	assert.Equal(t, "French", name)

	_, ok = LanguageIn("How many years of Go?")
	assert.False(t, ok)

	assert.True(t, SameLanguage("Deutsch", "German"))
}
