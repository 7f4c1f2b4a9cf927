// Package qa runs a fixed set of application questions against a résumé
// and reports the answers, for checking a résumé and model before a session.
package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"go-easyapply-automation/internal/cancel"
	"go-easyapply-automation/internal/models"
)

// Questions are the ten questions job boards ask most often.
var Questions = []string{
	"What is your current job title and company?",
	"How many years of experience do you have in your field?",
	"What are your top 3 technical skills?",
	"What programming languages are you proficient in?",
	"Describe your most recent work experience and key responsibilities.",
	"What is your highest level of education and field of study?",
	"Are you authorized to work in Germany without sponsorship?",
	"What is your preferred salary range?",
	"What cloud platforms have you worked with?",
	"Do you have experience with DevOps tools and practices?",
}

type Answerer interface {
	Answer(ctx context.Context, q string, options []string, probe cancel.Probe) (models.Answer, error)
}

type TestInfo struct {
	ResumeFile     string `json:"resume_file"`
	Model          string `json:"model"`
	TotalQuestions int    `json:"total_questions"`
}

type Result struct {
	Question string              `json:"question"`
	Answer   string              `json:"answer"`
	Type     models.QuestionType `json:"type"`
	Source   models.AnswerSource `json:"source"`
}

// Report is the JSON document written by Save.
type Report struct {
	TestInfo TestInfo `json:"test_info"`
	Results  []Result `json:"results"`
}

// Run answers every question in order. It stops early only when ctx is done.
func Run(ctx context.Context, a Answerer, questions []string, info TestInfo) (*Report, error) {
	report := &Report{TestInfo: info, Results: make([]Result, 0, len(questions))}
	probe := func() bool { return ctx.Err() != nil }

	for i, q := range questions {
		log.Printf("\n[%d/%d] %s", i+1, len(questions), q)
		ans, err := a.Answer(ctx, q, nil, probe)
		if err != nil {
			return report, fmt.Errorf("question %d: %w", i+1, err)
		}
		log.Printf("💬 Answer (%s, %s): %s", ans.Type, ans.Source, ans.Text)
		report.Results = append(report.Results, Result{Question: q, Answer: ans.Text, Type: ans.Type, Source: ans.Source})
	}
	report.TestInfo.TotalQuestions = len(report.Results)
	return report, nil
}

func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
