package answer

import (
	"fmt"
	"strings"
	"time"

	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/question"
	"go-easyapply-automation/internal/resolver"
)

const systemPreamble = `You are the job applicant filling in an application form.
Answer in the first person, as briefly as possible, and reply with only what was asked.
Do not explain, greet, apologise or use markdown.
Never invent facts that are not in the résumé.`

// BuildPrompt assembles the user turn: résumé, question, options and the rule blocks for qt.
func BuildPrompt(q string, qt models.QuestionType, options []string, resumeText string, now time.Time) string {
	var b strings.Builder

	b.WriteString("MY RÉSUMÉ:\n")
	b.WriteString(strings.TrimSpace(resumeText))
	b.WriteString("\n\nQUESTION: ")
	b.WriteString(strings.TrimSpace(q))
	b.WriteString("\n")

	if len(options) > 0 {
		b.WriteString("\nChoose exactly one of these options and reply with its text unchanged:\n")
		for _, opt := range options {
			fmt.Fprintf(&b, "- %s\n", opt)
		}
	}

	if rules := ruleBlocks(q, qt, now); len(rules) > 0 {
		b.WriteString("\nRULES:\n")
		for _, r := range rules {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	b.WriteString("\nANSWER:")
	return b.String()
}

func ruleBlocks(q string, qt models.QuestionType, now time.Time) []string {
	var rules []string
	switch qt {
	case models.TypeDecimal:
		rules = append(rules, "Reply with a decimal number only, for example 3.5. No units, no words.")
	case models.TypeExperience:
		rules = append(rules, fmt.Sprintf("Reply with a whole number of years only. The number must be at least %d.", MinExperienceYears))
	case models.TypeDegree:
		rules = append(rules, "If my education section lists a degree matching the one asked about, answer Yes.")
	case models.TypeSkillLevel:
		rules = append(rules, "Reply with the skill level exactly as it is written in my résumé.")
	}

	if qt.IsNoticeLike() {
		german := question.IsGerman(q)
		notice := resolver.NoticePhrases[0]
		if german {
			notice = resolver.NoticePhrases[1]
		}
		start := now.AddDate(0, 2, 0).Format("02.01.2006")
		rules = append(rules,
			fmt.Sprintf("My notice period is %s. If a start date is asked, answer %s (DD.MM.YYYY).", notice, start))
		if german {
			rules = append(rules, "The question is in German, so answer in German.")
		}
	}
	return rules
}
