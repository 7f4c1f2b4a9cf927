// Package answer turns an application question into the text written into the form.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"go-easyapply-automation/internal/cancel"
	"go-easyapply-automation/internal/llm"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/question"
	"go-easyapply-automation/internal/resolver"
	"go-easyapply-automation/internal/resume"
)

const (
	NotAvailable       = "Information not available"
	MinExperienceYears = 5
)

// DataSource returns the slice of the stored résumé relevant to a question type.
type DataSource interface {
	RelevantData(ctx context.Context, resumeID string, qt models.QuestionType) (map[string]any, error)
}

type Gateway interface {
	CallCancellable(ctx context.Context, req llm.Request, probe cancel.Probe) (*llm.Completion, error)
	Model() string
}

type Answerer struct {
	gateway  Gateway
	resume   *resume.Context
	data     DataSource
	resumeID string

	Resolver *resolver.Resolver
}

// New builds an answerer for one session. data may be nil when no résumé is stored remotely.
func New(gw Gateway, rc *resume.Context, data DataSource, resumeID string) *Answerer {
	return &Answerer{
		gateway:  gw,
		resume:   rc,
		data:     data,
		resumeID: resumeID,
		Resolver: resolver.New(),
	}
}

// Answer classifies q, tries the résumé, then the LLM. The only error it returns
// is cancel.ErrStopped; every other failure becomes a fallback answer.
func (a *Answerer) Answer(ctx context.Context, q string, options []string, probe cancel.Probe) (ans models.Answer, err error) {
	qt := question.Classify(q)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Answerer panicked on %q: %v", q, r)
			ans, err = fallback(qt, options), nil
		}
	}()

	if probe == nil {
		probe = cancel.Never
	}

	var db map[string]any
	if a.data != nil && a.resumeID != "" {
		d, dbErr := a.data.RelevantData(ctx, a.resumeID, qt)
		if dbErr != nil {
			log.Printf("  ⚠️ Could not load %s data for resume %s: %v", qt, a.resumeID, dbErr)
		} else {
			db = d
		}
	}

	if res := a.Resolver.Resolve(q, qt, a.resume, db); res.OK {
		text := res.Text
		if len(options) > 0 {
			text = Snap(text, options, qt, q)
		}
		log.Printf("  📄 [%s] %q -> %q (%s)", qt, q, text, res.Source)
		return models.Answer{Text: text, Source: res.Source, Confidence: 1, Type: qt}, nil
	}

	if probe() {
		return models.Answer{}, cancel.ErrStopped
	}

	text, model, err := a.ask(ctx, q, qt, options, probe)
	if errors.Is(err, cancel.ErrStopped) {
		return models.Answer{}, cancel.ErrStopped
	}
	if err != nil {
		log.Printf("  ⚠️ [%s] %q: %v, using fallback", qt, q, err)
		return fallback(qt, options), nil
	}

	log.Printf("  🤖 [%s] %q -> %q", qt, q, text)
	return models.Answer{Text: text, Source: models.SourceLLM, Confidence: 0.7, Type: qt, Model: model}, nil
}

func (a *Answerer) ask(ctx context.Context, q string, qt models.QuestionType, options []string, probe cancel.Probe) (string, string, error) {
	now := time.Now
	if a.Resolver != nil && a.Resolver.Now != nil {
		now = a.Resolver.Now
	}
	req := llm.Request{
		System: systemPreamble,
		Prompt: BuildPrompt(q, qt, options, a.resume.Text(), now()),
	}

	out, err := a.gateway.CallCancellable(ctx, req, probe)
	if err != nil {
		return "", "", err
	}
	if probe() {
		return "", "", cancel.ErrStopped
	}

	text := llm.Clean(out.Text)
	if text == "" {
		return "", "", fmt.Errorf("empty completion from %s", out.Model)
	}
	text = PostProcess(text, qt, options, q)

	model := out.Model
	if model == "" {
		model = a.gateway.Model()
	}
	return text, model, nil
}

// PostProcess clamps experience to the minimum and snaps to options.
func PostProcess(text string, qt models.QuestionType, options []string, q string) string {
	if qt == models.TypeExperience && reInteger.MatchString(text) {
		if n, err := strconv.Atoi(text); err == nil && n < MinExperienceYears {
			text = strconv.Itoa(MinExperienceYears)
		}
	}
	if len(options) > 0 {
		text = Snap(text, options, qt, q)
	}
	return text
}

func fallback(qt models.QuestionType, options []string) models.Answer {
	return models.Answer{Text: Fallback(options), Source: models.SourceFallback, Type: qt}
}
