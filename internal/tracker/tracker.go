// Package tracker materialises companies, jobs and applications for the running session.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go-easyapply-automation/internal/models"
)

// ErrNotFound is returned by Store lookups that match nothing.
var ErrNotFound = errors.New("not found")

const Platform = "linkedin"

type Store interface {
	SearchCompanies(ctx context.Context, name string) ([]models.Company, error)
	CreateCompany(ctx context.Context, name string) (*models.Company, error)
	FindJob(ctx context.Context, platform, platformJobID string) (*models.Job, error)
	CreateJob(ctx context.Context, job models.Job) (*models.Job, error)
	CreateApplication(ctx context.Context, app models.Application) (*models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus, notes string) error
	AddQA(ctx context.Context, rec models.QARecord) error
}

// Identity is what the session knows about who is applying with what.
type Identity struct {
	UserID       string
	AISettingsID string
	ResumeID     string
}

// Tracker records one application at a time. It is not safe for concurrent use.
type Tracker struct {
	store   Store
	id      Identity
	note    string
	current *models.Application
}

// New returns a Tracker that writes to store on behalf of id.
func New(store Store, id Identity) *Tracker {
	return &Tracker{
		store: store,
		id:    id,
		note:  "Auto-applied on " + time.Now().Format("2006-01-02 15:04"),
	}
}

// Current returns the application being filled, or nil.
func (t *Tracker) Current() *models.Application {
	return t.current
}

// StartApplication resolves or creates the company and job, then creates the application.
func (t *Tracker) StartApplication(ctx context.Context, info models.JobInfo) (*models.Application, error) {
	t.current = nil

	company, err := t.resolveCompany(ctx, models.Str(info.Company))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve company: %w", err)
	}

	job, err := t.resolveJob(ctx, company.ID, info)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve job: %w", err)
	}

	app, err := t.store.CreateApplication(ctx, models.Application{
		UserID:       t.id.UserID,
		JobID:        job.ID,
		AISettingsID: t.id.AISettingsID,
		ResumeID:     t.id.ResumeID,
		Status:       models.StatusApplied,
		Notes:        t.note,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	t.current = app
	return app, nil
}

func (t *Tracker) resolveCompany(ctx context.Context, name string) (*models.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Unknown company"
	}

	found, err := t.store.SearchCompanies(ctx, name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	for i := range found {
		if strings.EqualFold(strings.TrimSpace(found[i].Name), name) {
			return &found[i], nil
		}
	}
	return t.store.CreateCompany(ctx, name)
}

func (t *Tracker) resolveJob(ctx context.Context, companyID string, info models.JobInfo) (*models.Job, error) {
	platformID := models.Str(info.PlatformID)
	if platformID != "" {
		job, err := t.store.FindJob(ctx, Platform, platformID)
		if err == nil && job != nil {
			return job, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	title := models.Str(info.Title)
	if title == "" {
		title = "Unknown position"
	}
	return t.store.CreateJob(ctx, models.Job{
		CompanyID:     companyID,
		Platform:      Platform,
		PlatformJobID: platformID,
		Title:         title,
		Location:      models.Str(info.Location),
		JobType:       models.Str(info.JobType),
		RemoteType:    models.Str(info.RemoteType),
		Description:   models.Str(info.Description),
		URL:           models.Str(info.URL),
	})
}

// AddQA appends a record to the current application. Failures are only logged.
func (t *Tracker) AddQA(ctx context.Context, question, answer string, qt models.QuestionType, model string, skipped bool) {
	if t.current == nil {
		return
	}
	err := t.store.AddQA(ctx, models.QARecord{
		ApplicationID: t.current.ID,
		Question:      question,
		Answer:        answer,
		QuestionType:  qt,
		ModelUsed:     model,
		Skipped:       skipped,
	})
	if err != nil {
		log.Printf("  ⚠️ Failed to save answer for %q: %v", question, err)
	}
}

func (t *Tracker) UpdateStatus(ctx context.Context, status models.ApplicationStatus, notes string) error {
	if t.current == nil {
		return nil
	}
	if err := t.store.UpdateApplicationStatus(ctx, t.current.ID, status, notes); err != nil {
		return fmt.Errorf("failed to update application %s: %w", t.current.ID, err)
	}
	t.current.Status = status
	if notes != "" {
		t.current.Notes = notes
	}
	return nil
}

// Finish records the terminal status and releases the handle.
func (t *Tracker) Finish(ctx context.Context, status models.ApplicationStatus, notes string) error {
	defer func() { t.current = nil }()
	return t.UpdateStatus(ctx, status, notes)
}

func (t *Tracker) CompleteApplication(ctx context.Context, success bool) error {
	if success {
		return t.Finish(ctx, models.StatusApplied, "")
	}
	return t.Finish(ctx, models.StatusFailed, "")
}
