// Package form drives one application dialog from the first page to submission.
package form

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go-easyapply-automation/internal/answer"
	"go-easyapply-automation/internal/board"
	"go-easyapply-automation/internal/cancel"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/question"
	"go-easyapply-automation/internal/status"
)

const (
	DefaultDialogTimeout = 3 * time.Minute
	DefaultReviewTimeout = time.Minute
	// DefaultMaxSteps bounds Next clicks for dialogs that refuse to advance.
	DefaultMaxSteps = 20
)

type Answerer interface {
	Answer(ctx context.Context, q string, options []string, probe cancel.Probe) (models.Answer, error)
}

type Tracker interface {
	StartApplication(ctx context.Context, info models.JobInfo) (*models.Application, error)
	AddQA(ctx context.Context, question, answer string, qt models.QuestionType, model string, skipped bool)
	Finish(ctx context.Context, status models.ApplicationStatus, notes string) error
}

type state int

const (
	stateStart state = iota
	stateProcessPage
	stateNavigate
	stateReview
	stateSubmit
	stateFinalised
)

func (s state) String() string {
	return [...]string{"start", "process-page", "navigate", "review", "submit", "finalised"}[s]
}

// Outcome is the terminal result of one application.
type Outcome struct {
	Status   models.ApplicationStatus
	Reason   string
	Answered int
	Skipped  int
	Pages    int
}

// Driver fills one Easy Apply dialog. DialogTimeout bounds the whole dialog,
// ReviewTimeout the review page alone.
type Driver struct {
	Board    board.Board
	Answerer Answerer
	Tracker  Tracker
	Status   status.Emitter

	DialogTimeout time.Duration
	ReviewTimeout time.Duration
	MaxSteps      int
	Now           func() time.Time
}

// NewDriver returns a Driver with the default timeouts and step limit.
func NewDriver(b board.Board, a Answerer, t Tracker, sink status.Sink) *Driver {
	return &Driver{
		Board:         b,
		Answerer:      a,
		Tracker:       t,
		Status:        status.Emitter{Sink: sink},
		DialogTimeout: DefaultDialogTimeout,
		ReviewTimeout: DefaultReviewTimeout,
		MaxSteps:      DefaultMaxSteps,
		Now:           time.Now,
	}
}

// run is the per-application state shared by the state handlers.
type run struct {
	info      models.JobInfo
	session   cancel.Probe
	deadline  cancel.Probe
	processed bool
	steps     int
	out       Outcome
}

// stopReason distinguishes a user stop from an expired deadline once a probe tripped.
func (r *run) stopReason() (models.ApplicationStatus, string) {
	if r.session() {
		return models.StatusStopped, "Stopped by user"
	}
	return models.StatusFailed, "timeout"
}

func (r *run) tripped() bool {
	return r.session() || r.deadline()
}

// Run drives the open dialog until it is submitted, abandoned or cancelled.
func (d *Driver) Run(ctx context.Context, info models.JobInfo, sessionProbe cancel.Probe) Outcome {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	if sessionProbe == nil {
		sessionProbe = cancel.Never
	}
	timeout := d.DialogTimeout
	if timeout <= 0 {
		timeout = DefaultDialogTimeout
	}

	r := &run{
		info:     info,
		session:  sessionProbe,
		deadline: cancel.Deadline(now().Add(timeout), now),
	}

	st := stateStart
	for st != stateFinalised {
		if r.tripped() {
			s, reason := r.stopReason()
			st = d.finalise(ctx, r, s, reason)
			break
		}

		var err error
		next := st
		switch st {
		case stateStart:
			next, err = d.start(ctx, r)
		case stateProcessPage:
			next, err = d.processPage(ctx, r, r.deadline)
		case stateNavigate:
			next, err = d.navigate(ctx, r)
		case stateReview:
			next, err = d.review(ctx, r, now)
		case stateSubmit:
			next, err = d.submit(ctx, r)
		}

		switch {
		case errors.Is(err, cancel.ErrStopped):
			s, reason := r.stopReason()
			next = d.finalise(ctx, r, s, reason)
		case err != nil:
			next = d.finalise(ctx, r, models.StatusFailed, err.Error())
		}
		st = next
	}
	return r.out
}

func (d *Driver) start(ctx context.Context, r *run) (state, error) {
	if _, err := d.Tracker.StartApplication(ctx, r.info); err != nil {
		log.Printf("  ⚠️ Application for %s will not be tracked: %v", models.Str(r.info.Title), err)
	}
	r.processed = false
	return stateProcessPage, nil
}

// processPage answers every field of the current dialog page once.
func (d *Driver) processPage(ctx context.Context, r *run, probe cancel.Probe) (state, error) {
	if r.processed {
		return stateNavigate, nil
	}
	r.out.Pages++
	probe = cancel.Any(r.session, probe)

	for _, f := range d.Board.Fields(ctx) {
		if probe() {
			return stateFinalised, cancel.ErrStopped
		}
		if err := d.processField(ctx, r, f, probe); err != nil {
			if errors.Is(err, cancel.ErrStopped) {
				return stateFinalised, err
			}
			log.Printf("  ⚠️ Field %q failed: %v", f.Label, err)
		}
	}

	r.processed = true
	return stateNavigate, nil
}

func (d *Driver) processField(ctx context.Context, r *run, f board.Field, probe cancel.Probe) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	label := question.CollapseLabel(f.Label)
	if label == "" {
		return nil
	}
	if question.ShouldSkip(label) {
		log.Printf("  ⏭️ Skipping pre-filled field %q", label)
		d.Tracker.AddQA(ctx, label, "", models.TypePersonal, "", true)
		r.out.Skipped++
		return nil
	}

	ans, err := d.Answerer.Answer(ctx, label, f.Options, probe)
	if err != nil {
		return err
	}
	if probe() {
		return cancel.ErrStopped
	}

	if err := d.Board.Fill(ctx, f, ans.Text); err != nil {
		return fmt.Errorf("write back failed: %w", err)
	}

	model := ans.Model
	if model == "" {
		model = string(ans.Source)
	}
	d.Tracker.AddQA(ctx, label, ans.Text, ans.Type, model, false)
	d.Status.Info("Answered %q: %s", label, ans.Text)
	r.out.Answered++
	return nil
}

// navigate prefers Review, then Next, then Submit.
func (d *Driver) navigate(ctx context.Context, r *run) (state, error) {
	switch {
	case d.Board.HasButton(ctx, board.Review):
		return stateReview, nil
	case d.Board.HasButton(ctx, board.Next):
		r.steps++
		maxSteps := d.MaxSteps
		if maxSteps <= 0 {
			maxSteps = DefaultMaxSteps
		}
		if r.steps > maxSteps {
			return stateFinalised, fmt.Errorf("dialog did not advance after %d steps", maxSteps)
		}
		if err := d.click(ctx, r, board.Next); err != nil {
			return stateFinalised, err
		}
		r.processed = false
		return stateProcessPage, nil
	case d.Board.HasButton(ctx, board.Submit):
		return stateSubmit, nil
	default:
		return stateFinalised, errors.New("no navigation button found in the application dialog")
	}
}

// review clicks Review, answers anything new on the review page within its own deadline, then submits.
func (d *Driver) review(ctx context.Context, r *run, now func() time.Time) (state, error) {
	timeout := d.ReviewTimeout
	if timeout <= 0 {
		timeout = DefaultReviewTimeout
	}
	reviewDeadline := cancel.Deadline(now().Add(timeout), now)
	r.deadline = cancel.Any(r.deadline, reviewDeadline)

	if err := d.click(ctx, r, board.Review); err != nil {
		return stateFinalised, err
	}
	d.Status.Info("Reviewing application")

	r.processed = false
	if _, err := d.processPage(ctx, r, r.deadline); err != nil {
		return stateFinalised, err
	}

	if !d.Board.HasButton(ctx, board.Submit) {
		// Review surfaced validation errors or another page; let navigation decide.
		return stateNavigate, nil
	}
	return stateSubmit, nil
}

func (d *Driver) submit(ctx context.Context, r *run) (state, error) {
	if err := d.click(ctx, r, board.Submit); err != nil {
		return stateFinalised, err
	}
	d.Status.Success("Submitted application for %s at %s", models.Str(r.info.Title), models.Str(r.info.Company))

	d.dismiss(ctx)
	return d.finalise(ctx, r, models.StatusApplied, ""), nil
}

func (d *Driver) dismiss(ctx context.Context) {
	for _, b := range []board.Button{board.Dismiss, board.Done} {
		if !d.Board.DialogOpen(ctx) {
			return
		}
		if err := d.Board.Click(ctx, b); err != nil {
			log.Printf("  ⚠️ Could not click %s: %v", b, err)
		}
		_ = d.Board.Settle(ctx)
	}
}

// click presses b, waits for the dialog to settle and checks for cancellation.
func (d *Driver) click(ctx context.Context, r *run, b board.Button) error {
	if r.tripped() {
		return cancel.ErrStopped
	}
	if err := d.Board.Click(ctx, b); err != nil {
		return fmt.Errorf("failed to click %s: %w", b, err)
	}
	if err := d.Board.Settle(ctx); err != nil {
		return err
	}
	if r.tripped() {
		return cancel.ErrStopped
	}
	return nil
}

func (d *Driver) finalise(ctx context.Context, r *run, s models.ApplicationStatus, reason string) state {
	// A user stop always wins over success.
	if s == models.StatusApplied && r.session() {
		s, reason = models.StatusStopped, "Stopped by user"
	}
	r.out.Status = s
	r.out.Reason = reason

	bg := context.WithoutCancel(ctx)
	if s != models.StatusApplied {
		if s == models.StatusFailed {
			if shot, ok := d.Board.(board.Screenshotter); ok {
				if path, err := shot.Screenshot(bg, "failed_"+models.Str(r.info.PlatformID)); err == nil {
					log.Printf("  📸 Saved screenshot %s", path)
				}
			}
			d.Status.Error("Application failed for %s: %s", models.Str(r.info.Title), reason)
		} else {
			d.Status.Info("Application stopped for %s", models.Str(r.info.Title))
		}
		if d.Board.DialogOpen(bg) {
			if err := d.Board.CloseDialog(bg, false); err != nil {
				log.Printf("  ⚠️ Could not close dialog: %v", err)
			}
		}
	}

	if err := d.Tracker.Finish(bg, s, reason); err != nil {
		log.Printf("  ⚠️ %v", err)
	}
	return stateFinalised
}

// Ensure the answerer satisfies the driver's contract.
var _ Answerer = (*answer.Answerer)(nil)
