// Package session runs the auto-apply loop over every page of the search results.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go-easyapply-automation/internal/board"
	"go-easyapply-automation/internal/cancel"
	"go-easyapply-automation/internal/form"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/status"
)

var (
	ErrNotSearchPage    = errors.New("not on a job search results page")
	ErrPaginationFailed = errors.New("could not advance to the next results page")
)

// Applier drives one opened application dialog.
type Applier interface {
	Run(ctx context.Context, info models.JobInfo, probe cancel.Probe) form.Outcome
}

// JobContext persists the job being applied to, so a restarted UI can show it. nil clears it.
type JobContext interface {
	SetCurrentJob(ctx context.Context, info *models.JobInfo) error
}

// Controller walks the search results page by page and applies to each Easy Apply job.
type Controller struct {
	Board   board.Board
	Applier Applier
	Sink    status.Sink
	Jobs    JobContext
}

func NewController(b board.Board, a Applier, sink status.Sink, jobs JobContext) *Controller {
	if sink == nil {
		sink = status.Discard
	}
	return &Controller{Board: b, Applier: a, Sink: sink, Jobs: jobs}
}

type loop struct {
	probe   cancel.Probe
	em      status.Emitter
	sum     status.Summary
	stopped bool
}

func (l *loop) cancelled(ctx context.Context) bool {
	if l.stopped {
		return true
	}
	if l.probe() || ctx.Err() != nil {
		l.stopped = true
	}
	return l.stopped
}

// Run walks every results page. The summary is always delivered to the sink,
// also when the session is stopped or fails.
func (c *Controller) Run(ctx context.Context, probe cancel.Probe) (status.Summary, error) {
	if probe == nil {
		probe = cancel.Never
	}
	l := &loop{probe: probe, em: status.Emitter{Sink: c.Sink}}

	err := c.run(ctx, l)
	switch {
	case l.stopped:
		l.sum.Reason = "stopped"
		l.em.Info("Auto-apply stopped")
	case err != nil:
		l.sum.Reason = err.Error()
	default:
		l.sum.Completed = true
		l.em.Success("Auto-apply finished: %s", l.sum)
	}
	c.Sink.Complete(l.sum)
	log.Printf("🏁 Session ended: %s", l.sum)
	return l.sum, err
}

func (c *Controller) run(ctx context.Context, l *loop) error {
	if !c.Board.OnSearchResults(ctx) {
		l.em.Error("Please open a LinkedIn job search results page before starting")
		return ErrNotSearchPage
	}

	l.sum.TotalJobs = c.Board.TotalJobs(ctx)
	l.sum.TotalPages = c.Board.TotalPages(ctx, l.sum.TotalJobs)
	l.em.Info("Found %d jobs on %d pages", l.sum.TotalJobs, l.sum.TotalPages)

	for page := 1; page <= l.sum.TotalPages; page++ {
		if l.cancelled(ctx) {
			return nil
		}
		log.Printf("📄 Page %d/%d", page, l.sum.TotalPages)
		l.em.Info("Processing page %d of %d", page, l.sum.TotalPages)

		cards := c.Board.ListJobs(ctx)
		if len(cards) == 0 {
			log.Printf("  ⚠️ No jobs found on page %d", page)
		}
		for _, card := range cards {
			if l.cancelled(ctx) {
				c.clearJob(ctx)
				return nil
			}
			if err := c.processJob(ctx, l, card); err != nil {
				log.Printf("  ❌ Job %s: %v", card.ID, err)
				l.sum.Errors++
				l.em.Error("Error processing job. Continuing to next one.")
			}
			if l.stopped {
				c.clearJob(ctx)
				return nil
			}
			_ = c.Board.Settle(ctx)
		}
		c.clearJob(ctx)

		if l.cancelled(ctx) {
			return nil
		}
		if page < l.sum.TotalPages {
			if !c.Board.NextPage(ctx) {
				if c.Board.OnLastPage(ctx) {
					log.Printf("  ℹ️ Page %d is the last page", page)
					return nil
				}
				l.em.Error("Could not go to page %d. Stopping.", page+1)
				return ErrPaginationFailed
			}
			if err := c.Board.Settle(ctx); err != nil {
				return nil
			}
		}
	}
	return nil
}

// processJob is the per-job isolation boundary: panics become errors.
func (c *Controller) processJob(ctx context.Context, l *loop, card board.JobCard) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if err := c.Board.OpenJob(ctx, card); err != nil {
		log.Printf("  ⚠️ Could not open job %s: %v", card.ID, err)
		return nil
	}
	if err := c.Board.Settle(ctx); err != nil {
		l.stopped = true
		return nil
	}

	if c.Board.AlreadyApplied(ctx) {
		log.Printf("  ⏭️ Already applied to job %s", card.ID)
		l.sum.Skipped++
		return nil
	}
	if !c.Board.HasQuickApply(ctx) {
		log.Printf("  ⏭️ Job %s has no Easy Apply", card.ID)
		l.sum.Skipped++
		return nil
	}

	info := c.Board.JobInfo(ctx)
	if c.Jobs != nil {
		if err := c.Jobs.SetCurrentJob(ctx, &info); err != nil {
			log.Printf("  ⚠️ Could not persist current job: %v", err)
		}
	}
	l.em.Info("Applying to %s at %s", models.Str(info.Title), models.Str(info.Company))

	if err := c.Board.ClickQuickApply(ctx); err != nil {
		return fmt.Errorf("failed to open Easy Apply: %w", err)
	}
	if err := c.Board.Settle(ctx); err != nil {
		l.stopped = true
		return nil
	}
	if !c.Board.DialogOpen(ctx) {
		return errors.New("Easy Apply dialog did not open")
	}
	if l.cancelled(ctx) {
		_ = c.Board.CloseDialog(context.WithoutCancel(ctx), false)
		return nil
	}

	out := c.Applier.Run(ctx, info, l.probe)
	switch out.Status {
	case models.StatusApplied:
		l.sum.Applied++
	case models.StatusFailed:
		l.sum.Failed++
	case models.StatusStopped:
		l.sum.Stopped++
		l.stopped = true
	}
	return nil
}

func (c *Controller) clearJob(ctx context.Context) {
	if c.Jobs == nil {
		return
	}
	if err := c.Jobs.SetCurrentJob(context.WithoutCancel(ctx), nil); err != nil {
		log.Printf("  ⚠️ Could not clear current job: %v", err)
	}
}
