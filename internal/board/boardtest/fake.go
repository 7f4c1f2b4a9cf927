// Package boardtest provides an in-memory board.Board for engine tests.
package boardtest

import (
	"context"
	"fmt"
	"sync"

	"go-easyapply-automation/internal/board"
	"go-easyapply-automation/internal/models"
)

// Step is one page of an application dialog.
type Step struct {
	Fields  []board.Field
	Buttons []board.Button
}

type Job struct {
	ID           string
	Title        string
	Company      string
	Applied      bool
	NoQuickApply bool
	Steps        []Step
}

type Fill struct {
	JobID string
	Label string
	Value string
}

// Fake walks Pages of Jobs. Clicking Next or Review advances one Step;
// Submit replaces the dialog with a confirmation that only offers Dismiss and Done.
type Fake struct {
	mu sync.Mutex

	NotSearchPage bool
	Total         int
	Pages         [][]Job
	// NextPageBroken makes pagination fail while the control still looks enabled.
	NextPageBroken bool
	FillErr        map[string]error

	OnFill  func(label, value string)
	OnClick func(b board.Button)

	page      int
	job       *Job
	step      int
	open      bool
	submitted bool

	Opened        []string
	Fills         []Fill
	Clicks        []board.Button
	Submitted     []string
	Closed        []string
	PageRequests  int
	Screenshots   []string
	FieldsQueried int
}

func (f *Fake) OnSearchResults(context.Context) bool {
	return !f.NotSearchPage
}

func (f *Fake) TotalJobs(context.Context) int {
	return f.Total
}

func (f *Fake) TotalPages(_ context.Context, totalJobs int) int {
	return board.PagesFor(totalJobs, board.PageSize)
}

func (f *Fake) ListJobs(context.Context) []board.JobCard {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.page >= len(f.Pages) {
		return nil
	}
	cards := make([]board.JobCard, 0, len(f.Pages[f.page]))
	for i := range f.Pages[f.page] {
		j := &f.Pages[f.page][i]
		cards = append(cards, board.JobCard{Index: i, ID: j.ID, Handle: j})
	}
	return cards
}

func (f *Fake) OpenJob(_ context.Context, card board.JobCard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := card.Handle.(*Job)
	if !ok {
		return fmt.Errorf("unknown card %v", card.Handle)
	}
	f.job = j
	f.Opened = append(f.Opened, j.ID)
	return nil
}

func (f *Fake) AlreadyApplied(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.job != nil && f.job.Applied
}

func (f *Fake) HasQuickApply(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.job != nil && !f.job.NoQuickApply && !f.job.Applied
}

func (f *Fake) ClickQuickApply(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.job == nil {
		return fmt.Errorf("no job opened")
	}
	f.open = true
	f.step = 0
	f.submitted = false
	return nil
}

func (f *Fake) JobInfo(context.Context) models.JobInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.job == nil {
		return models.JobInfo{}
	}
	return models.JobInfo{
		PlatformID: models.Ptr(f.job.ID),
		Title:      models.Ptr(f.job.Title),
		Company:    models.Ptr(f.job.Company),
		URL:        models.Ptr("https://www.linkedin.com/jobs/view/" + f.job.ID),
	}
}

func (f *Fake) DialogOpen(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *Fake) buttons() []board.Button {
	if !f.open {
		return nil
	}
	if f.submitted {
		return []board.Button{board.Dismiss, board.Done}
	}
	if f.job == nil || f.step >= len(f.job.Steps) {
		return nil
	}
	return f.job.Steps[f.step].Buttons
}

func (f *Fake) HasButton(_ context.Context, b board.Button) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, have := range f.buttons() {
		if have == b {
			return true
		}
	}
	return false
}

func (f *Fake) Click(_ context.Context, b board.Button) error {
	f.mu.Lock()
	present := false
	for _, have := range f.buttons() {
		if have == b {
			present = true
		}
	}
	if present {
		f.Clicks = append(f.Clicks, b)
		switch b {
		case board.Next, board.Review:
			f.step++
		case board.Previous:
			if f.step > 0 {
				f.step--
			}
		case board.Submit:
			f.submitted = true
			f.Submitted = append(f.Submitted, f.job.ID)
		case board.Dismiss, board.Done, board.Close:
			f.open = false
		}
	}
	hook := f.OnClick
	f.mu.Unlock()

	if present && hook != nil {
		hook(b)
	}
	return nil
}

func (f *Fake) CloseDialog(context.Context, bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.open && f.job != nil {
		f.Closed = append(f.Closed, f.job.ID)
	}
	f.open = false
	return nil
}

func (f *Fake) Fields(context.Context) []board.Field {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FieldsQueried++
	if !f.open || f.submitted || f.job == nil || f.step >= len(f.job.Steps) {
		return nil
	}
	return f.job.Steps[f.step].Fields
}

func (f *Fake) Fill(_ context.Context, field board.Field, value string) error {
	f.mu.Lock()
	if err := f.FillErr[field.Label]; err != nil {
		f.mu.Unlock()
		return err
	}
	id := ""
	if f.job != nil {
		id = f.job.ID
	}
	f.Fills = append(f.Fills, Fill{JobID: id, Label: field.Label, Value: value})
	hook := f.OnFill
	f.mu.Unlock()

	if hook != nil {
		hook(field.Label, value)
	}
	return nil
}

func (f *Fake) NextPage(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PageRequests++
	if f.NextPageBroken || f.page+1 >= len(f.Pages) {
		return false
	}
	f.page++
	return true
}

func (f *Fake) OnLastPage(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.NextPageBroken {
		return false
	}
	return f.page+1 >= len(f.Pages)
}

func (f *Fake) Settle(ctx context.Context) error {
	return ctx.Err()
}

func (f *Fake) Screenshot(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Screenshots = append(f.Screenshots, name)
	return name + ".png", nil
}

// FilledValues maps label to the last value written for job id.
func (f *Fake) FilledValues(id string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for _, fl := range f.Fills {
		if fl.JobID == id {
			out[fl.Label] = fl.Value
		}
	}
	return out
}

var _ board.Board = (*Fake)(nil)
var _ board.Screenshotter = (*Fake)(nil)
