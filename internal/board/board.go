// Package board is the contract between the engine and the job board's DOM.
// Every accessor tolerates missing markup: it returns a zero value instead of failing.
package board

import (
	"context"

	"go-easyapply-automation/internal/models"
)

// PageSize is how many jobs the board lists per result page.
const PageSize = 25

type Button int

const (
	Next Button = iota
	Previous
	Review
	Submit
	Dismiss
	Done
	Close
)

func (b Button) String() string {
	switch b {
	case Next:
		return "next"
	case Previous:
		return "previous"
	case Review:
		return "review"
	case Submit:
		return "submit"
	case Dismiss:
		return "dismiss"
	case Done:
		return "done"
	case Close:
		return "close"
	default:
		return "unknown"
	}
}

type FieldKind string

const (
	Text     FieldKind = "text"
	Tel      FieldKind = "tel"
	Email    FieldKind = "email"
	Textarea FieldKind = "textarea"
	Radio    FieldKind = "radio"
	Select   FieldKind = "select"
	Checkbox FieldKind = "checkbox"
)

// IsChoice reports whether the field restricts answers to its options.
func (k FieldKind) IsChoice() bool {
	return k == Radio || k == Select
}

// Field is one labelled input of the application dialog. Handle is adapter specific.
type Field struct {
	Label   string
	Kind    FieldKind
	Options []string
	Handle  any
}

// JobCard is an entry of the result list. Handle is adapter specific.
type JobCard struct {
	Index  int
	ID     string
	Handle any
}

// Board is everything the engine needs from a job board page.
type Board interface {
	// OnSearchResults reports whether the current page is a job search result list.
	OnSearchResults(ctx context.Context) bool
	TotalJobs(ctx context.Context) int
	TotalPages(ctx context.Context, totalJobs int) int
	ListJobs(ctx context.Context) []JobCard
	OpenJob(ctx context.Context, card JobCard) error
	AlreadyApplied(ctx context.Context) bool
	HasQuickApply(ctx context.Context) bool
	ClickQuickApply(ctx context.Context) error
	JobInfo(ctx context.Context) models.JobInfo

	DialogOpen(ctx context.Context) bool
	HasButton(ctx context.Context, b Button) bool
	// Click is a no-op when the button is absent.
	Click(ctx context.Context, b Button) error
	CloseDialog(ctx context.Context, save bool) error
	Fields(ctx context.Context) []Field
	Fill(ctx context.Context, f Field, value string) error

	// NextPage returns false when the next page control is absent or disabled.
	NextPage(ctx context.Context) bool
	// OnLastPage reports whether the next page control is absent or disabled.
	OnLastPage(ctx context.Context) bool

	// Settle waits for the page to stop mutating. Returns ctx.Err() if cancelled.
	Settle(ctx context.Context) error
}

// Screenshotter is implemented by boards that can capture the page for debugging.
type Screenshotter interface {
	Screenshot(ctx context.Context, name string) (string, error)
}

// PagesFor is ceil(totalJobs / pageSize).
func PagesFor(totalJobs, pageSize int) int {
	if totalJobs <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalJobs + pageSize - 1) / pageSize
}
