// Package linkedin implements board.Board against LinkedIn's job search and Easy Apply markup.
package linkedin

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-easyapply-automation/internal/board"
	"go-easyapply-automation/internal/browser"
	"go-easyapply-automation/internal/models"
)

// LinkedIn never serves more than 1000 results.
const maxPages = 40

type Options struct {
	PageSize       int
	SettleMin      time.Duration
	SettleMax      time.Duration
	ScreenshotsDir string
}

// Board drives one LinkedIn page.
type Board struct {
	page     playwright.Page
	pageSize int
	settle   [2]time.Duration
	shots    *browser.ScreenshotDebugger
	openedID string
}

func New(page playwright.Page, opts Options) *Board {
	if opts.PageSize <= 0 {
		opts.PageSize = board.PageSize
	}
	if opts.SettleMin < browser.MinSettle {
		opts.SettleMin = browser.MinSettle
	}
	if opts.SettleMax < opts.SettleMin {
		opts.SettleMax = opts.SettleMin
	}
	return &Board{
		page:     page,
		pageSize: opts.PageSize,
		settle:   [2]time.Duration{opts.SettleMin, opts.SettleMax},
		shots:    browser.NewScreenshotDebugger(opts.ScreenshotsDir),
	}
}

// Goto opens url and waits for the DOM.
func (b *Board) Goto(ctx context.Context, url string) error {
	if _, err := b.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}
	return b.Settle(ctx)
}

// LoggedIn checks for the global navigation bar only shown to members.
func (b *Board) LoggedIn(ctx context.Context) bool {
	_, err := b.page.WaitForSelector(selGlobalNav, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(10000),
	})
	return err == nil
}

func (b *Board) Settle(ctx context.Context) error {
	return browser.Settle(ctx, b.settle[0], b.settle[1])
}

func (b *Board) OnSearchResults(context.Context) bool {
	return isSearchURL(b.page.URL())
}

func (b *Board) TotalJobs(context.Context) int {
	return parseCount(text(b.page.Locator(selResultsSubtitle)))
}

// TotalPages is 0 without results. LinkedIn omits the pagination bar when every
// result fits on one page, so a result list without pagination counts as one page;
// reporting 0 there would end the session before the only page is processed.
func (b *Board) TotalPages(_ context.Context, totalJobs int) int {
	if totalJobs <= 0 {
		return 0
	}
	if count(b.page.Locator(selPagination)) == 0 {
		if count(b.page.Locator(selJobCards)) > 0 {
			return 1
		}
		return 0
	}
	pages := board.PagesFor(totalJobs, b.pageSize)
	if pages > maxPages {
		pages = maxPages
	}
	return pages
}

func (b *Board) ListJobs(ctx context.Context) []board.JobCard {
	b.loadAllCards(ctx)

	items, err := b.page.Locator(selJobCards).All()
	if err != nil {
		log.Printf("  ⚠️ Error finding job cards: %v", err)
		return nil
	}
	cards := make([]board.JobCard, 0, len(items))
	for i, item := range items {
		id, _ := item.GetAttribute("data-occludable-job-id")
		if id == "" {
			if inner := item.Locator("[data-job-id]"); count(inner) > 0 {
				id, _ = inner.First().GetAttribute("data-job-id")
			}
		}
		cards = append(cards, board.JobCard{Index: i, ID: strings.TrimSpace(id), Handle: item})
	}
	return cards
}

// loadAllCards scrolls the virtualised list so every card is rendered.
func (b *Board) loadAllCards(ctx context.Context) {
	list := b.page.Locator(selJobList).First()
	if count(list) == 0 {
		return
	}
	for i := 0; i < 5; i++ {
		if _, err := list.Evaluate(`el => el.scrollBy(0, el.clientHeight)`, nil); err != nil {
			return
		}
		if browser.RandomDelay(ctx, 200*time.Millisecond, 400*time.Millisecond) != nil {
			return
		}
	}
	_, _ = list.Evaluate(`el => el.scrollTo(0, 0)`, nil)
}

func (b *Board) OpenJob(ctx context.Context, card board.JobCard) error {
	item, ok := card.Handle.(playwright.Locator)
	if !ok {
		return fmt.Errorf("job card %d has no locator", card.Index)
	}
	if err := item.ScrollIntoViewIfNeeded(); err != nil {
		return fmt.Errorf("failed to scroll to job card: %w", err)
	}

	target := item
	if link := item.Locator(selCardLink); count(link) > 0 {
		target = link.First()
	}
	if err := target.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(5000)}); err != nil {
		return fmt.Errorf("failed to open job card: %w", err)
	}
	b.openedID = card.ID
	return b.browse(ctx)
}

// browse moves the mouse and scrolls through the job details before anything is clicked.
func (b *Board) browse(ctx context.Context) error {
	if err := browser.MouseJiggle(ctx, b.page); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("  ⚠️ Mouse movement failed: %v", err)
	}
	if err := browser.HumanScroll(ctx, b.page); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("  ⚠️ Could not scroll job details: %v", err)
	}
	return nil
}

func (b *Board) applyButton() playwright.Locator {
	buttons, err := b.page.Locator(selApplyButton).All()
	if err != nil {
		return nil
	}
	for _, btn := range buttons {
		label, _ := btn.InnerText()
		aria, _ := btn.GetAttribute("aria-label")
		if containsAnyFold(label+" "+aria, easyApplyTexts) && visible(btn) {
			return btn
		}
	}
	return nil
}

func (b *Board) HasQuickApply(context.Context) bool {
	btn := b.applyButton()
	return btn != nil && enabled(btn)
}

func (b *Board) AlreadyApplied(context.Context) bool {
	return containsAnyFold(text(b.page.Locator(selAppliedBanner)), appliedTexts)
}

func (b *Board) ClickQuickApply(context.Context) error {
	btn := b.applyButton()
	if btn == nil {
		return fmt.Errorf("easy apply button not found")
	}
	if err := btn.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(5000)}); err != nil {
		return fmt.Errorf("failed to click easy apply: %w", err)
	}
	return nil
}

func (b *Board) JobInfo(context.Context) models.JobInfo {
	if more := b.page.Locator(selDescriptionMore).First(); visible(more) {
		_ = more.Click(playwright.LocatorClickOptions{Force: playwright.Bool(true), Timeout: playwright.Float(2000)})
	}

	pd := splitPrimary(text(b.page.Locator(selPrimary)))
	jobType, remoteType := classifyInsights(text(b.page.Locator(selInsights)))

	url := b.page.URL()
	id := parseJobID(url)
	if id == "" {
		id = b.openedID
	}

	return models.JobInfo{
		PlatformID:     models.Ptr(id),
		Title:          models.Ptr(text(b.page.Locator(selTitle))),
		Company:        models.Ptr(text(b.page.Locator(selCompany))),
		Location:       models.Ptr(pd.location),
		JobType:        models.Ptr(jobType),
		RemoteType:     models.Ptr(remoteType),
		Description:    models.Ptr(text(b.page.Locator(selDescription))),
		ApplicantCount: models.Ptr(pd.applicants),
		PostedDate:     models.Ptr(pd.posted),
		URL:            models.Ptr(url),
	}
}

func (b *Board) dialog() playwright.Locator {
	return b.page.Locator(selDialog)
}

func (b *Board) DialogOpen(context.Context) bool {
	return visible(b.dialog().First())
}

// findButton looks up b by aria-label, then by role and accessible name.
func (b *Board) findButton(btn board.Button) playwright.Locator {
	sel, ok := buttons[btn]
	if !ok {
		return nil
	}
	scope := b.dialog()
	for _, aria := range sel.aria {
		if l := scope.Locator(fmt.Sprintf("button[aria-label=%q]", aria)).First(); visible(l) {
			return l
		}
	}
	for _, t := range sel.texts {
		if l := scope.Locator(fmt.Sprintf("role=button[name=%q]", t)).First(); visible(l) {
			return l
		}
	}
	return nil
}

func (b *Board) HasButton(_ context.Context, btn board.Button) bool {
	l := b.findButton(btn)
	return l != nil && enabled(l)
}

func (b *Board) Click(_ context.Context, btn board.Button) error {
	l := b.findButton(btn)
	if l == nil {
		return nil
	}
	if err := l.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(5000)}); err != nil {
		return fmt.Errorf("failed to click %s: %w", btn, err)
	}
	return nil
}

// CloseDialog dismisses the dialog and answers the save-or-discard prompt.
func (b *Board) CloseDialog(ctx context.Context, save bool) error {
	if err := b.Click(ctx, board.Close); err != nil {
		return err
	}
	if err := browser.Settle(ctx, browser.MinSettle, browser.MinSettle); err != nil {
		return err
	}
	confirm := selDiscardConfirm
	if save {
		confirm = selSaveConfirm
	}
	if l := b.page.Locator(confirm).First(); visible(l) {
		if err := l.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(5000)}); err != nil {
			return fmt.Errorf("failed to confirm closing the dialog: %w", err)
		}
	}
	return nil
}

func (b *Board) NextPage(context.Context) bool {
	next := b.nextPageControl()
	if next == nil || !enabled(next) {
		return false
	}
	if err := next.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(5000)}); err != nil {
		log.Printf("  ⚠️ Failed to click next page: %v", err)
		return false
	}
	return true
}

func (b *Board) OnLastPage(context.Context) bool {
	next := b.nextPageControl()
	return next == nil || !enabled(next)
}

func (b *Board) nextPageControl() playwright.Locator {
	for _, sel := range []string{selNextPage, selNextIndicator} {
		if l := b.page.Locator(sel).First(); count(l) > 0 {
			return l
		}
	}
	return nil
}

func (b *Board) Screenshot(_ context.Context, name string) (string, error) {
	return b.shots.Capture(b.page, name)
}

func count(l playwright.Locator) int {
	n, err := l.Count()
	if err != nil {
		return 0
	}
	return n
}

func visible(l playwright.Locator) bool {
	ok, err := l.IsVisible()
	return err == nil && ok
}

func enabled(l playwright.Locator) bool {
	ok, err := l.IsEnabled(playwright.LocatorIsEnabledOptions{Timeout: playwright.Float(1000)})
	return err == nil && ok
}

// text returns the trimmed inner text of the first match, or "".
func text(l playwright.Locator) string {
	if count(l) == 0 {
		return ""
	}
	s, err := l.First().InnerText(playwright.LocatorInnerTextOptions{Timeout: playwright.Float(2000)})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func containsAnyFold(s string, needles []string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

var _ board.Board = (*Board)(nil)
var _ board.Screenshotter = (*Board)(nil)
