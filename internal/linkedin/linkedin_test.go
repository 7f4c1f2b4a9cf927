package linkedin

import (
	"context"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-easyapply-automation/internal/board"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1,234 results", 1234},
		{"1.234 Ergebnisse", 1234},
		{"26 results", 26},
		{"", 0},
		{"No matching jobs found", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCount(tt.in), tt.in)
	}
}

func TestParseJobID(t *testing.T) {
	assert.Equal(t, "4329358250", parseJobID("https://www.linkedin.com/jobs/search/?currentJobId=4329358250&keywords=golang"))
	assert.Equal(t, "123", parseJobID("https://www.linkedin.com/jobs/view/123/?refId=x"))
	assert.Empty(t, parseJobID("https://www.linkedin.com/feed/"))
}

func TestIsSearchURL(t *testing.T) {
	assert.True(t, isSearchURL("https://www.linkedin.com/jobs/search/?keywords=go"))
	assert.True(t, isSearchURL("https://de.linkedin.com/jobs/collections/recommended/"))
	assert.False(t, isSearchURL("https://www.linkedin.com/jobs/view/123"))
	assert.False(t, isSearchURL("https://example.com/jobs/search"))
}

func TestSplitPrimary(t *testing.T) {
	pd := splitPrimary("Berlin, Germany · 2 weeks ago · Over 100 applicants")
	assert.Equal(t, "Berlin, Germany", pd.location)
	assert.Equal(t, "2 weeks ago", pd.posted)
	assert.Equal(t, "Over 100 applicants", pd.applicants)

	pd = splitPrimary("München · Erneut gepostet vor 3 Tagen · 45 Bewerbungen")
	assert.Equal(t, "München", pd.location)
	assert.Equal(t, "45 Bewerbungen", pd.applicants)
}

func TestClassifyInsights(t *testing.T) {
	jt, rt := classifyInsights("Hybrid\nFull-time\nMid-Senior level")
	assert.Equal(t, "Full-time", jt)
	assert.Equal(t, "Hybrid", rt)

	jt, rt = classifyInsights("")
	assert.Empty(t, jt)
	assert.Empty(t, rt)
}

const dialogHTML = `<html><body>
<div role="dialog">
  <form>
    <div class="jobs-easy-apply-form-section__grouping">
      <label for="fn"><span aria-hidden="true">First name</span><span>First name</span></label>
      <input id="fn" type="text" value="Ada">
    </div>
    <div class="jobs-easy-apply-form-section__grouping">
      <label for="yrs">Years of experience with Python</label>
      <input id="yrs" type="text">
    </div>
    <div class="jobs-easy-apply-form-section__grouping">
      <fieldset>
        <legend>Ready to relocate?</legend>
        <input id="r1" type="radio" name="reloc" value="Yes"><label for="r1">Yes</label>
        <input id="r2" type="radio" name="reloc" value="No"><label for="r2">No</label>
      </fieldset>
    </div>
    <div class="jobs-easy-apply-form-section__grouping">
      <label for="cc">Country code</label>
      <select id="cc"><option>Select an option</option><option value="us">+1 (USA)</option><option value="de">+49 (Deutschland)</option></select>
    </div>
    <div class="jobs-easy-apply-form-section__grouping">
      <label><input id="tos" type="checkbox">I agree to the terms</label>
    </div>
  </form>
  <button aria-label="Review your application">Review</button>
  <button disabled>Submit application</button>
</div>
</body></html>`

func setupPage(t *testing.T) playwright.Page {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	pw, err := playwright.Run()
	if err != nil {
		t.Skipf("playwright not installed: %v", err)
	}
	br, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(true)})
	if err != nil {
		_ = pw.Stop()
		t.Skipf("chromium not available: %v", err)
	}
	t.Cleanup(func() {
		_ = br.Close()
		_ = pw.Stop()
	})
	page, err := br.NewPage()
	require.NoError(t, err)
	return page
}

func TestBoard_DialogFieldsAndWriteBack(t *testing.T) {
	page := setupPage(t)
	require.NoError(t, page.SetContent(dialogHTML))
	ctx := context.Background()
	b := New(page, Options{SettleMin: 500 * time.Millisecond, ScreenshotsDir: t.TempDir()})

	assert.True(t, b.DialogOpen(ctx))
	assert.True(t, b.HasButton(ctx, board.Review))
	assert.False(t, b.HasButton(ctx, board.Next))
	assert.False(t, b.HasButton(ctx, board.Submit), "disabled buttons are not offered")
	assert.NoError(t, b.Click(ctx, board.Next), "absent buttons are a no-op")

	fields := b.Fields(ctx)
	require.Len(t, fields, 5)
	assert.Equal(t, "First name", fields[0].Label)
	assert.Equal(t, board.Text, fields[0].Kind)
	assert.Equal(t, "Ready to relocate?", fields[2].Label)
	assert.Equal(t, board.Radio, fields[2].Kind)
	assert.Equal(t, []string{"Yes", "No"}, fields[2].Options)
	assert.Equal(t, board.Select, fields[3].Kind)
	assert.Equal(t, []string{"Select an option", "+1 (USA)", "+49 (Deutschland)"}, fields[3].Options)
	assert.Equal(t, board.Checkbox, fields[4].Kind)

	require.NoError(t, b.Fill(ctx, fields[1], "8"))
	require.NoError(t, b.Fill(ctx, fields[2], "Yes"))
	require.NoError(t, b.Fill(ctx, fields[3], "+49 (Deutschland)"))
	require.NoError(t, b.Fill(ctx, fields[4], "Yes"))
	assert.Error(t, b.Fill(ctx, fields[3], "+33 (France)"))

	val, err := page.Locator("#yrs").InputValue()
	require.NoError(t, err)
	assert.Equal(t, "8", val)
	checked, err := page.Locator("#r1").IsChecked()
	require.NoError(t, err)
	assert.True(t, checked)
	sel, err := page.Locator("#cc").InputValue()
	require.NoError(t, err)
	assert.Equal(t, "de", sel)
	tos, err := page.Locator("#tos").IsChecked()
	require.NoError(t, err)
	assert.True(t, tos)
}

func TestBoard_MissingMarkupIsTolerated(t *testing.T) {
	page := setupPage(t)
	require.NoError(t, page.SetContent(`<html><body><p>nothing here</p></body></html>`))
	ctx := context.Background()
	b := New(page, Options{})

	assert.Zero(t, b.TotalJobs(ctx))
	assert.Zero(t, b.TotalPages(ctx, 0))
	assert.Empty(t, b.ListJobs(ctx))
	assert.False(t, b.HasQuickApply(ctx))
	assert.False(t, b.AlreadyApplied(ctx))
	assert.False(t, b.DialogOpen(ctx))
	assert.Empty(t, b.Fields(ctx))
	assert.False(t, b.NextPage(ctx))
	assert.True(t, b.OnLastPage(ctx))
	assert.False(t, b.OnSearchResults(ctx))

	info := b.JobInfo(ctx)
	assert.Nil(t, info.Title)
	assert.Nil(t, info.Company)
}

const resultsHTML = `<html><body>
<div class="jobs-search-results-list__subtitle"><span>26 results</span></div>
<ul class="scaffold-layout__list">
  <li class="scaffold-layout__list-item" data-occludable-job-id="101"><a class="job-card-container__link" href="#">Go Developer</a></li>
  <li class="scaffold-layout__list-item" data-occludable-job-id="102"><a class="job-card-container__link" href="#">Backend Engineer</a></li>
</ul>
<div class="jobs-search-pagination">
  <button class="jobs-search-pagination__button--next" aria-label="View next page">Next</button>
</div>
<div class="job-details-jobs-unified-top-card__job-title"><h1>Go Developer</h1></div>
<div class="job-details-jobs-unified-top-card__company-name">Acme GmbH</div>
<div class="job-details-jobs-unified-top-card__primary-description-container">Berlin, Germany · 1 week ago · 12 applicants</div>
<button class="jobs-apply-button" aria-label="Easy Apply to Go Developer">Easy Apply</button>
<div style="height: 3000px"></div>
</body></html>`

func TestBoard_ResultsPage(t *testing.T) {
	page := setupPage(t)
	require.NoError(t, page.SetContent(resultsHTML))
	ctx := context.Background()
	b := New(page, Options{})

	total := b.TotalJobs(ctx)
	assert.Equal(t, 26, total)
	assert.Equal(t, 2, b.TotalPages(ctx, total))

	cards := b.ListJobs(ctx)
	require.Len(t, cards, 2)
	assert.Equal(t, "101", cards[0].ID)
	_, err := page.Evaluate("window.scrollTo(0, 0)")
	require.NoError(t, err)
	require.NoError(t, b.OpenJob(ctx, cards[0]))
	scrolled, err := page.Evaluate("window.scrollY")
	require.NoError(t, err)
	assert.Greater(t, toFloat(scrolled), 0.0, "opening a job scrolls through its details")

	assert.True(t, b.HasQuickApply(ctx))
	assert.False(t, b.AlreadyApplied(ctx))
	assert.False(t, b.OnLastPage(ctx))

	info := b.JobInfo(ctx)
	assert.Equal(t, "Go Developer", *info.Title)
	assert.Equal(t, "Acme GmbH", *info.Company)
	assert.Equal(t, "Berlin, Germany", *info.Location)
	assert.Equal(t, "12 applicants", *info.ApplicantCount)
	assert.Equal(t, "101", *info.PlatformID)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func TestBoard_OpenJobStopsWithContext(t *testing.T) {
	page := setupPage(t)
	require.NoError(t, page.SetContent(resultsHTML))
	b := New(page, Options{})
	cards := b.ListJobs(context.Background())
	require.NotEmpty(t, cards)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.OpenJob(ctx, cards[0]), context.Canceled)
}
