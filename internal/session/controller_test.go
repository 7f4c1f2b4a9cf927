package session

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-easyapply-automation/internal/answer"
	"go-easyapply-automation/internal/board"
	"go-easyapply-automation/internal/board/boardtest"
	"go-easyapply-automation/internal/cancel"
	"go-easyapply-automation/internal/form"
	"go-easyapply-automation/internal/llm"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/resume"
	"go-easyapply-automation/internal/status"
	"go-easyapply-automation/internal/tracker"
)

type scriptedProvider struct {
	reply string
	block bool
}

func (p scriptedProvider) Name() string { return "scripted" }

func (p scriptedProvider) Complete(ctx context.Context, _ llm.Request) (*llm.Completion, error) {
	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &llm.Completion{Text: p.reply}, nil
}

func (p scriptedProvider) Test(context.Context) (string, error)         { return "ok", nil }
func (p scriptedProvider) ListModels(context.Context) ([]string, error) { return nil, nil }

type memJobs struct {
	history []*models.JobInfo
}

func (m *memJobs) SetCurrentJob(_ context.Context, info *models.JobInfo) error {
	m.history = append(m.history, info)
	return nil
}

type harness struct {
	fake  *boardtest.Fake
	store *tracker.MemoryStore
	rec   *status.Recorder
	jobs  *memJobs
	ctrl  *Controller
}

func newHarness(fake *boardtest.Fake, p llm.Provider) *harness {
	rc := resume.New(map[string]any{
		"name": "Ada",
		"skills": map[string]any{
			"python": map[string]any{"experience_years": 8},
		},
		"personal": map[string]any{"relocate": "Yes"},
	}, "")

	gw := llm.NewGateway(p, models.AISettings{Model: "qwen2.5:3b"})
	gw.PollInterval = 10 * time.Millisecond

	store := tracker.NewMemoryStore()
	rec := &status.Recorder{}
	driver := form.NewDriver(fake, answer.New(gw, rc, nil, ""), tracker.New(store, tracker.Identity{UserID: "u1"}), rec)
	jobs := &memJobs{}

	return &harness{
		fake:  fake,
		store: store,
		rec:   rec,
		jobs:  jobs,
		ctrl:  NewController(fake, driver, rec, jobs),
	}
}

func scenarioJob(id string) boardtest.Job {
	return boardtest.Job{
		ID: id, Title: "Backend Engineer", Company: "Acme",
		Steps: []boardtest.Step{
			{
				Fields: []board.Field{
					{Label: "First Name", Kind: board.Text},
					{Label: "Years of experience with Python", Kind: board.Text},
					{Label: "Ready to relocate?", Kind: board.Radio, Options: []string{"Yes", "No"}},
				},
				Buttons: []board.Button{board.Review},
			},
			{Buttons: []board.Button{board.Submit}},
		},
	}
}

func TestRun_HappyPathOneJob(t *testing.T) {
	fake := &boardtest.Fake{Total: 1, Pages: [][]boardtest.Job{{scenarioJob("100")}}}
	h := newHarness(fake, scriptedProvider{reply: "Yes"})

	sum, err := h.ctrl.Run(context.Background(), cancel.Never)
	require.NoError(t, err)

	assert.True(t, sum.Completed)
	assert.Equal(t, 1, sum.Applied)
	assert.Equal(t, map[string]string{
		"Years of experience with Python": "8",
		"Ready to relocate?":              "Yes",
	}, fake.FilledValues("100"))

	apps, qa := h.store.Snapshot()
	require.Len(t, apps, 1)
	assert.Equal(t, models.StatusApplied, apps[0].Status)
	require.Len(t, qa, 3)
	assert.Equal(t, []models.QuestionType{models.TypePersonal, models.TypeExperience, models.TypeGeneral},
		[]models.QuestionType{qa[0].QuestionType, qa[1].QuestionType, qa[2].QuestionType})
	assert.True(t, qa[0].Skipped)

	got, ok := h.rec.Summary()
	require.True(t, ok)
	assert.True(t, got.Completed)
	require.NotEmpty(t, h.jobs.history)
	assert.Nil(t, h.jobs.history[len(h.jobs.history)-1])
}

func TestRun_CancelledMidLLM(t *testing.T) {
	job := boardtest.Job{
		ID: "1", Title: "Dev", Company: "Acme",
		Steps: []boardtest.Step{
			{Fields: []board.Field{{Label: "Why do you want this job?", Kind: board.Textarea}}, Buttons: []board.Button{board.Submit}},
		},
	}
	second := job
	second.ID = "2"
	fake := &boardtest.Fake{Total: 2, Pages: [][]boardtest.Job{{job, second}}}
	h := newHarness(fake, scriptedProvider{block: true})

	tok := cancel.NewToken()
	time.AfterFunc(50*time.Millisecond, func() { tok.Cancel("user") })

	start := time.Now()
	sum, err := h.ctrl.Run(context.Background(), tok.Probe())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.False(t, sum.Completed)
	assert.Equal(t, 1, sum.Stopped)
	assert.Equal(t, []string{"1"}, fake.Opened)
	assert.Empty(t, fake.Submitted)

	apps, _ := h.store.Snapshot()
	require.Len(t, apps, 1)
	assert.Equal(t, models.StatusStopped, apps[0].Status)
}

func TestRun_PaginationEndsAfterLastPage(t *testing.T) {
	page1 := make([]boardtest.Job, 0, 25)
	for i := 0; i < 25; i++ {
		page1 = append(page1, boardtest.Job{ID: strconv.Itoa(i), Applied: true})
	}
	fake := &boardtest.Fake{Total: 26, Pages: [][]boardtest.Job{page1, {{ID: "25", NoQuickApply: true}}}}
	h := newHarness(fake, scriptedProvider{reply: "Yes"})

	sum, err := h.ctrl.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.TotalPages)
	assert.Equal(t, 1, fake.PageRequests)
	assert.Equal(t, 26, sum.Skipped)
	assert.True(t, sum.Completed)
	apps, _ := h.store.Snapshot()
	assert.Empty(t, apps)
}

func TestRun_Boundaries(t *testing.T) {
	t.Run("no pages completes immediately", func(t *testing.T) {
		fake := &boardtest.Fake{Total: 0}
		h := newHarness(fake, scriptedProvider{})

		sum, err := h.ctrl.Run(context.Background(), nil)
		require.NoError(t, err)
		assert.True(t, sum.Completed)
		assert.Zero(t, fake.PageRequests)
		_, ok := h.rec.Summary()
		assert.True(t, ok)
	})

	t.Run("empty page moves on to pagination", func(t *testing.T) {
		fake := &boardtest.Fake{Total: 30, Pages: [][]boardtest.Job{{}, {{ID: "x", Applied: true}}}}
		h := newHarness(fake, scriptedProvider{})

		sum, err := h.ctrl.Run(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, 1, fake.PageRequests)
		assert.Equal(t, []string{"x"}, fake.Opened)
		assert.True(t, sum.Completed)
	})

	t.Run("disabled next page is completion", func(t *testing.T) {
		fake := &boardtest.Fake{Total: 60, Pages: [][]boardtest.Job{{}}}
		h := newHarness(fake, scriptedProvider{})

		sum, err := h.ctrl.Run(context.Background(), nil)
		require.NoError(t, err)
		assert.True(t, sum.Completed)
	})

	t.Run("enabled next page that fails is an error", func(t *testing.T) {
		fake := &boardtest.Fake{Total: 60, Pages: [][]boardtest.Job{{}, {}}, NextPageBroken: true}
		h := newHarness(fake, scriptedProvider{})

		sum, err := h.ctrl.Run(context.Background(), nil)
		assert.ErrorIs(t, err, ErrPaginationFailed)
		assert.False(t, sum.Completed)
		assert.Equal(t, 1, fake.PageRequests)
	})

	t.Run("not a search page", func(t *testing.T) {
		fake := &boardtest.Fake{NotSearchPage: true}
		h := newHarness(fake, scriptedProvider{})

		_, err := h.ctrl.Run(context.Background(), nil)
		assert.ErrorIs(t, err, ErrNotSearchPage)
		events := h.rec.Events()
		require.NotEmpty(t, events)
		assert.Equal(t, status.Error, events[0].Severity)
	})
}

type panickyBoard struct {
	*boardtest.Fake
}

func (p panickyBoard) JobInfo(ctx context.Context) models.JobInfo {
	info := p.Fake.JobInfo(ctx)
	if models.Str(info.PlatformID) == "boom" {
		panic("stale element")
	}
	return info
}

func TestRun_JobErrorsAreIsolated(t *testing.T) {
	fake := &boardtest.Fake{Total: 2, Pages: [][]boardtest.Job{{{ID: "boom"}, scenarioJob("ok")}}}
	h := newHarness(fake, scriptedProvider{reply: "Yes"})
	h.ctrl.Board = panickyBoard{fake}

	sum, err := h.ctrl.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, 1, sum.Applied)
	assert.Contains(t, h.rec.Texts(), "Error processing job. Continuing to next one.")
}
