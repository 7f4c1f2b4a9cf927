package answer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-easyapply-automation/internal/cancel"
	"go-easyapply-automation/internal/llm"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/resume"
)

type fakeGateway struct {
	text  string
	err   error
	calls int
	last  llm.Request
}

func (f *fakeGateway) CallCancellable(_ context.Context, req llm.Request, probe cancel.Probe) (*llm.Completion, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Completion{Text: f.text, Model: "qwen2.5:3b"}, nil
}

func (f *fakeGateway) Model() string { return "qwen2.5:3b" }

type fakeData struct {
	data map[string]any
	err  error
}

func (f fakeData) RelevantData(context.Context, string, models.QuestionType) (map[string]any, error) {
	return f.data, f.err
}

func testResume() *resume.Context {
	return resume.New(map[string]any{
		"personal": map[string]any{
			"name":     "Ada Lovelace",
			"country":  "Germany",
			"relocate": "Yes",
		},
		"skills": map[string]any{
			"python": map[string]any{"experience_years": 8},
		},
	}, "")
}

func fixedClock() time.Time {
	return time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
}

func TestAnswer_ExperienceIsClamped(t *testing.T) {
	gw := &fakeGateway{text: "3"}
	a := New(gw, testResume(), nil, "")

	ans, err := a.Answer(context.Background(), "How many years of experience with Rust?", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "5", ans.Text)
	assert.Equal(t, models.SourceLLM, ans.Source)
	assert.Equal(t, models.TypeExperience, ans.Type)
	assert.Equal(t, 1, gw.calls)
	assert.Contains(t, gw.last.Prompt, "at least 5")
}

func TestAnswer_DirectExperienceSkipsLLM(t *testing.T) {
	gw := &fakeGateway{text: "1"}
	a := New(gw, testResume(), nil, "")

	ans, err := a.Answer(context.Background(), "Years of experience with Python", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "8", ans.Text)
	assert.Equal(t, models.SourceDirect, ans.Source)
	assert.Zero(t, gw.calls)
}

func TestAnswer_ExperienceNeverGetsContactData(t *testing.T) {
	rc := resume.New(map[string]any{
		"personal": map[string]any{"name": "Ada Lovelace", "phone": "+49 151 2345678"},
	}, "")

	for _, q := range []string{
		"How many years of smartphone app development experience do you have?",
		"Wie viele Jahre Erfahrung haben Sie im telefonischen Kundenservice?",
	} {
		gw := &fakeGateway{text: "2"}
		ans, err := New(gw, rc, nil, "").Answer(context.Background(), q, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, models.TypeExperience, ans.Type, q)
		assert.Equal(t, "5", ans.Text, q)
		assert.Equal(t, models.SourceLLM, ans.Source, q)
		assert.Equal(t, 1, gw.calls, q)
	}
}

func TestAnswer_CountryCodeSnapsToSynonym(t *testing.T) {
	gw := &fakeGateway{}
	a := New(gw, testResume(), nil, "")

	ans, err := a.Answer(context.Background(), "Country code?", []string{"+1 (USA)", "+49 (Deutschland)", "+44 (UK)"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "+49 (Deutschland)", ans.Text)
	assert.Zero(t, gw.calls)
}

func TestAnswer_StartDate(t *testing.T) {
	a := New(&fakeGateway{}, testResume(), nil, "")
	a.Resolver.Now = fixedClock

	ans, err := a.Answer(context.Background(), "Earliest start date?", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "15.03.2025", ans.Text)
	assert.Equal(t, models.TypeNotice, ans.Type)
	assert.Equal(t, models.SourceRule, ans.Source)
}

func TestAnswer_PrefersStoredData(t *testing.T) {
	data := fakeData{data: map[string]any{"personal": map[string]any{"country": "Austria"}}}
	a := New(&fakeGateway{}, testResume(), data, "resume-1")

	ans, err := a.Answer(context.Background(), "Country code?", []string{"+43", "+49"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "+43", ans.Text)
}

func TestAnswer_StoredDataErrorFallsBackToResume(t *testing.T) {
	data := fakeData{err: errors.New("service down")}
	a := New(&fakeGateway{}, testResume(), data, "resume-1")

	ans, err := a.Answer(context.Background(), "Country code?", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Germany", ans.Text)
}

func TestAnswer_Fallbacks(t *testing.T) {
	tests := []struct {
		name    string
		options []string
		want    string
	}{
		{"second option", []string{"Select an option", "Yes", "No"}, "Yes"},
		{"single option", []string{"Only"}, "Only"},
		{"no options", nil, NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(&fakeGateway{err: errors.New("connection refused")}, testResume(), nil, "")

			ans, err := a.Answer(context.Background(), "Ready to relocate?", tt.options, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ans.Text)
			assert.Equal(t, models.SourceFallback, ans.Source)
		})
	}
}

func TestAnswer_EmptyCompletionFallsBack(t *testing.T) {
	a := New(&fakeGateway{text: "```\n```"}, testResume(), nil, "")

	ans, err := a.Answer(context.Background(), "Ready to relocate?", []string{"Yes", "No"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "No", ans.Text)
	assert.Equal(t, models.SourceFallback, ans.Source)
}

func TestAnswer_StoppedBeforeLLM(t *testing.T) {
	gw := &fakeGateway{text: "Yes"}
	a := New(gw, testResume(), nil, "")

	_, err := a.Answer(context.Background(), "Ready to relocate?", nil, func() bool { return true })
	assert.ErrorIs(t, err, cancel.ErrStopped)
	assert.Zero(t, gw.calls)
}

type blockingProvider struct{}

func (blockingProvider) Name() string { return "blocking" }
func (blockingProvider) Complete(ctx context.Context, _ llm.Request) (*llm.Completion, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (blockingProvider) Test(context.Context) (string, error)         { return "", nil }
func (blockingProvider) ListModels(context.Context) ([]string, error) { return nil, nil }

func TestAnswer_CancelledMidLLM(t *testing.T) {
	gw := llm.NewGateway(blockingProvider{}, models.AISettings{Model: "m"})
	a := New(gw, testResume(), nil, "")

	tok := cancel.NewToken()
	time.AfterFunc(50*time.Millisecond, func() { tok.Cancel("user") })

	start := time.Now()
	_, err := a.Answer(context.Background(), "Ready to relocate?", []string{"Yes", "No"}, tok.Probe())
	assert.ErrorIs(t, err, cancel.ErrStopped)
	assert.Less(t, time.Since(start), 50*time.Millisecond+600*time.Millisecond)
}

func TestAnswer_LLMAnswerSnapped(t *testing.T) {
	gw := &fakeGateway{text: "\"yes\""}
	a := New(gw, testResume(), nil, "")

	ans, err := a.Answer(context.Background(), "Ready to relocate?", []string{"Yes", "No"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Yes", ans.Text)
	assert.Equal(t, "qwen2.5:3b", ans.Model)
	assert.Contains(t, gw.last.Prompt, "- Yes\n- No")
	assert.Contains(t, gw.last.Prompt, "RELOCATE: Yes")
}

func TestSnap(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		options []string
		qt      models.QuestionType
		q       string
		want    string
	}{
		{"decimal inside option", "3.5", []string{"2.0", "3.5 GPA", "4.0"}, models.TypeDecimal, "GPA?", "3.5 GPA"},
		{"decimal kept when no option has it", "3.7", []string{"3.5", "4.0"}, models.TypeDecimal, "GPA?", "3.7"},
		{"integer inside option", "5", []string{"1-2", "3-4", "5+"}, models.TypeExperience, "Years?", "5+"},
		{"integer not matched on digit run", "5", []string{"15", "50"}, models.TypeExperience, "Years?", "5"},
		{"integer on non numeric question falls through", "7", []string{"A", "B"}, models.TypeGeneral, "Pick", "B"},
		{"notice phrase", "2 months", []string{"1 month", "2 months", "3 months"}, models.TypeNotice, "Notice period?", "2 months"},
		{"start date substring", "15.03.2025", []string{"Immediately", "From 15.03.2025"}, models.TypeStartDate, "When can you start?", "From 15.03.2025"},
		{"exact case insensitive", "no", []string{"Yes", "No"}, models.TypeGeneral, "Relocate?", "No"},
		{"substring answer in option", "Bachelor", []string{"High school", "Bachelor's degree"}, models.TypeDegree, "Degree?", "Bachelor's degree"},
		{"substring option in answer", "Yes, I am", []string{"Yes", "No"}, models.TypeGeneral, "Relocate?", "Yes"},
		{"substring inside a longer word", "Master", []string{"Bachelors", "Masters", "PhD"}, models.TypeDegree, "Degree?", "Masters"},
		{"german yes", "Ja", []string{"Yes", "No"}, models.TypeGeneral, "Umzug?", "Yes"},
		{"country synonym", "Germany", []string{"+1 (USA)", "+49 (Deutschland)"}, models.TypePhone, "Country code?", "+49 (Deutschland)"},
		{"fallback second", "Purple", []string{"Red", "Green", "Blue"}, models.TypeGeneral, "Colour?", "Green"},
		{"no options", "  free text ", nil, models.TypeGeneral, "Anything?", "free text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Snap(tt.answer, tt.options, tt.qt, tt.q))
		})
	}
}

func TestSnap_ResultIsAnOption(t *testing.T) {
	options := []string{"Select", "Yes", "No"}
	for _, ans := range []string{"", "maybe", "42", "3.14", "Deutschland", "Information not available"} {
		got := Snap(ans, options, models.TypeGeneral, "Relocate?")
		assert.Contains(t, options, got, ans)
	}
}

func TestPostProcess_Clamp(t *testing.T) {
	assert.Equal(t, "5", PostProcess("0", models.TypeExperience, nil, "Years?"))
	assert.Equal(t, "12", PostProcess("12", models.TypeExperience, nil, "Years?"))
	assert.Equal(t, "3", PostProcess("3", models.TypeDecimal, nil, "Years?"))
}

func TestBuildPrompt_Rules(t *testing.T) {
	now := fixedClock()

	p := BuildPrompt("Wie lange ist Ihre Kündigungsfrist?", models.TypeNoticePeriod, nil, "NAME: Ada", now)
	assert.Contains(t, p, "NAME: Ada")
	assert.Contains(t, p, "2 Monate")
	assert.Contains(t, p, "15.03.2025")
	assert.Contains(t, p, "in German")

	p = BuildPrompt("GPA?", models.TypeDecimal, nil, "", now)
	assert.Contains(t, p, "decimal number only")

	p = BuildPrompt("Do you have a Master's degree?", models.TypeDegree, nil, "", now)
	assert.Contains(t, p, "education section")

	p = BuildPrompt("Level in Go?", models.TypeSkillLevel, nil, "", now)
	assert.Contains(t, p, "exactly as it is written")

	p = BuildPrompt("Anything else?", models.TypeGeneral, nil, "", now)
	assert.NotContains(t, p, "RULES:")
}
