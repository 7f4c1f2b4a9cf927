package qa

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-easyapply-automation/internal/cancel"
	"go-easyapply-automation/internal/models"
)

type echoAnswerer struct {
	calls int
}

func (e *echoAnswerer) Answer(ctx context.Context, q string, _ []string, probe cancel.Probe) (models.Answer, error) {
	e.calls++
	if probe() {
		return models.Answer{}, cancel.ErrStopped
	}
	return models.Answer{Text: "answer to " + q, Type: models.TypeGeneral, Source: models.SourceLLM}, nil
}

func TestRun(t *testing.T) {
	a := &echoAnswerer{}
	report, err := Run(context.Background(), a, Questions, TestInfo{ResumeFile: "cv.yaml", Model: "qwen2.5:3b"})
	require.NoError(t, err)

	assert.Equal(t, 10, report.TestInfo.TotalQuestions)
	require.Len(t, report.Results, 10)
	assert.Equal(t, Questions[0], report.Results[0].Question)
	assert.Equal(t, "answer to "+Questions[9], report.Results[9].Answer)
	assert.Equal(t, models.SourceLLM, report.Results[3].Source)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, report.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	info := decoded["test_info"].(map[string]any)
	assert.Equal(t, "cv.yaml", info["resume_file"])
	assert.Equal(t, float64(10), info["total_questions"])
	first := decoded["results"].([]any)[0].(map[string]any)
	assert.Equal(t, "general", first["type"])
	assert.Equal(t, "llm", first["source"])
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	cancelFn()

	report, err := Run(ctx, &echoAnswerer{}, Questions, TestInfo{})
	assert.ErrorIs(t, err, cancel.ErrStopped)
	assert.Empty(t, report.Results)
}
