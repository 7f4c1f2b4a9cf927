package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-easyapply-automation/internal/api"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/tracker"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type env struct {
	store  *fakeStore
	srv    *httptest.Server
	tokens *Tokens
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	sealer, err := NewSealer(testSecret)
	require.NoError(t, err)
	store := newFakeStore()
	tokens := NewTokens("jwt-secret", "test", time.Hour)
	srv := httptest.NewServer(New(store, tokens, sealer).Handler())
	t.Cleanup(srv.Close)
	return &env{store: store, srv: srv, tokens: tokens}
}

// signup registers and logs in a user, returning a client carrying its token.
func (e *env) signup(t *testing.T, email string) (*api.Client, *models.User) {
	t.Helper()
	ctx := context.Background()
	c := api.New(e.srv.URL, nil)
	_, err := c.Register(ctx, api.RegisterRequest{Email: email, Password: "correct horse", FirstName: "Ada"})
	require.NoError(t, err)
	resp, err := c.Login(ctx, email, "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	return c, &resp.User
}

func statusCode(err error) int {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

func TestAuth(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, user := e.signup(t, "ada@example.com")

	got, err := c.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)

	_, err = c.Register(ctx, api.RegisterRequest{Email: "ADA@example.com", Password: "another one"})
	assert.Equal(t, http.StatusConflict, statusCode(err))

	_, err = api.New(e.srv.URL, nil).Login(ctx, "ada@example.com", "wrong password")
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	_, err = api.New(e.srv.URL, nil).Login(ctx, "nobody@example.com", "whatever1")
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	anon := api.New(e.srv.URL, nil)
	_, err = anon.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	_, err = c.Register(ctx, api.RegisterRequest{Email: "not-an-email", Password: "long enough"})
	assert.Equal(t, http.StatusBadRequest, statusCode(err))
}

func TestTokens(t *testing.T) {
	tokens := NewTokens("secret", "issuer", time.Minute)
	token, err := tokens.Generate("user-1")
	require.NoError(t, err)

	sub, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)

	_, err = NewTokens("secret", "other", time.Minute).Parse(token)
	assert.Error(t, err, "issuer mismatch")

	_, err = NewTokens("different", "issuer", time.Minute).Parse(token)
	assert.Error(t, err, "bad signature")

	later := NewTokens("secret", "issuer", time.Minute)
	later.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = later.Parse(token)
	assert.Error(t, err, "expired")
}

func TestSealer(t *testing.T) {
	s, err := NewSealer(testSecret)
	require.NoError(t, err)

	sealed, err := s.Seal("sk-test")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "sk-test")

	again, err := s.Seal("sk-test")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonces differ")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", plain)

	empty, err := s.Seal("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	tampered := []byte(sealed)
	tampered[len(tampered)-2] ^= 1
	_, err = s.Open(string(tampered))
	assert.Error(t, err)

	_, err = NewSealer("short")
	assert.Error(t, err)
}

func TestResumes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, user := e.signup(t, "ada@example.com")

	doc := `{"personal": {"email": "ada@example.com"}, "skills": {"go": {"experience_years": 6}}, "hobbies": ["chess"]}`
	first, err := c.UploadResume(ctx, user.ID, "cv.json", []byte(doc), nil)
	require.NoError(t, err)
	assert.True(t, first.IsDefault, "first upload becomes default")
	assert.Contains(t, first.Text, "SKILLS")

	second, err := c.UploadResume(ctx, user.ID, "notes.txt", []byte("plain text"), map[string]string{"isDefault": "false"})
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	_, err = c.UploadResume(ctx, user.ID, "cv.pdf", []byte("%PDF"), nil)
	assert.Equal(t, http.StatusBadRequest, statusCode(err))

	def, err := c.DefaultResume(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, def.ID)

	data, err := c.RelevantData(ctx, first.ID, models.TypeSkills)
	require.NoError(t, err)
	assert.Contains(t, data, "skills")
	assert.NotContains(t, data, "hobbies")

	file, err := c.DownloadResume(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "plain text", string(file))

	require.NoError(t, c.SetDefaultResume(ctx, second.ID))
	def, err = c.DefaultResume(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, def.ID)

	profile, err := c.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, profile["defaultResumeId"])

	require.NoError(t, c.DeleteResume(ctx, first.ID))
	_, err = c.GetResume(ctx, first.ID)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ada, adaUser := e.signup(t, "ada@example.com")
	bob, _ := e.signup(t, "bob@example.com")

	r, err := ada.UploadResume(ctx, adaUser.ID, "cv.txt", []byte("ada"), nil)
	require.NoError(t, err)
	st, err := ada.CreateAISettings(ctx, adaUser.ID, api.AISettingsInput{
		AISettings: models.AISettings{Provider: "openai", Model: "gpt-4o-mini"},
		APIKey:     "sk-ada",
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		call func() error
	}{
		{"user", func() error { _, err := bob.GetUser(ctx, adaUser.ID); return err }},
		{"resume", func() error { _, err := bob.GetResume(ctx, r.ID); return err }},
		{"download", func() error { _, err := bob.DownloadResume(ctx, r.ID); return err }},
		{"relevant data", func() error { _, err := bob.RelevantData(ctx, r.ID, models.TypeGeneral); return err }},
		{"delete resume", func() error { return bob.DeleteResume(ctx, r.ID) }},
		{"encrypted key", func() error { _, err := bob.EncryptedKey(ctx, st.ID); return err }},
		{"list settings", func() error { _, err := bob.ListAISettings(ctx, adaUser.ID); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusForbidden, statusCode(tt.call()))
		})
	}
}

func TestAISettings(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, user := e.signup(t, "ada@example.com")

	_, err := c.DefaultAISettings(ctx, user.ID)
	assert.ErrorIs(t, err, api.ErrNotFound)

	_, err = c.CreateAISettings(ctx, user.ID, api.AISettingsInput{AISettings: models.AISettings{Provider: "openai", Model: "gpt-4o-mini"}})
	assert.Equal(t, http.StatusBadRequest, statusCode(err), "hosted provider needs a key")

	_, err = c.CreateAISettings(ctx, user.ID, api.AISettingsInput{AISettings: models.AISettings{Provider: "mystery", Model: "x"}})
	assert.Equal(t, http.StatusBadRequest, statusCode(err))

	local, err := c.CreateAISettings(ctx, user.ID, api.AISettingsInput{AISettings: models.AISettings{Provider: "ollama", Model: "qwen2.5:3b", IsDefault: true}})
	require.NoError(t, err)
	assert.False(t, local.HasAPIKey)
	assert.Equal(t, 512, local.MaxTokens)

	hosted, err := c.CreateAISettings(ctx, user.ID, api.AISettingsInput{
		AISettings: models.AISettings{Provider: "openai", Model: "gpt-4o-mini", IsDefault: true},
		APIKey:     "sk-secret",
	})
	require.NoError(t, err)
	assert.True(t, hosted.HasAPIKey)

	def, err := c.DefaultAISettings(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, hosted.ID, def.ID)

	sealed := e.store.sealed[hosted.ID]
	assert.NotContains(t, sealed, "sk-secret")

	key, err := c.KeySource(hosted.ID)(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", key)

	require.NoError(t, c.SetDefaultAISettings(ctx, local.ID))
	require.NoError(t, c.DeleteAISettings(ctx, hosted.ID))
	list, err := c.ListAISettings(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsDefault)
}

func TestTrackerAgainstService(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, user := e.signup(t, "ada@example.com")

	tr := tracker.New(c, tracker.Identity{UserID: user.ID})
	info := models.JobInfo{
		PlatformID: models.Ptr("4012345678"),
		Title:      models.Ptr("Go Engineer"),
		Company:    models.Ptr("Acme"),
	}
	app, err := tr.StartApplication(ctx, info)
	require.NoError(t, err)
	tr.AddQA(ctx, "Years of Go?", "6", models.TypeExperience, "qwen2.5:3b", false)
	require.NoError(t, tr.Finish(ctx, models.StatusFailed, "dialog timeout"))

	again, err := tr.StartApplication(ctx, info)
	require.NoError(t, err)
	assert.Equal(t, app.JobID, again.JobID, "job is reused by platform id")

	assert.Len(t, e.store.companies, 1)
	require.Len(t, e.store.qa, 1)
	assert.Equal(t, models.StatusFailed, e.store.apps[app.ID].Status)
	assert.Equal(t, "dialog timeout", e.store.apps[app.ID].Notes)

	bob, _ := e.signup(t, "bob@example.com")
	err = bob.UpdateApplicationStatus(ctx, app.ID, models.StatusApplied, "")
	assert.Equal(t, http.StatusForbidden, statusCode(err))
	err = c.UpdateApplicationStatus(ctx, app.ID, models.ApplicationStatus("bogus"), "")
	assert.Equal(t, http.StatusBadRequest, statusCode(err))
}

func TestHealthAndBearerForms(t *testing.T) {
	e := newEnv(t)
	_, user := e.signup(t, "ada@example.com")
	token, err := e.tokens.Generate(user.ID)
	require.NoError(t, err)

	resp, err := http.Get(e.srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, header := range []string{"Bearer " + token, "bearer " + token, token} {
		req, err := http.NewRequest(http.MethodGet, e.srv.URL+"/users/"+user.ID, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", header)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, strings.SplitN(header, " ", 2)[0])
	}
}
