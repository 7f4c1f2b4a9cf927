package browser

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies-linkedin.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name":"li_at","value":"secret","domain":".linkedin.com","path":"/","expires":1999999999,"httpOnly":true,"secure":true,"sameSite":"no_restriction"},
		{"name":"lang","value":"v=2&lang=en-us","domain":".linkedin.com","sameSite":"Lax"},
		{"name":"","value":"ignored"}
	]`), 0644))

	cookies, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.True(t, HasSession(cookies))
	assert.Equal(t, ".linkedin.com", *cookies[0].Domain)
	assert.True(t, *cookies[0].HttpOnly)
	assert.Equal(t, playwright.SameSiteAttributeNone, cookies[0].SameSite)
	assert.Equal(t, "/", *cookies[1].Path)
	assert.Nil(t, cookies[1].Expires)
	assert.Equal(t, playwright.SameSiteAttributeLax, cookies[1].SameSite)
}

func TestLoadCookies_Errors(t *testing.T) {
	_, err := LoadCookies(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), 0644))
	_, err = LoadCookies(bad)
	assert.Error(t, err)
}

func TestSettle(t *testing.T) {
	start := time.Now()
	require.NoError(t, Settle(context.Background(), 0, 0))
	assert.GreaterOrEqual(t, time.Since(start), MinSettle)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, RandomDelay(ctx, time.Second, 2*time.Second), context.Canceled)
}
