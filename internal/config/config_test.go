package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearLegacyEnv(t *testing.T) {
	t.Helper()
	for name := range legacyEnv {
		t.Setenv(name, "")
	}
}

// unsetEnv removes name for the duration of the test.
func unsetEnv(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "")
	require.NoError(t, os.Unsetenv(name))
}

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearLegacyEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")

	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "primary", cfg.Google.CalendarId)
	assert.Equal(t, 30*time.Second, cfg.Google.Timeout)
	assert.Equal(t, "http://localhost:3000/oauth2callback", cfg.OAuth2.RedirectUrl)
	assert.Equal(t, "https://oauth2.googleapis.com/token", cfg.OAuth2.TokenUrl)
	assert.Equal(t, int64(10), cfg.ListQuery.MaxResults)
	assert.True(t, cfg.ListQuery.SingleEvents)
	assert.Equal(t, "startTime", cfg.ListQuery.OrderBy)
	assert.Equal(t, "Sample Event", cfg.SampleEvent.Summary)
	assert.Equal(t, "Asia/Jakarta", cfg.SampleEvent.TimeZone)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_YamlFile(t *testing.T) {
	clearLegacyEnv(t)
	path := writeFile(t, "application.yaml", `
port: 8080
host: https://bridge.example.com/
google:
  calendarid: team@example.com
  timeout: 10s
listquery:
  maxresults: 25
metrics:
  enabled: false
`)

	cfg, err := Load(path, "")

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "team@example.com", cfg.Google.CalendarId)
	assert.Equal(t, 10*time.Second, cfg.Google.Timeout)
	assert.Equal(t, int64(25), cfg.ListQuery.MaxResults)
	assert.Equal(t, "startTime", cfg.ListQuery.OrderBy)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "https://bridge.example.com/oauth2callback", cfg.OAuth2.RedirectUrl)
}

func TestLoad_InvalidYaml(t *testing.T) {
	clearLegacyEnv(t)
	path := writeFile(t, "application.yaml", "port: [unclosed")

	_, err := Load(path, "")

	assert.Error(t, err)
}

func TestLoad_PrefixedEnvOverridesFile(t *testing.T) {
	clearLegacyEnv(t)
	path := writeFile(t, "application.yaml", "google:\n  calendarid: from-file\n")
	t.Setenv("GCALBRIDGE_GOOGLE_CALENDARID", "from-env")
	t.Setenv("GCALBRIDGE_OAUTH2_CLIENTID", "client-123")
	t.Setenv("GCALBRIDGE_OAUTH2_REDIRECTURL", "https://example.com/cb")

	cfg, err := Load(path, "")

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Google.CalendarId)
	assert.Equal(t, "client-123", cfg.OAuth2.ClientId)
	assert.Equal(t, "https://example.com/cb", cfg.OAuth2.RedirectUrl)
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	clearLegacyEnv(t)
	t.Setenv("PORT", "4000")
	t.Setenv("GCAL_CALENDAR_ID", "legacy@example.com")
	t.Setenv("OAUTH2_CREDS_CLIENT_ID", "legacy-client")
	t.Setenv("SERVICE_CREDS_CLIENT_EMAIL", "robot@example.iam.gserviceaccount.com")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")

	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "legacy@example.com", cfg.Google.CalendarId)
	assert.Equal(t, "legacy-client", cfg.OAuth2.ClientId)
	assert.Equal(t, "robot@example.iam.gserviceaccount.com", cfg.ServiceAccount.ClientEmail)
}

func TestLoad_PrefixedEnvWinsOverLegacy(t *testing.T) {
	clearLegacyEnv(t)
	t.Setenv("GCAL_CALENDAR_ID", "legacy")
	t.Setenv("GCALBRIDGE_GOOGLE_CALENDARID", "prefixed")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")

	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Google.CalendarId)
}

func TestLoad_DotenvFile(t *testing.T) {
	clearLegacyEnv(t)
	unsetEnv(t, "GCAL_CALENDAR_ID")
	unsetEnv(t, "GCALBRIDGE_GOOGLE_TIMEOUT")
	envFile := writeFile(t, ".env", "GCAL_CALENDAR_ID=dotenv@example.com\nGCALBRIDGE_GOOGLE_TIMEOUT=5s\n")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), envFile)

	require.NoError(t, err)
	assert.Equal(t, "dotenv@example.com", cfg.Google.CalendarId)
	assert.Equal(t, 5*time.Second, cfg.Google.Timeout)
}

func TestLoad_MissingDotenvIsIgnored(t *testing.T) {
	clearLegacyEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), filepath.Join(t.TempDir(), ".env"))

	assert.NoError(t, err)
}

func TestLoad_EmptyEnvKeepsFileValues(t *testing.T) {
	clearLegacyEnv(t)
	path := writeFile(t, "application.yaml", "port: 8080\ngoogle:\n  calendarid: team@example.com\n")
	t.Setenv("GCALBRIDGE_PORT", "")
	t.Setenv("GCALBRIDGE_GOOGLE_CALENDARID", "")

	cfg, err := Load(path, "")

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "team@example.com", cfg.Google.CalendarId)
}
