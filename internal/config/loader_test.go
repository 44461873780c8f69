package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	settings, err := Load(LoaderOptions{ConfigPaths: []string{t.TempDir()}})

	require.NoError(t, err)
	assert.Equal(t, "safe", settings.Run.Mode)
	assert.True(t, settings.Run.PostSummary)
	assert.True(t, settings.Run.PostInline)
	assert.False(t, settings.Run.CreateCheckRun)
	assert.Equal(t, ".reviewbot.json", settings.Run.ConfigPath)
	assert.Equal(t, 10, settings.Run.MaxComments)
	assert.Equal(t, "reviewbot-api", settings.Run.OIDCAudience)
	assert.Equal(t, ":3000", settings.Server.Addr)
	assert.Equal(t, "https://token.actions.githubusercontent.com", settings.Server.Issuer)
	assert.Equal(t, 200, settings.Server.QuotaPerRepoPerDay)
	assert.Equal(t, 60, settings.Server.RateLimitPerMinute)
	assert.Equal(t, "gpt-4o-mini", settings.Server.OpenAIModel)
}

func TestLoad_ReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	content := `
run:
  mode: trusted
  maxComments: 4
server:
  addr: ":8080"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviewbot.yaml"), []byte(content), 0o644))

	settings, err := Load(LoaderOptions{ConfigPaths: []string{dir}})

	require.NoError(t, err)
	assert.Equal(t, "trusted", settings.Run.Mode)
	assert.Equal(t, 4, settings.Run.MaxComments)
	assert.Equal(t, ":8080", settings.Server.Addr)
	// Unset keys keep defaults.
	assert.Equal(t, "medium", settings.Run.MinSeverity)
}

func TestLoad_HostEnvironmentBindings(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghs_test")
	t.Setenv("REVIEW_API_URL", "https://review.example.com/review")
	t.Setenv("ALLOW_ORGS", "acme, globex")
	t.Setenv("QUOTA_PER_REPO_PER_DAY", "50")

	settings, err := Load(LoaderOptions{ConfigPaths: []string{t.TempDir()}})

	require.NoError(t, err)
	assert.Equal(t, "ghs_test", settings.Run.GithubToken)
	assert.Equal(t, "https://review.example.com/review", settings.Run.ReviewAPIURL)
	assert.Equal(t, []string{"acme", "globex"}, settings.Server.AllowOrgs)
	assert.Equal(t, 50, settings.Server.QuotaPerRepoPerDay)
}

func TestLoad_PrefixedEnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviewbot.yaml"), []byte("run:\n  mode: trusted\n"), 0o644))
	t.Setenv("REVIEWBOT_RUN_MODE", "safe")

	settings, err := Load(LoaderOptions{ConfigPaths: []string{dir}})

	require.NoError(t, err)
	assert.Equal(t, "safe", settings.Run.Mode)
}

func TestSplitCommaList(t *testing.T) {
	assert.Equal(t, []string{"a/b", "c/d"}, splitCommaList([]string{"a/b,c/d"}))
	assert.Equal(t, []string{"one"}, splitCommaList([]string{" one "}))
	assert.Nil(t, splitCommaList(nil))
	assert.Nil(t, splitCommaList([]string{" , "}))
}
