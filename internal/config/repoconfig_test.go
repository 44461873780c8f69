package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbotdev/reviewbot/internal/domain"
)

func writeRepoConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ".reviewbot.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveRepoConfig_MissingFileUsesDefaults(t *testing.T) {
	res, err := ResolveRepoConfig(t.TempDir(), ".reviewbot.json")

	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, DefaultRepoConfig(), res.Config)
}

func TestResolveRepoConfig_LeafOverride(t *testing.T) {
	dir := t.TempDir()
	writeRepoConfig(t, dir, `{"review": {"max_files": 5}}`)

	res, err := ResolveRepoConfig(dir, ".reviewbot.json")

	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 5, res.Config.Review.MaxFiles)
	// Sibling leaves keep their defaults.
	assert.Equal(t, 10, res.Config.Review.MaxInlineComments)
	assert.Equal(t, 0.65, res.Config.Review.MinConfidence)
}

func TestResolveRepoConfig_ArraysReplaceWholesale(t *testing.T) {
	dir := t.TempDir()
	writeRepoConfig(t, dir, `{"policies": {"ignore_paths": ["generated/"]}}`)

	res, err := ResolveRepoConfig(dir, ".reviewbot.json")

	require.NoError(t, err)
	assert.Equal(t, []string{"generated/"}, res.Config.Policies.IgnorePaths)
}

func TestResolveRepoConfig_NullKeepsDefault(t *testing.T) {
	dir := t.TempDir()
	writeRepoConfig(t, dir, `{"review": {"max_files": null}}`)

	res, err := ResolveRepoConfig(dir, ".reviewbot.json")

	require.NoError(t, err)
	assert.Equal(t, 25, res.Config.Review.MaxFiles)
}

func TestResolveRepoConfig_ParseFailureIsNonFatal(t *testing.T) {
	dir := t.TempDir()
	writeRepoConfig(t, dir, `{"review": {`)

	res, err := ResolveRepoConfig(dir, ".reviewbot.json")

	require.Error(t, err)
	assert.True(t, errors.Is(err, &domain.Error{Type: domain.ErrTypeConfigParse}))
	assert.Equal(t, DefaultRepoConfig(), res.Config)
}

func TestResolveRepoConfig_AbsolutePath(t *testing.T) {
	dir := t.TempDir()
	path := writeRepoConfig(t, dir, `{"review": {"max_inline_comments": 3}}`)

	res, err := ResolveRepoConfig("/unrelated/workspace", path)

	require.NoError(t, err)
	assert.Equal(t, 3, res.Config.Review.MaxInlineComments)
}

func TestDeepMerge_Idempotent(t *testing.T) {
	base := toMap(DefaultRepoConfig())

	assert.Equal(t, base, deepMerge(base, base))
	assert.Equal(t, base, deepMerge(base, map[string]any{}))
}

func TestMatchesIgnorePrefix(t *testing.T) {
	prefixes := []string{"dist/", "vendor/"}

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"under dist", "dist/app.js", true},
		{"under vendor", "vendor/pkg/mod.go", true},
		{"not ignored", "internal/app.go", false},
		{"prefix not glob", "distance/app.js", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchesIgnorePrefix(tt.path, prefixes))
		})
	}
}
