package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/reviewbotdev/reviewbot/internal/domain"
)

// RepoConfig is the repo-local configuration merged over built-in defaults.
type RepoConfig struct {
	Review   ReviewKnobs `json:"review"`
	Policies Policies    `json:"policies"`
}

// ReviewKnobs are the size and behavior ceilings of a single review.
type ReviewKnobs struct {
	MaxFiles             int     `json:"max_files"`
	MaxInlineComments    int     `json:"max_inline_comments"`
	MinConfidence        float64 `json:"min_confidence"`
	MinSeverityForInline string  `json:"min_severity_for_inline"`
	MaxPatchCharsTotal   int     `json:"max_patch_chars_total"`
	MaxPatchCharsPerFile int     `json:"max_patch_chars_per_file"`
}

// Policies gate which PRs and which paths get reviewed.
type Policies struct {
	IgnorePaths           []string `json:"ignore_paths"`
	SkipIfLabelPresent    []string `json:"skip_if_label_present"`
	RunOnlyIfLabelPresent []string `json:"run_only_if_label_present"`
}

// DefaultRepoConfig returns the built-in defaults applied when a repository
// ships no .reviewbot.json or an unparseable one.
func DefaultRepoConfig() RepoConfig {
	return RepoConfig{
		Review: ReviewKnobs{
			MaxFiles:             25,
			MaxInlineComments:    10,
			MinConfidence:        0.65,
			MinSeverityForInline: string(domain.SeverityMedium),
			MaxPatchCharsTotal:   120000,
			MaxPatchCharsPerFile: 12000,
		},
		Policies: Policies{
			IgnorePaths:        []string{"dist/", "build/", "coverage/", "node_modules/", "vendor/"},
			SkipIfLabelPresent: []string{"no-ai-review"},
		},
	}
}

// Resolution reports where the repo config came from.
type Resolution struct {
	Config RepoConfig
	Found  bool
	Path   string
}

// ResolveRepoConfig reads configPath (absolute, or relative to workspace)
// and deep-merges it over the defaults. A missing file is not an error.
// A read or parse failure returns the defaults together with a non-fatal
// ConfigParseError so the pipeline can warn and continue.
func ResolveRepoConfig(workspace, configPath string) (Resolution, error) {
	full := configPath
	if !filepath.IsAbs(full) {
		full = filepath.Join(workspace, configPath)
	}
	res := Resolution{Config: DefaultRepoConfig(), Path: full}

	raw, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return res, nil
		}
		return res, domain.NewError(domain.ErrTypeConfigParse, "read %s: %v", full, err)
	}

	var override map[string]any
	if err := json.Unmarshal(raw, &override); err != nil {
		return res, domain.NewError(domain.ErrTypeConfigParse, "parse %s: %v", full, err)
	}

	merged := deepMerge(toMap(DefaultRepoConfig()), override)
	cfg, err := fromMap(merged)
	if err != nil {
		return res, domain.NewError(domain.ErrTypeConfigParse, "decode %s: %v", full, err)
	}

	res.Config = cfg
	res.Found = true
	return res, nil
}

// deepMerge merges override into base: objects merge key by key, arrays and
// scalars replace wholesale, and a null override leaves the base untouched.
func deepMerge(base, override any) any {
	if override == nil {
		return base
	}
	baseMap, baseIsMap := base.(map[string]any)
	overrideMap, overrideIsMap := override.(map[string]any)
	if !baseIsMap || !overrideIsMap {
		return override
	}
	out := make(map[string]any, len(baseMap))
	for k, v := range baseMap {
		out[k] = v
	}
	for k, v := range overrideMap {
		out[k] = deepMerge(out[k], v)
	}
	return out
}

func toMap(cfg RepoConfig) map[string]any {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func fromMap(m any) (RepoConfig, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return RepoConfig{}, err
	}
	var cfg RepoConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return RepoConfig{}, err
	}
	return cfg, nil
}

// MatchesIgnorePrefix reports whether path starts with any of the configured
// ignore prefixes. Plain string prefix match, not glob.
func MatchesIgnorePrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
