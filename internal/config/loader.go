package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how process settings should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged settings from an optional YAML file and the
// environment. Environment variables win over file values; defaults fill
// the rest.
func Load(opts LoaderOptions) (Settings, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "reviewbot"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "REVIEWBOT"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)
	bindHostEnv(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("unmarshal config: %w", err)
	}

	normalizeListSettings(&settings)

	return settings, nil
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	// Run defaults mirror the workflow input defaults.
	v.SetDefault("run.mode", "safe")
	v.SetDefault("run.dryRun", false)
	v.SetDefault("run.postSummary", true)
	v.SetDefault("run.postInline", true)
	v.SetDefault("run.createCheckRun", false)
	v.SetDefault("run.configPath", ".reviewbot.json")
	v.SetDefault("run.maxComments", 10)
	v.SetDefault("run.minSeverity", "medium")
	v.SetDefault("run.oidcAudience", "reviewbot-api")

	// Server defaults.
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.oidcAudience", "reviewbot-api")
	v.SetDefault("server.issuer", "https://token.actions.githubusercontent.com")
	v.SetDefault("server.jwksUrl", "https://token.actions.githubusercontent.com/.well-known/jwks")
	v.SetDefault("server.quotaPerRepoPerDay", 200)
	v.SetDefault("server.rateLimitPerMinute", 60)
	v.SetDefault("server.openaiModel", "gpt-4o-mini")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "auto")
}

// bindHostEnv maps settings onto the canonical environment variables of the
// execution platforms (GitHub Actions on the run side, the deployment
// environment on the serve side) in addition to the REVIEWBOT_* forms.
func bindHostEnv(v *viper.Viper) {
	_ = v.BindEnv("run.githubToken", "REVIEWBOT_RUN_GITHUBTOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("run.workspace", "REVIEWBOT_RUN_WORKSPACE", "GITHUB_WORKSPACE")
	_ = v.BindEnv("run.eventPath", "REVIEWBOT_RUN_EVENTPATH", "GITHUB_EVENT_PATH")
	_ = v.BindEnv("run.repository", "REVIEWBOT_RUN_REPOSITORY", "GITHUB_REPOSITORY")
	_ = v.BindEnv("run.reviewApiUrl", "REVIEWBOT_RUN_REVIEWAPIURL", "REVIEW_API_URL")
	_ = v.BindEnv("run.oidcAudience", "REVIEWBOT_RUN_OIDCAUDIENCE", "OIDC_AUDIENCE")

	_ = v.BindEnv("server.oidcAudience", "REVIEWBOT_SERVER_OIDCAUDIENCE", "OIDC_AUDIENCE")
	_ = v.BindEnv("server.allowAll", "REVIEWBOT_SERVER_ALLOWALL", "ALLOW_ALL")
	_ = v.BindEnv("server.allowRepos", "REVIEWBOT_SERVER_ALLOWREPOS", "ALLOW_REPOS")
	_ = v.BindEnv("server.allowOrgs", "REVIEWBOT_SERVER_ALLOWORGS", "ALLOW_ORGS")
	_ = v.BindEnv("server.quotaPerRepoPerDay", "REVIEWBOT_SERVER_QUOTAPERREPOPERDAY", "QUOTA_PER_REPO_PER_DAY")
	_ = v.BindEnv("server.rateLimitPerMinute", "REVIEWBOT_SERVER_RATELIMITPERMINUTE", "RATE_LIMIT_PER_MINUTE")
	_ = v.BindEnv("server.openaiApiKey", "REVIEWBOT_SERVER_OPENAIAPIKEY", "OPENAI_API_KEY")
	_ = v.BindEnv("server.openaiModel", "REVIEWBOT_SERVER_OPENAIMODEL", "OPENAI_MODEL")
	_ = v.BindEnv("server.addr", "REVIEWBOT_SERVER_ADDR")
}

// normalizeListSettings splits comma-separated allow-lists coming from the
// environment, where viper delivers them as a single element.
func normalizeListSettings(settings *Settings) {
	settings.Server.AllowRepos = splitCommaList(settings.Server.AllowRepos)
	settings.Server.AllowOrgs = splitCommaList(settings.Server.AllowOrgs)
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
