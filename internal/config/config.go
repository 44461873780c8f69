// Package config holds the two configuration layers of reviewbot:
// process settings (environment + optional reviewbot.yaml, loaded through
// viper) and the repo-local .reviewbot.json resolved by deep merge over
// built-in defaults.
package config

// Settings represents the full process configuration.
type Settings struct {
	Run     RunSettings     `yaml:"run"`
	Server  ServerSettings  `yaml:"server"`
	Logging LoggingSettings `yaml:"logging"`
}

// RunSettings configures the action-side pipeline (reviewbot run).
type RunSettings struct {
	// Mode is "safe" or "trusted" and is forwarded to the review service.
	Mode string `yaml:"mode"`

	// DryRun renders the summary locally instead of posting to the PR.
	DryRun bool `yaml:"dryRun"`

	// PostSummary controls the summary comment upsert.
	PostSummary bool `yaml:"postSummary"`

	// PostInline controls inline finding comments. Inline posting is
	// also disabled whenever PostSummary is off.
	PostInline bool `yaml:"postInline"`

	// CreateCheckRun creates a completed check run carrying the summary.
	CreateCheckRun bool `yaml:"createCheckRun"`

	// ConfigPath locates the repo-local config, relative to the workspace
	// unless absolute.
	ConfigPath string `yaml:"configPath"`

	// Focus is an optional reviewer focus hint ("security", "perf", ...).
	Focus string `yaml:"focus"`

	// MaxComments caps inline comments; a /review command can override it.
	MaxComments int `yaml:"maxComments"`

	// MinSeverity is the minimum severity for inline posting.
	MinSeverity string `yaml:"minSeverity"`

	// ReviewAPIURL is the review service endpoint. Required for run.
	ReviewAPIURL string `yaml:"reviewApiUrl"`

	// OIDCAudience is the audience requested for the identity token.
	OIDCAudience string `yaml:"oidcAudience"`

	// GithubToken authenticates calls to the source-control host.
	GithubToken string `yaml:"githubToken"`

	// Workspace is the checkout root; defaults to GITHUB_WORKSPACE.
	Workspace string `yaml:"workspace"`

	// EventPath points at the event payload JSON; defaults to
	// GITHUB_EVENT_PATH.
	EventPath string `yaml:"eventPath"`

	// Repository is the "owner/name" under review; defaults to
	// GITHUB_REPOSITORY.
	Repository string `yaml:"repository"`
}

// ServerSettings configures the review API service (reviewbot serve).
type ServerSettings struct {
	// Addr is the listen address, e.g. ":3000".
	Addr string `yaml:"addr"`

	// OIDCAudience is the audience expected in presented identity tokens.
	OIDCAudience string `yaml:"oidcAudience"`

	// Issuer is the identity provider expected to have signed the tokens.
	Issuer string `yaml:"issuer"`

	// JWKSURL is the provider's published key set.
	JWKSURL string `yaml:"jwksUrl"`

	// AllowAll bypasses the repository allow-list entirely.
	AllowAll bool `yaml:"allowAll"`

	// AllowRepos lists "owner/name" repositories allowed to call the service.
	AllowRepos []string `yaml:"allowRepos"`

	// AllowOrgs lists organizations whose repositories are all allowed.
	AllowOrgs []string `yaml:"allowOrgs"`

	// QuotaPerRepoPerDay caps reviews per repository per UTC day.
	// Zero or negative disables the quota.
	QuotaPerRepoPerDay int `yaml:"quotaPerRepoPerDay"`

	// RateLimitPerMinute caps requests per client IP per minute.
	RateLimitPerMinute int `yaml:"rateLimitPerMinute"`

	// OpenAIAPIKey authenticates against the model service.
	OpenAIAPIKey string `yaml:"openaiApiKey"`

	// OpenAIModel selects the model used for review generation.
	OpenAIModel string `yaml:"openaiModel"`

	// OpenAIBaseURL overrides the model service endpoint (tests).
	OpenAIBaseURL string `yaml:"openaiBaseUrl"`
}

// LoggingSettings configures the structured logger.
type LoggingSettings struct {
	Level  string `yaml:"level"`  // debug, info, error
	Format string `yaml:"format"` // json, human, auto
}
