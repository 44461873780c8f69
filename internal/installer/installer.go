// Package installer scaffolds the files a repository needs to run
// reviews: the workflow under .github/workflows and a default
// .reviewbot.json. Existing files are left alone unless overwriting is
// forced.
package installer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/reviewbotdev/reviewbot/internal/config"
)

const (
	workflowRelPath = ".github/workflows/reviewbot.yml"
	configRelPath   = ".reviewbot.json"

	defaultActionRef = "reviewbotdev/reviewbot-action@v1"
)

// Options configure what the scaffolded workflow points at.
type Options struct {
	Root      string // repository root; defaults to the working directory
	Endpoint  string // review API URL, required
	ActionRef string // action reference; defaulted when empty
	Mode      string // safe or trusted; defaulted to safe
	Force     bool   // overwrite existing files
}

// FileResult reports what happened to one scaffolded file.
type FileResult struct {
	Path    string
	Written bool // false means the file existed and was kept
}

// Install writes the workflow and default config. A file that already
// exists is skipped unless Force is set; skipping is not an error.
func Install(opts Options) ([]FileResult, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("review API endpoint is required")
	}
	if opts.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		opts.Root = wd
	}
	if opts.ActionRef == "" {
		opts.ActionRef = defaultActionRef
	}
	if opts.Mode == "" {
		opts.Mode = "safe"
	}

	workflow, err := renderWorkflow(opts)
	if err != nil {
		return nil, err
	}
	repoConfig, err := renderDefaultConfig()
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, 0, 2)
	for _, file := range []struct {
		relPath string
		content []byte
	}{
		{workflowRelPath, workflow},
		{configRelPath, repoConfig},
	} {
		full := filepath.Join(opts.Root, file.relPath)
		written, err := writeFileSafe(full, file.content, opts.Force)
		if err != nil {
			return results, err
		}
		results = append(results, FileResult{Path: full, Written: written})
	}
	return results, nil
}

func writeFileSafe(path string, content []byte, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

type workflowStep struct {
	Name string            `yaml:"name"`
	If   string            `yaml:"if,omitempty"`
	Uses string            `yaml:"uses"`
	With map[string]string `yaml:"with,omitempty"`
	Env  map[string]string `yaml:"env,omitempty"`
}

type workflowJob struct {
	RunsOn string         `yaml:"runs-on"`
	If     string         `yaml:"if"`
	Steps  []workflowStep `yaml:"steps"`
}

type workflowPermissions struct {
	Contents     string `yaml:"contents"`
	PullRequests string `yaml:"pull-requests"`
	Issues       string `yaml:"issues"`
	Checks       string `yaml:"checks"`
	IDToken      string `yaml:"id-token"`
}

type workflowTriggers struct {
	PullRequestTarget struct {
		Types []string `yaml:"types"`
	} `yaml:"pull_request_target"`
	IssueComment struct {
		Types []string `yaml:"types"`
	} `yaml:"issue_comment"`
}

type workflowFile struct {
	Name        string                 `yaml:"name"`
	On          workflowTriggers       `yaml:"on"`
	Permissions workflowPermissions    `yaml:"permissions"`
	Jobs        map[string]workflowJob `yaml:"jobs"`
}

// renderWorkflow builds the reviewbot workflow. The job runs on PR
// lifecycle events and on issue comments containing /review; comment
// events check out the default branch since the PR head is untrusted.
func renderWorkflow(opts Options) ([]byte, error) {
	wf := workflowFile{
		Name: "ReviewBot",
		Permissions: workflowPermissions{
			Contents:     "read",
			PullRequests: "write",
			Issues:       "write",
			Checks:       "write",
			IDToken:      "write",
		},
	}
	wf.On.PullRequestTarget.Types = []string{"opened", "synchronize", "reopened", "ready_for_review"}
	wf.On.IssueComment.Types = []string{"created"}

	wf.Jobs = map[string]workflowJob{
		"review": {
			RunsOn: "ubuntu-latest",
			If: "github.event_name != 'issue_comment' ||\n" +
				"(github.event.issue.pull_request && contains(github.event.comment.body, '/review'))",
			Steps: []workflowStep{
				{
					Name: "Checkout base branch (safe)",
					If:   "github.event_name == 'pull_request_target'",
					Uses: "actions/checkout@v4",
					With: map[string]string{
						"ref":         "${{ github.event.pull_request.base.ref }}",
						"fetch-depth": "1",
					},
				},
				{
					Name: "Checkout default branch (for /review comments)",
					If:   "github.event_name == 'issue_comment'",
					Uses: "actions/checkout@v4",
					With: map[string]string{
						"ref":         "${{ github.event.repository.default_branch }}",
						"fetch-depth": "1",
					},
				},
				{
					Name: "Run ReviewBot",
					Uses: opts.ActionRef,
					With: map[string]string{
						"mode":           opts.Mode,
						"config_path":    configRelPath,
						"review_api_url": opts.Endpoint,
					},
					Env: map[string]string{
						"GITHUB_TOKEN": "${{ github.token }}",
					},
				},
			},
		},
	}
	return yaml.Marshal(wf)
}

func renderDefaultConfig() ([]byte, error) {
	raw, err := json.MarshalIndent(config.DefaultRepoConfig(), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(raw, '\n'), nil
}
