package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbotdev/reviewbot/internal/adapter/github"
	"github.com/reviewbotdev/reviewbot/internal/adapter/reviewapi"
	"github.com/reviewbotdev/reviewbot/internal/config"
	"github.com/reviewbotdev/reviewbot/internal/domain"
	"github.com/reviewbotdev/reviewbot/internal/usecase/publish"
)

type fakeHost struct {
	pr        *github.PullRequest
	files     []github.PullFile
	prCalls   int
	fileCalls int
	checkRuns []github.CheckRunInput
	checkErr  error
}

func (f *fakeHost) GetPullRequest(_ context.Context, _, _ string, _ int) (*github.PullRequest, error) {
	f.prCalls++
	return f.pr, nil
}

func (f *fakeHost) ListPullFiles(_ context.Context, _, _ string, _ int) ([]github.PullFile, error) {
	f.fileCalls++
	return f.files, nil
}

func (f *fakeHost) CreateCheckRun(_ context.Context, _, _ string, input github.CheckRunInput) error {
	f.checkRuns = append(f.checkRuns, input)
	return f.checkErr
}

type fakeReviewer struct {
	gotRequest *domain.ReviewRequest
	resp       *reviewapi.Response
	err        error
}

func (f *fakeReviewer) Submit(_ context.Context, request domain.ReviewRequest) (*reviewapi.Response, error) {
	f.gotRequest = &request
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakePoster struct {
	summaries   []string
	findings    []domain.FindingComment
	gotPolicy   publish.InlinePolicy
	postedCount int
}

func (f *fakePoster) UpsertSummary(_ context.Context, _, _ string, _ int, body string) (publish.UpsertResult, error) {
	f.summaries = append(f.summaries, body)
	return publish.UpsertResult{Action: publish.ActionCreated, ID: 1}, nil
}

func (f *fakePoster) PostFindings(_ context.Context, _, _ string, _ int, findings []domain.FindingComment, pol publish.InlinePolicy) int {
	f.findings = findings
	f.gotPolicy = pol
	return f.postedCount
}

func prEvent(number int) *github.Event {
	raw := []byte(`{"pull_request":{"number":` + jsonNumber(number) + `}}`)
	var ev github.Event
	_ = json.Unmarshal(raw, &ev)
	return &ev
}

func jsonNumber(n int) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}

func commentEvent(number int, body string) *github.Event {
	payload := map[string]any{
		"issue":   map[string]any{"number": number, "pull_request": map[string]any{}},
		"comment": map[string]any{"body": body},
	}
	raw, _ := json.Marshal(payload)
	var ev github.Event
	_ = json.Unmarshal(raw, &ev)
	return &ev
}

func baseSettings(t *testing.T) config.RunSettings {
	return config.RunSettings{
		Mode:        "safe",
		PostSummary: true,
		PostInline:  true,
		ConfigPath:  ".reviewbot.json",
		MaxComments: 10,
		MinSeverity: "medium",
		Workspace:   t.TempDir(),
		Repository:  "acme/widgets",
	}
}

func goodResponse() *reviewapi.Response {
	return &reviewapi.Response{
		OK: true,
		Review: domain.ReviewResult{
			Overall: domain.Overall{
				Risk:     domain.RiskLow,
				Decision: domain.DecisionComment,
				Summary:  "Looks reasonable.",
			},
			Meta: map[string]any{},
		},
		Meta:        map[string]any{},
		GeneratedAt: "2026-03-10T12:00:00Z",
	}
}

func openPR(labels ...string) *github.PullRequest {
	pr := &github.PullRequest{
		Number: 7,
		Title:  "Add retry",
		Body:   "Retries transient failures",
		State:  "open",
	}
	pr.Head.SHA = "abc123"
	for _, l := range labels {
		pr.Labels = append(pr.Labels, github.Label{Name: l})
	}
	return pr
}

func textFiles() []github.PullFile {
	return []github.PullFile{
		{Filename: "client.go", Status: "modified", Additions: 4, Deletions: 1, Patch: "@@ -1 +1 @@ diff"},
	}
}

func TestRun_HappyPath(t *testing.T) {
	host := &fakeHost{pr: openPR(), files: textFiles()}
	reviewer := &fakeReviewer{resp: goodResponse()}
	poster := &fakePoster{postedCount: 2}
	driver := NewDriver(host, reviewer, poster, baseSettings(t), nil)

	res, err := driver.Run(context.Background(), prEvent(7))

	require.NoError(t, err)
	assert.Equal(t, OutcomeReviewed, res.Outcome)
	assert.Equal(t, 2, res.PostedInline)
	require.Len(t, poster.summaries, 1)
	assert.Contains(t, poster.summaries[0], "Looks reasonable.")

	require.NotNil(t, reviewer.gotRequest)
	assert.Equal(t, "acme/widgets", reviewer.gotRequest.Repo)
	assert.Equal(t, 7, reviewer.gotRequest.PullNumber)
	assert.Equal(t, "abc123", reviewer.gotRequest.PR.HeadSHA)
	assert.Nil(t, reviewer.gotRequest.Focus)
}

func TestRun_SkipLabelShortCircuits(t *testing.T) {
	host := &fakeHost{pr: openPR("no-ai-review"), files: textFiles()}
	reviewer := &fakeReviewer{resp: goodResponse()}
	driver := NewDriver(host, reviewer, &fakePoster{}, baseSettings(t), nil)

	res, err := driver.Run(context.Background(), prEvent(7))

	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.NotEmpty(t, res.Reason)
	// Only the initial PR fetch happened.
	assert.Equal(t, 1, host.prCalls)
	assert.Equal(t, 0, host.fileCalls)
	assert.Nil(t, reviewer.gotRequest)
}

func TestRun_IgnorePathsFiltered(t *testing.T) {
	host := &fakeHost{pr: openPR(), files: []github.PullFile{
		{Filename: "vendor/dep/file.go", Status: "modified", Patch: "@@ huge"},
		{Filename: "main.go", Status: "modified", Patch: "@@ real"},
	}}
	reviewer := &fakeReviewer{resp: goodResponse()}
	driver := NewDriver(host, reviewer, &fakePoster{}, baseSettings(t), nil)

	_, err := driver.Run(context.Background(), prEvent(7))

	require.NoError(t, err)
	require.NotNil(t, reviewer.gotRequest)
	require.Len(t, reviewer.gotRequest.Files, 1)
	assert.Equal(t, "main.go", reviewer.gotRequest.Files[0].Path)
}

func TestRun_NoFilesSkips(t *testing.T) {
	host := &fakeHost{pr: openPR(), files: []github.PullFile{
		{Filename: "image.png", Status: "added", Patch: ""},
	}}
	reviewer := &fakeReviewer{resp: goodResponse()}
	driver := NewDriver(host, reviewer, &fakePoster{}, baseSettings(t), nil)

	res, err := driver.Run(context.Background(), prEvent(7))

	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Nil(t, reviewer.gotRequest)
}

func TestRun_DryRunDoesNotPost(t *testing.T) {
	settings := baseSettings(t)
	settings.DryRun = true
	host := &fakeHost{pr: openPR(), files: textFiles()}
	poster := &fakePoster{}
	driver := NewDriver(host, &fakeReviewer{resp: goodResponse()}, poster, settings, nil)

	res, err := driver.Run(context.Background(), prEvent(7))

	require.NoError(t, err)
	assert.Equal(t, OutcomeDryRun, res.Outcome)
	assert.NotEmpty(t, res.Summary)
	assert.Empty(t, poster.summaries)
	assert.Nil(t, poster.findings)
}

func TestRun_InlineSkippedWhenSummaryDisabled(t *testing.T) {
	settings := baseSettings(t)
	settings.PostSummary = false
	settings.PostInline = true
	host := &fakeHost{pr: openPR(), files: textFiles()}
	poster := &fakePoster{}
	driver := NewDriver(host, &fakeReviewer{resp: goodResponse()}, poster, settings, nil)

	res, err := driver.Run(context.Background(), prEvent(7))

	require.NoError(t, err)
	assert.Equal(t, 0, res.PostedInline)
	assert.Empty(t, poster.summaries)
	assert.Nil(t, poster.findings)
}

func TestRun_CheckRunIndependentOfCommentToggles(t *testing.T) {
	settings := baseSettings(t)
	settings.PostSummary = false
	settings.PostInline = false
	settings.CreateCheckRun = true
	host := &fakeHost{pr: openPR(), files: textFiles()}
	resp := goodResponse()
	resp.Review.Overall.Decision = domain.DecisionRequestChanges
	driver := NewDriver(host, &fakeReviewer{resp: resp}, &fakePoster{}, settings, nil)

	_, err := driver.Run(context.Background(), prEvent(7))

	require.NoError(t, err)
	require.Len(t, host.checkRuns, 1)
	assert.Equal(t, "failure", host.checkRuns[0].Conclusion)
	assert.Equal(t, "abc123", host.checkRuns[0].HeadSHA)
}

func TestRun_CheckRunFailureAbsorbed(t *testing.T) {
	settings := baseSettings(t)
	settings.CreateCheckRun = true
	host := &fakeHost{pr: openPR(), files: textFiles(), checkErr: assert.AnError}
	driver := NewDriver(host, &fakeReviewer{resp: goodResponse()}, &fakePoster{}, settings, nil)

	res, err := driver.Run(context.Background(), prEvent(7))

	require.NoError(t, err)
	assert.Equal(t, OutcomeReviewed, res.Outcome)
}

func TestRun_CommandOverrides(t *testing.T) {
	host := &fakeHost{pr: openPR(), files: textFiles()}
	reviewer := &fakeReviewer{resp: goodResponse()}
	poster := &fakePoster{}
	driver := NewDriver(host, reviewer, poster, baseSettings(t), nil)

	_, err := driver.Run(context.Background(), commentEvent(7, "/review focus=security max_comments=3 min_severity=high"))

	require.NoError(t, err)
	require.NotNil(t, reviewer.gotRequest.Focus)
	assert.Equal(t, "security", *reviewer.gotRequest.Focus)
	assert.Equal(t, 3, poster.gotPolicy.MaxComments)
	assert.Equal(t, domain.SeverityHigh, poster.gotPolicy.MinSeverity)
}

func TestRun_WritesReportArtifact(t *testing.T) {
	settings := baseSettings(t)
	host := &fakeHost{pr: openPR(), files: textFiles()}
	driver := NewDriver(host, &fakeReviewer{resp: goodResponse()}, &fakePoster{}, settings, nil)

	_, err := driver.Run(context.Background(), prEvent(7))
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(settings.Workspace, "reviewbot-report.json"))
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Contains(t, report, "review")
}

func TestRun_RemoteFailureFatal(t *testing.T) {
	host := &fakeHost{pr: openPR(), files: textFiles()}
	reviewer := &fakeReviewer{err: domain.NewRemoteError(domain.ErrTypeRemoteReview, 500, "boom", "review service failed")}
	poster := &fakePoster{}
	driver := NewDriver(host, reviewer, poster, baseSettings(t), nil)

	_, err := driver.Run(context.Background(), prEvent(7))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Empty(t, poster.summaries)
}

func TestRun_BadRepositoryRejected(t *testing.T) {
	settings := baseSettings(t)
	settings.Repository = "not-a-repo"
	driver := NewDriver(&fakeHost{}, &fakeReviewer{}, &fakePoster{}, settings, nil)

	_, err := driver.Run(context.Background(), prEvent(7))
	require.Error(t, err)
}

func TestTruncate_RespectsRuneBoundaries(t *testing.T) {
	s := strings.Repeat("a", 9) + "héllo" // 'é' spans bytes 10-11

	got := truncate(s, 11)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 9)+"h", got)
	assert.Equal(t, s, truncate(s, len(s)))
}
