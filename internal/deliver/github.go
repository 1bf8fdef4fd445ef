package deliver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/droverhq/drover/internal/domain"
	"github.com/droverhq/drover/internal/errors"
	"github.com/droverhq/drover/internal/httpx"
	"github.com/droverhq/drover/internal/sanitize"
)

// DefaultGitHubBaseURL is the public GitHub REST endpoint.
const DefaultGitHubBaseURL = "https://api.github.com"

const githubAccept = "application/vnd.github+json"

// GitHubClient turns deliverables into pull requests and review issues on one
// repository. Branch names and file paths are re-derived from the deliverable
// title slug, never taken from model output.
type GitHubClient struct {
	baseURL string
	owner   string
	repo    string
	token   string
	http    *httpx.Client
	logger  zerolog.Logger
}

// GitHubOption configures a GitHubClient.
type GitHubOption func(*GitHubClient)

// WithGitHubBaseURL overrides the API endpoint, for tests or GitHub Enterprise.
func WithGitHubBaseURL(u string) GitHubOption {
	return func(c *GitHubClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithGitHubHTTPClient overrides the HTTP client.
func WithGitHubHTTPClient(hc *httpx.Client) GitHubOption {
	return func(c *GitHubClient) { c.http = hc }
}

// WithGitHubLogger sets the client logger.
func WithGitHubLogger(logger zerolog.Logger) GitHubOption {
	return func(c *GitHubClient) {
		c.logger = logger.With().Str("component", "github").Logger()
	}
}

// NewGitHubClient creates a client for one owner/repo.
func NewGitHubClient(owner, repo, token string, opts ...GitHubOption) *GitHubClient {
	c := &GitHubClient{
		baseURL: DefaultGitHubBaseURL,
		owner:   owner,
		repo:    repo,
		token:   token,
		http:    httpx.NewClient(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreatePullRequest pushes the deliverable as a file on a fresh branch and
// opens a pull request against the default branch. Returns the PR URL.
func (c *GitHubClient) CreatePullRequest(ctx context.Context, d domain.Deliverable) (string, error) {
	slug := sanitize.Slug(d.Title)
	branch := "feature/" + slug

	base, err := c.defaultBranch(ctx)
	if err != nil {
		return "", err
	}
	sha, err := c.branchSHA(ctx, base)
	if err != nil {
		return "", err
	}
	if err := c.createBranch(ctx, branch, sha); err != nil {
		return "", err
	}

	path := fmt.Sprintf("deliverables/%s/%s.md", d.Metadata.Domain, slug)
	if err := c.putFile(ctx, branch, path, d); err != nil {
		return "", err
	}

	return c.openPullRequest(ctx, d, branch, base)
}

// CreateReviewIssue opens an issue pointing a reviewer at the written
// document. Returns the issue URL.
func (c *GitHubClient) CreateReviewIssue(ctx context.Context, d domain.Deliverable, docPath string) (string, error) {
	body := fmt.Sprintf("Un livrable attend une revue.\n\n**Titre** : %s\n**Agent** : %s\n**Document** : `%s`\n",
		d.Title, d.Metadata.Agent, docPath)

	var issue struct {
		HTMLURL string `json:"html_url"`
	}
	err := c.call(ctx, http.MethodPost, c.repoPath("/issues"), map[string]any{
		"title":  "Review: " + d.Title,
		"body":   body,
		"labels": []string{"review", string(d.Metadata.Domain)},
	}, &issue)
	if err != nil {
		return "", errors.Wrapf(err, "creating review issue for %q", d.Title)
	}
	if issue.HTMLURL == "" {
		return "", errors.Wrap(errors.ErrUnexpectedResponse, "issue response missing html_url")
	}

	c.logger.Info().Str("url", issue.HTMLURL).Msg("review issue created")
	return issue.HTMLURL, nil
}

func (c *GitHubClient) defaultBranch(ctx context.Context) (string, error) {
	var repo struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := c.call(ctx, http.MethodGet, c.repoPath(""), nil, &repo); err != nil {
		return "", errors.Wrap(err, "fetching repository")
	}
	if repo.DefaultBranch == "" {
		return "", errors.Wrap(errors.ErrUnexpectedResponse, "repository response missing default_branch")
	}
	return repo.DefaultBranch, nil
}

func (c *GitHubClient) branchSHA(ctx context.Context, branch string) (string, error) {
	var ref struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	if err := c.call(ctx, http.MethodGet, c.repoPath("/git/ref/heads/"+branch), nil, &ref); err != nil {
		return "", errors.Wrapf(err, "fetching ref for %s", branch)
	}
	if ref.Object.SHA == "" {
		return "", errors.Wrap(errors.ErrUnexpectedResponse, "ref response missing object sha")
	}
	return ref.Object.SHA, nil
}

func (c *GitHubClient) createBranch(ctx context.Context, branch, sha string) error {
	err := c.call(ctx, http.MethodPost, c.repoPath("/git/refs"), map[string]any{
		"ref": "refs/heads/" + branch,
		"sha": sha,
	}, nil)
	if err != nil {
		return errors.Wrapf(err, "creating branch %s", branch)
	}
	return nil
}

func (c *GitHubClient) putFile(ctx context.Context, branch, path string, d domain.Deliverable) error {
	err := c.call(ctx, http.MethodPut, c.repoPath("/contents/"+path), map[string]any{
		"message": "Add deliverable: " + d.Title,
		"content": base64.StdEncoding.EncodeToString([]byte(d.Content)),
		"branch":  branch,
	}, nil)
	if err != nil {
		return errors.Wrapf(err, "pushing %s", path)
	}
	return nil
}

func (c *GitHubClient) openPullRequest(ctx context.Context, d domain.Deliverable, head, base string) (string, error) {
	body := fmt.Sprintf("Livrable généré par **%s** (tâche %s).\n\n%s\n",
		d.Metadata.Agent, d.Metadata.TaskID, firstLines(d.Content, 10))

	var pr struct {
		HTMLURL string `json:"html_url"`
	}
	err := c.call(ctx, http.MethodPost, c.repoPath("/pulls"), map[string]any{
		"title": d.Title,
		"head":  head,
		"base":  base,
		"body":  body,
	}, &pr)
	if err != nil {
		return "", errors.Wrapf(err, "opening pull request for %q", d.Title)
	}
	if pr.HTMLURL == "" {
		return "", errors.Wrap(errors.ErrUnexpectedResponse, "pull request response missing html_url")
	}

	c.logger.Info().Str("url", pr.HTMLURL).Msg("pull request opened")
	return pr.HTMLURL, nil
}

func (c *GitHubClient) repoPath(suffix string) string {
	return fmt.Sprintf("/repos/%s/%s%s", c.owner, c.repo, suffix)
}

// call performs one authenticated API request and decodes the response into
// out when non-nil.
func (c *GitHubClient) call(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", githubAccept)
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.DoOK(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

// firstLines returns up to n leading lines of s, for PR body previews.
func firstLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n…"
}
