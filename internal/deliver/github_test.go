package deliver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droverhq/drover/internal/domain"
	drovererrors "github.com/droverhq/drover/internal/errors"
)

type githubServer struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	requests map[string][]byte

	repoBody map[string]any
	refBody  map[string]any
}

func newGitHubServer(t *testing.T) *githubServer {
	t.Helper()
	gs := &githubServer{
		t:        t,
		requests: make(map[string][]byte),
		repoBody: map[string]any{"default_branch": "main"},
		refBody:  map[string]any{"object": map[string]any{"sha": "abc123"}},
	}
	gs.srv = httptest.NewServer(http.HandlerFunc(gs.handle))
	t.Cleanup(gs.srv.Close)
	return gs
}

func (gs *githubServer) handle(w http.ResponseWriter, r *http.Request) {
	assert.Equal(gs.t, "Bearer gh-test-token", r.Header.Get("Authorization"))
	assert.Equal(gs.t, "application/vnd.github+json", r.Header.Get("Accept"))

	body, _ := io.ReadAll(r.Body)
	gs.mu.Lock()
	gs.requests[r.Method+" "+r.URL.Path] = body
	gs.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/repos/acme/site":
		_ = json.NewEncoder(w).Encode(gs.repoBody)
	case r.Method == http.MethodGet && r.URL.Path == "/repos/acme/site/git/ref/heads/main":
		_ = json.NewEncoder(w).Encode(gs.refBody)
	case r.Method == http.MethodPost && r.URL.Path == "/repos/acme/site/git/refs":
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"ref": "refs/heads/feature/x"})
	case r.Method == http.MethodPut && r.URL.Path == "/repos/acme/site/contents/deliverables/seo/audit-seo-complet.md":
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"content": map[string]any{}})
	case r.Method == http.MethodPost && r.URL.Path == "/repos/acme/site/pulls":
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"html_url": "https://github.com/acme/site/pull/7"})
	case r.Method == http.MethodPost && r.URL.Path == "/repos/acme/site/issues":
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"html_url": "https://github.com/acme/site/issues/12"})
	default:
		gs.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func (gs *githubServer) body(key string) []byte {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.requests[key]
}

func (gs *githubServer) client() *GitHubClient {
	return NewGitHubClient("acme", "site", "gh-test-token", WithGitHubBaseURL(gs.srv.URL))
}

func prDeliverable() domain.Deliverable {
	d := reportDeliverable()
	d.Type = domain.DeliverablePullRequest
	d.Location = "feature/audit-seo-du-site"
	return d
}

func TestCreatePullRequest(t *testing.T) {
	t.Parallel()

	gs := newGitHubServer(t)
	url, err := gs.client().CreatePullRequest(context.Background(), prDeliverable())
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/site/pull/7", url)

	var refReq map[string]string
	require.NoError(t, json.Unmarshal(gs.body("POST /repos/acme/site/git/refs"), &refReq))
	assert.Equal(t, "refs/heads/feature/audit-seo-complet", refReq["ref"])
	assert.Equal(t, "abc123", refReq["sha"])

	var putReq map[string]string
	require.NoError(t, json.Unmarshal(gs.body("PUT /repos/acme/site/contents/deliverables/seo/audit-seo-complet.md"), &putReq))
	decoded, err := base64.StdEncoding.DecodeString(putReq["content"])
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "Balises title à revoir.")
	assert.Equal(t, "feature/audit-seo-complet", putReq["branch"])

	var prReq map[string]string
	require.NoError(t, json.Unmarshal(gs.body("POST /repos/acme/site/pulls"), &prReq))
	assert.Equal(t, "Audit SEO complet", prReq["title"])
	assert.Equal(t, "feature/audit-seo-complet", prReq["head"])
	assert.Equal(t, "main", prReq["base"])
}

func TestCreatePullRequestMissingDefaultBranch(t *testing.T) {
	t.Parallel()

	gs := newGitHubServer(t)
	gs.repoBody = map[string]any{"name": "site"}

	_, err := gs.client().CreatePullRequest(context.Background(), prDeliverable())
	require.Error(t, err)
	assert.True(t, errors.Is(err, drovererrors.ErrUnexpectedResponse))
}

func TestCreatePullRequestMissingRefSHA(t *testing.T) {
	t.Parallel()

	gs := newGitHubServer(t)
	gs.refBody = map[string]any{"object": map[string]any{}}

	_, err := gs.client().CreatePullRequest(context.Background(), prDeliverable())
	require.Error(t, err)
	assert.True(t, errors.Is(err, drovererrors.ErrUnexpectedResponse))
}

func TestCreateReviewIssue(t *testing.T) {
	t.Parallel()

	gs := newGitHubServer(t)
	d := reportDeliverable()
	d.Type = domain.DeliverableReviewRequest

	url, err := gs.client().CreateReviewIssue(context.Background(), d, "/output/deliverables/reviews/audit.md")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/site/issues/12", url)

	var issueReq struct {
		Title  string   `json:"title"`
		Body   string   `json:"body"`
		Labels []string `json:"labels"`
	}
	require.NoError(t, json.Unmarshal(gs.body("POST /repos/acme/site/issues"), &issueReq))
	assert.Equal(t, "Review: Audit SEO complet", issueReq.Title)
	assert.Contains(t, issueReq.Body, "/output/deliverables/reviews/audit.md")
	assert.Equal(t, []string{"review", "seo"}, issueReq.Labels)
}

func TestProduceReviewRequestOpensIssue(t *testing.T) {
	t.Parallel()

	gs := newGitHubServer(t)
	d := reportDeliverable()
	d.Type = domain.DeliverableReviewRequest

	producer := NewProducer(t.TempDir(), WithGitHub(gs.client()))
	url, err := producer.Produce(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/site/issues/12", url)
}

func TestGitHubErrorDoesNotLeakToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	client := NewGitHubClient("acme", "site", "gh-secret-token", WithGitHubBaseURL(srv.URL))
	_, err := client.CreatePullRequest(context.Background(), prDeliverable())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "gh-secret-token")
}
