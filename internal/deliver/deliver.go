// Package deliver materializes agent deliverables: markdown files under the
// output root, campaign config JSON, and GitHub pull requests or review
// issues for code-shaped work.
//
// Model-derived locations are never trusted verbatim. File targets pass
// through sanitize.SafePath against the output root, and GitHub branch and
// path components are re-derived from the deliverable title slug.
package deliver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/droverhq/drover/internal/clock"
	"github.com/droverhq/drover/internal/domain"
	"github.com/droverhq/drover/internal/errors"
	"github.com/droverhq/drover/internal/sanitize"
)

const (
	outputDirPerm  = 0o750
	outputFilePerm = 0o600
)

// Producer writes deliverables to their type-dependent destination.
type Producer struct {
	outputDir string
	github    *GitHubClient
	clk       clock.Clock
	logger    zerolog.Logger
}

// ProducerOption configures a Producer.
type ProducerOption func(*Producer)

// WithGitHub enables the pull request and review issue paths. Without it,
// those deliverable types degrade to a local document write.
func WithGitHub(gh *GitHubClient) ProducerOption {
	return func(p *Producer) { p.github = gh }
}

// WithClock overrides the clock, for tests.
func WithClock(clk clock.Clock) ProducerOption {
	return func(p *Producer) { p.clk = clk }
}

// WithLogger sets the producer logger.
func WithLogger(logger zerolog.Logger) ProducerOption {
	return func(p *Producer) {
		p.logger = logger.With().Str("component", "deliver").Logger()
	}
}

// NewProducer creates a Producer rooted at outputDir.
func NewProducer(outputDir string, opts ...ProducerOption) *Producer {
	p := &Producer{
		outputDir: outputDir,
		clk:       clock.RealClock{},
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Produce materializes one deliverable and returns where it landed: a local
// file path, a pull request URL, or a review issue URL.
func (p *Producer) Produce(ctx context.Context, d domain.Deliverable) (string, error) {
	switch d.Type {
	case domain.DeliverableDocument, domain.DeliverableReport:
		return p.writeDocument(d)

	case domain.DeliverablePullRequest:
		if p.github == nil {
			p.logger.Warn().Str("title", d.Title).Msg("github not configured, writing pull request deliverable locally")
			return p.writeDocument(d)
		}
		return p.github.CreatePullRequest(ctx, d)

	case domain.DeliverableReviewRequest:
		path, err := p.writeDocument(d)
		if err != nil {
			return "", err
		}
		if p.github == nil {
			p.logger.Warn().Str("title", d.Title).Msg("github not configured, skipping review issue")
			return path, nil
		}
		return p.github.CreateReviewIssue(ctx, d, path)

	case domain.DeliverableCampaignConfig:
		return p.writeCampaignConfig(d)
	}

	return "", errors.Wrapf(errors.ErrInvalidDeliverableType, "%q", d.Type)
}

// writeDocument writes the deliverable as markdown with a provenance header.
func (p *Producer) writeDocument(d domain.Deliverable) (string, error) {
	target, err := sanitize.SafePath(p.outputDir, documentRelPath(d))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), outputDirPerm); err != nil {
		return "", errors.Wrapf(err, "creating output directory for %q", d.Title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<!--\ngenerated_by: %s\ndomain: %s\ntask_id: %s\ngenerated_at: %s\n-->\n\n",
		d.Metadata.Agent, d.Metadata.Domain, d.Metadata.TaskID, p.generatedAt(d))
	fmt.Fprintf(&b, "# %s\n\n", d.Title)
	b.WriteString(d.Content)
	if !strings.HasSuffix(d.Content, "\n") {
		b.WriteString("\n")
	}

	if err := os.WriteFile(target, []byte(b.String()), outputFilePerm); err != nil {
		return "", errors.Wrapf(err, "writing deliverable %q", d.Title)
	}

	p.logger.Info().Str("path", target).Str("type", string(d.Type)).Msg("deliverable written")
	return target, nil
}

// writeCampaignConfig writes the content as JSON. Content that is not valid
// JSON is preserved inside a JSON envelope rather than rejected, so a partial
// model response still lands reviewably.
func (p *Producer) writeCampaignConfig(d domain.Deliverable) (string, error) {
	target, err := sanitize.SafePath(p.outputDir, documentRelPath(d))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), outputDirPerm); err != nil {
		return "", errors.Wrapf(err, "creating output directory for %q", d.Title)
	}

	payload := []byte(d.Content)
	if !json.Valid(payload) {
		p.logger.Warn().Str("title", d.Title).Msg("campaign config is not valid JSON, wrapping in envelope")
		payload, err = json.MarshalIndent(map[string]string{
			"title":        d.Title,
			"generated_by": d.Metadata.Agent,
			"generated_at": p.generatedAt(d),
			"config":       d.Content,
		}, "", "  ")
		if err != nil {
			return "", errors.Wrapf(err, "encoding campaign envelope for %q", d.Title)
		}
	}

	if err := os.WriteFile(target, payload, outputFilePerm); err != nil {
		return "", errors.Wrapf(err, "writing campaign config %q", d.Title)
	}

	p.logger.Info().Str("path", target).Msg("campaign config written")
	return target, nil
}

// documentRelPath maps a deliverable to its relative file target under the
// output root. Review requests have no file-shaped location of their own, so
// the path is derived from the title slug.
func documentRelPath(d domain.Deliverable) string {
	switch d.Type {
	case domain.DeliverableReviewRequest:
		return "deliverables/reviews/" + sanitize.Slug(d.Title) + ".md"
	case domain.DeliverablePullRequest:
		return "deliverables/docs/" + sanitize.Slug(d.Title) + ".md"
	}
	if d.Location != "" {
		return d.Location
	}
	return "deliverables/" + sanitize.Slug(d.Title) + ".md"
}

func (p *Producer) generatedAt(d domain.Deliverable) string {
	if d.Metadata.GeneratedAt != "" {
		return d.Metadata.GeneratedAt
	}
	return p.clk.Now().UTC().Format(time.RFC3339)
}
