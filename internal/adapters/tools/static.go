// Package tools provides the issue tracker used by the agentic setups.
// StaticIssueTracker answers from fixed data and never calls GitHub.
package tools

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"
	apperrors "github.com/0xcro3dile/llm-evolution-explorer/pkg/errors"
	"github.com/0xcro3dile/llm-evolution-explorer/pkg/logger"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

type fixtures struct {
	Issues []issueFixture `yaml:"issues"`
	Tools  []toolFixture  `yaml:"tools"`
}

type issueFixture struct {
	Number    int       `yaml:"number"`
	Title     string    `yaml:"title"`
	State     string    `yaml:"state"`
	CreatedAt time.Time `yaml:"created_at"`
	// Summary is the body shown in listings; Body is the full text.
	Summary  string   `yaml:"summary"`
	Body     string   `yaml:"body"`
	Comments int      `yaml:"comments"`
	Labels   []string `yaml:"labels"`
}

type toolFixture struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Parameters  []string `yaml:"parameters"`
}

// StaticIssueTracker serves the same issues for every repository.
type StaticIssueTracker struct {
	data fixtures
}

// NewStaticIssueTracker loads the embedded fixtures.
func NewStaticIssueTracker() (*StaticIssueTracker, error) {
	return NewStaticIssueTrackerFromYAML(defaultFixtures)
}

// NewStaticIssueTrackerFromYAML loads fixtures from raw YAML.
func NewStaticIssueTrackerFromYAML(raw []byte) (*StaticIssueTracker, error) {
	var data fixtures
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decoding tool fixtures: %w", err)
	}
	seen := make(map[int]bool, len(data.Issues))
	for _, is := range data.Issues {
		if seen[is.Number] {
			return nil, fmt.Errorf("duplicate issue #%d in fixtures", is.Number)
		}
		seen[is.Number] = true
	}
	return &StaticIssueTracker{data: data}, nil
}

// ListIssues returns the issue summaries in fixture order.
func (t *StaticIssueTracker) ListIssues(ctx context.Context, repo entities.Repository) ([]entities.Issue, error) {
	logger.Debug(ctx, "listing issues", "repository", repo.FullName())

	out := make([]entities.Issue, 0, len(t.data.Issues))
	for _, is := range t.data.Issues {
		out = append(out, entities.Issue{
			Number:    is.Number,
			Title:     is.Title,
			State:     is.State,
			CreatedAt: is.CreatedAt,
			Body:      is.Summary,
		})
	}
	return out, nil
}

// GetIssue returns one issue with its full body, comment count and labels.
func (t *StaticIssueTracker) GetIssue(ctx context.Context, repo entities.Repository, number int) (*entities.IssueDetail, error) {
	for _, is := range t.data.Issues {
		if is.Number != number {
			continue
		}
		return &entities.IssueDetail{
			Issue: entities.Issue{
				Number:    is.Number,
				Title:     is.Title,
				State:     is.State,
				CreatedAt: is.CreatedAt,
				Body:      is.Body,
			},
			Comments: is.Comments,
			Labels:   append([]string(nil), is.Labels...),
		}, nil
	}
	return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("Issue #%d not found", number))
}

// DiscoverTools lists the tools a function-calling model would be offered.
func (t *StaticIssueTracker) DiscoverTools(ctx context.Context) ([]entities.ToolDescriptor, error) {
	out := make([]entities.ToolDescriptor, 0, len(t.data.Tools))
	for _, tool := range t.data.Tools {
		out = append(out, entities.ToolDescriptor{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  append([]string(nil), tool.Parameters...),
		})
	}
	return out, nil
}
