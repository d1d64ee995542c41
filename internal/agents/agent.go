// Package agents implements the four review dimensions as LLM-backed
// reviewers. Each reviewer owns its persona prompt and issue taxonomy,
// formats the diff the same way, and parses the provider's JSON reply into a
// review.Outcome.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codeguardhq/codeguard/internal/model"
	"github.com/codeguardhq/codeguard/internal/rag"
	"github.com/codeguardhq/codeguard/internal/review"
)

// queryLimit caps how much of the formatted diff seeds the similarity
// search.
const queryLimit = 1000

// Reviewer reviews a changeset from one dimension. The repository name
// travels with each call so a single reviewer instance can serve every run.
type Reviewer interface {
	Dimension() review.Dimension
	Review(ctx context.Context, repo string, changes []review.ChangeUnit) (review.Outcome, error)
}

// ContextSource supplies team-codebase context for a diff. Implementations
// may return an empty string when nothing relevant exists.
type ContextSource interface {
	TeamContext(ctx context.Context, repo, query string) (string, error)
}

// RAGSource backs ContextSource with pgvector similarity search, scoped per
// call to the repository under review.
type RAGSource struct {
	Retriever *rag.Retriever
	TopK      int
}

// TeamContext retrieves the most similar indexed chunks and formats them for
// a prompt.
func (s *RAGSource) TeamContext(ctx context.Context, repo, query string) (string, error) {
	chunks, err := s.Retriever.Retrieve(ctx, query, repo, s.TopK)
	if err != nil {
		return "", err
	}
	return rag.FormatForPrompt(chunks), nil
}

// NoContext is a ContextSource for deployments without a RAG index.
type NoContext struct{}

// TeamContext returns the standard no-context line.
func (NoContext) TeamContext(context.Context, string, string) (string, error) {
	return "No similar code found in team codebase.", nil
}

// FormatDiff renders the changeset the way every reviewer prompt expects.
func FormatDiff(changes []review.ChangeUnit) string {
	sections := make([]string, 0, len(changes))
	for _, change := range changes {
		sections = append(sections, fmt.Sprintf(
			"\nFile: %s (%s)\nAdditions: +%d | Deletions: -%d\nChanges:\n%s\n",
			change.File, change.Status, change.Additions, change.Deletions, change.Patch))
	}
	return strings.Join(sections, "\n---\n")
}

// teamContext fetches RAG context from the head of the formatted diff. A
// retrieval failure degrades to no context rather than failing the review.
func teamContext(ctx context.Context, source ContextSource, repo, formattedDiff string) string {
	query := formattedDiff
	if len(query) > queryLimit {
		query = query[:queryLimit]
	}

	teamCtx, err := source.TeamContext(ctx, repo, query)
	if err != nil || teamCtx == "" {
		return "No similar code found in team codebase."
	}
	return teamCtx
}

// userPrompt assembles the human turn shared by all reviewers.
func userPrompt(instruction, teamCtx, diff string) string {
	return fmt.Sprintf("%s\n\n%s\n\nPR Diff:\n%s\n\nReturn your review in the exact JSON format specified.",
		instruction, teamCtx, diff)
}

// decodeReply strips optional markdown fences and unmarshals the reviewer's
// JSON reply into out.
func decodeReply(text string, out interface{}) error {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("invalid JSON reply: %w", err)
	}
	return nil
}

// complete runs one JSON-mode completion against the reviewer's chat client.
func complete(ctx context.Context, chat model.Chat, system, user string) (string, error) {
	resp, err := chat.Complete(ctx, model.Request{
		System:   system,
		User:     user,
		JSONMode: true,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
