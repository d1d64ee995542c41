// Package gh wraps the GitHub API for fetching pull request changesets and
// posting review comments.
package gh

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/codeguardhq/codeguard/internal/review"
)

const filesPerPage = 100

// Client talks to the GitHub API with token authentication.
type Client struct {
	api *github.Client
}

// NewClient creates an authenticated client. An empty token yields an
// unauthenticated client subject to the low anonymous rate limit; fine for
// local experiments, not for serving webhooks.
func NewClient(ctx context.Context, token string) *Client {
	if token == "" {
		return &Client{api: github.NewClient(nil)}
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{api: github.NewClient(oauth2.NewClient(ctx, ts))}
}

// SplitRepo splits "owner/name" into its parts.
func SplitRepo(fullName string) (owner, name string, err error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository name %q, want owner/name", fullName)
	}
	return parts[0], parts[1], nil
}

// FetchChangeSet lists every changed file in a pull request as ChangeUnits,
// following pagination. Files without a patch (binary files) keep an empty
// patch.
func (c *Client) FetchChangeSet(ctx context.Context, repoFullName string, prNumber int) ([]review.ChangeUnit, error) {
	owner, name, err := SplitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &github.ListOptions{PerPage: filesPerPage}
	var changes []review.ChangeUnit

	for {
		files, resp, err := c.api.PullRequests.ListFiles(ctx, owner, name, prNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list PR files: %w", err)
		}

		for _, f := range files {
			changes = append(changes, review.ChangeUnit{
				File:      f.GetFilename(),
				Status:    f.GetStatus(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
				Patch:     f.GetPatch(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return changes, nil
}

// PublishComment posts a review comment on the pull request conversation.
func (c *Client) PublishComment(ctx context.Context, repoFullName string, prNumber int, body string) error {
	owner, name, err := SplitRepo(repoFullName)
	if err != nil {
		return err
	}

	comment := &github.IssueComment{Body: github.String(body)}
	if _, _, err := c.api.Issues.CreateComment(ctx, owner, name, prNumber, comment); err != nil {
		return fmt.Errorf("failed to post PR comment: %w", err)
	}

	return nil
}
