// Package jira creates escalation tickets for high-severity findings. When
// Jira credentials are not configured the client runs in simulation mode and
// fabricates deterministic ticket keys, so development and tests never need
// a live instance.
package jira

import (
	"context"
	"fmt"
	"hash/fnv"

	gojira "github.com/andygrunwald/go-jira"

	"github.com/codeguardhq/codeguard/internal/review"
)

// DefaultProjectKey is used when no project key is configured.
const DefaultProjectKey = "CG"

// Config holds Jira connection settings. The client is enabled only when
// BaseURL, Email, and APIToken are all set.
type Config struct {
	BaseURL    string
	Email      string
	APIToken   string
	ProjectKey string
}

// Creator creates tickets from escalation requests.
type Creator interface {
	CreateTicket(ctx context.Context, req review.TicketRequest) (review.Ticket, error)
}

// Client implements Creator against a Jira Cloud instance, or simulates
// ticket creation when unconfigured.
type Client struct {
	enabled    bool
	api        *gojira.Client
	baseURL    string
	projectKey string
}

// NewClient builds a client from config. An incomplete config yields a
// working client in simulation mode, never an error.
func NewClient(cfg Config) (*Client, error) {
	projectKey := cfg.ProjectKey
	if projectKey == "" {
		projectKey = DefaultProjectKey
	}

	c := &Client{
		baseURL:    cfg.BaseURL,
		projectKey: projectKey,
	}

	if cfg.BaseURL == "" || cfg.Email == "" || cfg.APIToken == "" {
		return c, nil
	}

	transport := gojira.BasicAuthTransport{
		Username: cfg.Email,
		Password: cfg.APIToken,
	}
	api, err := gojira.NewClient(transport.Client(), cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Jira client: %w", err)
	}

	c.enabled = true
	c.api = api
	return c, nil
}

// Enabled reports whether the client talks to a real Jira instance.
func (c *Client) Enabled() bool {
	return c.enabled
}

// CreateTicket creates one ticket, or simulates it when disabled.
func (c *Client) CreateTicket(ctx context.Context, req review.TicketRequest) (review.Ticket, error) {
	if !c.enabled {
		return c.simulate(req), nil
	}

	labels := req.Labels
	if len(labels) == 0 {
		labels = []string{"codeguard", "automated"}
	}

	issue := gojira.Issue{
		Fields: &gojira.IssueFields{
			Project:     gojira.Project{Key: c.projectKey},
			Summary:     req.Summary,
			Description: req.Description,
			Type:        gojira.IssueType{Name: req.IssueType},
			Priority:    &gojira.Priority{Name: req.Priority},
			Labels:      labels,
		},
	}

	created, _, err := c.api.Issue.CreateWithContext(ctx, &issue)
	if err != nil {
		return review.Ticket{}, fmt.Errorf("failed to create Jira issue: %w", err)
	}

	return review.Ticket{
		Key:    created.Key,
		URL:    fmt.Sprintf("%s/browse/%s", c.baseURL, created.Key),
		Status: "created",
	}, nil
}

// simulate fabricates a ticket whose key is derived from the summary, so the
// same finding always yields the same key.
func (c *Client) simulate(req review.TicketRequest) review.Ticket {
	h := fnv.New32a()
	h.Write([]byte(req.Summary))
	key := fmt.Sprintf("%s-%d", c.projectKey, h.Sum32()%1000)

	return review.Ticket{
		Key:    key,
		URL:    fmt.Sprintf("https://jira.example.com/browse/%s", key),
		Status: "simulated",
	}
}
