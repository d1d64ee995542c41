package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v66/github"

	"github.com/codeguardhq/codeguard/internal/workflow"
)

// reviewActions are the pull_request actions that trigger a review.
var reviewActions = map[string]bool{
	"opened":      true,
	"synchronize": true,
	"reopened":    true,
}

// PRJob describes one review to run.
type PRJob struct {
	RunID    string
	Repo     string
	PRNumber int
	PRTitle  string
	PRAuthor string
}

// Runner executes a review job. The server hands jobs off and returns 200
// immediately; GitHub expects webhook responses within seconds.
type Runner interface {
	RunReview(ctx context.Context, job PRJob) error
}

// WebhookHandler verifies and dispatches GitHub webhook deliveries.
type WebhookHandler struct {
	secret []byte
	runner Runner
	log    *slog.Logger
}

// NewWebhookHandler creates a handler. With an empty secret, signature
// verification still runs and rejects signed deliveries, so configure the
// secret in anything beyond local experiments.
func NewWebhookHandler(secret string, runner Runner, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret: []byte(secret),
		runner: runner,
		log:    log,
	}
}

// ServeHTTP validates the HMAC signature, filters for reviewable
// pull_request actions, and starts the review in the background.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := github.ValidatePayload(r, h.secret)
	if err != nil {
		h.log.Warn("webhook signature validation failed", slog.String("error", err.Error()))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		h.log.Warn("webhook parse failed", slog.String("error", err.Error()))
		http.Error(w, "unparseable payload", http.StatusBadRequest)
		return
	}

	prEvent, ok := event.(*github.PullRequestEvent)
	if !ok {
		// Other event types are acknowledged and ignored.
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ignored"}`))
		return
	}

	action := prEvent.GetAction()
	if !reviewActions[action] {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ignored"}`))
		return
	}

	job := PRJob{
		Repo:     prEvent.GetRepo().GetFullName(),
		PRNumber: prEvent.GetPullRequest().GetNumber(),
		PRTitle:  prEvent.GetPullRequest().GetTitle(),
		PRAuthor: prEvent.GetPullRequest().GetUser().GetLogin(),
	}
	// Runs are keyed by the PR itself so a re-delivered or interrupted run
	// lands on the same persisted history and can be resumed.
	job.RunID = workflow.RunKey(job.Repo, job.PRNumber)

	h.log.Info("PR event received",
		slog.String("action", action),
		slog.String("repo", job.Repo),
		slog.Int("pr", job.PRNumber),
		slog.String("run_id", job.RunID))

	go func() {
		// Detached from the request context: the review outlives the
		// webhook response.
		if err := h.runner.RunReview(context.Background(), job); err != nil {
			h.log.Error("review run failed",
				slog.String("run_id", job.RunID),
				slog.String("error", err.Error()))
		}
	}()

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"queued","run_id":"` + job.RunID + `"}`))
}
