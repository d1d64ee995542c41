package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/codeguardhq/codeguard/graph"
	"github.com/codeguardhq/codeguard/graph/emit"
	"github.com/codeguardhq/codeguard/graph/store"
	"github.com/codeguardhq/codeguard/internal/agents"
	"github.com/codeguardhq/codeguard/internal/config"
	"github.com/codeguardhq/codeguard/internal/gh"
	"github.com/codeguardhq/codeguard/internal/jira"
	"github.com/codeguardhq/codeguard/internal/model"
	"github.com/codeguardhq/codeguard/internal/rag"
	"github.com/codeguardhq/codeguard/internal/review"
	"github.com/codeguardhq/codeguard/internal/server"
	"github.com/codeguardhq/codeguard/internal/workflow"
)

// App is the composition root. Shared infrastructure and the workflow
// graphs are built once and reused across runs; per-run data (repo, PR,
// changeset) travels through RunState.
type App struct {
	Cfg      *config.Config
	Log      *slog.Logger
	Registry *prometheus.Registry

	metrics  *graph.PrometheusMetrics
	store    store.Store[review.RunState]
	emitter  emit.Emitter
	github   *gh.Client
	tickets  *jira.Client
	pool     *pgxpool.Pool
	embedder rag.Embedder

	engineOnce sync.Once
	engineErr  error
	// engines[0] previews without posting, engines[1] posts to GitHub.
	engines [2]*graph.Engine[review.RunState]

	closers []func() error
}

// NewApp wires shared infrastructure from config.
func NewApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	app := &App{
		Cfg:      cfg,
		Log:      log,
		Registry: prometheus.NewRegistry(),
	}
	app.metrics = graph.NewPrometheusMetrics(app.Registry)

	st, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}
	app.store = st
	if closer, ok := st.(interface{ Close() error }); ok {
		app.closers = append(app.closers, closer.Close)
	}

	if cfg.Tracing.Enabled {
		tp := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		app.emitter = emit.NewOTelEmitter(otel.Tracer("codeguard"))
		app.closers = append(app.closers, func() error {
			return tp.Shutdown(context.Background())
		})
	} else {
		app.emitter = emit.NewLogEmitter(os.Stdout, cfg.Env != "local")
	}
	app.github = gh.NewClient(ctx, cfg.GitHub.Token)

	app.tickets, err = jira.NewClient(jira.Config{
		BaseURL:    cfg.Jira.BaseURL,
		Email:      cfg.Jira.Email,
		APIToken:   cfg.Jira.APIToken,
		ProjectKey: cfg.Jira.ProjectKey,
	})
	if err != nil {
		return nil, err
	}
	if !app.tickets.Enabled() {
		log.Info("Jira not configured, tickets will be simulated")
	}

	if cfg.Database.Enabled {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		app.pool = pool
		app.closers = append(app.closers, func() error { pool.Close(); return nil })

		if cfg.Providers.OpenAIKey != "" {
			app.embedder, err = rag.NewOpenAIEmbedder(cfg.Providers.OpenAIKey)
			if err != nil {
				return nil, err
			}
		}
	}

	return app, nil
}

func buildStore(cfg *config.Config) (store.Store[review.RunState], error) {
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemStore[review.RunState](), nil
	case "sqlite":
		return store.NewSQLiteStore[review.RunState](cfg.Store.SQLitePath)
	case "mysql":
		return store.NewMySQLStore[review.RunState](cfg.Store.MySQLDSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// Close releases pools and store connections.
func (a *App) Close() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			a.Log.Warn("close failed", slog.String("error", err.Error()))
		}
	}
}

// chatFor picks the provider backing a dimension. Style and security stay on
// OpenAI, performance prefers Anthropic, architecture prefers Gemini; each
// falls back to whatever key is configured.
func (a *App) chatFor(ctx context.Context, dim review.Dimension) (model.Chat, error) {
	p := a.Cfg.Providers

	openAI := func() (model.Chat, error) { return model.NewOpenAIChat(p.OpenAIKey, p.Model) }
	anthropicChat := func() (model.Chat, error) { return model.NewAnthropicChat(p.AnthropicKey, "claude-sonnet-4-20250514") }
	google := func() (model.Chat, error) { return model.NewGoogleChat(ctx, p.GoogleKey, "gemini-1.5-pro") }

	var order []struct {
		key   string
		build func() (model.Chat, error)
	}
	switch dim {
	case review.DimPerformance:
		order = []struct {
			key   string
			build func() (model.Chat, error)
		}{{p.AnthropicKey, anthropicChat}, {p.OpenAIKey, openAI}, {p.GoogleKey, google}}
	case review.DimArchitecture:
		order = []struct {
			key   string
			build func() (model.Chat, error)
		}{{p.GoogleKey, google}, {p.OpenAIKey, openAI}, {p.AnthropicKey, anthropicChat}}
	default:
		order = []struct {
			key   string
			build func() (model.Chat, error)
		}{{p.OpenAIKey, openAI}, {p.AnthropicKey, anthropicChat}, {p.GoogleKey, google}}
	}

	for _, candidate := range order {
		if candidate.key != "" {
			return candidate.build()
		}
	}
	return nil, fmt.Errorf("no LLM provider configured for %s reviewer", dim)
}

// contextFor builds the RAG context source for one dimension. Style gets a
// deeper retrieval than the other dimensions.
func (a *App) contextFor(dim review.Dimension) agents.ContextSource {
	if a.pool == nil || a.embedder == nil {
		return agents.NoContext{}
	}

	topK := 3
	if dim == review.DimStyle {
		topK = a.Cfg.Review.RAGTopK
	}

	return &agents.RAGSource{
		Retriever: rag.NewRetriever(a.pool, a.embedder),
		TopK:      topK,
	}
}

// buildReviewers constructs the four reviewers.
func (a *App) buildReviewers(ctx context.Context) ([]agents.Reviewer, error) {
	reviewers := make([]agents.Reviewer, 0, len(review.Dimensions))

	for _, dim := range review.Dimensions {
		chat, err := a.chatFor(ctx, dim)
		if err != nil {
			return nil, err
		}
		source := a.contextFor(dim)

		switch dim {
		case review.DimStyle:
			reviewers = append(reviewers, &agents.StyleReviewer{Chat: chat, Context: source})
		case review.DimSecurity:
			reviewers = append(reviewers, &agents.SecurityReviewer{Chat: chat, Context: source})
		case review.DimPerformance:
			reviewers = append(reviewers, &agents.PerformanceReviewer{Chat: chat, Context: source})
		case review.DimArchitecture:
			reviewers = append(reviewers, &agents.ArchitectureReviewer{Chat: chat, Context: source})
		}
	}

	return reviewers, nil
}

// engineFor returns the workflow graph shared by all runs. Both variants
// (posting and preview) are assembled on first use and reused; publish
// selects whether the notify node posts the comment back to GitHub.
func (a *App) engineFor(ctx context.Context, publish bool) (*graph.Engine[review.RunState], error) {
	a.engineOnce.Do(func() {
		reviewers, err := a.buildReviewers(ctx)
		if err != nil {
			a.engineErr = err
			return
		}

		build := func(publisher workflow.CommentPublisher) (*graph.Engine[review.RunState], error) {
			return workflow.New(workflow.Deps{
				Reviewers:     reviewers,
				Tickets:       a.tickets,
				Publisher:     publisher,
				Store:         a.store,
				Emitter:       a.emitter,
				Metrics:       a.metrics,
				Log:           a.Log,
				ReviewTimeout: time.Duration(a.Cfg.Review.TimeoutSeconds) * time.Second,
			})
		}

		if a.engines[0], a.engineErr = build(nil); a.engineErr != nil {
			return
		}
		a.engines[1], a.engineErr = build(a.github)
	})
	if a.engineErr != nil {
		return nil, a.engineErr
	}

	if publish {
		return a.engines[1], nil
	}
	return a.engines[0], nil
}

// RunReview implements server.Runner: fetch the changeset, run the graph,
// and post the comment.
func (a *App) RunReview(ctx context.Context, job server.PRJob) error {
	changes, err := a.github.FetchChangeSet(ctx, job.Repo, job.PRNumber)
	if err != nil {
		return fmt.Errorf("failed to fetch changeset for %s #%d: %w", job.Repo, job.PRNumber, err)
	}

	engine, err := a.engineFor(ctx, true)
	if err != nil {
		return err
	}

	initial := review.RunState{
		Repo:     job.Repo,
		PRNumber: job.PRNumber,
		PRTitle:  job.PRTitle,
		PRAuthor: job.PRAuthor,
		Changes:  changes,
	}

	final, err := engine.Run(ctx, job.RunID, initial)
	if err != nil {
		return err
	}

	a.Log.Info("review run complete",
		slog.String("run_id", job.RunID),
		slog.String("severity", string(final.Severity)),
		slog.Bool("approved", final.Report != nil && final.Report.Approved),
		slog.Int("tickets", len(final.Tickets)))

	return nil
}

// ResumeReview restarts an interrupted run from its last persisted step. The
// run is located under its repo#pr key; a checkpoint is cut from the latest
// step and replayed under a fresh run ID so the original step history stays
// intact.
func (a *App) ResumeReview(ctx context.Context, repo string, prNumber int, post bool) (review.RunState, error) {
	key := workflow.RunKey(repo, prNumber)

	state, step, err := a.store.LoadLatest(ctx, key)
	if err != nil {
		return review.RunState{}, fmt.Errorf("no persisted run for %s: %w", key, err)
	}

	startNode, done := workflow.NextNode(state)
	if done {
		a.Log.Info("run already complete", slog.String("run_id", key))
		return state, nil
	}

	engine, err := a.engineFor(ctx, post)
	if err != nil {
		return review.RunState{}, err
	}

	if err := engine.SaveCheckpoint(ctx, key, key); err != nil {
		return review.RunState{}, err
	}

	resumeID := fmt.Sprintf("%s:resume-%s", key, uuid.NewString())
	a.Log.Info("resuming run",
		slog.String("run_id", key),
		slog.String("resume_id", resumeID),
		slog.Int("from_step", step),
		slog.String("start_node", startNode))

	return engine.ResumeFromCheckpoint(ctx, key, resumeID, startNode)
}
