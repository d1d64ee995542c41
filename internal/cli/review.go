package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeguardhq/codeguard/internal/diffio"
	"github.com/codeguardhq/codeguard/internal/review"
	"github.com/codeguardhq/codeguard/internal/server"
	"github.com/codeguardhq/codeguard/internal/workflow"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review a pull request or a local diff",
	Long: `Run one review from the command line.

Examples:
  codeguard review --repo acme/api --pr 42          # review a GitHub PR
  codeguard review --repo acme/api --pr 42 --post   # and post the comment
  codeguard review --dir . --range main...HEAD      # review a local branch`,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().String("repo", "", "repository as owner/name")
	reviewCmd.Flags().Int("pr", 0, "pull request number")
	reviewCmd.Flags().Bool("post", false, "post the review comment to the PR")
	reviewCmd.Flags().String("dir", "", "local git repository to review instead of a PR")
	reviewCmd.Flags().String("range", "HEAD~1...HEAD", "commit range for --dir mode")
	reviewCmd.Flags().IntP("context", "C", 3, "lines of context around changes in --dir mode")
}

func runReview(cmd *cobra.Command, _ []string) error {
	repo, _ := cmd.Flags().GetString("repo")
	prNumber, _ := cmd.Flags().GetInt("pr")
	post, _ := cmd.Flags().GetBool("post")
	dir, _ := cmd.Flags().GetString("dir")

	if dir == "" && (repo == "" || prNumber == 0) {
		return fmt.Errorf("either --repo and --pr, or --dir is required")
	}

	_, app, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	var initial review.RunState
	if dir != "" {
		commitRange, _ := cmd.Flags().GetString("range")
		contextLines, _ := cmd.Flags().GetInt("context")

		raw, err := diffio.GitDiffRange(dir, commitRange, contextLines)
		if err != nil {
			return err
		}
		if strings.TrimSpace(raw) == "" {
			fmt.Println("No changes to review.")
			return nil
		}

		changes, err := diffio.Parse(raw)
		if err != nil {
			return err
		}

		if repo == "" {
			repo = "local/" + commitRange
		}
		initial = review.RunState{
			Repo:     repo,
			PRNumber: 1,
			PRTitle:  commitRange,
			Changes:  changes,
		}
		post = false
	} else {
		changes, err := app.github.FetchChangeSet(ctx, repo, prNumber)
		if err != nil {
			return err
		}
		initial = review.RunState{
			Repo:     repo,
			PRNumber: prNumber,
			Changes:  changes,
		}
	}

	runID := workflow.RunKey(initial.Repo, initial.PRNumber)

	if post {
		return app.RunReview(ctx, server.PRJob{
			RunID:    runID,
			Repo:     initial.Repo,
			PRNumber: initial.PRNumber,
			PRTitle:  initial.PRTitle,
		})
	}

	engine, err := app.engineFor(ctx, false)
	if err != nil {
		return err
	}

	final, err := engine.Run(ctx, runID, initial)
	if err != nil {
		return err
	}

	if final.Report != nil {
		fmt.Println(review.RenderComment(*final.Report))
	}
	for _, ticket := range final.Tickets {
		fmt.Printf("Ticket %s (%s): %s\n", ticket.Key, ticket.Status, ticket.URL)
	}

	return nil
}
