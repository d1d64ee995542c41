package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeguardhq/codeguard/internal/review"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume an interrupted review run",
	Long: `Resume a review run from its last persisted step.

Runs are keyed by repository and PR number, so the same flags that started
a review locate it again:

  codeguard resume --repo acme/api --pr 42
  codeguard resume --repo acme/api --pr 42 --post`,
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().String("repo", "", "repository as owner/name")
	resumeCmd.Flags().Int("pr", 0, "pull request number")
	resumeCmd.Flags().Bool("post", false, "post the review comment to the PR")
	_ = resumeCmd.MarkFlagRequired("repo")
	_ = resumeCmd.MarkFlagRequired("pr")
}

func runResume(cmd *cobra.Command, _ []string) error {
	repo, _ := cmd.Flags().GetString("repo")
	prNumber, _ := cmd.Flags().GetInt("pr")
	post, _ := cmd.Flags().GetBool("post")

	_, app, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	final, err := app.ResumeReview(cmd.Context(), repo, prNumber, post)
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
