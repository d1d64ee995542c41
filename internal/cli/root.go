// Package cli implements the codeguard command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeguardhq/codeguard/internal/config"
	"github.com/codeguardhq/codeguard/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "codeguard",
	Short: "Multi-dimensional automated pull request review",
	Long: `CodeGuard reviews pull requests across four dimensions (style,
security, performance, and architecture) using LLM reviewers running in
parallel. Findings are aggregated into a single report, high-severity
issues are escalated to Jira, and the verdict is posted back to the PR.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(ingestCmd)
}

// Execute runs the command tree.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

// loadEnv builds config, logger, and the app for a command invocation.
func loadEnv(cmd *cobra.Command) (*config.Config, *App, error) {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	app, err := NewApp(cmd.Context(), cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, app, nil
}
