package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeguardhq/codeguard/internal/rag"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index a repository into the team code database",
	Long: `Chunk and embed a repository's source files into the pgvector
index that reviewers use for team-convention context. Requires database.url
and an OpenAI key in config.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("dir", ".", "repository directory to index")
	ingestCmd.Flags().String("repo", "", "repository name to index under (owner/name)")
	_ = ingestCmd.MarkFlagRequired("repo")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	repo, _ := cmd.Flags().GetString("repo")

	_, app, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.pool == nil {
		return fmt.Errorf("database.url is not configured")
	}
	if app.embedder == nil {
		return fmt.Errorf("an OpenAI key is required for embeddings")
	}

	ctx := cmd.Context()
	if err := rag.InitSchema(ctx, app.pool); err != nil {
		return err
	}

	retriever := rag.NewRetriever(app.pool, app.embedder)
	stored, err := rag.NewIngestor(retriever).IngestRepo(ctx, dir, repo)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d chunks from %s as %s\n", stored, dir, repo)
	return nil
}
