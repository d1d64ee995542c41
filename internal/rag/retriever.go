package rag

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Chunk is one indexed piece of team code with its similarity to a query.
type Chunk struct {
	Filepath     string  `json:"filepath"`
	FunctionName string  `json:"function_name"`
	ChunkText    string  `json:"chunk_text"`
	Language     string  `json:"language"`
	Similarity   float64 `json:"similarity"`
}

// chunkPreviewLimit caps how much of a chunk goes into a prompt.
const chunkPreviewLimit = 500

// Retriever performs similarity search over the code_chunks table.
type Retriever struct {
	pool     *pgxpool.Pool
	embedder Embedder
}

// NewRetriever creates a retriever over an existing connection pool.
func NewRetriever(pool *pgxpool.Pool, embedder Embedder) *Retriever {
	return &Retriever{pool: pool, embedder: embedder}
}

// InitSchema enables pgvector and creates the code_chunks table.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS code_chunks (
			id            SERIAL PRIMARY KEY,
			repo          TEXT NOT NULL,
			filepath      TEXT NOT NULL,
			function_name TEXT,
			chunk_text    TEXT NOT NULL,
			embedding     vector(%d),
			language      TEXT,
			created_at    TIMESTAMP DEFAULT NOW()
		)
	`, EmbeddingDims)

	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create code_chunks table: %w", err)
	}

	return nil
}

// Retrieve returns the topK chunks from the given repo most similar to the
// query, ordered by cosine distance.
func (r *Retriever) Retrieve(ctx context.Context, query, repo string, topK int) ([]Chunk, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	const q = `
		SELECT
			filepath,
			COALESCE(function_name, ''),
			chunk_text,
			COALESCE(language, ''),
			1 - (embedding <=> $1::vector) AS similarity
		FROM code_chunks
		WHERE repo = $2
		ORDER BY embedding <=> $1::vector
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, q, VectorLiteral(embedding), repo, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.Filepath, &c.FunctionName, &c.ChunkText, &c.Language, &c.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		c.Similarity = math.Round(c.Similarity*1000) / 1000
		chunks = append(chunks, c)
	}

	return chunks, rows.Err()
}

// VectorLiteral renders an embedding in pgvector's input syntax. Fixed-point
// formatting avoids scientific notation, which pgvector rejects.
func VectorLiteral(embedding []float64) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = fmt.Sprintf("%.8f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// FormatForPrompt renders chunks as a prompt section. Returns a fixed
// fallback line when no similar code was found, so prompt shape stays
// stable.
func FormatForPrompt(chunks []Chunk) string {
	if len(chunks) == 0 {
		return "No similar code found in team codebase."
	}

	var b strings.Builder
	b.WriteString("### Similar code from your team's codebase:\n")

	for i, chunk := range chunks {
		name := chunk.FunctionName
		if name == "" {
			name = "N/A"
		}
		text := chunk.ChunkText
		if len(text) > chunkPreviewLimit {
			text = text[:chunkPreviewLimit]
		}
		fmt.Fprintf(&b, "\n**Example %d** — `%s`\nFunction: `%s`\nSimilarity: %.3f\n```%s\n%s\n```\n",
			i+1, chunk.Filepath, name, chunk.Similarity, chunk.Language, text)
	}

	return b.String()
}
