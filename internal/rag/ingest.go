package rag

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Chunking parameters for files without structural parsing: sliding window
// of chunkLines lines with chunkOverlap lines of overlap.
const (
	chunkLines    = 50
	chunkOverlap  = 10
	minChunkChars = 20
)

var supportedExtensions = map[string]bool{
	".go":   true,
	".py":   true,
	".js":   true,
	".ts":   true,
	".java": true,
	".cpp":  true,
	".c":    true,
}

var skipDirs = []string{".git", "venv", "node_modules", "__pycache__", "vendor"}

// Ingestor indexes a repository's source files into code_chunks.
type Ingestor struct {
	retriever *Retriever
}

// NewIngestor creates an ingestor sharing the retriever's pool and embedder.
func NewIngestor(retriever *Retriever) *Ingestor {
	return &Ingestor{retriever: retriever}
}

// IngestRepo walks repoPath, chunks every supported source file, embeds each
// chunk, and stores it under repoName. Returns the number of chunks stored.
func (in *Ingestor) IngestRepo(ctx context.Context, repoPath, repoName string) (int, error) {
	var chunks []Chunk

	err := filepath.WalkDir(repoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			for _, skip := range skipDirs {
				if d.Name() == skip {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !supportedExtensions[filepath.Ext(path)] {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			// unreadable file, keep going
			return nil
		}

		rel, err := filepath.Rel(repoPath, path)
		if err != nil {
			rel = path
		}

		chunks = append(chunks, ChunkFile(rel, string(content))...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk repo: %w", err)
	}

	stored := 0
	for _, chunk := range chunks {
		if err := in.storeChunk(ctx, repoName, chunk); err != nil {
			return stored, err
		}
		stored++
	}

	return stored, nil
}

func (in *Ingestor) storeChunk(ctx context.Context, repo string, chunk Chunk) error {
	embedding, err := in.retriever.embedder.Embed(ctx, chunk.ChunkText)
	if err != nil {
		return fmt.Errorf("failed to embed chunk %s: %w", chunk.Filepath, err)
	}

	const q = `
		INSERT INTO code_chunks
			(repo, filepath, function_name, chunk_text, embedding, language)
		VALUES
			($1, $2, NULLIF($3, ''), $4, $5::vector, $6)
	`

	_, err = in.retriever.pool.Exec(ctx, q,
		repo, chunk.Filepath, chunk.FunctionName, chunk.ChunkText,
		VectorLiteral(embedding), chunk.Language)
	if err != nil {
		return fmt.Errorf("failed to store chunk %s: %w", chunk.Filepath, err)
	}

	return nil
}

// ChunkFile splits file content into overlapping line windows. Chunks
// shorter than minChunkChars are dropped.
func ChunkFile(path, content string) []Chunk {
	lines := strings.Split(content, "\n")
	language := strings.TrimPrefix(filepath.Ext(path), ".")

	var chunks []Chunk
	step := chunkLines - chunkOverlap

	for i := 0; i < len(lines); i += step {
		end := i + chunkLines
		if end > len(lines) {
			end = len(lines)
		}
		text := strings.TrimSpace(strings.Join(lines[i:end], "\n"))
		if len(text) > minChunkChars {
			chunks = append(chunks, Chunk{
				Filepath:  path,
				ChunkText: text,
				Language:  language,
			})
		}
		if end == len(lines) {
			break
		}
	}

	return chunks
}
