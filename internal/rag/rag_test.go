package rag

import (
	"fmt"
	"strings"
	"testing"
)

func TestVectorLiteral(t *testing.T) {
	t.Run("fixed point formatting", func(t *testing.T) {
		got := VectorLiteral([]float64{0.5, -0.25, 1})
		want := "[0.50000000,-0.25000000,1.00000000]"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("tiny values avoid scientific notation", func(t *testing.T) {
		got := VectorLiteral([]float64{1e-9})
		if strings.ContainsAny(got, "eE") {
			t.Errorf("literal uses scientific notation: %q", got)
		}
	})

	t.Run("empty embedding", func(t *testing.T) {
		if got := VectorLiteral(nil); got != "[]" {
			t.Errorf("got %q, want []", got)
		}
	})
}

func TestChunkFile(t *testing.T) {
	t.Run("small file is one chunk", func(t *testing.T) {
		content := "package main\n\nfunc main() {}\n"
		chunks := ChunkFile("main.go", content)
		if len(chunks) != 1 {
			t.Fatalf("got %d chunks, want 1", len(chunks))
		}
		if chunks[0].Language != "go" {
			t.Errorf("language = %q, want go", chunks[0].Language)
		}
		if chunks[0].Filepath != "main.go" {
			t.Errorf("filepath = %q", chunks[0].Filepath)
		}
	})

	t.Run("windows overlap", func(t *testing.T) {
		var lines []string
		for i := 0; i < 120; i++ {
			lines = append(lines, fmt.Sprintf("line number %d of the sample file", i))
		}
		chunks := ChunkFile("big.py", strings.Join(lines, "\n"))

		// 120 lines, 50-line windows stepping by 40: [0,50) [40,90) [80,120).
		if len(chunks) != 3 {
			t.Fatalf("got %d chunks, want 3", len(chunks))
		}
		if !strings.HasPrefix(chunks[1].ChunkText, "line number 40 ") {
			t.Errorf("second chunk starts with %q", strings.SplitN(chunks[1].ChunkText, "\n", 2)[0])
		}
		if !strings.Contains(chunks[0].ChunkText, "line number 49 ") ||
			!strings.Contains(chunks[1].ChunkText, "line number 49 ") {
			t.Error("adjacent chunks should share the overlap lines")
		}
	})

	t.Run("trivial content dropped", func(t *testing.T) {
		if chunks := ChunkFile("empty.go", "\n\n\n"); len(chunks) != 0 {
			t.Errorf("got %d chunks, want 0", len(chunks))
		}
		if chunks := ChunkFile("short.go", "x = 1"); len(chunks) != 0 {
			t.Errorf("short chunk kept: %d", len(chunks))
		}
	})
}

func TestFormatForPrompt(t *testing.T) {
	t.Run("no chunks fallback", func(t *testing.T) {
		if got := FormatForPrompt(nil); got != "No similar code found in team codebase." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("renders chunk metadata", func(t *testing.T) {
		out := FormatForPrompt([]Chunk{
			{
				Filepath:     "db/queries.go",
				FunctionName: "FindUser",
				ChunkText:    "func FindUser(id int) {}",
				Language:     "go",
				Similarity:   0.912,
			},
			{
				Filepath:   "utils.py",
				ChunkText:  "def helper(): pass",
				Language:   "py",
				Similarity: 0.5,
			},
		})

		for _, want := range []string{
			"### Similar code from your team's codebase:",
			"**Example 1** — `db/queries.go`",
			"Function: `FindUser`",
			"Similarity: 0.912",
			"```go",
			"**Example 2** — `utils.py`",
			"Function: `N/A`",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("long chunks are truncated", func(t *testing.T) {
		out := FormatForPrompt([]Chunk{{
			Filepath:  "big.go",
			ChunkText: strings.Repeat("a", chunkPreviewLimit*2),
			Language:  "go",
		}})
		if strings.Contains(out, strings.Repeat("a", chunkPreviewLimit+1)) {
			t.Error("chunk text not truncated to the preview limit")
		}
	})
}
