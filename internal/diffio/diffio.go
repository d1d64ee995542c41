// Package diffio parses unified diffs into the changeset form reviewers
// consume.
package diffio

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/codeguardhq/codeguard/internal/review"
)

// Parse reads a unified diff and returns one ChangeUnit per file. Binary
// files are included with an empty patch.
func Parse(raw string) ([]review.ChangeUnit, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	patches := splitPatches(raw)
	changes := make([]review.ChangeUnit, 0, len(parsed))

	for i, f := range parsed {
		unit := review.ChangeUnit{
			File:   fileName(f),
			Status: fileStatus(f),
		}

		for _, frag := range f.TextFragments {
			for _, line := range frag.Lines {
				switch line.Op {
				case gitdiff.OpAdd:
					unit.Additions++
				case gitdiff.OpDelete:
					unit.Deletions++
				}
			}
		}

		if i < len(patches) {
			unit.Patch = patches[i]
		}

		changes = append(changes, unit)
	}

	return changes, nil
}

func fileName(f *gitdiff.File) string {
	if f.IsDelete {
		return f.OldName
	}
	if f.NewName != "" {
		return f.NewName
	}
	return f.OldName
}

func fileStatus(f *gitdiff.File) string {
	switch {
	case f.IsNew:
		return "added"
	case f.IsDelete:
		return "removed"
	case f.IsRename:
		return "renamed"
	default:
		return "modified"
	}
}

// splitPatches slices the raw diff into per-file patch text in file order.
// go-gitdiff does not retain raw text, so the split keys off the file
// header lines.
func splitPatches(raw string) []string {
	var patches []string
	var current []string

	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, "diff --git ") {
			if len(current) > 0 {
				patches = append(patches, strings.Join(current, "\n"))
			}
			current = current[:0]
		}
		if len(current) > 0 || strings.HasPrefix(line, "diff --git ") {
			current = append(current, line)
		}
	}
	if len(current) > 0 {
		patches = append(patches, strings.Join(current, "\n"))
	}

	return patches
}

// GitDiff runs `git diff` in repoDir and returns the raw output.
func GitDiff(repoDir string, args ...string) (string, error) {
	cmdArgs := append([]string{"diff"}, args...)
	cmd := exec.Command("git", cmdArgs...)
	cmd.Dir = repoDir
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}

	return string(out), nil
}

// GitDiffRange returns the diff for a commit range like "main...HEAD".
func GitDiffRange(repoDir, commitRange string, contextLines int) (string, error) {
	return GitDiff(repoDir, fmt.Sprintf("-U%d", contextLines), commitRange)
}
