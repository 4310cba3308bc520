package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitChanges lists schema files touched since a git revision.
type GitChanges struct {
	ChangedFiles []string // paths relative to the repository root
	ChangedDirs  []string
}

// GetGitChanges returns the schema files changed since base.
// If base is empty, it compares with HEAD (uncommitted changes).
func GetGitChanges(repoPath string, base string) (*GitChanges, error) {
	if base == "" {
		base = "HEAD"
	}

	cmd := exec.Command("git", "diff", "--name-only", base)
	cmd.Dir = repoPath

	output, err := cmd.Output()
	if err != nil {
		// No commits yet: fall back to modified and untracked files
		cmd = exec.Command("git", "ls-files", "--modified", "--others", "--exclude-standard")
		cmd.Dir = repoPath
		output, err = cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("git diff failed in %s: %w", repoPath, err)
		}
	}
	return parseChangedFiles(output)
}

func parseChangedFiles(output []byte) (*GitChanges, error) {
	changes := &GitChanges{
		ChangedFiles: make([]string, 0),
		ChangedDirs:  make([]string, 0),
	}
	dirSet := make(map[string]bool)

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		file := strings.TrimSpace(scanner.Text())
		if file == "" || !IsSchemaFile(file) {
			continue
		}
		changes.ChangedFiles = append(changes.ChangedFiles, file)

		dir := filepath.Dir(file)
		if !dirSet[dir] {
			dirSet[dir] = true
			changes.ChangedDirs = append(changes.ChangedDirs, dir)
		}
	}
	return changes, scanner.Err()
}

// HasChanges returns true if any schema file changed
func (g *GitChanges) HasChanges() bool {
	return len(g.ChangedFiles) > 0
}

// String returns a summary string of the changes
func (g *GitChanges) String() string {
	return fmt.Sprintf("%d schema files changed in %d directories", len(g.ChangedFiles), len(g.ChangedDirs))
}

// AbsPaths resolves the changed files against the repository root.
func (g *GitChanges) AbsPaths(repoPath string) []string {
	out := make([]string, 0, len(g.ChangedFiles))
	for _, f := range g.ChangedFiles {
		out = append(out, filepath.Join(repoPath, f))
	}
	return out
}
