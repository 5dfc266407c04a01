// Package gitint wraps the handful of git porcelain commands brainworm
// shells out to directly, where go-git's plumbing wouldn't be any
// simpler than the equivalent `git` invocation.
package gitint

import (
	"fmt"
	"os/exec"
	"strings"
)

// CurrentBranch returns the current branch name for the git repository at
// repoPath. For a detached HEAD, it returns the commit hash instead.
func CurrentBranch(repoPath string) (string, error) {
	cmd := exec.Command("git", "symbolic-ref", "--short", "HEAD")
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err == nil {
		return strings.TrimSpace(string(out)), nil
	}

	cmd = exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = repoPath
	out, err = cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse HEAD: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
