// Package locator resolves the brainworm project root from an arbitrary
// working directory.
package locator

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
)

// pluginRootEnv, when set, overrides git-root detection entirely. The host
// sets this when brainworm runs from a plugin-managed location rather than
// inside the project's own working tree.
const pluginRootEnv = "CLAUDE_PLUGIN_ROOT"

// Root resolves the project root starting from cwd. CLAUDE_PLUGIN_ROOT, if
// set, wins outright; otherwise the root is the nearest ancestor directory
// (including cwd itself) containing a .git entry.
func Root(cwd string) (string, error) {
	if override := os.Getenv(pluginRootEnv); override != "" {
		return override, nil
	}

	repo, err := git.PlainOpenWithOptions(cwd, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("locate project root from %s: %w", cwd, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("resolve worktree for %s: %w", cwd, err)
	}
	return wt.Filesystem.Root(), nil
}
