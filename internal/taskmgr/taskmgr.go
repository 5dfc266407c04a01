// Package taskmgr implements task lifecycle operations: directory
// scaffolding, branch derivation/creation/reuse, and the unified-state and
// correlation wiring that ties a task to its session history.
package taskmgr

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anthropic/brainworm/internal/config"
	"github.com/anthropic/brainworm/internal/correlation"
	"github.com/anthropic/brainworm/internal/gitint"
	"github.com/anthropic/brainworm/internal/state"
)

// protectedBranches are branches a task must never be created directly on;
// when the repository is on one of these, Create makes a new task branch
// off it (any other current branch is reused as-is).
var protectedBranches = map[string]bool{
	"main":    true,
	"master":  true,
	"develop": true,
}

// Manager orchestrates task directories, branches, and the state/
// correlation documents that track the active task.
type Manager struct {
	projectRoot string
	tasksDir    string
	cfg         *config.DAICConfig
	state       *state.Store
	correlation *correlation.Manager
}

// New constructs a Manager rooted at projectRoot, storing task directories
// under tasksDir.
func New(projectRoot, tasksDir string, cfg *config.DAICConfig, st *state.Store, corr *correlation.Manager) *Manager {
	return &Manager{
		projectRoot: projectRoot,
		tasksDir:    tasksDir,
		cfg:         cfg,
		state:       st,
		correlation: corr,
	}
}

// Task describes a scaffolded unit of work.
type Task struct {
	Name          string
	Branch        string
	Status        string
	CorrelationID string
	Created       time.Time
}

// validateName accepts only non-empty names made of lowercase letters,
// digits, and hyphens, and rejects reserved names.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("task name must not be empty")
	}
	if name != strings.ToLower(name) {
		return fmt.Errorf("task name %q must be lowercase", name)
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '-' {
			return fmt.Errorf("task name %q must be lowercase hyphen-delimited", name)
		}
	}
	reserved := map[string]bool{"main": true, "master": true, "develop": true, "clear": true, "status": true}
	if reserved[name] {
		return fmt.Errorf("task name %q is reserved", name)
	}
	return nil
}

// branchPrefixFor derives the configured branch prefix from a task name's
// leading hyphen-delimited segment, e.g. "fix-login" -> "fix" -> "fix/".
func branchPrefixFor(name string, cfg *config.DAICConfig) string {
	segment := name
	if idx := strings.Index(name, "-"); idx >= 0 {
		segment = name[:idx]
	}
	if prefix, ok := cfg.BranchEnforcement.Prefixes[segment]; ok {
		return prefix
	}
	return "feature/"
}

// Create scaffolds a new task: derives (or reuses) its branch, writes the
// task directory with frontmatter, and wires the unified state and
// correlation documents.
func (m *Manager) Create(name string, services []string, submodule string) (*Task, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	repoPath := m.projectRoot
	if submodule != "" {
		repoPath = filepath.Join(m.projectRoot, submodule)
	}

	branch, err := m.resolveBranch(repoPath, name)
	if err != nil {
		return nil, err
	}

	correlationID := uuid.NewString()
	created := time.Now().UTC()

	if err := m.writeTaskFile(name, branch, correlationID, created); err != nil {
		return nil, err
	}

	if err := m.state.SetTaskState(name, branch, services); err != nil {
		return nil, fmt.Errorf("update unified state: %w", err)
	}
	if err := m.state.SetDAICMode(state.Discussion); err != nil {
		return nil, fmt.Errorf("reset daic mode: %w", err)
	}

	st, err := m.state.Get()
	if err != nil {
		return nil, fmt.Errorf("read session id: %w", err)
	}
	if err := m.correlation.Store(st.SessionID, correlationID); err != nil {
		return nil, fmt.Errorf("store correlation: %w", err)
	}
	if err := m.state.UpdateSessionCorrelation(st.SessionID, correlationID); err != nil {
		return nil, fmt.Errorf("update session correlation: %w", err)
	}

	return &Task{Name: name, Branch: branch, Status: "pending", CorrelationID: correlationID, Created: created}, nil
}

// resolveBranch determines the branch Create should use: if the repository
// is currently on a protected branch, a new branch is created; if it is
// already on a feature branch, that branch is reused rather than
// overwritten, giving deterministic behaviour in non-interactive contexts.
func (m *Manager) resolveBranch(repoPath, name string) (string, error) {
	current, err := gitint.CurrentBranch(repoPath)
	if err != nil {
		return "", fmt.Errorf("determine current branch: %w", err)
	}

	if !protectedBranches[current] {
		return current, nil
	}

	prefix := branchPrefixFor(name, m.cfg)
	branch := prefix + name

	cmd := exec.Command("git", "checkout", "-b", branch)
	cmd.Dir = repoPath
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("create branch %s: %w: %s", branch, err, out)
	}
	return branch, nil
}

func (m *Manager) taskDir(name string) string {
	return filepath.Join(m.tasksDir, name)
}

func (m *Manager) writeTaskFile(name, branch, correlationID string, created time.Time) error {
	dir := m.taskDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create task directory: %w", err)
	}

	doc := fmt.Sprintf(`---
task: %s
branch: %s
status: pending
modules: []
created: %s
correlation_id: %s
---

# %s

`, name, branch, created.Format(time.RFC3339), correlationID, name)

	path := filepath.Join(dir, "README.md")
	if _, err := os.Stat(path); err == nil {
		return nil // Don't clobber an existing task file on re-create.
	}
	return os.WriteFile(path, []byte(doc), 0o644)
}

// Switch checks out task's branch and updates the unified state to make it
// the active task. It refuses to switch with a dirty working tree.
func (m *Manager) Switch(name string) error {
	if _, err := os.Stat(m.taskDir(name)); err != nil {
		return fmt.Errorf("task %q not found: %w", name, err)
	}

	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = m.projectRoot
	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("check working tree: %w", err)
	}
	if strings.TrimSpace(string(out)) != "" {
		return fmt.Errorf("working tree has uncommitted changes; commit or stash before switching tasks")
	}

	branch, err := m.branchForTask(name)
	if err != nil {
		return err
	}

	checkout := exec.Command("git", "checkout", branch)
	checkout.Dir = m.projectRoot
	if out, err := checkout.CombinedOutput(); err != nil {
		return fmt.Errorf("checkout branch %s: %w: %s", branch, err, out)
	}

	return m.state.SetTaskState(name, branch, nil)
}

// branchForTask reads the branch recorded in a task's frontmatter.
func (m *Manager) branchForTask(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(m.taskDir(name), "README.md"))
	if err != nil {
		return "", fmt.Errorf("read task file: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "branch:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "branch:")), nil
		}
	}
	return "", fmt.Errorf("task file for %q has no branch field", name)
}

// Clear drops the active task from unified state and clears its
// correlation entries.
func (m *Manager) Clear() error {
	st, err := m.state.Get()
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	if st.CorrelationID != "" {
		if err := m.correlation.ClearForTask(st.CorrelationID); err != nil {
			return fmt.Errorf("clear correlation: %w", err)
		}
	}
	return m.state.ClearTaskState()
}

// List returns the names of all scaffolded tasks.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.tasksDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list tasks dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Status returns the currently active task's unified-state snapshot.
func (m *Manager) Status() (state.State, error) {
	return m.state.Get()
}

// SetServices updates the active task's service list in place, leaving its
// task identity, branch, and correlation untouched.
func (m *Manager) SetServices(services []string) error {
	st, err := m.state.Get()
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	if st.CurrentTask == "" {
		return fmt.Errorf("no active task")
	}
	return m.state.SetTaskState(st.CurrentTask, st.CurrentBranch, services)
}
