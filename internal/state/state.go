// Package state owns unified_session_state.json: the single authoritative
// document describing the current DAIC mode, active task, and session
// identity for a project. Every mutation goes through this package and is
// serialized by an exclusive file lock.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anthropic/brainworm/internal/bashclassify"
	"github.com/anthropic/brainworm/internal/config"
	"github.com/anthropic/brainworm/internal/filelock"
)

// Mode is a DAIC workflow phase.
type Mode string

const (
	Discussion     Mode = "discussion"
	Implementation Mode = "implementation"
)

// Developer identifies the human attributed to the current session.
type Developer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// State is the full contents of unified_session_state.json.
type State struct {
	DAICMode          Mode      `json:"daic_mode"`
	PreviousDAICMode  Mode      `json:"previous_daic_mode,omitempty"`
	DAICTimestamp     string    `json:"daic_timestamp,omitempty"`
	CurrentTask       string    `json:"current_task,omitempty"`
	CurrentBranch     string    `json:"current_branch,omitempty"`
	TaskServices      []string  `json:"task_services,omitempty"`
	SessionID         string    `json:"session_id,omitempty"`
	CorrelationID     string    `json:"correlation_id,omitempty"`
	Developer         Developer `json:"developer"`
}

// FileName is the on-disk name of the state document.
const FileName = "unified_session_state.json"

// Store owns reads and writes of the unified state document at path.
type Store struct {
	path string
}

// New returns a Store for the unified state document under stateDir.
func New(stateDir string) *Store {
	return &Store{path: filepath.Join(stateDir, FileName)}
}

func defaultState() State {
	return State{DAICMode: Discussion}
}

// Get returns a snapshot of the current state. A missing file yields the
// default state rather than an error.
func (s *Store) Get() (State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return defaultState(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("read state file: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("parse state file: %w", err)
	}
	return st, nil
}

// mutate runs fn against the current state under an exclusive lock and
// atomically writes the result back via write-temp-then-rename.
func (s *Store) mutate(fn func(*State)) error {
	return filelock.Lock(s.path, filelock.Standard, func() error {
		st, err := s.readLocked()
		if err != nil {
			return err
		}
		fn(&st)
		return s.writeLocked(st)
	})
}

func (s *Store) readLocked() (State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return defaultState(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("read state file: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("parse state file: %w", err)
	}
	return st, nil
}

func (s *Store) writeLocked(st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename temp state file into place: %w", err)
	}
	return nil
}

// SetDAICMode transitions to mode, recording the previous mode and an
// audit timestamp.
func (s *Store) SetDAICMode(mode Mode) error {
	return s.mutate(func(st *State) {
		st.PreviousDAICMode = st.DAICMode
		st.DAICMode = mode
		st.DAICTimestamp = time.Now().UTC().Format(time.RFC3339)
	})
}

// ToggleDAICMode flips Discussion<->Implementation and returns the new mode.
func (s *Store) ToggleDAICMode() (Mode, error) {
	var next Mode
	err := s.mutate(func(st *State) {
		st.PreviousDAICMode = st.DAICMode
		if st.DAICMode == Discussion {
			next = Implementation
		} else {
			next = Discussion
		}
		st.DAICMode = next
		st.DAICTimestamp = time.Now().UTC().Format(time.RFC3339)
	})
	return next, err
}

// SetTaskState atomically sets the active task's identity, branch, and
// service list together. An empty task with a non-empty branch is rejected.
func (s *Store) SetTaskState(task, branch string, services []string) error {
	if task == "" && branch != "" {
		return fmt.Errorf("cannot set branch %q without a task", branch)
	}
	return s.mutate(func(st *State) {
		st.CurrentTask = task
		st.CurrentBranch = branch
		st.TaskServices = services
	})
}

// ClearTaskState drops the active task, branch, and service list.
func (s *Store) ClearTaskState() error {
	return s.mutate(func(st *State) {
		st.CurrentTask = ""
		st.CurrentBranch = ""
		st.TaskServices = nil
	})
}

// UpdateSessionCorrelation atomically writes the session/correlation
// identity fields together, per the invariant that they change in lockstep.
func (s *Store) UpdateSessionCorrelation(sessionID, correlationID string) error {
	return s.mutate(func(st *State) {
		st.SessionID = sessionID
		st.CorrelationID = correlationID
	})
}

// ToolDecision is the gating verdict for a single tool invocation.
type ToolDecision struct {
	Allow   bool
	Message string
}

// ShouldBlockTool derives the pre_tool_use gating decision from the current
// state and config. toolInput is only consulted for Bash invocations,
// where it must carry a "command" string field.
func ShouldBlockTool(st State, cfg *config.DAICConfig, toolName string, toolInput map[string]any, inSubagentContext bool) ToolDecision {
	if st.DAICMode == Implementation {
		return ToolDecision{Allow: true}
	}
	if inSubagentContext {
		return ToolDecision{Allow: true}
	}

	for _, blocked := range cfg.BlockedTools {
		if blocked == toolName {
			return ToolDecision{
				Allow:   false,
				Message: "[DAIC: Tool Blocked] " + toolName + " is unavailable in discussion mode. Use a trigger phrase to switch to implementation.",
			}
		}
	}

	if toolName == "Bash" {
		cmd, _ := toolInput["command"].(string)
		d := bashclassify.Classify(cmd, cfg.ReadOnlyBashCommands)
		if !d.Allowed {
			return ToolDecision{
				Allow:   false,
				Message: "[DAIC: Tool Blocked] bash command rejected (" + d.Reason + "). Use a trigger phrase to switch to implementation.",
			}
		}
	}

	return ToolDecision{Allow: true}
}
