package eventstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint is the per-session record pre_tool_use writes so that
// post_tool_use, running as a separate process, can compute how long the
// tool invocation took.
type Checkpoint struct {
	StartTime     time.Time `json:"start_time"`
	ToolName      string    `json:"tool_name"`
	CorrelationID string    `json:"correlation_id"`
}

func checkpointPath(stateDir, sessionID string) string {
	return filepath.Join(stateDir, "timing_"+sessionID+".json")
}

// WriteCheckpoint records the start of a tool invocation, overwriting any
// stale checkpoint left by a prior invocation in the same session.
func WriteCheckpoint(stateDir, sessionID string, cp Checkpoint) error {
	b, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	return os.WriteFile(checkpointPath(stateDir, sessionID), b, 0o644)
}

// ReadAndClearCheckpoint reads back the checkpoint for sessionID and deletes
// it. ok is false when no checkpoint is present (e.g. pre_tool_use never
// fired for this invocation).
func ReadAndClearCheckpoint(stateDir, sessionID string) (cp Checkpoint, ok bool, err error) {
	path := checkpointPath(stateDir, sessionID)
	b, readErr := os.ReadFile(path)
	if os.IsNotExist(readErr) {
		return Checkpoint{}, false, nil
	}
	if readErr != nil {
		return Checkpoint{}, false, readErr
	}
	if err := json.Unmarshal(b, &cp); err != nil {
		return Checkpoint{}, false, err
	}
	_ = os.Remove(path)
	return cp, true, nil
}
