// Package flags implements coordination flags: named empty files in the
// state directory signaling a boolean between sibling hook processes
// within one session.
package flags

import (
	"errors"
	"os"
	"path/filepath"
)

// Recognized flag names.
const (
	TriggerPhraseDetected = "trigger_phrase_detected"
	InSubagentContext     = "in_subagent_context"
)

func path(stateDir, name string) string {
	return filepath.Join(stateDir, name)
}

// Create creates the flag, failing silently (false, nil) if it already
// exists — O_CREAT|O_EXCL means only the first creator in a race wins.
func Create(stateDir, name string) (created bool, err error) {
	f, err := os.OpenFile(path(stateDir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	return true, f.Close()
}

// Exists reports whether the flag is currently set.
func Exists(stateDir, name string) bool {
	_, err := os.Stat(path(stateDir, name))
	return err == nil
}

// Clear deletes the flag. Deleting an already-absent flag is not an error.
func Clear(stateDir, name string) error {
	err := os.Remove(path(stateDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
