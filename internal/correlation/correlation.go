// Package correlation owns .correlation_state: the authoritative
// session_id -> correlation_id identity map used to tie event-store rows
// back to the task that produced them.
package correlation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anthropic/brainworm/internal/filelock"
)

// FileName is the on-disk name of the correlation map.
const FileName = ".correlation_state"

// Manager owns reads and writes of the correlation map at path.
type Manager struct {
	path string
}

// New returns a Manager for the correlation map under stateDir.
func New(stateDir string) *Manager {
	return &Manager{path: filepath.Join(stateDir, FileName)}
}

type document struct {
	// SessionToCorrelation maps session_id -> correlation_id.
	SessionToCorrelation map[string]string `json:"session_to_correlation"`
}

func (m *Manager) readLocked() (document, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return document{SessionToCorrelation: map[string]string{}}, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("read correlation state: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("parse correlation state: %w", err)
	}
	if doc.SessionToCorrelation == nil {
		doc.SessionToCorrelation = map[string]string{}
	}
	return doc, nil
}

func (m *Manager) writeLocked(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal correlation state: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".correlation-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp correlation file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp correlation file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp correlation file: %w", err)
	}
	return os.Rename(tmpPath, m.path)
}

// Store records (or overwrites) the correlation id bound to sessionID.
func (m *Manager) Store(sessionID, correlationID string) error {
	return filelock.Lock(m.path, filelock.Standard, func() error {
		doc, err := m.readLocked()
		if err != nil {
			return err
		}
		doc.SessionToCorrelation[sessionID] = correlationID
		return m.writeLocked(doc)
	})
}

// Lookup returns the correlation id bound to sessionID, if any.
func (m *Manager) Lookup(sessionID string) (correlationID string, found bool, err error) {
	doc, err := m.readLocked()
	if err != nil {
		return "", false, err
	}
	id, ok := doc.SessionToCorrelation[sessionID]
	return id, ok, nil
}

// ClearForTask removes every entry whose correlation id equals
// correlationID, used when a task completes.
func (m *Manager) ClearForTask(correlationID string) error {
	return filelock.Lock(m.path, filelock.Standard, func() error {
		doc, err := m.readLocked()
		if err != nil {
			return err
		}
		for sessionID, corrID := range doc.SessionToCorrelation {
			if corrID == correlationID {
				delete(doc.SessionToCorrelation, sessionID)
			}
		}
		return m.writeLocked(doc)
	})
}
