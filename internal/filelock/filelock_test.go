package filelock

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLock_RunsFn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	var ran bool
	err := Lock(path, Standard, func() error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if !ran {
		t.Error("expected fn to run")
	}
}

func TestLock_TimesOutWhenHeld(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		Lock(path, time.Second, func() error {
			close(done)
			<-release
			return nil
		})
	}()
	<-done

	err := Lock(path, 200*time.Millisecond, func() error { return nil })
	close(release)
	if err == nil {
		t.Error("expected timeout error while lock is held")
	}
}
