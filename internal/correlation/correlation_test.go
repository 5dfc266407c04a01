package correlation

import "testing"

func TestStoreAndLookup(t *testing.T) {
	dir := t.TempDir()
	m := New(dir)

	if err := m.Store("sess-1", "corr-1"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	id, found, err := m.Lookup("sess-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !found || id != "corr-1" {
		t.Errorf("Lookup = (%q, %v), want (corr-1, true)", id, found)
	}
}

func TestLookup_NotFound(t *testing.T) {
	dir := t.TempDir()
	m := New(dir)

	_, found, err := m.Lookup("nope")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if found {
		t.Error("expected not found")
	}
}

func TestStore_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	m := New(dir)

	m.Store("sess-1", "corr-1")
	m.Store("sess-1", "corr-2")

	id, _, _ := m.Lookup("sess-1")
	if id != "corr-2" {
		t.Errorf("id = %q, want corr-2", id)
	}
}

func TestClearForTask(t *testing.T) {
	dir := t.TempDir()
	m := New(dir)

	m.Store("sess-1", "corr-1")
	m.Store("sess-2", "corr-1")
	m.Store("sess-3", "corr-2")

	if err := m.ClearForTask("corr-1"); err != nil {
		t.Fatalf("ClearForTask: %v", err)
	}

	if _, found, _ := m.Lookup("sess-1"); found {
		t.Error("sess-1 should have been cleared")
	}
	if _, found, _ := m.Lookup("sess-2"); found {
		t.Error("sess-2 should have been cleared")
	}
	if id, found, _ := m.Lookup("sess-3"); !found || id != "corr-2" {
		t.Error("sess-3 should be unaffected")
	}
}
