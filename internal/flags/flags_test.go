package flags

import "testing"

func TestCreate_ExistsClear(t *testing.T) {
	dir := t.TempDir()

	if Exists(dir, TriggerPhraseDetected) {
		t.Fatal("flag should not exist yet")
	}

	created, err := Create(dir, TriggerPhraseDetected)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created {
		t.Error("expected created = true on first create")
	}
	if !Exists(dir, TriggerPhraseDetected) {
		t.Error("expected flag to exist after Create")
	}

	if err := Clear(dir, TriggerPhraseDetected); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if Exists(dir, TriggerPhraseDetected) {
		t.Error("expected flag to be gone after Clear")
	}
}

func TestCreate_SecondCreateDoesNotError(t *testing.T) {
	dir := t.TempDir()

	Create(dir, InSubagentContext)
	created, err := Create(dir, InSubagentContext)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if created {
		t.Error("expected created = false on second create")
	}
}

func TestClear_MissingFlagIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	if err := Clear(dir, TriggerPhraseDetected); err != nil {
		t.Fatalf("Clear on missing flag: %v", err)
	}
}
