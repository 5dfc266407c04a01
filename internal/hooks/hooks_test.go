package hooks

import (
	"path/filepath"
	"testing"

	"github.com/anthropic/brainworm/internal/config"
	"github.com/anthropic/brainworm/internal/correlation"
	"github.com/anthropic/brainworm/internal/eventstore"
	"github.com/anthropic/brainworm/internal/flags"
	"github.com/anthropic/brainworm/internal/state"
)

func setupDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	st := state.New(dir)
	corr := correlation.New(dir)
	ev, err := eventstore.New(filepath.Join(dir, "hooks.db"))
	if err != nil {
		t.Fatalf("eventstore.New: %v", err)
	}
	t.Cleanup(func() { ev.Close() })

	return New(cfg, dir, st, corr, ev)
}

func TestDispatch_UnknownHook(t *testing.T) {
	d := setupDispatcher(t)
	_, err := d.Dispatch("not_a_real_hook", Input{SessionID: "s1"})
	if err == nil {
		t.Fatal("expected error for unknown hook")
	}
}

func TestDispatch_SessionStart_ScaffoldsAndLogs(t *testing.T) {
	d := setupDispatcher(t)
	out, err := d.Dispatch("session_start", Input{SessionID: "s1", Source: "startup"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !out.Acknowledged {
		t.Error("expected Acknowledged")
	}

	rows, err := d.Events.QueryBySession("s1")
	if err != nil {
		t.Fatalf("QueryBySession: %v", err)
	}
	if len(rows) != 1 || rows[0].HookName != "session_start" {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestDispatch_PreToolUse_BlocksEditInDiscussion(t *testing.T) {
	d := setupDispatcher(t)
	out, err := d.Dispatch("pre_tool_use", Input{SessionID: "s1", ToolName: "Edit"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.HookSpecificOutput == nil || out.HookSpecificOutput.Permission != "deny" {
		t.Errorf("HookSpecificOutput = %+v, want permission deny", out.HookSpecificOutput)
	}
	if out.HookSpecificOutput.HookEventName != "PreToolUse" {
		t.Errorf("HookEventName = %q, want PreToolUse", out.HookSpecificOutput.HookEventName)
	}
}

func TestDispatch_UserPromptSubmit_TriggerPhraseFlipsMode(t *testing.T) {
	d := setupDispatcher(t)

	_, err := d.Dispatch("user_prompt_submit", Input{SessionID: "s1", UserMessage: "ok go ahead"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	st, _ := d.State.Get()
	if st.DAICMode != state.Implementation {
		t.Errorf("DAICMode = %q, want implementation", st.DAICMode)
	}
	if !flags.Exists(d.StateDir, flags.TriggerPhraseDetected) {
		t.Error("expected trigger_phrase_detected flag to be set")
	}

	out, err := d.Dispatch("pre_tool_use", Input{SessionID: "s1", ToolName: "Edit"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.HookSpecificOutput == nil || out.HookSpecificOutput.Permission != "allow" {
		t.Errorf("HookSpecificOutput = %+v, want permission allow after trigger phrase", out.HookSpecificOutput)
	}
}

func TestDispatch_PreThenPostToolUse_JoinsTiming(t *testing.T) {
	d := setupDispatcher(t)

	if _, err := d.Dispatch("pre_tool_use", Input{SessionID: "s1", ExecutionID: "E1", ToolName: "Read"}); err != nil {
		t.Fatalf("pre_tool_use: %v", err)
	}
	out, err := d.Dispatch("post_tool_use", Input{SessionID: "s1", ExecutionID: "E1", ToolName: "Read", ToolResponse: map[string]any{"success": true}})
	if err != nil {
		t.Fatalf("post_tool_use: %v", err)
	}
	if !out.Acknowledged {
		t.Error("expected Acknowledged")
	}

	rows, err := d.Events.QueryBySession("s1")
	if err != nil {
		t.Fatalf("QueryBySession: %v", err)
	}
	var pre, post *eventstore.EventRow
	for i := range rows {
		switch rows[i].HookName {
		case "pre_tool_use":
			pre = &rows[i]
		case "post_tool_use":
			post = &rows[i]
		}
	}
	if pre == nil || post == nil {
		t.Fatalf("expected both a pre_tool_use and post_tool_use row, got %+v", rows)
	}
	if pre.ExecutionID != "E1" || post.ExecutionID != "E1" {
		t.Errorf("ExecutionID = pre:%q post:%q, want E1 for both", pre.ExecutionID, post.ExecutionID)
	}
	if post.DurationMs == nil {
		t.Error("expected duration_ms to be set when a checkpoint was present")
	}
	timing, ok := post.EventData["timing"].(map[string]any)
	if !ok {
		t.Fatalf("timing = %v, want a nested object", post.EventData["timing"])
	}
	if timing["execution_duration_ms"] == nil {
		t.Error("expected timing.execution_duration_ms to be set")
	}
}

func TestDispatch_PostToolUseWithoutPre_TimingIsNull(t *testing.T) {
	d := setupDispatcher(t)

	if _, err := d.Dispatch("post_tool_use", Input{SessionID: "s1", ToolName: "Read", ToolResponse: map[string]any{"success": true}}); err != nil {
		t.Fatalf("post_tool_use: %v", err)
	}

	rows, _ := d.Events.QueryBySession("s1")
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].EventData["timing"] != nil {
		t.Errorf("timing = %v, want nil when no checkpoint was present", rows[0].EventData["timing"])
	}
	if rows[0].DurationMs != nil {
		t.Error("expected no duration_ms when no checkpoint was present")
	}
}

func TestDispatch_TranscriptProcessor_SetsSubagentFlag(t *testing.T) {
	d := setupDispatcher(t)

	out, err := d.Dispatch("transcript_processor", Input{SessionID: "s1", AgentName: "reviewer", Transcript: "hello world"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.CleanedTranscript != "hello world" {
		t.Errorf("CleanedTranscript = %q", out.CleanedTranscript)
	}
	if !flags.Exists(d.StateDir, flags.InSubagentContext) {
		t.Error("expected in_subagent_context flag to be set")
	}
}

func TestDispatch_PreToolUse_SubagentContextBypassesGating(t *testing.T) {
	d := setupDispatcher(t)
	flags.Create(d.StateDir, flags.InSubagentContext)

	out, err := d.Dispatch("pre_tool_use", Input{SessionID: "s1", ToolName: "Edit"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.HookSpecificOutput == nil || out.HookSpecificOutput.Permission != "allow" {
		t.Errorf("HookSpecificOutput = %+v, want permission allow under subagent context", out.HookSpecificOutput)
	}
}

func TestDispatch_Stop_RecursiveFlagSuppressesRetrigger(t *testing.T) {
	d := setupDispatcher(t)
	out, err := d.Dispatch("stop", Input{SessionID: "s1", StopHookActive: true})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !out.Acknowledged {
		t.Error("expected Acknowledged")
	}
}
