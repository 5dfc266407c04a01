package hooks

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/anthropic/brainworm/internal/config"
	"github.com/anthropic/brainworm/internal/daic"
	"github.com/anthropic/brainworm/internal/eventstore"
	"github.com/anthropic/brainworm/internal/flags"
	"github.com/anthropic/brainworm/internal/state"
)

// handleSessionStart scaffolds the state directory (idempotently) and
// initializes the unified state document with its defaults.
func (d *Dispatcher) handleSessionStart(in Input) (result, error) {
	if err := os.MkdirAll(d.StateDir, 0o755); err != nil {
		return result{}, err
	}

	cfgPath := config.PathFor(d.StateDir)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.Save(cfgPath, config.Default()); err != nil {
			return result{}, err
		}
	}

	st, err := d.State.Get()
	if err != nil {
		return result{}, err
	}
	if st.SessionID != in.SessionID {
		if err := d.State.UpdateSessionCorrelation(in.SessionID, st.CorrelationID); err != nil {
			return result{}, err
		}
	}

	return result{Output: Output{Acknowledged: true}, Event: map[string]any{"source": in.Source}}, nil
}

// handleUserPromptSubmit runs the trigger-phrase detector and, on a match,
// flips DAIC mode and raises the trigger_phrase_detected flag so sibling
// hooks in the same turn observe the switch atomically.
func (d *Dispatcher) handleUserPromptSubmit(in Input) (result, error) {
	st, err := d.State.Get()
	if err != nil {
		return result{}, err
	}

	matched, ok := daic.DetectTriggerPhrase(in.UserMessage, d.Cfg.DAIC.TriggerPhrases, st.DAICMode)
	if !ok {
		return result{Event: map[string]any{"mode_transition": false}}, nil
	}

	if err := daic.ValidateTransition(st.DAICMode, state.Implementation); err != nil {
		return result{}, err
	}
	if err := d.State.SetDAICMode(state.Implementation); err != nil {
		return result{}, err
	}
	if _, err := flags.Create(d.StateDir, flags.TriggerPhraseDetected); err != nil {
		return result{}, err
	}

	return result{
		Output: Output{AdditionalContext: "Switched to implementation mode (trigger phrase: " + matched + ")"},
		Event:  map[string]any{"mode_transition": true, "trigger_phrase": matched},
	}, nil
}

// handlePreToolUse writes the timing checkpoint, then asks the DAIC engine
// for a gating verdict.
func (d *Dispatcher) handlePreToolUse(in Input) (result, error) {
	st, err := d.State.Get()
	if err != nil {
		return result{}, err
	}

	_ = eventstore.WriteCheckpoint(d.StateDir, in.SessionID, eventstore.Checkpoint{
		StartTime:     time.Now().UTC(),
		ToolName:      in.ToolName,
		CorrelationID: st.CorrelationID,
	})

	inSubagent := flags.Exists(d.StateDir, flags.InSubagentContext)
	decision := state.ShouldBlockTool(st, &d.Cfg.DAIC, in.ToolName, in.ToolInput, inSubagent)

	if !decision.Allow {
		return result{
			Output: Output{HookSpecificOutput: &PreToolUseOutput{
				HookEventName: "PreToolUse",
				Permission:    "deny",
				UserMessage:   decision.Message,
			}},
			Event: map[string]any{"permission": "deny"},
		}, nil
	}
	return result{
		Output: Output{HookSpecificOutput: &PreToolUseOutput{
			HookEventName: "PreToolUse",
			Permission:    "allow",
		}},
		Event: map[string]any{"permission": "allow"},
	}, nil
}

// handlePostToolUse reads back the timing checkpoint written by
// handlePreToolUse, computes duration and tool-success, and clears the
// in_subagent_context flag if a subagent invocation just completed. Duration
// is attached nested under event_data.timing so readers can distinguish "no
// pre fired" (timing: null) from a zero duration.
func (d *Dispatcher) handlePostToolUse(in Input) (result, error) {
	cp, found, err := eventstore.ReadAndClearCheckpoint(d.StateDir, in.SessionID)
	if err != nil {
		return result{}, err
	}

	event := map[string]any{
		"success": eventstore.ToolSucceeded(in.ToolResponse),
	}

	if found {
		duration := time.Since(cp.StartTime).Milliseconds()
		event["timing"] = map[string]any{"execution_duration_ms": duration}
	} else {
		event["timing"] = nil
	}

	_ = flags.Clear(d.StateDir, flags.InSubagentContext)

	return result{Output: Output{Acknowledged: true}, Event: event}, nil
}

// handleSessionEnd logs session termination; there is no state to flush
// beyond what every mutating operation already persisted synchronously.
func (d *Dispatcher) handleSessionEnd(in Input) (result, error) {
	return result{Output: Output{Acknowledged: true}}, nil
}

// chunkSizeTokens is the default transcript chunk budget, approximated as
// four characters per token.
const chunkSizeTokens = 18000
const approxCharsPerToken = 4

// handleTranscriptProcessor chunks a subagent's transcript by a token
// budget into ordered files under the agent's state subdirectory, and
// raises in_subagent_context so the subagent's own tool calls bypass DAIC
// gating for the remainder of its scoped execution.
func (d *Dispatcher) handleTranscriptProcessor(in Input) (result, error) {
	agentDir := filepath.Join(d.StateDir, sanitizeAgentName(in.AgentName))
	if err := os.MkdirAll(agentDir, 0o755); err != nil {
		return result{}, err
	}

	chunks := chunkTranscript(in.Transcript, chunkSizeTokens*approxCharsPerToken)
	for i, chunk := range chunks {
		path := filepath.Join(agentDir, chunkFileName(i))
		if err := os.WriteFile(path, []byte(chunk), 0o644); err != nil {
			return result{}, err
		}
	}

	if _, err := flags.Create(d.StateDir, flags.InSubagentContext); err != nil {
		return result{}, err
	}

	return result{
		Output: Output{CleanedTranscript: in.Transcript},
		Event:  map[string]any{"chunk_count": len(chunks)},
	}, nil
}

func sanitizeAgentName(name string) string {
	if name == "" {
		return "agent"
	}
	return name
}

func chunkFileName(i int) string {
	return "chunk_" + strconv.Itoa(i) + ".txt"
}

// chunkTranscript splits text into chunks of at most maxChars runes each,
// preferring to break on a newline boundary.
func chunkTranscript(text string, maxChars int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	var chunks []string
	for len(runes) > 0 {
		end := maxChars
		if end > len(runes) {
			end = len(runes)
		} else {
			for end > 0 && runes[end-1] != '\n' {
				end--
			}
			if end == 0 {
				end = maxChars
				if end > len(runes) {
					end = len(runes)
				}
			}
		}
		chunks = append(chunks, string(runes[:end]))
		runes = runes[end:]
	}
	return chunks
}

// handleStop and handleSubagentStop detect recursive invocations via
// stop_hook_active and avoid re-triggering the host's stop machinery.
func (d *Dispatcher) handleStop(in Input) (result, error) {
	if in.StopHookActive {
		return result{Output: Output{Acknowledged: true}, Event: map[string]any{"recursive": true}}, nil
	}
	return result{Output: Output{Acknowledged: true}}, nil
}

func (d *Dispatcher) handleSubagentStop(in Input) (result, error) {
	if in.StopHookActive {
		return result{Output: Output{Acknowledged: true}, Event: map[string]any{"recursive": true}}, nil
	}
	return result{Output: Output{Acknowledged: true}}, nil
}

// handlePreCompact logs the compaction trigger together with the active
// task, if any. It does not write to the task file; the custom
// instructions are not persisted.
func (d *Dispatcher) handlePreCompact(in Input) (result, error) {
	st, err := d.State.Get()
	if err != nil {
		return result{}, err
	}
	return result{
		Output: Output{Acknowledged: true},
		Event:  map[string]any{"trigger": in.Trigger, "current_task": st.CurrentTask},
	}, nil
}

// handleNotification has no side effects; it exists purely to produce an
// event-store row for the notification.
func (d *Dispatcher) handleNotification(in Input) (result, error) {
	return result{Output: Output{Acknowledged: true}, Event: map[string]any{"message": in.Message}}, nil
}
