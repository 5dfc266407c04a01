// Package hooks implements the dispatch table and handlers for every
// lifecycle/tool-use event the host delivers to brainworm: one JSON
// document in on stdin, one JSON document out on stdout, per invocation.
package hooks

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anthropic/brainworm/internal/config"
	"github.com/anthropic/brainworm/internal/correlation"
	"github.com/anthropic/brainworm/internal/eventstore"
	"github.com/anthropic/brainworm/internal/state"
)

// Input is the union of every field any hook's stdin payload may carry.
// Individual handlers only read the fields relevant to their event.
type Input struct {
	SessionID          string         `json:"session_id"`
	Cwd                string         `json:"cwd"`
	HookEventName      string         `json:"hook_event_name"`
	ExecutionID        string         `json:"execution_id,omitempty"`
	ToolName           string         `json:"tool_name,omitempty"`
	ToolInput          map[string]any `json:"tool_input,omitempty"`
	ToolResponse       map[string]any `json:"tool_response,omitempty"`
	UserMessage        string         `json:"user_message,omitempty"`
	PermissionMode     string         `json:"permission_mode,omitempty"`
	Source             string         `json:"source,omitempty"`
	StopHookActive     bool           `json:"stop_hook_active,omitempty"`
	Trigger            string         `json:"trigger,omitempty"`
	CustomInstructions string         `json:"custom_instructions,omitempty"`
	Message            string         `json:"message,omitempty"`
	AgentName          string         `json:"agent_name,omitempty"`
	Transcript         string         `json:"transcript,omitempty"`
}

// Output is the JSON document written to stdout. Handlers populate only
// the fields their contract requires; the rest are omitted.
type Output struct {
	HookSpecificOutput *PreToolUseOutput `json:"hookSpecificOutput,omitempty"`
	AdditionalContext  string            `json:"additional_context,omitempty"`
	Acknowledged       bool              `json:"acknowledged,omitempty"`
	CleanedTranscript  string            `json:"cleaned_transcript,omitempty"`
}

// PreToolUseOutput is pre_tool_use's decision, serialized under the
// host's hookSpecificOutput envelope so the host's PreToolUse handler
// recognizes it.
type PreToolUseOutput struct {
	HookEventName string `json:"hookEventName"`
	Permission    string `json:"permission,omitempty"`
	UserMessage   string `json:"user_message,omitempty"`
}

// result is what a handler produces: the output to serialize, plus extra
// fields the dispatcher folds into the logged event (e.g. timing, or a
// mode_transition marker) without every handler needing to know about the
// event store's shape.
type result struct {
	Output Output
	Event  map[string]any
}

// Dispatcher wires the collaborators every handler needs and routes a hook
// invocation by name.
type Dispatcher struct {
	Cfg         *config.Config
	StateDir    string
	State       *state.Store
	Correlation *correlation.Manager
	Events      *eventstore.Store
}

// New constructs a Dispatcher. stateDir is the project's .brainworm/state
// directory.
func New(cfg *config.Config, stateDir string, st *state.Store, corr *correlation.Manager, ev *eventstore.Store) *Dispatcher {
	return &Dispatcher{Cfg: cfg, StateDir: stateDir, State: st, Correlation: corr, Events: ev}
}

type handlerFunc func(*Dispatcher, Input) (result, error)

var handlers = map[string]handlerFunc{
	"session_start":        (*Dispatcher).handleSessionStart,
	"user_prompt_submit":   (*Dispatcher).handleUserPromptSubmit,
	"pre_tool_use":         (*Dispatcher).handlePreToolUse,
	"post_tool_use":        (*Dispatcher).handlePostToolUse,
	"session_end":          (*Dispatcher).handleSessionEnd,
	"transcript_processor": (*Dispatcher).handleTranscriptProcessor,
	"stop":                 (*Dispatcher).handleStop,
	"subagent_stop":        (*Dispatcher).handleSubagentStop,
	"pre_compact":          (*Dispatcher).handlePreCompact,
	"notification":         (*Dispatcher).handleNotification,
}

// Dispatch looks up the handler for hookName, runs it, and logs exactly one
// event for the invocation. A handler error is recorded in the logged event
// as validation_error and then returned to the caller; a failure to write
// the event itself is also returned. The entry point decides how a returned
// error is reported (brainworm-hook prints a diagnostic and exits non-zero).
func (d *Dispatcher) Dispatch(hookName string, in Input) (Output, error) {
	handler, ok := handlers[hookName]
	if !ok {
		return Output{}, UnknownHookError{Name: hookName}
	}

	executionID := in.ExecutionID
	if executionID == "" {
		executionID = uuid.NewString()
	}
	timestampNs := time.Now().UnixNano()

	res, handlerErr := handler(d, in)

	st, _ := d.State.Get()
	eventData := map[string]any{
		"tool_name": in.ToolName,
	}
	for k, v := range res.Event {
		eventData[k] = v
	}
	if handlerErr != nil {
		eventData["validation_error"] = handlerErr.Error()
	}

	var durationMs *int64
	if timing, ok := eventData["timing"].(map[string]any); ok {
		if v, ok := timing["execution_duration_ms"].(int64); ok {
			durationMs = &v
		}
	}

	if err := d.Events.Log(in.SessionID, st.CorrelationID, hookName, timestampNs, executionID, eventData, durationMs); err != nil && handlerErr == nil {
		handlerErr = fmt.Errorf("log %s event: %w", hookName, err)
	}

	return res.Output, handlerErr
}

// UnknownHookError is an infrastructure-category failure: the host
// requested a hook name brainworm does not implement.
type UnknownHookError struct {
	Name string
}

func (e UnknownHookError) Error() string {
	return "unknown hook event: " + e.Name
}
