// Package daic implements the Discussion/Implementation workflow state
// machine: the transition guard, the tool-gating decision, and the
// trigger-phrase detector.
package daic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anthropic/brainworm/internal/state"
)

// ErrInvalidTransition is returned when a caller requests a transition the
// state machine does not allow.
var ErrInvalidTransition = errors.New("invalid daic transition")

// validTransitions enumerates who may move the machine between states. The
// agent itself may never initiate a transition; only the trigger-phrase
// detector (discussion->implementation) and explicit user CLI commands
// (either direction) may.
var validTransitions = map[state.Mode][]state.Mode{
	state.Discussion:     {state.Implementation},
	state.Implementation: {state.Discussion},
}

// ValidateTransition reports whether moving from `from` to `to` is allowed.
func ValidateTransition(from, to state.Mode) error {
	if from == to {
		return nil
	}
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// DetectTriggerPhrase checks prompt for any of the configured phrases,
// case-insensitive substring containment. It returns the matched phrase
// and true if the current mode is Discussion and a phrase was found; the
// caller is responsible for performing the transition and
// raising the trigger_phrase_detected flag.
func DetectTriggerPhrase(prompt string, phrases []string, currentMode state.Mode) (matched string, ok bool) {
	if currentMode != state.Discussion {
		return "", false
	}
	lower := strings.ToLower(prompt)
	for _, phrase := range phrases {
		if phrase == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return phrase, true
		}
	}
	return "", false
}
