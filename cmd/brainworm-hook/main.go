// Command brainworm-hook is the dispatcher the host invokes once per
// lifecycle/tool-use event: `brainworm-hook <event-name>` reads a JSON
// payload on stdin and writes a JSON response on stdout. It is a
// short-lived, single-process-per-event program; it holds no daemon
// state between invocations.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/anthropic/brainworm/internal/config"
	"github.com/anthropic/brainworm/internal/correlation"
	"github.com/anthropic/brainworm/internal/diagnostic"
	"github.com/anthropic/brainworm/internal/eventstore"
	"github.com/anthropic/brainworm/internal/hooks"
	"github.com/anthropic/brainworm/internal/locator"
	"github.com/anthropic/brainworm/internal/state"
)

const stateDirName = ".brainworm/state"
const eventsDirName = ".brainworm/events"
const eventsDBName = "hooks.db"

func main() {
	if len(os.Args) < 2 {
		diagnostic.Print("hook event name argument", nil, "invoke as: brainworm-hook <event-name>")
		os.Exit(1)
	}
	hookName := os.Args[1]

	cwd, err := os.Getwd()
	if err != nil {
		diagnostic.Print("current working directory", err, "run brainworm-hook from inside the project's working tree")
		os.Exit(1)
	}

	root, err := locator.Root(cwd)
	if err != nil {
		diagnostic.Print("project root", err, "run inside a git worktree, or set CLAUDE_PLUGIN_ROOT")
		os.Exit(1)
	}
	stateDir := filepath.Join(root, stateDirName)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		diagnostic.Print("state directory "+stateDir, err, "check permissions on the project's .brainworm directory")
		os.Exit(1)
	}

	cfg, err := config.Load(config.PathFor(stateDir))
	if err != nil {
		diagnostic.Print("config.toml", err, "fix or remove "+config.PathFor(stateDir)+" and retry")
		os.Exit(1)
	}

	st := state.New(stateDir)
	corr := correlation.New(stateDir)

	eventsDir := filepath.Join(root, eventsDirName)
	if err := os.MkdirAll(eventsDir, 0o755); err != nil {
		diagnostic.Print("events directory "+eventsDir, err, "check permissions on the project's .brainworm directory")
		os.Exit(1)
	}
	events, err := eventstore.New(filepath.Join(eventsDir, eventsDBName))
	if err != nil {
		diagnostic.Print("event store database", err, "check that "+eventsDir+" is writable and not on a read-only mount")
		os.Exit(1)
	}
	defer events.Close()

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		diagnostic.Print("hook payload on stdin", err, "invoke brainworm-hook with the host's JSON payload piped to stdin")
		os.Exit(1)
	}

	var in hooks.Input
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &in); err != nil {
			diagnostic.Print("hook payload JSON", err, "verify the host is sending well-formed JSON")
			os.Exit(1)
		}
	}
	in.HookEventName = hookName

	dispatcher := hooks.New(cfg, stateDir, st, corr, events)
	out, err := dispatcher.Dispatch(hookName, in)
	if err != nil {
		if _, ok := err.(hooks.UnknownHookError); ok {
			diagnostic.Print("hook handler for "+hookName, err, "upgrade brainworm-hook or check the host's hook configuration")
			os.Exit(1)
		}
		diagnostic.Print("hook dispatch for "+hookName, err, "check the diagnostics above and retry")
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, "brainworm-hook: write response:", err)
		os.Exit(1)
	}
}
