// Command daic is the operator-facing wrapper around the DAIC workflow
// state machine: inspect or change the current Discussion/Implementation
// mode directly, without going through a hook event.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/anthropic/brainworm/internal/diagnostic"
	"github.com/anthropic/brainworm/internal/locator"
	"github.com/anthropic/brainworm/internal/state"
)

const stateDirName = ".brainworm/state"

func main() {
	root := &cobra.Command{
		Use:   "daic",
		Short: "Inspect and control the Discussion/Implementation workflow mode",
	}

	root.AddCommand(statusCmd())
	root.AddCommand(modeCmd("discussion", state.Discussion))
	root.AddCommand(modeCmd("implementation", state.Implementation))
	root.AddCommand(toggleCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "daic:", err)
		os.Exit(1)
	}
}

func openStore() (*state.Store, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("current working directory: %w", err)
	}
	projectRoot, err := locator.Root(cwd)
	if err != nil {
		return nil, "", fmt.Errorf("resolve project root: %w", err)
	}
	stateDir := filepath.Join(projectRoot, stateDirName)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create state directory %s: %w", stateDir, err)
	}
	return state.New(stateDir), stateDir, nil
}

func printStatus(st state.State) {
	fmt.Printf("mode:     %s\n", st.DAICMode)
	if st.CurrentTask != "" {
		fmt.Printf("task:     %s\n", st.CurrentTask)
		fmt.Printf("branch:   %s\n", st.CurrentBranch)
	}
	if st.DAICTimestamp != "" {
		fmt.Printf("since:    %s\n", st.DAICTimestamp)
	}
}

func statusCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the current DAIC mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, stateDir, err := openStore()
			if err != nil {
				diagnostic.Print("brainworm state", err, "run inside a git worktree with a .brainworm directory")
				os.Exit(1)
			}

			st, err := store.Get()
			if err != nil {
				return fmt.Errorf("read state: %w", err)
			}
			printStatus(st)

			if !watch {
				return nil
			}
			return watchStatus(store, stateDir)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and reprint status on every change")
	return cmd
}

// watchStatus is a foreground convenience view: it reprints status every
// time unified_session_state.json changes on disk, until interrupted.
func watchStatus(store *state.Store, stateDir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(stateDir); err != nil {
		return fmt.Errorf("watch %s: %w", stateDir, err)
	}

	target := filepath.Join(stateDir, state.FileName)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			st, err := store.Get()
			if err != nil {
				fmt.Fprintln(os.Stderr, "daic: read state:", err)
				continue
			}
			fmt.Println("---")
			printStatus(st)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "daic: watch error:", err)
		}
	}
}

func modeCmd(name string, mode state.Mode) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Switch to %s mode", name),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore()
			if err != nil {
				diagnostic.Print("brainworm state", err, "run inside a git worktree with a .brainworm directory")
				os.Exit(1)
			}
			if err := store.SetDAICMode(mode); err != nil {
				return fmt.Errorf("set mode: %w", err)
			}
			fmt.Printf("mode: %s\n", mode)
			return nil
		},
	}
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Flip Discussion<->Implementation",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore()
			if err != nil {
				diagnostic.Print("brainworm state", err, "run inside a git worktree with a .brainworm directory")
				os.Exit(1)
			}
			next, err := store.ToggleDAICMode()
			if err != nil {
				return fmt.Errorf("toggle mode: %w", err)
			}
			fmt.Printf("mode: %s\n", next)
			return nil
		},
	}
}
