// Command tasks is the operator-facing wrapper around task lifecycle
// management: create, switch between, and inspect scaffolded units of
// work, and the branch/state/correlation wiring that ties them together.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anthropic/brainworm/internal/config"
	"github.com/anthropic/brainworm/internal/correlation"
	"github.com/anthropic/brainworm/internal/diagnostic"
	"github.com/anthropic/brainworm/internal/locator"
	"github.com/anthropic/brainworm/internal/state"
	"github.com/anthropic/brainworm/internal/taskmgr"
)

const (
	stateDirName = ".brainworm/state"
	tasksDirName = ".brainworm/tasks"

	exitInvalidArgs        = 2
	exitNotFound           = 3
	exitPreconditionFailed = 4
)

func main() {
	root := &cobra.Command{
		Use:   "tasks",
		Short: "Create, switch, and inspect brainworm tasks",
	}

	root.AddCommand(createCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(listCmd())
	root.AddCommand(switchCmd())
	root.AddCommand(clearCmd())
	root.AddCommand(setCmd())
	root.AddCommand(sessionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tasks:", err)
		os.Exit(1)
	}
}

func openManager() (*taskmgr.Manager, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("current working directory: %w", err)
	}
	projectRoot, err := locator.Root(cwd)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	stateDir := filepath.Join(projectRoot, stateDirName)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory %s: %w", stateDir, err)
	}

	cfg, err := config.Load(config.PathFor(stateDir))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	st := state.New(stateDir)
	corr := correlation.New(stateDir)
	tasksDir := filepath.Join(projectRoot, tasksDirName)

	return taskmgr.New(projectRoot, tasksDir, &cfg.DAIC, st, corr), nil
}

func fail(err error) {
	diagnostic.Print("brainworm task manager", err, "run inside a git worktree with a .brainworm directory")
	os.Exit(1)
}

func createCmd() *cobra.Command {
	var services string
	var submodule string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Scaffold a new task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				fmt.Fprintln(os.Stderr, "tasks: create requires exactly one task name")
				os.Exit(exitInvalidArgs)
			}

			mgr, err := openManager()
			if err != nil {
				fail(err)
			}

			var svcList []string
			if services != "" {
				svcList = strings.Split(services, ",")
			}

			task, err := mgr.Create(args[0], svcList, submodule)
			if err != nil {
				if strings.HasPrefix(err.Error(), "task name") {
					fmt.Fprintln(os.Stderr, "tasks: create:", err)
					os.Exit(exitInvalidArgs)
				}
				return fmt.Errorf("create: %w", err)
			}

			fmt.Printf("task:   %s\n", task.Name)
			fmt.Printf("branch: %s\n", task.Branch)
			return nil
		},
	}

	cmd.Flags().StringVar(&services, "services", "", "Comma-separated service list")
	cmd.Flags().StringVar(&submodule, "submodule", "", "Submodule path to branch within")
	return cmd
}

func statusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the active task's state",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				fail(err)
			}
			st, err := mgr.Status()
			if err != nil {
				return fmt.Errorf("read status: %w", err)
			}
			if asJSON {
				return printJSON(st)
			}
			if st.CurrentTask == "" {
				fmt.Println("no active task")
				return nil
			}
			fmt.Printf("task:   %s\n", st.CurrentTask)
			fmt.Printf("branch: %s\n", st.CurrentBranch)
			fmt.Printf("mode:   %s\n", st.DAICMode)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	return cmd
}

func listCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scaffolded tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				fail(err)
			}
			names, err := mgr.List()
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}
			if asJSON {
				return printJSON(names)
			}
			if len(names) == 0 {
				fmt.Println("no tasks")
				return nil
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print tasks as a JSON array")
	return cmd
}

func switchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <name>",
		Short: "Switch to an existing task's branch",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				fmt.Fprintln(os.Stderr, "tasks: switch requires exactly one task name")
				os.Exit(exitInvalidArgs)
			}
			mgr, err := openManager()
			if err != nil {
				fail(err)
			}
			if err := mgr.Switch(args[0]); err != nil {
				if strings.Contains(err.Error(), "not found") {
					fmt.Fprintln(os.Stderr, "tasks: switch:", err)
					os.Exit(exitNotFound)
				}
				if strings.Contains(err.Error(), "uncommitted changes") {
					fmt.Fprintln(os.Stderr, "tasks: switch:", err)
					os.Exit(exitPreconditionFailed)
				}
				return fmt.Errorf("switch: %w", err)
			}
			fmt.Printf("switched to %s\n", args[0])
			return nil
		},
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the active task",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				fail(err)
			}
			if err := mgr.Clear(); err != nil {
				return fmt.Errorf("clear: %w", err)
			}
			fmt.Println("task cleared")
			return nil
		},
	}
}

// setCmd updates the active task's service list without otherwise
// disturbing its branch or correlation identity.
func setCmd() *cobra.Command {
	var services string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the active task's service list",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				fail(err)
			}
			st, err := mgr.Status()
			if err != nil {
				return fmt.Errorf("read status: %w", err)
			}
			if st.CurrentTask == "" {
				fmt.Fprintln(os.Stderr, "tasks: set: no active task")
				os.Exit(exitPreconditionFailed)
			}

			var svcList []string
			if services != "" {
				svcList = strings.Split(services, ",")
			}
			if err := mgr.SetServices(svcList); err != nil {
				return fmt.Errorf("set services: %w", err)
			}
			fmt.Printf("task:     %s\n", st.CurrentTask)
			fmt.Printf("services: %s\n", strings.Join(svcList, ","))
			return nil
		},
	}

	cmd.Flags().StringVar(&services, "services", "", "Comma-separated service list")
	return cmd
}

// sessionCmd prints the correlation/session linkage for the active task.
func sessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Print the session/correlation identity for the active task",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				fail(err)
			}
			st, err := mgr.Status()
			if err != nil {
				return fmt.Errorf("read status: %w", err)
			}
			fmt.Printf("session_id:     %s\n", st.SessionID)
			fmt.Printf("correlation_id: %s\n", st.CorrelationID)
			fmt.Printf("current_task:   %s\n", st.CurrentTask)
			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
