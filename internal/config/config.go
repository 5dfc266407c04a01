// Package config loads and supplies defaults for brainworm's project-level
// configuration document.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds brainworm's project configuration.
type Config struct {
	DAIC   DAICConfig   `toml:"daic"`
	Debug  DebugConfig  `toml:"debug"`
	GitHub GitHubConfig `toml:"github"`
}

// DAICConfig controls the Discussion/Implementation workflow state machine.
type DAICConfig struct {
	Enabled              bool                `toml:"enabled"`
	DefaultMode          string              `toml:"default_mode"`
	BlockedTools         []string            `toml:"blocked_tools"`
	TriggerPhrases       []string            `toml:"trigger_phrases"`
	ReadOnlyBashCommands map[string][]string `toml:"read_only_bash_commands"`
	BranchEnforcement    BranchEnforcement   `toml:"branch_enforcement"`
}

// BranchEnforcement maps task-name prefixes to branch-name prefixes.
type BranchEnforcement struct {
	Enabled      bool              `toml:"enabled"`
	TaskPrefixes []string          `toml:"task_prefixes"`
	Prefixes     map[string]string `toml:"prefixes"`
}

// DebugConfig controls verbose logging.
type DebugConfig struct {
	Enabled bool            `toml:"enabled"`
	Level   string          `toml:"level"`
	Outputs map[string]bool `toml:"outputs"`
}

// GitHubConfig toggles optional GitHub integration.
type GitHubConfig struct {
	Enabled           bool `toml:"enabled"`
	LinkIssueOnCreate bool `toml:"link_issue_on_create"`
}

// FileName is the recognized on-disk config file name in the project's
// .brainworm directory, beside its state/ directory.
const FileName = "config.toml"

// Default returns a Config populated with brainworm's built-in defaults.
func Default() *Config {
	return &Config{
		DAIC: DAICConfig{
			Enabled:        true,
			DefaultMode:    "discussion",
			BlockedTools:   []string{"Edit", "Write", "MultiEdit", "NotebookEdit"},
			TriggerPhrases: []string{"make it so", "go ahead", "ship it", "let's do it", "execute", "implement it"},
			ReadOnlyBashCommands: map[string][]string{
				"basic": {"ls", "cat", "pwd", "echo", "which", "whoami", "file", "stat", "wc", "head", "tail"},
				"git":   {"git status", "git diff", "git log", "git show", "git branch", "git blame", "git remote"},
				"docker": {"docker ps", "docker images", "docker logs", "docker inspect"},
				"package-managers": {"npm list", "npm outdated", "go list", "pip list", "pip show"},
				"network": {"curl", "ping", "dig", "nslookup"},
				"text-processing": {"grep", "rg", "find", "awk", "sed", "sort", "uniq", "diff"},
				"testing": {"go test", "go vet", "npm test", "pytest"},
			},
			BranchEnforcement: BranchEnforcement{
				Enabled:      true,
				TaskPrefixes: []string{"fix", "feature", "refactor", "chore"},
				Prefixes: map[string]string{
					"fix":      "fix/",
					"feature":  "feature/",
					"refactor": "refactor/",
					"chore":    "chore/",
				},
			},
		},
		Debug: DebugConfig{
			Enabled: false,
			Level:   "info",
			Outputs: map[string]bool{"stderr": true},
		},
		GitHub: GitHubConfig{
			Enabled:           false,
			LinkIssueOnCreate: false,
		},
	}
}

// Load reads config.toml at path, falling back to Default() for any field
// not present in the file. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path atomically: it encodes to a temp file in the same
// directory, then renames over the destination so a crash mid-write can
// never leave a half-written config.toml behind.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".config-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	enc := toml.NewEncoder(tmp)
	if err := enc.Encode(cfg); err != nil {
		tmp.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config into place: %w", err)
	}
	return nil
}

// PathFor returns the path to config.toml for a project whose state
// directory is stateDir: the file sits in stateDir's parent (.brainworm/).
func PathFor(stateDir string) string {
	return filepath.Join(filepath.Dir(stateDir), FileName)
}
