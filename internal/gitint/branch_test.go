package gitint

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func gitInitShell(t *testing.T, dir string) {
	t.Helper()
	cmds := [][]string{
		{"git", "init"},
		{"git", "symbolic-ref", "HEAD", "refs/heads/main"},
		{"git", "config", "user.email", "test@test.com"},
		{"git", "config", "user.name", "Test"},
		{"git", "commit", "--allow-empty", "-m", "init"},
	}
	for _, args := range cmds {
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git command %v failed: %v\n%s", args, err, out)
		}
	}
}

func gitCheckoutNewBranch(t *testing.T, dir, branch string) {
	t.Helper()
	cmd := exec.Command("git", "checkout", "-b", branch)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git checkout -b %s failed: %v\n%s", branch, err, out)
	}
}

func gitCommitFile(t *testing.T, dir, file, content, message string) {
	t.Helper()
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	add := exec.Command("git", "add", file)
	add.Dir = dir
	if out, err := add.CombinedOutput(); err != nil {
		t.Fatalf("git add failed: %v\n%s", err, out)
	}
	commit := exec.Command("git", "commit", "-m", message)
	commit.Dir = dir
	if out, err := commit.CombinedOutput(); err != nil {
		t.Fatalf("git commit failed: %v\n%s", err, out)
	}
}

func TestCurrentBranch_Main(t *testing.T) {
	dir := t.TempDir()
	gitInitShell(t, dir)

	branch, err := CurrentBranch(dir)
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "main" {
		t.Errorf("CurrentBranch = %q, want %q", branch, "main")
	}
}

func TestCurrentBranch_FeatureBranch(t *testing.T) {
	dir := t.TempDir()
	gitInitShell(t, dir)
	gitCheckoutNewBranch(t, dir, "feature-x")

	branch, err := CurrentBranch(dir)
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "feature-x" {
		t.Errorf("CurrentBranch = %q, want %q", branch, "feature-x")
	}
}

func TestCurrentBranch_DetachedHEAD(t *testing.T) {
	dir := t.TempDir()
	gitInitShell(t, dir)
	gitCommitFile(t, dir, "file.txt", "content", "add file")

	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = dir
	hashOut, err := cmd.Output()
	if err != nil {
		t.Fatalf("rev-parse: %v", err)
	}

	detach := exec.Command("git", "checkout", "--detach", "HEAD")
	detach.Dir = dir
	if out, err := detach.CombinedOutput(); err != nil {
		t.Fatalf("git checkout --detach failed: %v\n%s", err, out)
	}

	branch, err := CurrentBranch(dir)
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch+"\n" != string(hashOut) {
		t.Errorf("CurrentBranch = %q, want commit hash %q", branch, string(hashOut))
	}
}

func TestCurrentBranch_NewBranchNoCommits(t *testing.T) {
	dir := t.TempDir()
	gitInitShell(t, dir)
	gitCheckoutNewBranch(t, dir, "new-feature")

	branch, err := CurrentBranch(dir)
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "new-feature" {
		t.Errorf("CurrentBranch = %q, want %q", branch, "new-feature")
	}
}
