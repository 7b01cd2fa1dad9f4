package git

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// VaultStatus contains git status information for a vault file
type VaultStatus struct {
	IsRepo  bool
	Path    string
	Tracked bool
	Ignored bool
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(ctx context.Context, workDir string) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(ctx context.Context, workDir, path string) bool {
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(ctx context.Context, workDir, path string) bool {
	cmd := exec.CommandContext(ctx, "git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// CheckVault checks the git status of the vault file at vaultPath
func CheckVault(ctx context.Context, vaultPath string) *VaultStatus {
	workDir := filepath.Dir(vaultPath)
	name := filepath.Base(vaultPath)
	status := &VaultStatus{Path: vaultPath}

	if !IsGitRepo(ctx, workDir) {
		return status
	}
	status.IsRepo = true
	status.Tracked = IsTracked(ctx, workDir, name)
	status.Ignored = IsIgnored(ctx, workDir, name)
	return status
}

// FormatVaultStatus formats the git status for display. Nothing is printed
// outside a repository.
func FormatVaultStatus(status *VaultStatus, unprotected bool) string {
	if !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit Integration:\n")

	switch {
	case status.Tracked && unprotected:
		result.WriteString(fmt.Sprintf("   error: %s is tracked by git and its keys are unprotected\n", status.Path))
		result.WriteString(fmt.Sprintf("      (run: git rm --cached %s)\n", status.Path))
	case status.Tracked:
		result.WriteString(fmt.Sprintf("   warning: %s is tracked by git, labels are readable by anyone with the repo\n", status.Path))
	case status.Ignored:
		result.WriteString(fmt.Sprintf("   ok: %s is in .gitignore\n", status.Path))
	default:
		result.WriteString(fmt.Sprintf("   warning: %s not in .gitignore (add to .gitignore)\n", status.Path))
	}

	return result.String()
}
