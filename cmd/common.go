package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/illarion/pwvault/internal/auth"
	"github.com/illarion/pwvault/internal/config"
	"github.com/illarion/pwvault/internal/core"
	"github.com/illarion/pwvault/internal/keywrap"
	"github.com/illarion/pwvault/internal/storage"
	"github.com/illarion/pwvault/internal/vault"
)

func printOK(w io.Writer, msg string) {
	fmt.Fprintln(w, color.GreenString("✓")+" "+msg)
}

func printWarn(w io.Writer, msg string) {
	fmt.Fprintln(w, color.YellowString("⚠")+" "+msg)
}

// printError writes err and a hint, if one applies, to w
func printError(w io.Writer, err error) {
	msg, hint := describeError(err)
	fmt.Fprintln(w, color.RedString("✗")+" "+msg)
	if hint != "" {
		fmt.Fprintln(w, "  "+hint)
	}
}

// describeError turns an error into a message and an optional hint
func describeError(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn):
		return "not logged in", "Log in first"
	case errors.Is(err, auth.ErrInvalidUsername):
		return "invalid username", ""
	case errors.Is(err, auth.ErrInvalidPassword):
		return "invalid password", ""
	case errors.Is(err, auth.ErrPasswordTooShort):
		return fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength), ""
	case errors.Is(err, auth.ErrNotPermitted):
		var permErr *auth.PermissionError
		if errors.As(err, &permErr) {
			return fmt.Sprintf("%s is not permitted to %s", permErr.Username, permErr.Permission), ""
		}
		return "not permitted", ""
	case errors.Is(err, core.ErrUnmappedOperation):
		return err.Error(), "Map the operation to a permission in the \"actions\" config"
	case errors.Is(err, vault.ErrEntryAlreadyExists):
		return err.Error(), "Use 'modify' to change its password"
	case errors.Is(err, vault.ErrEntryNotFound):
		return err.Error(), ""
	case errors.Is(err, keywrap.ErrWrongPassphrase):
		return "wrong passphrase", ""
	case errors.Is(err, keywrap.ErrMasterKeyMissing):
		return "master key not found in the OS keyring", "The vault can only be opened on the machine and account that created it"
	case errors.Is(err, keywrap.ErrSchemeMismatch):
		return err.Error(), ""
	case errors.Is(err, storage.ErrLocked):
		return "vault file is in use by another process", ""
	case errors.Is(err, vault.ErrDecryptionFailed):
		return err.Error(), "The vault file may be corrupted"
	case errors.Is(err, config.ErrNoUsers):
		return "no users configured", "Add accounts to the \"users\" list of the config file"
	case errors.Is(err, config.ErrInvalidConfig):
		return err.Error(), ""
	case errors.Is(err, ErrPasswordMismatch):
		return "passwords do not match", ""
	default:
		return err.Error(), ""
	}
}

// HandleError prints err and exits
func HandleError(err error) {
	printError(os.Stderr, err)
	os.Exit(1)
}

func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
