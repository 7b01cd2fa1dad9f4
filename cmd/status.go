package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/illarion/pwvault/internal/config"
	"github.com/illarion/pwvault/internal/git"
	"github.com/illarion/pwvault/internal/keyring"
	"github.com/illarion/pwvault/internal/keywrap"
	"github.com/illarion/pwvault/internal/vault"
)

// Status shows the state of the vault file (no login required)
func Status(ctx context.Context, opts *config.Options) {
	if err := ctx.Err(); err != nil {
		HandleError(err)
	}

	info, err := vault.Inspect(opts.Vault)
	if err != nil {
		HandleError(err)
	}
	if !info.Exists || info.Header == nil {
		fmt.Printf("No vault file at %s\n", opts.Vault)
		fmt.Printf("It is created on first save (key protection: %s)\n", opts.Protect)
		return
	}

	h := info.Header
	fmt.Printf("Vault:      %s\n", info.Path)
	fmt.Printf("ID:         %s\n", h.VaultID)
	fmt.Printf("Entries:    %d\n", info.Entries)
	fmt.Printf("Protection: %s\n", h.Scheme)
	if h.Scheme == keywrap.SchemePassphrase {
		fmt.Printf("KDF:        PBKDF2-SHA256, %d iterations\n", h.Iterations)
	}
	if h.Scheme == keywrap.SchemeKeyring {
		if keyring.HasKey(h.VaultID) {
			fmt.Println("Master key: stored in keyring")
		} else {
			fmt.Println("Master key: missing from keyring")
		}
	}
	fmt.Printf("Cipher:     AES-256-GCM, one key per entry\n")
	fmt.Printf("Created:    %s\n", h.Created.Format(time.RFC3339))
	fmt.Printf("Modified:   %s\n", h.Modified.Format(time.RFC3339))

	gitStatus := git.CheckVault(ctx, opts.Vault)
	fmt.Print(git.FormatVaultStatus(gitStatus, h.Scheme == keywrap.SchemeNone))
}
