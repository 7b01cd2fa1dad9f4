package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/pwvault/internal/config"
	"github.com/illarion/pwvault/internal/keyring"
	"github.com/illarion/pwvault/internal/keywrap"
	"github.com/illarion/pwvault/internal/vault"
)

// KeyringStatus reports whether the vault's master key is in the OS keyring
func KeyringStatus(ctx context.Context, opts *config.Options) {
	if err := ctx.Err(); err != nil {
		HandleError(err)
	}

	info, err := vault.Inspect(opts.Vault)
	if err != nil {
		HandleError(err)
	}
	if info.Header == nil {
		fmt.Println("Master key: not created (no vault file yet)")
		return
	}
	if info.Header.Scheme != keywrap.SchemeKeyring {
		fmt.Printf("Master key: not used (key protection is %s)\n", info.Header.Scheme)
		return
	}

	if keyring.HasKey(info.Header.VaultID) {
		fmt.Println("Master key: stored in keyring")
	} else {
		fmt.Println("Master key: not stored")
	}
}
