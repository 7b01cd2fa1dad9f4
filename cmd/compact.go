package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/pwvault/internal/config"
	"github.com/illarion/pwvault/internal/vault"
)

// Compact compacts the vault file to reclaim unused space
func Compact(ctx context.Context, opts *config.Options) {
	if err := ctx.Err(); err != nil {
		HandleError(err)
	}

	// Get file size before
	info, err := os.Stat(opts.Vault)
	if err != nil {
		HandleError(fmt.Errorf("no vault file at %s", opts.Vault))
	}
	sizeBefore := info.Size()

	if err := vault.Compact(opts.Vault); err != nil {
		HandleError(err)
	}

	// Get file size after
	info, err = os.Stat(opts.Vault)
	if err != nil {
		HandleError(err)
	}
	sizeAfter := info.Size()

	fmt.Printf("Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
}
