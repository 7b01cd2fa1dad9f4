package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/pwvault/internal/config"
	"github.com/illarion/pwvault/internal/crypto"
)

// withSession opens the vault, logs in, runs fn and saves any change
func withSession(ctx context.Context, opts *config.Options, fn func(*Session) error) {
	sess, err := OpenSession(ctx, opts, NewPrompter())
	if err != nil {
		HandleError(err)
	}
	defer sess.Close()

	if err := sess.Login(); err != nil {
		HandleError(err)
	}
	if err := fn(sess); err != nil {
		HandleError(err)
	}
	if err := sess.Save(ctx); err != nil {
		HandleError(err)
	}
}

// requireLabel exits with usage when label is empty
func requireLabel(command, label string) {
	if label == "" {
		fmt.Fprintf(os.Stderr, "Error: %s requires a label argument\n", command)
		fmt.Fprintf(os.Stderr, "Usage: pwvault %s <label>\n", command)
		os.Exit(1)
	}
}

// readEntryPassword takes the entry password from PWVAULT_ENTRY_PASSWORD
// or asks for it twice
func readEntryPassword(p *Prompter, prompt string) ([]byte, error) {
	if password := fromEnv(EnvEntryPassword); password != nil {
		return password, nil
	}
	return p.ReadPasswordConfirm(prompt)
}

// List prints the labels in the vault
func List(ctx context.Context, opts *config.Options) {
	withSession(ctx, opts, func(sess *Session) error {
		listing, err := sess.Keeper.List()
		if err != nil {
			return err
		}
		if len(listing) == 0 {
			fmt.Println("No entries in " + opts.Vault)
			return nil
		}
		for _, l := range listing {
			fmt.Printf("%d: %s\n", l.Index, l.Label)
		}
		return nil
	})
}

// Get prints the password of an entry
func Get(ctx context.Context, opts *config.Options, label string) {
	requireLabel("get", label)
	withSession(ctx, opts, func(sess *Session) error {
		password, err := sess.Keeper.Reveal(label)
		if err != nil {
			return err
		}
		fmt.Println(password)
		return nil
	})
}

// Add creates an entry
func Add(ctx context.Context, opts *config.Options, label string) {
	requireLabel("add", label)
	withSession(ctx, opts, func(sess *Session) error {
		password, err := readEntryPassword(sess.prompt, "Password for "+label+": ")
		if err != nil {
			return err
		}
		defer crypto.ClearBytes(password)

		if err := sess.Keeper.Add(label, string(password)); err != nil {
			return err
		}
		printOK(os.Stdout, "Added "+label)
		return nil
	})
}

// Modify replaces the password of an entry
func Modify(ctx context.Context, opts *config.Options, label string) {
	requireLabel("modify", label)
	withSession(ctx, opts, func(sess *Session) error {
		password, err := readEntryPassword(sess.prompt, "New password for "+label+": ")
		if err != nil {
			return err
		}
		defer crypto.ClearBytes(password)

		if err := sess.Keeper.Modify(label, string(password)); err != nil {
			return err
		}
		printOK(os.Stdout, "Modified "+label)
		return nil
	})
}

// Remove deletes an entry
func Remove(ctx context.Context, opts *config.Options, label string) {
	requireLabel("rm", label)
	withSession(ctx, opts, func(sess *Session) error {
		if err := sess.Keeper.Remove(label); err != nil {
			return err
		}
		printOK(os.Stdout, "Removed "+label)
		return nil
	})
}
