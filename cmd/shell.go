package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/illarion/pwvault/internal/config"
	"github.com/illarion/pwvault/internal/core"
	"github.com/illarion/pwvault/internal/crypto"
)

// Shell opens the vault and runs the interactive command loop
func Shell(ctx context.Context, opts *config.Options) {
	p := NewPrompter()
	sess, err := OpenSession(ctx, opts, p)
	if err != nil {
		HandleError(err)
	}
	defer sess.Close()

	if err := runShell(ctx, sess); err != nil {
		HandleError(err)
	}
}

// shellCommand is one shell command. help and quit have no run function;
// the loop handles them itself.
type shellCommand struct {
	name string
	help string
	run  func(sh *shell, arg string) error
}

var shellCommands = []shellCommand{
	{"login", "Log in", (*shell).login},
	{"logout", "Log out", (*shell).logout},
	{"show", "List the labels", (*shell).show},
	{"get", "Print a password", (*shell).get},
	{"add", "Create a new entry", (*shell).add},
	{"modify", "Change the password of an entry", (*shell).modify},
	{"remove", "Remove an entry", (*shell).remove},
	{"changes", "List unsaved changes", (*shell).changes},
	{"save", "Write changes to the vault file", (*shell).save},
	{"help", "Show this list", nil},
	{"quit", "Quit, asking to save unsaved changes", nil},
}

type shell struct {
	ctx  context.Context
	sess *Session
	p    *Prompter
	out  io.Writer
}

// runShell reads commands until quit, end of input or cancellation
func runShell(ctx context.Context, sess *Session) error {
	sh := &shell{ctx: ctx, sess: sess, p: sess.prompt, out: sess.out}
	sh.help()

	interrupted := false
	for {
		// Offer to quit once after an interrupt; a failed save returns to the prompt
		if ctx.Err() != nil && !interrupted {
			interrupted = true
			if done, err := sh.quit(); done {
				return err
			}
		}

		line, err := sh.p.ReadLine(sh.promptText())
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(sh.out)
			if done, err := sh.quit(); done {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		name = strings.ToLower(name)
		arg = strings.TrimSpace(arg)
		if name == "" {
			continue
		}
		switch name {
		case "quit", "exit":
			if done, err := sh.quit(); done {
				return err
			}
			continue
		case "help":
			sh.help()
			continue
		}

		cmd, ok := lookupShellCommand(name)
		if !ok {
			fmt.Fprintf(sh.out, "Invalid command: %s\n", name)
			continue
		}
		if err := cmd.run(sh, arg); err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(sh.out)
				if done, err := sh.quit(); done {
					return err
				}
				continue
			}
			printError(sh.out, err)
		}
	}
}

func lookupShellCommand(name string) (shellCommand, bool) {
	for _, c := range shellCommands {
		if c.name == name && c.run != nil {
			return c, true
		}
	}
	return shellCommand{}, false
}

func (sh *shell) promptText() string {
	user := sh.sess.Keeper.CurrentUser()
	if user == "" {
		return "pwvault> "
	}
	return user + "@pwvault> "
}

// label returns arg, or asks for a label when arg is empty
func (sh *shell) label(arg string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	return sh.p.ReadLine("Label: ")
}

func (sh *shell) login(arg string) error {
	if err := sh.sess.promptLogin(arg); err != nil {
		return err
	}
	printOK(sh.out, "Logged in as "+sh.sess.Keeper.CurrentUser())
	return nil
}

func (sh *shell) logout(string) error {
	user := sh.sess.Keeper.CurrentUser()
	if err := sh.sess.Keeper.Logout(); err != nil {
		return err
	}
	printOK(sh.out, "Logged out "+user)
	return nil
}

func (sh *shell) show(string) error {
	listing, err := sh.sess.Keeper.List()
	if err != nil {
		return err
	}
	if len(listing) == 0 {
		fmt.Fprintln(sh.out, "No entries")
		return nil
	}
	for _, l := range listing {
		fmt.Fprintf(sh.out, "  %d: %s\n", l.Index, l.Label)
	}
	return nil
}

func (sh *shell) get(arg string) error {
	if err := sh.sess.Keeper.Can(core.OpReveal); err != nil {
		return err
	}
	label, err := sh.label(arg)
	if err != nil {
		return err
	}
	password, err := sh.sess.Keeper.Reveal(label)
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, password)
	return nil
}

func (sh *shell) add(arg string) error {
	if err := sh.sess.Keeper.Can(core.OpAdd); err != nil {
		return err
	}
	label, err := sh.label(arg)
	if err != nil {
		return err
	}
	password, err := sh.p.ReadPasswordConfirm("Password: ")
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	if err := sh.sess.Keeper.Add(label, string(password)); err != nil {
		return err
	}
	printOK(sh.out, "Added "+label)
	return nil
}

func (sh *shell) modify(arg string) error {
	if err := sh.sess.Keeper.Can(core.OpModify); err != nil {
		return err
	}
	label, err := sh.label(arg)
	if err != nil {
		return err
	}
	password, err := sh.p.ReadPasswordConfirm("New password: ")
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	if err := sh.sess.Keeper.Modify(label, string(password)); err != nil {
		return err
	}
	printOK(sh.out, "Modified "+label)
	return nil
}

func (sh *shell) remove(arg string) error {
	if err := sh.sess.Keeper.Can(core.OpRemove); err != nil {
		return err
	}
	label, err := sh.label(arg)
	if err != nil {
		return err
	}
	if err := sh.sess.Keeper.Remove(label); err != nil {
		return err
	}
	printOK(sh.out, "Removed "+label)
	return nil
}

func (sh *shell) changes(string) error {
	pending, err := sh.sess.Keeper.Pending()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(sh.out, "No unsaved changes")
		return nil
	}
	for _, c := range pending {
		fmt.Fprintf(sh.out, "  %-8s %s\n", c.Kind.String()+":", c.Label)
	}
	return nil
}

func (sh *shell) save(string) error {
	if !sh.sess.Keeper.Changed() {
		fmt.Fprintln(sh.out, "Nothing to save")
		return nil
	}
	if err := sh.sess.Save(sh.ctx); err != nil {
		return err
	}
	printOK(sh.out, "Saved "+sh.sess.Store.Path())
	return nil
}

func (sh *shell) help() {
	fmt.Fprintln(sh.out)
	for _, c := range shellCommands {
		fmt.Fprintf(sh.out, "\t%s\t%s\n", c.name, c.help)
	}
	fmt.Fprintln(sh.out)
}

// quit offers to save unsaved changes. It reports false when the save
// failed, so the shell keeps running with the changes still in memory.
func (sh *shell) quit() (bool, error) {
	if sh.sess.Keeper.Changed() {
		save, err := sh.p.Confirm("Save changes?")
		if err != nil && !errors.Is(err, io.EOF) {
			return true, err
		}
		if save {
			// Saving must not be skipped because the quit came from a signal
			if err := sh.sess.Save(context.WithoutCancel(sh.ctx)); err != nil {
				printError(sh.out, err)
				fmt.Fprintln(sh.out, "Changes were not saved. Quit again to retry or to discard them.")
				return false, nil
			}
			printOK(sh.out, "Saved "+sh.sess.Store.Path())
		}
	}
	fmt.Fprintln(sh.out, "Bye")
	return true, nil
}
