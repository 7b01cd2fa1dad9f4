package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/illarion/pwvault/cmd"
	"github.com/illarion/pwvault/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 || (strings.HasPrefix(os.Args[1], "-") && !isHelpFlag(os.Args[1])) {
		// Default command, flags included
		runShell(ctx, os.Args[1:])
		return
	}

	switch os.Args[1] {
	case "shell":
		runShell(ctx, os.Args[2:])
	case "ls":
		runLs(ctx, os.Args[2:])
	case "get":
		runGet(ctx, os.Args[2:])
	case "add":
		runAdd(ctx, os.Args[2:])
	case "modify":
		runModify(ctx, os.Args[2:])
	case "rm":
		runRm(ctx, os.Args[2:])
	case "status":
		runStatus(ctx, os.Args[2:])
	case "compact":
		runCompact(ctx, os.Args[2:])
	case "keyring":
		runKeyring(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help"
}

// parseOptions parses the vault flags of a command and resolves its options
func parseOptions(name string, args []string) (*config.Options, []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	loader := config.Register(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	opts, err := loader.Load()
	if err != nil {
		cmd.HandleError(err)
	}
	return opts, fs.Args()
}

// labelArg joins the remaining arguments so labels may contain spaces
func labelArg(args []string) string {
	return strings.Join(args, " ")
}

func runShell(ctx context.Context, args []string) {
	opts, _ := parseOptions("shell", args)
	cmd.Shell(ctx, opts)
}

func runLs(ctx context.Context, args []string) {
	opts, _ := parseOptions("ls", args)
	cmd.List(ctx, opts)
}

func runGet(ctx context.Context, args []string) {
	opts, rest := parseOptions("get", args)
	cmd.Get(ctx, opts, labelArg(rest))
}

func runAdd(ctx context.Context, args []string) {
	opts, rest := parseOptions("add", args)
	cmd.Add(ctx, opts, labelArg(rest))
}

func runModify(ctx context.Context, args []string) {
	opts, rest := parseOptions("modify", args)
	cmd.Modify(ctx, opts, labelArg(rest))
}

func runRm(ctx context.Context, args []string) {
	opts, rest := parseOptions("rm", args)
	cmd.Remove(ctx, opts, labelArg(rest))
}

func runStatus(ctx context.Context, args []string) {
	opts, _ := parseOptions("status", args)
	cmd.Status(ctx, opts)
}

func runCompact(ctx context.Context, args []string) {
	opts, _ := parseOptions("compact", args)
	cmd.Compact(ctx, opts)
}

func runKeyring(ctx context.Context, args []string) {
	if len(args) < 1 || args[0] != "status" {
		fmt.Fprintln(os.Stderr, "Usage: pwvault keyring status")
		os.Exit(1)
	}
	opts, _ := parseOptions("keyring status", args[1:])
	cmd.KeyringStatus(ctx, opts)
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pwvault completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("pwvault - Local password vault with per-user permissions")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pwvault [command] [flags] [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  shell       Interactive session (default)")
	fmt.Println("  ls          List entry labels")
	fmt.Println("  get         Print the password of an entry")
	fmt.Println("  add         Create an entry")
	fmt.Println("  modify      Change the password of an entry")
	fmt.Println("  rm          Remove an entry")
	fmt.Println("  status      Show vault file status")
	fmt.Println("  compact     Compact vault to reclaim disk space")
	fmt.Println("  keyring     Check the master key in the OS keyring")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Flags (all vault commands):")
	fmt.Println("  -config <file>     Config file (default pwvault.json if present)")
	fmt.Println("  -vault <file>      Vault file (default .pwvault)")
	fmt.Println("  -protect <scheme>  Key protection for new vaults: keyring, passphrase, none")
	fmt.Println("  -log-level <lvl>   debug, info, warn, error or off (default warn)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  pwvault                         # Start the interactive shell")
	fmt.Println("  pwvault add bank                # Store a password for 'bank'")
	fmt.Println("  pwvault get bank                # Print it")
	fmt.Println("  pwvault status                  # Check vault status")
	fmt.Println()
	fmt.Println("Use 'pwvault help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "shell":
		fmt.Println("pwvault shell [flags]")
		fmt.Println()
		fmt.Println("Loads the vault and reads commands until quit:")
		fmt.Println("  login, logout, show, get, add, modify, remove, changes, save, help, quit")
		fmt.Println("Commands that take a label accept it as an argument or ask for it.")
		fmt.Println("Quitting with unsaved changes asks whether to save them.")
		fmt.Println()
		fmt.Println("Accounts come from the \"users\" list of the config file. Without")
		fmt.Println("any configured user the shell refuses to start.")
	case "ls":
		fmt.Println("pwvault ls [flags]")
		fmt.Println()
		fmt.Println("Logs in and lists the entry labels in insertion order.")
		fmt.Println("Requires the permission mapped to 'list' (default: show).")
	case "get":
		fmt.Println("pwvault get [flags] <label>")
		fmt.Println()
		fmt.Println("Logs in and prints the password stored under label.")
		fmt.Println("Requires the permission mapped to 'reveal' (default: get_pwd).")
	case "add":
		fmt.Println("pwvault add [flags] <label>")
		fmt.Println()
		fmt.Println("Logs in, asks for the password to store, and saves the vault.")
		fmt.Println("Requires the permission mapped to 'add' (default: create).")
		fmt.Println()
		fmt.Println("Example:")
		fmt.Println("  PWVAULT_ENTRY_PASSWORD=p4ssw0rd pwvault add bank")
	case "modify":
		fmt.Println("pwvault modify [flags] <label>")
		fmt.Println()
		fmt.Println("Logs in, asks for the new password, and saves the vault.")
		fmt.Println("The entry gets a fresh encryption key.")
		fmt.Println("Requires the permission mapped to 'modify' (default: modify).")
	case "rm":
		fmt.Println("pwvault rm [flags] <label>")
		fmt.Println()
		fmt.Println("Logs in, removes the entry, and saves the vault.")
		fmt.Println("Requires the permission mapped to 'remove' (default: remove).")
	case "status":
		fmt.Println("pwvault status [flags]")
		fmt.Println()
		fmt.Println("Shows the vault file, its key protection, entry count and")
		fmt.Println("timestamps, and warns when the file is tracked by git.")
		fmt.Println()
		fmt.Println("Does not require a login.")
	case "compact":
		fmt.Println("pwvault compact [flags]")
		fmt.Println()
		fmt.Println("Compacts the vault file to reclaim space left by earlier saves.")
		fmt.Println()
		fmt.Println("Does not require a login.")
	case "keyring":
		fmt.Println("pwvault keyring status [flags]")
		fmt.Println()
		fmt.Println("Reports whether the vault's master key is stored in the OS keyring.")
		fmt.Println("Only vaults created with -protect keyring use it.")
	case "completion":
		fmt.Println("pwvault completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(pwvault completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(pwvault completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  pwvault completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
