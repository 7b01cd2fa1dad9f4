package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_pwvault() {
    local cur prev words cword
    _init_completion || return

    local commands="shell ls get add modify rm status compact keyring help completion"
    local flags="-config -vault -protect -log-level"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    case "$prev" in
        -config|-vault)
            _filedir
            return
            ;;
        -protect)
            COMPREPLY=($(compgen -W "keyring passphrase none" -- "$cur"))
            return
            ;;
        -log-level)
            COMPREPLY=($(compgen -W "debug info warn error off" -- "$cur"))
            return
            ;;
    esac

    local cmd="${words[1]}"
    case "$cmd" in
        keyring)
            COMPREPLY=($(compgen -W "status" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
        *)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "$flags" -- "$cur"))
            fi
            ;;
    esac
}

complete -F _pwvault pwvault
`

const zshCompletion = `#compdef pwvault

_pwvault() {
    local -a commands
    commands=(
        'shell:Interactive session (default)'
        'ls:List entry labels'
        'get:Print the password of an entry'
        'add:Create an entry'
        'modify:Change the password of an entry'
        'rm:Remove an entry'
        'status:Show vault file status'
        'compact:Compact vault to reclaim disk space'
        'keyring:Check the master key in the OS keyring'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    local -a vault_flags
    vault_flags=(
        '-config[Path to config file]:file:_files'
        '-vault[Path to vault file]:file:_files'
        '-protect[Key protection for new vaults]:scheme:(keyring passphrase none)'
        '-log-level[Log level]:level:(debug info warn error off)'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'pwvault commands' commands
            ;;
        args)
            case "${words[2]}" in
                keyring)
                    _values 'subcommand' status
                    ;;
                help)
                    _describe -t commands 'pwvault commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
                *)
                    _arguments $vault_flags
                    ;;
            esac
            ;;
    esac
}

_pwvault "$@"
`

const fishCompletion = `# pwvault fish completions

set -l commands shell ls get add modify rm status compact keyring help completion

complete -c pwvault -f

# Commands
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -a shell -d 'Interactive session'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List entry labels'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -a get -d 'Print a password'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -a add -d 'Create an entry'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -a modify -d 'Change a password'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove an entry'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show vault status'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact vault'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Check master key in OS keyring'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c pwvault -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# Vault flags
complete -c pwvault -n "__fish_seen_subcommand_from shell ls get add modify rm status compact keyring" -o config -r -F -d 'Config file'
complete -c pwvault -n "__fish_seen_subcommand_from shell ls get add modify rm status compact keyring" -o vault -r -F -d 'Vault file'
complete -c pwvault -n "__fish_seen_subcommand_from shell ls get add modify rm status compact keyring" -o protect -x -a "keyring passphrase none" -d 'Key protection'
complete -c pwvault -n "__fish_seen_subcommand_from shell ls get add modify rm status compact keyring" -o log-level -x -a "debug info warn error off" -d 'Log level'

# keyring subcommands
complete -c pwvault -n "__fish_seen_subcommand_from keyring" -a "status"

# help completions
complete -c pwvault -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c pwvault -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
