// Package config resolves pwvault options from defaults, a JSON file,
// environment variables and command-line flags, in that order of
// increasing priority.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/illarion/pwvault/internal/core"
	"github.com/illarion/pwvault/internal/keywrap"
)

const (
	DefaultFile     = "pwvault.json"
	DefaultVault    = ".pwvault"
	DefaultProtect  = keywrap.SchemeKeyring
	DefaultLogLevel = "warn"
)

// Environment variables
const (
	EnvConfig   = "PWVAULT_CONFIG"
	EnvVault    = "PWVAULT_VAULT"
	EnvProtect  = "PWVAULT_PROTECT"
	EnvLogLevel = "PWVAULT_LOG_LEVEL"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrNoUsers       = errors.New("no users configured")
)

// User is a seed account created at startup
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Options holds the resolved configuration.
type Options struct {
	// Vault is the path to the vault file.
	Vault string `json:"vault"`

	// Protect is the key protection scheme used for new vault files.
	Protect string `json:"protect"`

	// LogLevel is a zap level name, or "off".
	LogLevel string `json:"log_level"`

	// Users are registered before the first login.
	Users []User `json:"users"`

	// Grants maps a permission name to the users holding it. When empty,
	// every seed user holds every permission.
	Grants map[string][]string `json:"grants"`

	// Actions overrides the permission required per operation.
	Actions map[string]string `json:"actions"`

	// Config is the path of the file the options were read from.
	Config string `json:"-"`
}

// Default returns the built-in options
func Default() *Options {
	return &Options{
		Vault:    DefaultVault,
		Protect:  DefaultProtect,
		LogLevel: DefaultLogLevel,
	}
}

// Loader registers the config flags on a flag set and resolves the
// options once the flags are parsed.
type Loader struct {
	fs    *flag.FlagSet
	flags Options
}

// Register adds -config, -vault, -protect and -log-level to fs
func Register(fs *flag.FlagSet) *Loader {
	l := &Loader{fs: fs}
	fs.StringVar(&l.flags.Config, "config", "", "path to config file")
	fs.StringVar(&l.flags.Vault, "vault", DefaultVault, "path to vault file")
	fs.StringVar(&l.flags.Protect, "protect", DefaultProtect, "key protection for new vaults (keyring, passphrase, none)")
	fs.StringVar(&l.flags.LogLevel, "log-level", DefaultLogLevel, "log level (debug, info, warn, error, off)")
	return l
}

// Load resolves the options. Call it after the flag set is parsed.
func (l *Loader) Load() (*Options, error) {
	opts := Default()

	set := make(map[string]bool)
	l.fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	path, required := DefaultFile, false
	if configPath := os.Getenv(EnvConfig); configPath != "" {
		path, required = configPath, true
	}
	if set["config"] {
		path, required = l.flags.Config, true
	}
	if err := opts.readFile(path, required); err != nil {
		return nil, err
	}

	if vault := os.Getenv(EnvVault); vault != "" {
		opts.Vault = vault
	}
	if protect := os.Getenv(EnvProtect); protect != "" {
		opts.Protect = protect
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		opts.LogLevel = level
	}

	if set["vault"] {
		opts.Vault = l.flags.Vault
	}
	if set["protect"] {
		opts.Protect = l.flags.Protect
	}
	if set["log-level"] {
		opts.LogLevel = l.flags.LogLevel
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func (o *Options) readFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return fmt.Errorf("error while parsing config file %s: %w", path, err)
	}
	o.Config = path
	return nil
}

// Validate checks option values that can be checked without side effects
func (o *Options) Validate() error {
	if o.Vault == "" {
		return fmt.Errorf("%w: vault path is empty", ErrInvalidConfig)
	}
	if !keywrap.ValidScheme(o.Protect) {
		return fmt.Errorf("%w: unknown protect scheme %q", ErrInvalidConfig, o.Protect)
	}
	seen := make(map[string]bool, len(o.Users))
	for _, u := range o.Users {
		if u.Username == "" {
			return fmt.Errorf("%w: user with empty username", ErrInvalidConfig)
		}
		if seen[u.Username] {
			return fmt.Errorf("%w: duplicate user %q", ErrInvalidConfig, u.Username)
		}
		seen[u.Username] = true
	}
	if _, err := o.ActionPolicy(); err != nil {
		return err
	}
	return nil
}

// ActionPolicy returns the default actions with configured overrides applied
func (o *Options) ActionPolicy() (core.Actions, error) {
	actions := core.DefaultActions()
	for op, name := range o.Actions {
		if _, ok := actions[core.Operation(op)]; !ok {
			return nil, fmt.Errorf("%w: unknown operation %q", ErrInvalidConfig, op)
		}
		if name == "" {
			return nil, fmt.Errorf("%w: empty permission for operation %q", ErrInvalidConfig, op)
		}
		actions[core.Operation(op)] = name
	}
	return actions, nil
}

// GrantsFor returns the permission grants to apply for the given
// permission names. Without configured grants every seed user holds every
// permission.
func (o *Options) GrantsFor(permissions []string) map[string][]string {
	if len(o.Grants) > 0 {
		return o.Grants
	}
	usernames := make([]string, 0, len(o.Users))
	for _, u := range o.Users {
		usernames = append(usernames, u.Username)
	}
	sort.Strings(usernames)

	grants := make(map[string][]string, len(permissions))
	for _, p := range permissions {
		grants[p] = usernames
	}
	return grants
}
