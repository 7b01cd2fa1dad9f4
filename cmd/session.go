package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/illarion/pwvault/internal/auth"
	"github.com/illarion/pwvault/internal/config"
	"github.com/illarion/pwvault/internal/core"
	"github.com/illarion/pwvault/internal/crypto"
	"github.com/illarion/pwvault/internal/keywrap"
	"github.com/illarion/pwvault/internal/logging"
	"github.com/illarion/pwvault/internal/vault"
)

// maxLoginAttempts bounds password prompts in one-shot commands
const maxLoginAttempts = 3

// Session is a loaded vault with its registries, ready for login
type Session struct {
	Keeper *core.Keeper
	Store  *vault.Store
	Log    *zap.Logger

	prompt *Prompter
	out    io.Writer
}

// OpenSession builds the registries from opts and loads the vault file
func OpenSession(ctx context.Context, opts *config.Options, p *Prompter) (*Session, error) {
	log, err := logging.New(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	return openSession(ctx, opts, p, log, auth.NewAuthenticator())
}

func openSession(ctx context.Context, opts *config.Options, p *Prompter, log *zap.Logger, authn *auth.Authenticator) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Accounts only come from the config; nobody can register at the prompt
	if len(opts.Users) == 0 {
		return nil, config.ErrNoUsers
	}
	for _, u := range opts.Users {
		if err := authn.AddUser(u.Username, u.Password); err != nil {
			return nil, fmt.Errorf("failed to register user %q: %w", u.Username, err)
		}
	}

	actions, err := opts.ActionPolicy()
	if err != nil {
		return nil, err
	}
	authz, err := buildAuthorizer(authn, actions, opts.GrantsFor(actions.Permissions()))
	if err != nil {
		return nil, err
	}

	scheme, fresh, err := resolveScheme(opts, log)
	if err != nil {
		return nil, err
	}
	protector, err := keywrap.New(scheme, func() ([]byte, error) {
		return readPassphrase(p, fresh)
	})
	if err != nil {
		return nil, err
	}

	stop := startSpinner("Unlocking vault...")
	store, err := vault.Open(opts.Vault, protector)
	stop()
	if err != nil {
		protector.Destroy()
		return nil, err
	}
	log.Debug("vault loaded",
		zap.String("path", opts.Vault),
		zap.String("scheme", scheme),
		zap.Int("entries", store.Len()))

	return &Session{
		Keeper: core.New(authn, authz, store, actions, log),
		Store:  store,
		Log:    log,
		prompt: p,
		out:    p.out,
	}, nil
}

// buildAuthorizer defines every mapped or granted permission and applies the grants
func buildAuthorizer(authn *auth.Authenticator, actions core.Actions, grants map[string][]string) (*auth.Authorizer, error) {
	authz := auth.NewAuthorizer(authn)

	names := actions.Permissions()
	for name := range grants {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if authz.HasPermission(name) {
			continue
		}
		if err := authz.AddPermission(name); err != nil {
			return nil, err
		}
	}

	for _, name := range names {
		for _, username := range grants[name] {
			if err := authz.PermitUser(name, username); err != nil {
				return nil, fmt.Errorf("failed to grant %q: %w", name, err)
			}
		}
	}
	return authz, nil
}

// resolveScheme returns the scheme recorded in an existing vault file, or
// the configured one for a vault that does not exist yet.
func resolveScheme(opts *config.Options, log *zap.Logger) (string, bool, error) {
	info, err := vault.Inspect(opts.Vault)
	if err != nil {
		return "", false, err
	}
	if info.Header == nil {
		return opts.Protect, true, nil
	}
	if info.Header.Scheme != opts.Protect {
		log.Info("using key protection recorded in vault file",
			zap.String("scheme", info.Header.Scheme),
			zap.String("configured", opts.Protect))
	}
	return info.Header.Scheme, false, nil
}

func readPassphrase(p *Prompter, fresh bool) ([]byte, error) {
	if passphrase := fromEnv(EnvPassphrase); passphrase != nil {
		return passphrase, nil
	}
	if fresh {
		fmt.Fprintln(p.out, "Choose a passphrase for the new vault.")
		return p.ReadPasswordConfirm("Vault passphrase: ")
	}
	return p.ReadPassword("Vault passphrase: ")
}

// Login authenticates from the environment, or by prompting up to
// maxLoginAttempts times
func (s *Session) Login() error {
	username := string(fromEnv(EnvUsername))
	if password := fromEnv(EnvPassword); username != "" && password != nil {
		defer crypto.ClearBytes(password)
		return s.Keeper.Login(username, string(password))
	}

	var err error
	for attempt := 0; attempt < maxLoginAttempts; attempt++ {
		if err = s.promptLogin(username); err == nil {
			return nil
		}
		if !errors.Is(err, auth.ErrInvalidPassword) && !errors.Is(err, auth.ErrInvalidUsername) {
			return err
		}
		if attempt < maxLoginAttempts-1 {
			printError(s.out, err)
		}
	}
	return err
}

// promptLogin asks for credentials once. A preset username skips its prompt.
func (s *Session) promptLogin(username string) error {
	if username == "" {
		var err error
		username, err = s.prompt.ReadLine("Username: ")
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
	}
	password, err := s.prompt.ReadPassword("Password: ")
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)
	return s.Keeper.Login(username, string(password))
}

// Save writes the vault if it has unsaved changes
func (s *Session) Save(ctx context.Context) error {
	if !s.Keeper.Changed() {
		return nil
	}
	stop := startSpinner("Saving vault...")
	defer stop()
	return s.Keeper.Save(ctx)
}

// Close clears key material and flushes the logger
func (s *Session) Close() {
	s.Store.Close()
	_ = s.Log.Sync()
}
