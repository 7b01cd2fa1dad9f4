package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/illarion/pwvault/internal/auth"
	"github.com/illarion/pwvault/internal/vault"
)

// Authenticator logs users in and out
type Authenticator interface {
	Login(username, password string) error
	Logout(username string) error
}

// Authorizer checks whether a user holds a permission
type Authorizer interface {
	CheckPermission(name, username string) error
}

// Store is the entry store behind a Keeper
type Store interface {
	List() []vault.Listing
	Add(label, password string) error
	Modify(label, password string) error
	Remove(label string) error
	Reveal(label string) (string, error)
	Save() error
	Changed() bool
	Pending() []vault.Change
}

// Keeper gates store operations behind the permission of the current user
type Keeper struct {
	authn   Authenticator
	authz   Authorizer
	store   Store
	actions Actions
	log     *zap.Logger

	user string
}

// New creates a Keeper. A nil logger disables logging.
func New(authn Authenticator, authz Authorizer, store Store, actions Actions, log *zap.Logger) *Keeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Keeper{
		authn:   authn,
		authz:   authz,
		store:   store,
		actions: actions,
		log:     log.Named("keeper"),
	}
}

// Login authenticates username and makes it the current user
func (k *Keeper) Login(username, password string) error {
	if err := k.authn.Login(username, password); err != nil {
		k.log.Debug("login failed", zap.String("user", username), zap.Error(err))
		return err
	}
	if k.user != "" && k.user != username {
		_ = k.authn.Logout(k.user)
	}
	k.user = username
	k.log.Debug("logged in", zap.String("user", username))
	return nil
}

// Logout ends the session of the current user
func (k *Keeper) Logout() error {
	if k.user == "" {
		return &auth.UserError{Err: auth.ErrNotLoggedIn}
	}
	if err := k.authn.Logout(k.user); err != nil {
		return err
	}
	k.log.Debug("logged out", zap.String("user", k.user))
	k.user = ""
	return nil
}

// CurrentUser returns the logged in username, or "" when nobody is
func (k *Keeper) CurrentUser() string {
	return k.user
}

// authorize checks that the current user may perform op
func (k *Keeper) authorize(op Operation) error {
	name, ok := k.actions[op]
	if !ok || name == "" {
		return &OperationError{Op: op, Err: ErrUnmappedOperation}
	}
	if err := k.authz.CheckPermission(name, k.user); err != nil {
		k.log.Debug("operation refused",
			zap.String("op", string(op)),
			zap.String("user", k.user),
			zap.Error(err))
		return err
	}
	return nil
}

// Can reports whether the current user may perform op, without doing it
func (k *Keeper) Can(op Operation) error {
	return k.authorize(op)
}

// List returns the labels in insertion order
func (k *Keeper) List() ([]vault.Listing, error) {
	if err := k.authorize(OpList); err != nil {
		return nil, err
	}
	return k.store.List(), nil
}

// Add stores a new entry
func (k *Keeper) Add(label, password string) error {
	if err := k.authorize(OpAdd); err != nil {
		return err
	}
	if err := k.store.Add(label, password); err != nil {
		return err
	}
	k.log.Debug("entry added", zap.String("user", k.user), zap.String("label", label))
	return nil
}

// Modify replaces the password of an entry
func (k *Keeper) Modify(label, password string) error {
	if err := k.authorize(OpModify); err != nil {
		return err
	}
	if err := k.store.Modify(label, password); err != nil {
		return err
	}
	k.log.Debug("entry modified", zap.String("user", k.user), zap.String("label", label))
	return nil
}

// Remove deletes an entry
func (k *Keeper) Remove(label string) error {
	if err := k.authorize(OpRemove); err != nil {
		return err
	}
	if err := k.store.Remove(label); err != nil {
		return err
	}
	k.log.Debug("entry removed", zap.String("user", k.user), zap.String("label", label))
	return nil
}

// Reveal returns the plaintext password of an entry
func (k *Keeper) Reveal(label string) (string, error) {
	if err := k.authorize(OpReveal); err != nil {
		return "", err
	}
	password, err := k.store.Reveal(label)
	if err != nil {
		return "", err
	}
	k.log.Debug("entry revealed", zap.String("user", k.user), zap.String("label", label))
	return password, nil
}

// Save writes the store to its file
func (k *Keeper) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := k.store.Save(); err != nil {
		k.log.Warn("save failed", zap.Error(err))
		return err
	}
	k.log.Debug("vault saved")
	return nil
}

// Changed reports whether there are unsaved changes
func (k *Keeper) Changed() bool {
	return k.store.Changed()
}

// Pending lists the unsaved changes. It reveals labels, so it needs the
// same permission as List.
func (k *Keeper) Pending() ([]vault.Change, error) {
	if err := k.authorize(OpList); err != nil {
		return nil, err
	}
	return k.store.Pending(), nil
}
