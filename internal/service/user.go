package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kbvault/kbvault/internal/domain"
	"github.com/kbvault/kbvault/internal/models"
)

// Audit actions recorded for account mutations.
const (
	ActionRegister      = "user.register"
	ActionRegisterAdmin = "user.register_admin"
	ActionPromote       = "user.promote"
	ActionDemote        = "user.demote"
	ActionActivate      = "user.activate"
	ActionDeactivate    = "user.deactivate"
	ActionPasswordReset = "user.password_reset"
)

// UserStore defines the data access methods UserService depends on.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash, salt string, isAdmin bool, evt models.AdminEvent) (*models.User, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
	GetCredentials(ctx context.Context, username string) (*models.UserCredentials, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CountUsers(ctx context.Context) (int, error)
	CountActiveAdmins(ctx context.Context) (int, error)
	SetAdmin(ctx context.Context, username string, isAdmin bool, evt models.AdminEvent) (*models.User, error)
	SetActive(ctx context.Context, username string, isActive bool, evt models.AdminEvent) (*models.User, error)
	UpdatePassword(ctx context.Context, username, passwordHash, salt string, evt *models.AdminEvent) error
}

// PasswordHasher derives and verifies salted password hashes.
type PasswordHasher interface {
	Hash(password string) (hash, salt string, err error)
	Verify(password, hash, salt string) bool
}

// Compile-time check: *UserService must satisfy domain.UserService.
var _ domain.UserService = (*UserService)(nil)

// UserService manages accounts: registration, authentication, role and
// activation changes, and password maintenance. Privileged mutations require
// an active admin actor and are written together with their audit event.
type UserService struct {
	store  UserStore
	hasher PasswordHasher
	log    *logrus.Logger
}

// NewUserService creates a UserService.
func NewUserService(store UserStore, hasher PasswordHasher, log *logrus.Logger) *UserService {
	return &UserService{store: store, hasher: hasher, log: log}
}

// Register creates an account. The first account may be an admin without an
// actor; once any user exists, creating further admins requires one. When no
// actor is given the new account is credited as its own registrar.
func (s *UserService) Register(ctx context.Context, req models.RegisterUserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	if req.IsAdmin && count > 0 {
		if err := s.requireActiveAdmin(ctx, req.Actor); err != nil {
			return nil, err
		}
	}

	hash, salt, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	actor := req.Actor
	if actor == "" {
		actor = req.Username
	}

	action := ActionRegister
	if req.IsAdmin {
		action = ActionRegisterAdmin
	}

	user, err := s.store.CreateUser(ctx, req.Username, hash, salt, req.IsAdmin, models.AdminEvent{
		Actor:  actor,
		Action: action,
		Target: req.Username,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"username": user.Username,
		"is_admin": user.IsAdmin,
	}).Info("user registered")

	return user, nil
}

// Authenticate checks a username and password pair. Unknown users,
// deactivated users, and wrong passwords all fail with the same error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)

	creds, err := s.store.GetCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrBadCredentials
		}

		return nil, err
	}

	if !creds.IsActive || !s.hasher.Verify(password, creds.PasswordHash, creds.Salt) {
		return nil, models.ErrBadCredentials
	}

	return &creds.User, nil
}

// GetUser returns one account by username (pass-through).
func (s *UserService) GetUser(ctx context.Context, username string) (*models.User, error) {
	return s.store.GetUser(ctx, strings.TrimSpace(username))
}

// ListUsers returns all accounts, newest first (pass-through).
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// Promote grants admin rights to a user. Requires an active admin actor.
func (s *UserService) Promote(ctx context.Context, username, actor string) (*models.User, error) {
	username = strings.TrimSpace(username)

	if err := s.requireActiveAdmin(ctx, actor); err != nil {
		return nil, err
	}

	target, err := s.store.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if target.IsAdmin {
		return nil, models.ErrAlreadyAdmin
	}

	return s.store.SetAdmin(ctx, username, true, models.AdminEvent{
		Actor:  strings.TrimSpace(actor),
		Action: ActionPromote,
		Target: username,
	})
}

// Demote revokes admin rights. The last active admin cannot be demoted.
func (s *UserService) Demote(ctx context.Context, username, actor string) (*models.User, error) {
	username = strings.TrimSpace(username)

	if err := s.requireActiveAdmin(ctx, actor); err != nil {
		return nil, err
	}

	target, err := s.store.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if !target.IsAdmin {
		return nil, models.ErrNotAnAdmin
	}

	if target.IsActive {
		admins, err := s.store.CountActiveAdmins(ctx)
		if err != nil {
			return nil, err
		}

		if admins <= 1 {
			return nil, models.ErrLastAdmin
		}
	}

	return s.store.SetAdmin(ctx, username, false, models.AdminEvent{
		Actor:  strings.TrimSpace(actor),
		Action: ActionDemote,
		Target: username,
	})
}

// Activate re-enables a deactivated account. Requires an active admin actor.
func (s *UserService) Activate(ctx context.Context, username, actor string) (*models.User, error) {
	username = strings.TrimSpace(username)

	if err := s.requireActiveAdmin(ctx, actor); err != nil {
		return nil, err
	}

	target, err := s.store.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if target.IsActive {
		return nil, models.ErrAlreadyActive
	}

	return s.store.SetActive(ctx, username, true, models.AdminEvent{
		Actor:  strings.TrimSpace(actor),
		Action: ActionActivate,
		Target: username,
	})
}

// Deactivate disables an account. The last active admin cannot be
// deactivated, which also stops admins from locking themselves out.
func (s *UserService) Deactivate(ctx context.Context, username, actor string) (*models.User, error) {
	username = strings.TrimSpace(username)

	if err := s.requireActiveAdmin(ctx, actor); err != nil {
		return nil, err
	}

	target, err := s.store.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if !target.IsActive {
		return nil, models.ErrAlreadyInactive
	}

	if target.IsAdmin {
		admins, err := s.store.CountActiveAdmins(ctx)
		if err != nil {
			return nil, err
		}

		if admins <= 1 {
			return nil, models.ErrLastAdmin
		}
	}

	return s.store.SetActive(ctx, username, false, models.AdminEvent{
		Actor:  strings.TrimSpace(actor),
		Action: ActionDeactivate,
		Target: username,
	})
}

// ResetPassword sets a new password for any account. Requires an active
// admin actor and records an audit event; the old password is not needed.
func (s *UserService) ResetPassword(ctx context.Context, username, newPassword, actor string) error {
	username = strings.TrimSpace(username)

	if err := s.requireActiveAdmin(ctx, actor); err != nil {
		return err
	}

	if _, err := s.store.GetUser(ctx, username); err != nil {
		return err
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, salt, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	return s.store.UpdatePassword(ctx, username, hash, salt, &models.AdminEvent{
		Actor:  strings.TrimSpace(actor),
		Action: ActionPasswordReset,
		Target: username,
	})
}

// ChangePassword lets an active user replace their own password after
// proving the old one. Self-service changes are not audited.
func (s *UserService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	username = strings.TrimSpace(username)

	creds, err := s.store.GetCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return models.ErrBadCredentials
		}

		return err
	}

	if !creds.IsActive || !s.hasher.Verify(oldPassword, creds.PasswordHash, creds.Salt) {
		return models.ErrBadCredentials
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, salt, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	return s.store.UpdatePassword(ctx, username, hash, salt, nil)
}

// requireActiveAdmin resolves the actor and rejects the operation unless the
// actor exists, is active, and is an admin.
func (s *UserService) requireActiveAdmin(ctx context.Context, actor string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return models.ErrActorRequired
	}

	user, err := s.store.GetUser(ctx, actor)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return models.ErrActorUnknown
		}

		return err
	}

	if !user.IsActive {
		return models.ErrActorInactive
	}

	if !user.IsAdmin {
		return models.ErrActorNotAdmin
	}

	return nil
}

// validatePassword applies the password rules shared by registration,
// resets, and self-service changes.
func validatePassword(password string) error {
	if password == "" {
		return models.ErrMissingPassword
	}

	if len(password) > 255 {
		return models.ErrFieldTooLong("password", 255)
	}

	return nil
}
