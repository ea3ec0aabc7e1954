package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/kbvault/kbvault/internal/models"
)

// UserStore handles account rows and their privileged mutations. Every
// mutation that takes an AdminEvent writes the event in the same transaction
// as the row change: the mutation and its audit entry commit or fail as one.
type UserStore struct {
	Base
}

// NewUserStore creates a new UserStore.
func NewUserStore(base Base) *UserStore {
	return &UserStore{Base: base}
}

// CreateUser inserts a new account and its registration event.
func (s *UserStore) CreateUser(
	ctx context.Context,
	username, passwordHash, salt string,
	isAdmin bool,
	evt models.AdminEvent,
) (*models.User, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	createdAt := time.Now().UTC()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, salt, is_admin, is_active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)`,
		username, passwordHash, salt, isAdmin, createdAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, models.ErrDuplicateUsername
		}

		return nil, fmt.Errorf("inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading user id: %w", err)
	}

	if err := insertAdminEvent(ctx, tx, evt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing create user: %w", err)
	}

	return &models.User{
		ID:        id,
		Username:  username,
		IsAdmin:   isAdmin,
		IsActive:  true,
		CreatedAt: createdAt,
	}, nil
}

// GetUser fetches an account by username, without hash material.
func (s *UserStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	creds, err := s.GetCredentials(ctx, username)
	if err != nil {
		return nil, err
	}

	return &creds.User, nil
}

// GetCredentials fetches an account together with its stored hash and salt.
func (s *UserStore) GetCredentials(ctx context.Context, username string) (*models.UserCredentials, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)

	creds, err := scanUser(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}

		return nil, fmt.Errorf("querying user: %w", err)
	}

	return creds, nil
}

// ListUsers returns all accounts, newest first.
func (s *UserStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}

	defer rows.Close()

	users := make([]models.User, 0, 8)

	for rows.Next() {
		creds, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}

		users = append(users, creds.User)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}

// CountUsers returns the total number of accounts.
func (s *UserStore) CountUsers(ctx context.Context) (int, error) {
	var count int

	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}

	return count, nil
}

// CountActiveAdmins returns the number of accounts that are both active and
// admin.
func (s *UserStore) CountActiveAdmins(ctx context.Context) (int, error) {
	var count int

	err := s.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE is_admin = 1 AND is_active = 1").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting active admins: %w", err)
	}

	return count, nil
}

// SetAdmin flips the admin flag and records the event atomically.
func (s *UserStore) SetAdmin(
	ctx context.Context,
	username string,
	isAdmin bool,
	evt models.AdminEvent,
) (*models.User, error) {
	return s.setUserFlag(ctx, username, "is_admin", isAdmin, evt)
}

// SetActive flips the active flag and records the event atomically.
func (s *UserStore) SetActive(
	ctx context.Context,
	username string,
	isActive bool,
	evt models.AdminEvent,
) (*models.User, error) {
	return s.setUserFlag(ctx, username, "is_active", isActive, evt)
}

// UpdatePassword replaces the stored hash and salt. A nil event means a
// self-service change, which is not audited; admin resets pass their event.
func (s *UserStore) UpdatePassword(
	ctx context.Context,
	username, passwordHash, salt string,
	evt *models.AdminEvent,
) error {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	res, err := tx.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, salt = ? WHERE username = ?",
		passwordHash, salt, username)
	if err != nil {
		return fmt.Errorf("executing password update: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading password update result: %w", err)
	}

	if affected == 0 {
		return models.ErrUserNotFound
	}

	if evt != nil {
		if err := insertAdminEvent(ctx, tx, *evt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing password update: %w", err)
	}

	return nil
}

// setUserFlag runs a single-flag account update plus its audit event in one
// transaction and returns the updated account. column is a trusted literal
// from the callers above, never user input.
func (s *UserStore) setUserFlag(
	ctx context.Context,
	username, column string,
	value bool,
	evt models.AdminEvent,
) (*models.User, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // best-effort rollback after commit.

	query := fmt.Sprintf("UPDATE users SET %s = ? WHERE username = ? RETURNING %s",
		column, userColumns)

	row := tx.QueryRowContext(ctx, query, value, username)

	creds, err := scanUser(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}

		return nil, fmt.Errorf("scanning updated user: %w", err)
	}

	if err := insertAdminEvent(ctx, tx, evt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing user update: %w", err)
	}

	return &creds.User, nil
}
