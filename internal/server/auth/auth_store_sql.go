package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	username    TEXT PRIMARY KEY,
	secret      TEXT NOT NULL,
	created_at  TEXT NOT NULL, -- RFC3339
	updated_at  TEXT NOT NULL
);`

// User is a row of the credential database. The secret is never exposed.
type User struct {
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type userRow struct {
	Username  string `db:"username"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// SQLStore keeps bcrypt hashed credentials in a SQL database.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates the users table if needed.
func NewSQLStore(db *sqlx.DB) (*SQLStore, error) {
	if _, err := db.Exec(usersSchema); err != nil {
		return nil, fmt.Errorf("create users table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) LookupSecret(ctx context.Context, username string) (string, error) {
	var secret string
	err := s.db.GetContext(ctx, &secret, `SELECT secret FROM users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	} else if err != nil {
		return "", fmt.Errorf("query user: %w", err)
	}
	return secret, nil
}

// PutUser adds a user or, when replace is set, resets the password of an existing one.
func (s *SQLStore) PutUser(ctx context.Context, username, password string, replace bool) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	if !replace {
		if _, err := s.LookupSecret(ctx, username); err == nil {
			return ErrUserExists
		} else if !errors.Is(err, ErrUserNotFound) {
			return err
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	query := `INSERT INTO users (username, secret, created_at, updated_at) VALUES (?, ?, ?, ?)`
	if replace {
		query += ` ON CONFLICT(username) DO UPDATE SET secret = excluded.secret, updated_at = excluded.updated_at`
	}

	if _, err := s.db.ExecContext(ctx, query, username, hash, now, now); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLStore) RemoveUser(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *SQLStore) ListUsers(ctx context.Context) ([]User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT username, created_at, updated_at FROM users ORDER BY username`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]User, 0, len(rows))
	for _, row := range rows {
		user := User{Username: row.Username}
		// malformed timestamps are shown as zero rather than failing the listing
		user.CreatedAt, _ = time.Parse(time.RFC3339, row.CreatedAt)
		user.UpdatedAt, _ = time.Parse(time.RFC3339, row.UpdatedAt)
		users = append(users, user)
	}
	return users, nil
}

// DB returns the underlying connection pool.
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}
