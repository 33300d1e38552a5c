// Package accounts stores user accounts in SQLite with bcrypt-hashed
// passwords.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hazyhaar/studypipe/dbopen"
)

var (
	// ErrUsernameTaken is returned by Create when the username exists.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")

	// ErrBadCredentials is returned by Verify for a wrong username or
	// password. The two cases are deliberately indistinguishable.
	ErrBadCredentials = errors.New("incorrect username or password")

	// ErrInvalidInput wraps signup validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// Schema creates the accounts tables. Pass to dbopen.WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT    NOT NULL UNIQUE,
	password_hash TEXT    NOT NULL,
	email         TEXT    NOT NULL DEFAULT '',
	first_name    TEXT    NOT NULL DEFAULT '',
	last_name     TEXT    NOT NULL DEFAULT '',
	created_at    TEXT    NOT NULL
);
`

// User is a stored account. The password hash never leaves the package.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Signup is the account creation request.
type Signup struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Store persists accounts in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database. The caller owns the handle and is
// expected to have applied Schema.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create registers a new account with a bcrypt-hashed password.
func (s *Store) Create(ctx context.Context, req Signup) (*User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	res, err := dbopen.Exec(ctx, s.db,
		`INSERT INTO users (username, password_hash, email, first_name, last_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		username, string(hash), strings.TrimSpace(req.Email),
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), createdAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &User{
		ID:        id,
		Username:  username,
		Email:     strings.TrimSpace(req.Email),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		CreatedAt: createdAt,
	}, nil
}

// FindByUsername returns the account with the given username.
func (s *Store) FindByUsername(ctx context.Context, username string) (*User, error) {
	u, _, err := s.findWithHash(ctx, username)
	return u, err
}

// Verify checks a username/password pair and returns the account on
// success. Wrong username and wrong password both yield ErrBadCredentials.
func (s *Store) Verify(ctx context.Context, username, password string) (*User, error) {
	u, hash, err := s.findWithHash(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

func (s *Store) findWithHash(ctx context.Context, username string) (*User, string, error) {
	var u User
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, email, first_name, last_name, created_at
		 FROM users WHERE username = ?`,
		strings.TrimSpace(username)).
		Scan(&u.ID, &u.Username, &hash, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("query user: %w", err)
	}
	return &u, hash, nil
}
