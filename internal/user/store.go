package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// User is one account record. The password hash never leaves this
// package.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`

	passwordHash string
}

var (
	ErrNotFound    = errors.New("user not found")
	ErrExists      = errors.New("username already exists")
	ErrProtected   = errors.New("cannot delete admin user")
	ErrBadPassword = errors.New("invalid username or password")
)

const createdAtLayout = "2006-01-02 15:04:05"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL
);`

// Store is the SQLite-backed user store. All mutations run inside
// transactions on a single shared handle.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (or creates) the user database at path, ensures the
// schema, and seeds the default accounts when the table is empty.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open user database: %w", err)
	}
	// modernc.org/sqlite serializes writers; a single connection
	// avoids SQLITE_BUSY on concurrent mutations.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	s := &Store{db: db, log: log.With().Str("component", "users").Logger()}
	if err := s.seed(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// seed inserts the default admin and analyst accounts on first run.
func (s *Store) seed() error {
	var n int
	if err := s.db.QueryRow(`SELECT count(*) FROM users`).Scan(&n); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if n > 0 {
		return nil
	}

	defaults := []struct {
		username, email, password, role string
	}{
		{"admin", "admin@example.com", "admin123", "admin"},
		{"analyst", "analyst@example.com", "analyst123", "user"},
	}
	for _, d := range defaults {
		if _, err := s.Create(context.Background(), d.username, d.email, d.password, d.role); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", d.username, err)
		}
	}
	s.log.Info().Msg("seeded default user accounts")
	return nil
}

// List returns all users ordered by id.
func (s *Store) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, email, role, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetByID returns one user by id.
func (s *Store) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.getOne(ctx, `WHERE id = ?`, id)
}

// GetByUsername returns one user by username.
func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.getOne(ctx, `WHERE username = ?`, username)
}

func (s *Store) getOne(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, role, password_hash, created_at FROM users `+where, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.passwordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// Create inserts a new user with a bcrypt-hashed password. An empty
// role defaults to "user".
func (s *Store) Create(ctx context.Context, username, email, password, role string) (*User, error) {
	if role == "" {
		role = "user"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	createdAt := time.Now().UTC().Format(createdAtLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM users WHERE username = ?`, username).Scan(&n); err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if n > 0 {
		return nil, ErrExists
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, email, role, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		username, email, role, string(hash), createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user insert: %w", err)
	}

	return &User{ID: id, Username: username, Email: email, Role: role, CreatedAt: createdAt}, nil
}

// Update changes the email and/or role of a user. Empty arguments
// leave the corresponding field untouched.
func (s *Store) Update(ctx context.Context, id int64, email, role string) (*User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if email != "" {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET email = ? WHERE id = ?`, email, id); err != nil {
			return nil, fmt.Errorf("failed to update email: %w", err)
		}
	}
	if role != "" {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id); err != nil {
			return nil, fmt.Errorf("failed to update role: %w", err)
		}
	}

	var u User
	err = tx.QueryRowContext(ctx,
		`SELECT id, username, email, role, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read updated user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user update: %w", err)
	}
	return &u, nil
}

// Delete removes a user by id. The seeded admin account is protected.
func (s *Store) Delete(ctx context.Context, id int64) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Username == "admin" {
		return ErrProtected
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// Authenticate checks a username/password pair and returns the user on
// success. Unknown users and wrong passwords return the same error.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrBadPassword
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) != nil {
		return nil, ErrBadPassword
	}
	return u, nil
}
