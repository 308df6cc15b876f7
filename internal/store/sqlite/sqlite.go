package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/codesync-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_guest      BOOLEAN NOT NULL DEFAULT 0,
	session_id    TEXT,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS files (
	id         TEXT PRIMARY KEY,
	owner_id   INTEGER NOT NULL,
	name       TEXT NOT NULL,
	extension  TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (owner_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_files_owner ON files(owner_id, created_at DESC);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateUser inserts a user and returns its id.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *store.User) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, is_guest, session_id) VALUES (?, ?, ?, ?)`,
		u.Username, u.PasswordHash, u.IsGuest, u.SessionID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetUserByUsername fetches a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, is_guest, COALESCE(session_id, ''), created_at
		 FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// GetUserByID fetches a user by id.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, is_guest, COALESCE(session_id, ''), created_at
		 FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// CreateFile inserts a saved file.
func (s *SQLiteStore) CreateFile(ctx context.Context, f *store.File) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (id, owner_id, name, extension, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.OwnerID, f.Name, f.Extension, f.Content, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	f.CreatedAt = now
	f.UpdatedAt = now
	return nil
}

// GetFile fetches a file visible to the owner.
func (s *SQLiteStore) GetFile(ctx context.Context, id string, ownerID int64) (*store.File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, extension, content, created_at, updated_at
		 FROM files WHERE id = ? AND owner_id = ?`, id, ownerID)

	var f store.File
	err := row.Scan(&f.ID, &f.OwnerID, &f.Name, &f.Extension, &f.Content, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return &f, nil
}

// ListFiles returns the owner's files, newest first.
func (s *SQLiteStore) ListFiles(ctx context.Context, ownerID int64) ([]*store.File, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, name, extension, content, created_at, updated_at
		 FROM files WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var files []*store.File
	for rows.Next() {
		var f store.File
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Name, &f.Extension, &f.Content, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

// UpdateFileContent replaces a file's content if the owner matches.
func (s *SQLiteStore) UpdateFileContent(ctx context.Context, id string, ownerID int64, content string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE files SET content = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		content, time.Now().UTC(), id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	return affectedOrNotFound(res)
}

// DeleteFile removes a file if the owner matches.
func (s *SQLiteStore) DeleteFile(ctx context.Context, id string, ownerID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM files WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return affectedOrNotFound(res)
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*store.User, error) {
	var u store.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsGuest, &u.SessionID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
