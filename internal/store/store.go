package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist or is not
// visible to the caller.
var ErrNotFound = errors.New("not found")

// User represents an account in the system. Guest accounts are created on
// the fly and tracked by session id.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsGuest      bool
	SessionID    string
	CreatedAt    time.Time
}

// File is a saved code document owned by a user. Live room snapshots never
// touch the store; only explicit saves through the REST API land here.
type File struct {
	ID        string
	OwnerID   int64
	Name      string
	Extension string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserStore provides user persistence operations.
type UserStore interface {
	// CreateUser inserts a user and returns its id.
	CreateUser(ctx context.Context, u *User) (int64, error)
	// GetUserByUsername fetches a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	// GetUserByID fetches a user by id.
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

// FileStore provides saved-file persistence operations, scoped to owners.
type FileStore interface {
	CreateFile(ctx context.Context, f *File) error
	// GetFile fetches a file the owner can see; ErrNotFound otherwise.
	GetFile(ctx context.Context, id string, ownerID int64) (*File, error)
	ListFiles(ctx context.Context, ownerID int64) ([]*File, error)
	UpdateFileContent(ctx context.Context, id string, ownerID int64, content string) error
	DeleteFile(ctx context.Context, id string, ownerID int64) error
}

// Store is the full persistence interface the application wires up.
type Store interface {
	UserStore
	FileStore
	Close() error
}
