package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUserNotFound is returned by a UserRepository when no user matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned by CreateUser for a duplicate username.
	ErrUsernameTaken = errors.New("username already exists")
)

// User is a registered principal.
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// UserRepository stores users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}
