// Package auth defines the authentication collaborator contract and an
// in-memory implementation used in place of a remote auth API.
package auth

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials is returned by Login when no user matches the
	// email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailRegistered is returned by Signup when the email is taken.
	ErrEmailRegistered = errors.New("email already registered")
)

// User is the authenticated profile record.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Service authenticates users. A production implementation talks to a remote
// auth API; MockService keeps credentials in memory.
type Service interface {
	// Login verifies email/password and returns the user and a signed token.
	Login(ctx context.Context, email, password string) (*User, string, error)

	// Signup registers a new user and returns the user and a signed token.
	Signup(ctx context.Context, name, email, password string) (*User, string, error)
}
