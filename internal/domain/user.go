package domain

import (
	"context"
	"time"
)

// User represents a registered user.
// swagger:model User
type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUser returns a new User. ID is set by the repository on create.
func NewUser(fullName, email, passwordHash string, createdAt time.Time) *User {
	return &User{
		FullName:  fullName,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: createdAt,
	}
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// PasswordHasher handles password hashing and verification.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer issues session tokens for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

// TokenVerifier verifies a session token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// AuthService defines signup and login.
type AuthService interface {
	SignUp(ctx context.Context, fullName, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
}
