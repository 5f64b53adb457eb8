package models

import (
	"strings"
	"time"

	"leadbook/internal/common"

	"github.com/google/uuid"
)

const (
	// MinPasswordLength is the shortest password accepted at registration.
	MinPasswordLength = 6
	// MaxPasswordBytes is bcrypt's input limit
	MaxPasswordBytes = 72
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize in JSON
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// PublicUser is the identity shape returned to clients
type PublicUser struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// RegisterInput is the registration payload
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims the name and lowercases the email
func (in *RegisterInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = common.NormalizeEmail(in.Email)
}

func (in *RegisterInput) Validate() error {
	verr := &common.ValidationError{}
	if in.Name == "" {
		verr.Add("name", "Name is required")
	}
	if in.Email == "" {
		verr.Add("email", "Email is required")
	} else if !looksLikeEmail(in.Email) {
		verr.Add("email", "Email is invalid")
	}
	if in.Password == "" {
		verr.Add("password", "Password is required")
	} else if len(in.Password) < MinPasswordLength {
		verr.Add("password", "Password must be at least 6 characters")
	} else if len(in.Password) > MaxPasswordBytes {
		verr.Add("password", "Password must be at most 72 bytes")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// LoginInput is the login payload
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
