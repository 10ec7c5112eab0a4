package accounts

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// NormalizeEmail lowercases and trims an address before storage or lookup.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ID tipe untuk User
type UserID string

type User struct {
	ID           UserID    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile holds the subscription state of a user.
type Profile struct {
	UserID           UserID    `json:"user_id"`
	IsSubscribed     bool      `json:"is_subscribed"`
	StripeCustomerID string    `json:"stripe_customer_id,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID UserID
	Email  string
	Admin  bool
}

// CanAccess reports whether p may read or modify a resource owned by owner.
func (p Principal) CanAccess(owner string) bool {
	if p.Admin {
		return true
	}
	return p.UserID != "" && string(p.UserID) == owner
}
