package accounts

import (
	"context"
	"time"
)

// UserRepository port
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	ByEmail(ctx context.Context, email string) (*User, error)
	ByID(ctx context.Context, id UserID) (*User, error)
}

// ProfileRepository port
type ProfileRepository interface {
	Get(ctx context.Context, id UserID) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(p Principal) (token string, expiresAt time.Time, err error)
	Verify(token string) (Principal, error)
}
