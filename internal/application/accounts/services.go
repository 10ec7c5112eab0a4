package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Seedgta1/N8/internal/application"
	domain "github.com/Seedgta1/N8/internal/domain/accounts"
)

// Service implements sign-up, login and subscription state
type Service struct {
	Users      domain.UserRepository
	Profiles   domain.ProfileRepository
	Tokens     domain.TokenIssuer
	Clock      application.Clock
	Log        *zap.Logger
	AdminEmail string
	// BcryptCost defaults to bcrypt.DefaultCost
	BcryptCost int
}

type SignUpCommand struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Session is returned by Login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
	Admin     bool         `json:"admin"`
}

// SignUp buat user baru dengan profile belum berlangganan
func (s *Service) SignUp(ctx context.Context, cmd SignUpCommand) (*domain.User, error) {
	email := domain.NormalizeEmail(cmd.Email)
	if !domain.ValidEmail(email) {
		return nil, domain.ErrInvalidEmail
	}
	if len(cmd.Password) < domain.MinPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	if _, err := s.Users.ByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	cost := s.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.Clock.Now().UTC()
	u := &domain.User{
		ID:           domain.UserID(uuid.New().String()),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	if err := s.Profiles.Upsert(ctx, &domain.Profile{UserID: u.ID, UpdatedAt: now}); err != nil {
		return nil, err
	}
	s.Log.Info("user signed up", zap.String("user_id", string(u.ID)))
	return u, nil
}

// Login cek password lalu terbitkan token
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.Users.ByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}

	p := domain.Principal{UserID: u.ID, Email: u.Email, Admin: s.IsAdmin(u.Email)}
	token, exp, err := s.Tokens.Issue(p)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, ExpiresAt: exp, User: u, Admin: p.Admin}, nil
}

// IsAdmin reports whether email is the configured administrator.
func (s *Service) IsAdmin(email string) bool {
	admin := domain.NormalizeEmail(s.AdminEmail)
	return admin != "" && strings.EqualFold(domain.NormalizeEmail(email), admin)
}

// Authenticate verifies a bearer token.
func (s *Service) Authenticate(token string) (domain.Principal, error) {
	p, err := s.Tokens.Verify(token)
	if err != nil {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}

// Profile returns the subscription state; users without a row are unsubscribed.
func (s *Service) Profile(ctx context.Context, id domain.UserID) (*domain.Profile, error) {
	if id == "" {
		return nil, domain.ErrUnauthorized
	}
	p, err := s.Profiles.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Profile{UserID: id}, nil
	}
	return p, err
}

// MarkSubscribed upsert profile jadi berlangganan
func (s *Service) MarkSubscribed(ctx context.Context, id domain.UserID, customerID string) error {
	if id == "" {
		return domain.ErrNotFound
	}
	p := &domain.Profile{
		UserID:           id,
		IsSubscribed:     true,
		StripeCustomerID: customerID,
		UpdatedAt:        s.Clock.Now().UTC(),
	}
	if err := s.Profiles.Upsert(ctx, p); err != nil {
		return err
	}
	s.Log.Info("subscription activated", zap.String("user_id", string(id)))
	return nil
}
