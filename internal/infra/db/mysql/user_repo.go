package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/Seedgta1/N8/internal/domain/accounts"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create insert user baru; email unik
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	const q = `INSERT INTO users (id, email, password_hash, created_at) VALUES (?,?,?,?);`
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q, u.ID, u.Email, u.PasswordHash, createdAt)
	if isDuplicate(err) {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *UserRepository) one(ctx context.Context, q string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.one(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email=? LIMIT 1;`, email)
}

func (r *UserRepository) ByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return r.one(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id=? LIMIT 1;`, id)
}

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, id domain.UserID) (*domain.Profile, error) {
	const q = `
SELECT user_id, is_subscribed, stripe_customer_id, updated_at
FROM user_profiles WHERE user_id=? LIMIT 1;`
	var (
		p        domain.Profile
		customer sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.UserID, &p.IsSubscribed, &customer, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.StripeCustomerID = customer.String
	return &p, nil
}

// Upsert keeps an existing customer id when the new one is empty
func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.Profile) error {
	const q = `
INSERT INTO user_profiles (user_id, is_subscribed, stripe_customer_id, updated_at)
VALUES (?,?,?,?)
ON DUPLICATE KEY UPDATE
 is_subscribed=VALUES(is_subscribed),
 stripe_customer_id=COALESCE(VALUES(stripe_customer_id), stripe_customer_id),
 updated_at=VALUES(updated_at);
`
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q, p.UserID, p.IsSubscribed, nullIfEmpty(p.StripeCustomerID), updated)
	return err
}
