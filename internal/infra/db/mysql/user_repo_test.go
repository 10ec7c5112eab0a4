package mysql

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Seedgta1/N8/internal/domain/accounts"
)

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	when := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u1", "a@b.it", "hash", when).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&gomysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	u := &domain.User{ID: "u1", Email: "a@b.it", PasswordHash: "hash", CreatedAt: when}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.ErrorIs(t, repo.Create(context.Background(), u), domain.ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Lookup(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	when := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "email", "password_hash", "created_at"}

	mock.ExpectQuery(`FROM users WHERE email=\?`).WithArgs("a@b.it").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", "a@b.it", "hash", when))
	mock.ExpectQuery(`FROM users WHERE id=\?`).WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	u, err := repo.ByEmail(context.Background(), "a@b.it")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), u.ID)
	assert.Equal(t, "hash", u.PasswordHash)

	_, err = repo.ByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProfileRepository(db)
	when := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM user_profiles WHERE user_id=\?`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "is_subscribed", "stripe_customer_id", "updated_at"}).
			AddRow("u1", true, nil, when))
	mock.ExpectQuery(`FROM user_profiles`).WithArgs("u2").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`ON DUPLICATE KEY UPDATE`).
		WithArgs("u1", true, "cus_123", when).
		WillReturnResult(sqlmock.NewResult(0, 2))

	p, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, p.IsSubscribed)
	assert.Empty(t, p.StripeCustomerID)

	_, err = repo.Get(context.Background(), "u2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Upsert(context.Background(), &domain.Profile{
		UserID: "u1", IsSubscribed: true, StripeCustomerID: "cus_123", UpdatedAt: when,
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
