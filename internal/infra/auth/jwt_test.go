package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seedgta1/N8/internal/domain/accounts"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("s3cret", time.Hour)
	p := accounts.Principal{UserID: "u1", Email: "a@b.it", Admin: true}

	token, exp, err := iss.Issue(p)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	got, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestIssuer_Rejects(t *testing.T) {
	iss := NewIssuer("s3cret", time.Hour)
	token, _, err := iss.Issue(accounts.Principal{UserID: "u1"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewIssuer("other", time.Hour).Verify(token)
		assert.ErrorIs(t, err, accounts.ErrUnauthorized)
	})
	t.Run("expired", func(t *testing.T) {
		late := NewIssuer("s3cret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Verify(token)
		assert.ErrorIs(t, err, accounts.ErrUnauthorized)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := iss.Verify("not-a-token")
		assert.ErrorIs(t, err, accounts.ErrUnauthorized)
	})
	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", Issuer: "gdpr-scanner",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = iss.Verify(unsigned)
		assert.ErrorIs(t, err, accounts.ErrUnauthorized)
	})
	t.Run("missing subject", func(t *testing.T) {
		_, _, err := iss.Issue(accounts.Principal{})
		assert.ErrorIs(t, err, accounts.ErrUnauthorized)
	})
}
