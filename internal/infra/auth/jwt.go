package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Seedgta1/N8/internal/domain/accounts"
)

// Claims payload token
type Claims struct {
	Email string `json:"email"`
	Admin bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

func NewIssuer(secret string, expiry time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), expiry: expiry, issuer: "gdpr-scanner", now: time.Now}
}

func (i *Issuer) Issue(p accounts.Principal) (string, time.Time, error) {
	if p.UserID == "" {
		return "", time.Time{}, accounts.ErrUnauthorized
	}
	now := i.now()
	exp := now.Add(i.expiry)
	claims := Claims{
		Email: p.Email,
		Admin: p.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(p.UserID),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parse token dan cek signature + expiry
func (i *Issuer) Verify(token string) (accounts.Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		return accounts.Principal{}, errors.Join(accounts.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return accounts.Principal{}, accounts.ErrUnauthorized
	}
	return accounts.Principal{
		UserID: accounts.UserID(claims.Subject),
		Email:  claims.Email,
		Admin:  claims.Admin,
	}, nil
}
