// Package auth implements the credential/token service boundary: one-way
// secret hashing and principal token issuance.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"collabcore/pkg/domain"
)

// UserSource resolves principals by name. Satisfied by the user repository.
type UserSource interface {
	Get(ctx context.Context, name string) (domain.User, bool, error)
}

// Config carries token issuance parameters.
type Config struct {
	// Secret signs issued tokens. Required.
	Secret string
	// Issuer is stamped into the iss claim.
	Issuer string
	// TokenTTL bounds token lifetime; defaults to 3 hours.
	TokenTTL time.Duration
}

// Service issues and verifies principal tokens against stored credentials.
type Service struct {
	users  UserSource
	secret []byte
	issuer string
	ttl    time.Duration
	nowFn  func() time.Time
}

// NewService constructs the credential service.
func NewService(users UserSource, cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("auth secret is required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 3 * time.Hour
	}
	return &Service{
		users:  users,
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.nowFn = now
	return s
}

// HashSecret derives the stored form of a plaintext secret: SHA-256 over the
// UTF-8 bytes, base64 standard encoding. Deterministic so stored hashes can
// be compared directly.
func (s *Service) HashSecret(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Authenticate looks up the named user and compares the hashed secret. On
// match it returns a signed, time-limited token and true. An unknown name and
// a wrong secret are indistinguishable: both return ("", false, nil), which
// avoids user enumeration.
func (s *Service) Authenticate(ctx context.Context, name, plaintext string) (string, bool, error) {
	user, found, err := s.users.Get(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("look up user: %w", err)
	}
	if !found {
		return "", false, nil
	}
	supplied := s.HashSecret(plaintext)
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(user.PasswordHash)) != 1 {
		return "", false, nil
	}
	token, err := s.issueToken(user.Name)
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

func (s *Service) issueToken(name string) (string, error) {
	now := s.nowFn()
	claims := jwt.RegisteredClaims{
		Subject:   name,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a bearer token and returns the principal name it was
// issued to.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.nowFn))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("token carries no subject")
	}
	return claims.Subject, nil
}
