package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"collabcore/pkg/domain"
)

type stubUsers struct {
	users map[string]domain.User
	err   error
}

func (s *stubUsers) Get(_ context.Context, name string) (domain.User, bool, error) {
	if s.err != nil {
		return domain.User{}, false, s.err
	}
	u, ok := s.users[name]
	return u, ok, nil
}

func newTestAuth(t *testing.T, users *stubUsers) *Service {
	t.Helper()
	svc, err := NewService(users, Config{Secret: "test-signing-secret", Issuer: "collabcore"})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService(&stubUsers{}, Config{})
	if err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestHashSecretIsDeterministic(t *testing.T) {
	svc := newTestAuth(t, &stubUsers{})

	first := svc.HashSecret("bpm")
	second := svc.HashSecret("bpm")
	if first != second {
		t.Fatalf("hash not deterministic: %s vs %s", first, second)
	}
	if svc.HashSecret("other") == first {
		t.Fatalf("distinct inputs collided")
	}
	// SHA-256, base64 standard encoding: 44 characters with padding.
	if len(first) != 44 || !strings.HasSuffix(first, "=") {
		t.Fatalf("unexpected hash shape %q", first)
	}
}

func TestAuthenticateIssuesVerifiableToken(t *testing.T) {
	users := &stubUsers{users: map[string]domain.User{}}
	svc := newTestAuth(t, users)
	users.users["walter.bates"] = domain.User{Name: "walter.bates", PasswordHash: svc.HashSecret("bpm")}

	token, ok, err := svc.Authenticate(context.Background(), "walter.bates", "bpm")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !ok || token == "" {
		t.Fatalf("expected token for valid credentials")
	}

	subject, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "walter.bates" {
		t.Fatalf("unexpected subject %q", subject)
	}
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	users := &stubUsers{users: map[string]domain.User{}}
	svc := newTestAuth(t, users)
	users.users["walter.bates"] = domain.User{Name: "walter.bates", PasswordHash: svc.HashSecret("bpm")}

	wrongToken, wrongOK, wrongErr := svc.Authenticate(context.Background(), "walter.bates", "nope")
	unknownToken, unknownOK, unknownErr := svc.Authenticate(context.Background(), "nobody", "bpm")

	if wrongErr != nil || unknownErr != nil {
		t.Fatalf("failed attempts must not error: %v, %v", wrongErr, unknownErr)
	}
	if wrongOK || unknownOK {
		t.Fatalf("failed attempts must not succeed")
	}
	if wrongToken != unknownToken {
		t.Fatalf("failure outcomes differ: %q vs %q", wrongToken, unknownToken)
	}
}

func TestAuthenticatePropagatesLookupErrors(t *testing.T) {
	boom := errors.New("backend down")
	svc := newTestAuth(t, &stubUsers{err: boom})

	_, _, err := svc.Authenticate(context.Background(), "walter.bates", "bpm")
	if !errors.Is(err, boom) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	users := &stubUsers{users: map[string]domain.User{}}
	svc := newTestAuth(t, users)
	users.users["walter.bates"] = domain.User{Name: "walter.bates", PasswordHash: svc.HashSecret("bpm")}

	issued := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return issued })
	token, ok, err := svc.Authenticate(context.Background(), "walter.bates", "bpm")
	if err != nil || !ok {
		t.Fatalf("authenticate: %v ok=%v", err, ok)
	}

	// Tokens live for three hours; step past the boundary.
	svc.WithClock(func() time.Time { return issued.Add(3*time.Hour + time.Minute) })
	if _, err := svc.VerifyToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	svc.WithClock(func() time.Time { return issued.Add(2 * time.Hour) })
	if _, err := svc.VerifyToken(token); err != nil {
		t.Fatalf("token should still verify before expiry: %v", err)
	}
}

func TestVerifyTokenRejectsForeignSignature(t *testing.T) {
	users := &stubUsers{users: map[string]domain.User{}}
	svc := newTestAuth(t, users)
	users.users["walter.bates"] = domain.User{Name: "walter.bates", PasswordHash: svc.HashSecret("bpm")}

	token, ok, err := svc.Authenticate(context.Background(), "walter.bates", "bpm")
	if err != nil || !ok {
		t.Fatalf("authenticate: %v ok=%v", err, ok)
	}

	other, err := NewService(users, Config{Secret: "different-secret"})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := other.VerifyToken(token); err == nil {
		t.Fatalf("expected signature mismatch to be rejected")
	}
	if _, err := svc.VerifyToken("not-a-token"); err == nil {
		t.Fatalf("expected malformed token to be rejected")
	}
}
