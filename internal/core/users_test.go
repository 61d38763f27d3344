package core

import (
	"context"
	"testing"

	"collabcore/pkg/domain"
)

func TestRegisterUserAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.RegisterUser(ctx, "walter.bates", "hashed-secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.Name != "walter.bates" || created.PasswordHash != "hashed-secret" {
		t.Fatalf("unexpected stored user: %+v", created)
	}

	got, err := svc.GetUser(ctx, "walter.bates")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PasswordHash != "hashed-secret" {
		t.Fatalf("hash not preserved: %+v", got)
	}
}

func TestRegisterUserDuplicateNameConflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RegisterUser(ctx, "walter.bates", "hash-one"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.RegisterUser(ctx, "walter.bates", "hash-two")
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterUserValidatesInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RegisterUser(ctx, "", "hash"); !IsValidation(err) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
	if _, err := svc.RegisterUser(ctx, "walter.bates", ""); !IsValidation(err) {
		t.Fatalf("expected validation error for empty hash, got %v", err)
	}
}

func TestGetUserMissingIsNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetUser(context.Background(), "nobody")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
