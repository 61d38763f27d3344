package core

import (
	"context"
	"fmt"
	"time"

	"collabcore/pkg/domain"
)

// RegisterUser stores a new principal under its unique name. The caller is
// responsible for hashing the secret first; the service never sees
// plaintext. A taken name is a conflict.
func (s *Service) RegisterUser(ctx context.Context, name, passwordHash string) (created domain.User, err error) {
	defer func(start time.Time) { s.observe(ctx, "register_user", start, err) }(s.nowFn())

	if name == "" {
		return domain.User{}, ValidationError{Detail: "user name is required"}
	}
	if passwordHash == "" {
		return domain.User{}, ValidationError{Detail: "password hash is required"}
	}

	exists, err := s.users.Exists(ctx, func(u domain.User) bool { return u.Name == name })
	if err != nil {
		return domain.User{}, fmt.Errorf("check duplicate user: %w", err)
	}
	if exists {
		return domain.User{}, domain.ConflictError{
			Entity: domain.EntityUser,
			Detail: fmt.Sprintf("name %q already registered", name),
		}
	}

	created, err = s.users.Add(ctx, domain.User{Name: name, PasswordHash: passwordHash})
	if err != nil {
		return domain.User{}, fmt.Errorf("store user: %w", err)
	}
	return created, nil
}

// GetUser fetches a principal by its natural key.
func (s *Service) GetUser(ctx context.Context, name string) (out domain.User, err error) {
	defer func(start time.Time) { s.observe(ctx, "get_user", start, err) }(s.nowFn())

	u, found, err := s.users.Get(ctx, name)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	if !found {
		return domain.User{}, domain.NotFoundError{Entity: domain.EntityUser, ID: name}
	}
	return u, nil
}
