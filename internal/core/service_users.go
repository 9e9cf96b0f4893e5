package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/qartha/idfportal/internal/auth"
	"github.com/qartha/idfportal/internal/logging"
	"github.com/qartha/idfportal/internal/metrics"
)

// Authenticate checks an email and password. Unknown emails, inactive
// accounts and wrong passwords all yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	u, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		auth.CheckPasswordUnknownUser(password)
		metrics.RecordLogin(false)
		logging.FromContext(ctx).Warn("login rejected", "reason", "unknown email", "ip", GetIPAddressFromContext(ctx))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !auth.CheckPassword(u.PasswordHash, password) || !u.Active {
		metrics.RecordLogin(false)
		logging.FromContext(ctx).Warn("login rejected",
			"user_id", u.ID,
			"active", u.Active,
			"ip", GetIPAddressFromContext(ctx),
			"user_agent", GetUserAgentFromContext(ctx),
		)
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.store.RecordLogin(ctx, u.ID, now); err != nil {
		logging.FromContext(ctx).Warn("record login failed", "user_id", u.ID, "error", err)
	} else {
		u.LastLoginAt = &now
	}
	metrics.RecordLogin(true)
	logging.FromContext(ctx).Info("login", "user_id", u.ID, "role", string(u.Role))
	return u, nil
}

// CreateUser adds an active account.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := s.validate.Struct(in); err != nil {
		return nil, inputErrorFrom(err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		if auth.IsPasswordPolicyError(err) {
			return nil, invalidInput("password", "%s", err.Error())
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Email:        in.Email,
		FullName:     in.FullName,
		Role:         in.Role,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user %s: %w", in.Email, err)
	}
	logging.FromContext(ctx).Info("user created", "user_id", u.ID, "role", string(u.Role))
	return u, nil
}

// UserByID returns an account. Inactive accounts are reported as missing.
func (s *Service) UserByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", id, err)
	}
	if !u.Active {
		return nil, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
