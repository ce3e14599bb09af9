// Package services contains server-side business logic. This file implements
// UserService, which handles signup, login, token refresh and logout.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/campushub/internal/common"
	"github.com/dmitrijs2005/campushub/internal/dbx"
	"github.com/dmitrijs2005/campushub/internal/logging"
	"github.com/dmitrijs2005/campushub/internal/server/auth"
	"github.com/dmitrijs2005/campushub/internal/server/idempotency"
	"github.com/dmitrijs2005/campushub/internal/server/models"
	"github.com/dmitrijs2005/campushub/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// UserService provides account operations:
// - Signup: create a student account, guarded against double submission
// - Login: verify credentials and mint a token pair
// - Refresh: exchange a refresh token for an access token
// - Logout: revoke every token of the caller
type UserService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	guard       *idempotency.Guard
	issuer      *auth.Issuer
	logger      logging.Logger
	hashCost    int
	// dummyHash is compared against when the user does not exist, so
	// unknown emails cost the same as wrong passwords.
	dummyHash []byte
}

// UserOption customises a UserService.
type UserOption func(*UserService)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) UserOption {
	return func(s *UserService) { s.hashCost = cost }
}

// NewUserService constructs a UserService.
func NewUserService(db dbx.DBTX, m repomanager.RepositoryManager, guard *idempotency.Guard, issuer *auth.Issuer, l logging.Logger, opts ...UserOption) *UserService {
	s := &UserService{
		db:          db,
		repomanager: m,
		guard:       guard,
		issuer:      issuer,
		logger:      l.With("module", "users"),
		hashCost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("campushub-dummy-password"), s.hashCost)
	return s
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	return email, nil
}

// Signup registers a student account and logs it in. A taken email yields
// common.ErrAlreadyExists; a double submission yields
// common.ErrDuplicateRequest.
func (s *UserService) Signup(ctx context.Context, email, password string) (*models.User, *auth.TokenPair, error) {
	const op = "users.Signup"

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if len(password) < minPasswordLen {
		return nil, nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLen)
	}

	res, err := s.guard.CheckAndReserve(ctx, "signup", email)
	if err != nil {
		return nil, nil, err
	}

	user, pair, err := s.signup(ctx, email, password)
	if err != nil {
		s.guard.Release(ctx, res)
		if errors.Is(err, common.ErrAlreadyExists) {
			s.logger.Warn(ctx, "signup for existing email", "op", op)
		} else {
			s.logger.Error(ctx, "signup failed", "op", op, "error", err)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info(ctx, "user signed up", "op", op, "user_id", user.ID)
	return user, pair, nil
}

func (s *UserService) signup(ctx context.Context, email, password string) (*models.User, *auth.TokenPair, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Email:    email,
		PassHash: hash,
		Role:     string(auth.RoleStudent),
	})
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issuer.Issue(auth.Principal{Subject: user.ID, Role: auth.RoleStudent})
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// Login verifies the credentials and returns a fresh token pair. Unknown
// emails and wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*auth.TokenPair, error) {
	const op = "users.Login"

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "failed to load user", "op", op, "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		s.logger.Warn(ctx, "invalid password", "op", op, "user_id", user.ID)
		return nil, common.ErrorUnauthorized
	}

	role, err := auth.ParseRole(user.Role)
	if err != nil {
		s.logger.Error(ctx, "stored role is invalid", "op", op, "user_id", user.ID, "role", user.Role)
		return nil, common.ErrorInternal
	}

	pair, err := s.issuer.Issue(auth.Principal{Subject: user.ID, Role: role})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info(ctx, "user logged in", "op", op, "user_id", user.ID)
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return s.issuer.Refresh(ctx, refreshToken)
}

// Logout revokes every token issued to the caller so far.
func (s *UserService) Logout(ctx context.Context, caller *auth.Identity) error {
	if err := s.issuer.Revoke(ctx, caller.Subject); err != nil {
		return err
	}
	s.logger.Info(ctx, "user logged out", "user_id", caller.Subject)
	return nil
}

// Me returns the caller's account.
func (s *UserService) Me(ctx context.Context, caller *auth.Identity) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, caller.Subject)
}
