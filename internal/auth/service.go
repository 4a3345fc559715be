package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyperengineering/reel/internal/catalog"
	"github.com/hyperengineering/reel/internal/store"
	"github.com/hyperengineering/reel/internal/types"
)

// UserStore defines the account operations needed by the service.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
}

// PreferenceSeeder seeds default preference rows for a user.
type PreferenceSeeder interface {
	Initialize(ctx context.Context, userID string, categories []string) (int64, error)
}

// Service registers and logs in users.
type Service struct {
	users      UserStore
	seeder     PreferenceSeeder
	catalog    catalog.Resolver
	tokens     *JWTManager
	bcryptCost int
}

// NewService creates the account service.
func NewService(users UserStore, seeder PreferenceSeeder, cat catalog.Resolver, tokens *JWTManager, bcryptCost int) *Service {
	return &Service{
		users:      users,
		seeder:     seeder,
		catalog:    cat,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

// Register creates an account and returns a session for it.
// Returns store.ErrUserExists when the email is taken.
func (s *Service) Register(ctx context.Context, email, password string) (*types.AuthResponse, error) {
	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, email, hash)
	if err != nil {
		return nil, err
	}

	slog.Info("user registered",
		"component", "auth",
		"user_id", user.ID,
	)

	return s.session(ctx, user)
}

// Login verifies credentials and returns a fresh session.
func (s *Service) Login(ctx context.Context, email, password string) (*types.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}

	return s.session(ctx, user)
}

// session seeds preferences for every current category and issues a token.
// A seeding failure is logged; the user can still sign in.
func (s *Service) session(ctx context.Context, user *types.User) (*types.AuthResponse, error) {
	names := catalog.Names(s.catalog.List(ctx))
	if _, err := s.seeder.Initialize(ctx, user.ID, names); err != nil {
		slog.Error("failed to seed preferences",
			"component", "auth",
			"user_id", user.ID,
			"error", err,
		)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &types.AuthResponse{
		Token: token,
		User:  types.AuthUser{ID: user.ID, Email: user.Email},
	}, nil
}
