package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/listkeep/listkeep-server/internal/auth"
	"github.com/listkeep/listkeep-server/internal/domain"
	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
	"github.com/listkeep/listkeep-server/internal/id"
	"github.com/listkeep/listkeep-server/internal/store"
	"github.com/listkeep/listkeep-server/internal/util"
	"github.com/listkeep/listkeep-server/internal/validation"
)

// AuthService manages the identity directory: registration, login and
// resolving a bearer token to the identity behind it.
type AuthService struct {
	store        store.Store
	tokenService *auth.TokenService
	validator    *validation.Validator
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store store.Store, tokenService *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		validator:    validation.New(),
		logger:       logger,
	}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email,max=320"`
	Password     string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName  string `json:"display_name" validate:"required,max=100"`
	Organization string `json:"organization" validate:"max=200"`
	AvatarURL    string `json:"avatar_url" validate:"omitempty,url"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse contains an access token and the identity it represents.
type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// Register creates an identity and logs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, domainerrors.AlreadyExists("email is already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, "user")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, domainerrors.ValidationWithDetails("invalid password", map[string]string{"password": err.Error()})
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           userID,
		Email:        email,
		DisplayName:  util.SanitizePlain(req.DisplayName),
		AvatarURL:    strings.TrimSpace(req.AvatarURL),
		Organization: util.SanitizePlain(req.Organization),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email is already registered")
		}
		return nil, storeErr(err, "user")
	}

	s.logger.Info("user registered", "user_id", user.ID)

	return s.issue(user)
}

// Login verifies credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, storeErr(err, "user")
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		s.logger.Warn("login failed", "user_id", user.ID)
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return s.issue(user)
}

// Me returns the identity for userID.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return user, nil
}

// ResolveIdentity maps a bearer token to the identity it names. Missing,
// invalid or expired tokens, and tokens for deleted users, resolve to
// anonymous (nil) rather than an error.
func (s *AuthService) ResolveIdentity(ctx context.Context, token string) (*domain.IdentityRef, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		s.logger.Debug("ignoring invalid access token", "error", err)
		return nil, nil
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, storeErr(err, "user")
	}
	ref := user.Ref()
	return &ref, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResponse, error) {
	token, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &AuthResponse{
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().UTC().Add(s.tokenService.AccessTokenDuration()),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
