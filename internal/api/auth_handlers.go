package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listkeep/listkeep-server/internal/domain"
	"github.com/listkeep/listkeep-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Register",
		Description:   "Creates an identity and returns an access token",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{s.limitAuth},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Login",
		Description: "Exchanges credentials for an access token",
		Tags:        []string{"Auth"},
		Middlewares: huma.Middlewares{s.limitAuth},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the identity behind the bearer token",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)
}

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Email        string `json:"email" format:"email" maxLength:"320" doc:"Login e-mail, unique case-insensitively"`
	Password     string `json:"password" minLength:"8" maxLength:"1024" doc:"Password"`
	DisplayName  string `json:"display_name" minLength:"1" maxLength:"100" doc:"Name shown to collaborators"`
	Organization string `json:"organization,omitempty" maxLength:"200" doc:"Organization shown next to the name"`
	AvatarURL    string `json:"avatar_url,omitempty" doc:"Avatar image URL"`
}

// RegisterInput wraps the registration request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" doc:"Login e-mail"`
	Password string `json:"password" doc:"Password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// AuthOutput wraps an issued token for Huma.
type AuthOutput struct {
	Body *service.AuthResponse
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body *domain.User
}

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Email:        input.Body.Email,
		Password:     input.Body.Password,
		DisplayName:  input.Body.DisplayName,
		Organization: input.Body.Organization,
		AvatarURL:    input.Body.AvatarURL,
	})
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: resp}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: resp}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	ref, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.services.Auth.Me(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}
