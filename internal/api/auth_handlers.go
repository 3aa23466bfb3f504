package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dozendreams/dozendreams-server/internal/backend"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "signup",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signup",
		Summary:     "Register new user",
		Description: "Creates an account on the hosted backend and returns a session",
		Tags:        []string{"Authentication"},
	}, s.handleSignup)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns access and refresh tokens",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Exchanges a refresh token for a new session",
		Tags:        []string{"Authentication"},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Revokes the caller's backend session",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current user",
		Description: "Returns the authenticated user's account",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)
}

// === DTOs ===

// SignupRequest is the request body for account creation.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254" doc:"Email address"`
	Password string `json:"password" validate:"required,min=8,max=1024" doc:"Password"`
	FullName string `json:"full_name" validate:"required,min=1,max=200" doc:"Display name"`
}

type SignupInput struct {
	Body SignupRequest
}

// LoginRequest is the request body for credential login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254" doc:"Email address"`
	Password string `json:"password" validate:"required,min=1,max=1024" doc:"Password"`
}

type LoginInput struct {
	Body LoginRequest
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" doc:"Refresh token from a previous session"`
}

type RefreshInput struct {
	Body RefreshRequest
}

type LogoutInput struct {
	Authorization string `header:"Authorization"`
}

type GetCurrentUserInput struct {
	Authorization string `header:"Authorization"`
}

// UserResponse is the account shape returned to clients.
type UserResponse struct {
	ID       string `json:"id" doc:"User ID"`
	Email    string `json:"email" doc:"Email address"`
	FullName string `json:"full_name,omitempty" doc:"Display name"`
}

// SessionResponse carries tokens plus the account they belong to.
type SessionResponse struct {
	AccessToken  string       `json:"access_token" doc:"Bearer token for API calls"`
	RefreshToken string       `json:"refresh_token" doc:"Token for session renewal"`
	TokenType    string       `json:"token_type" doc:"Token type (bearer)"`
	ExpiresIn    int          `json:"expires_in" doc:"Access token lifetime in seconds"`
	User         UserResponse `json:"user" doc:"Authenticated account"`
}

type SessionOutput struct {
	Body SessionResponse
}

type UserOutput struct {
	Body UserResponse
}

// === Handlers ===

func (s *Server) handleSignup(ctx context.Context, input *SignupInput) (*SessionOutput, error) {
	if err := s.validate.Validate(input.Body); err != nil {
		return nil, err
	}

	if !s.authRateLimiter.Allow("signup:" + input.Body.Email) {
		return nil, huma.Error429TooManyRequests("Too many signup attempts. Please try again later.")
	}

	session, err := s.auth.SignUp(ctx, input.Body.Email, input.Body.Password, input.Body.FullName)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", "user", session.User.ID)
	return &SessionOutput{Body: mapSessionResponse(session)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
	if err := s.validate.Validate(input.Body); err != nil {
		return nil, err
	}

	if !s.authRateLimiter.Allow("login:" + input.Body.Email) {
		return nil, huma.Error429TooManyRequests("Too many login attempts. Please try again later.")
	}

	session, err := s.auth.SignIn(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: mapSessionResponse(session)}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*SessionOutput, error) {
	if err := s.validate.Validate(input.Body); err != nil {
		return nil, err
	}

	session, err := s.auth.Refresh(ctx, input.Body.RefreshToken)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: mapSessionResponse(session)}, nil
}

func (s *Server) handleLogout(ctx context.Context, input *LogoutInput) (*MessageOutput, error) {
	token, err := bearerToken(input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.auth.SignOut(ctx, token); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Logged out"}}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, input *GetCurrentUserInput) (*UserOutput, error) {
	token, err := bearerToken(input.Authorization)
	if err != nil {
		return nil, err
	}

	user, err := s.auth.AuthenticatedUser(ctx, token)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(*user)}, nil
}

func mapSessionResponse(session *backend.Session) SessionResponse {
	return SessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    session.TokenType,
		ExpiresIn:    session.ExpiresIn,
		User:         mapUserResponse(session.User),
	}
}

func mapUserResponse(user backend.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName(),
	}
}
