package backend

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"net/url"

	"github.com/dozendreams/dozendreams-server/internal/errors"
)

const authBasePath = "/auth/v1"

// Session is an authenticated backend session for one user.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

// User is the backend's view of an account. Profile rows carry the
// application-level fields.
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

// FullName returns the display name recorded at signup, if any.
func (u User) FullName() string {
	if name, ok := u.Metadata["full_name"].(string); ok {
		return name
	}
	return ""
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	query := url.Values{"grant_type": {"password"}}
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, errors.Internal("encoding credentials").WithCause(err)
	}
	body, err := c.do(ctx, http.MethodPost, authBasePath+"/token", query, payload, nil)
	if err != nil {
		if errors.Is(err, errors.ErrUpstream) || errors.Is(err, errors.ErrUnauthorized) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, err
	}
	return decodeSession(body)
}

// SignUp registers a new account. The backend sets up the profile row via
// its own triggers; full name travels in the signup metadata.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	payload, err := json.Marshal(map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	})
	if err != nil {
		return nil, errors.Internal("encoding signup request").WithCause(err)
	}
	body, err := c.do(ctx, http.MethodPost, authBasePath+"/signup", nil, payload, nil)
	if err != nil {
		return nil, err
	}
	return decodeSession(body)
}

// Refresh exchanges a refresh token for a fresh session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	query := url.Values{"grant_type": {"refresh_token"}}
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, errors.Internal("encoding refresh request").WithCause(err)
	}
	body, err := c.do(ctx, http.MethodPost, authBasePath+"/token", query, payload, nil)
	if err != nil {
		if errors.Is(err, errors.ErrUnauthorized) {
			return nil, errors.ErrTokenExpired
		}
		return nil, err
	}
	return decodeSession(body)
}

// SignOut revokes the session behind the given access token.
func (c *Client) SignOut(ctx context.Context, token string) error {
	_, err := c.WithToken(token).do(ctx, http.MethodPost, authBasePath+"/logout", nil, []byte("{}"), nil)
	return err
}

// AuthenticatedUser resolves an access token to its account. Returns
// ErrUnauthorized for unknown or expired tokens.
func (c *Client) AuthenticatedUser(ctx context.Context, token string) (*User, error) {
	body, err := c.WithToken(token).do(ctx, http.MethodGet, authBasePath+"/user", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, errors.Upstream("decoding user").WithCause(err)
	}
	if user.ID == "" {
		return nil, errors.ErrUnauthorized
	}
	return &user, nil
}

func decodeSession(body []byte) (*Session, error) {
	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, errors.Upstream("decoding session").WithCause(err)
	}
	if session.AccessToken == "" {
		return nil, errors.ErrInvalidCredentials
	}
	return &session, nil
}
