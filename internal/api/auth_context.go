package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dozendreams/dozendreams-server/internal/backend"
	"github.com/dozendreams/dozendreams-server/internal/domain"
)

// authenticateRequest validates the Authorization header against the
// hosted backend and returns the caller's user id.
func (s *Server) authenticateRequest(ctx context.Context, authHeader string) (string, error) {
	token, err := bearerToken(authHeader)
	if err != nil {
		return "", err
	}

	user, err := s.auth.AuthenticatedUser(ctx, token)
	if err != nil {
		return "", huma.Error401Unauthorized("Invalid or expired token")
	}

	return user.ID, nil
}

// authenticateAndRequireAdmin validates the token and requires the
// caller's profile to carry the admin role.
func (s *Server) authenticateAndRequireAdmin(ctx context.Context, authHeader string) (string, error) {
	userID, err := s.authenticateRequest(ctx, authHeader)
	if err != nil {
		return "", err
	}

	var profiles []domain.Profile
	q := backend.From("profiles").
		Where(backend.Eq("id", userID)).
		Take(1)
	if err := s.store.Select(ctx, q, &profiles); err != nil {
		return "", huma.Error401Unauthorized("Profile lookup failed")
	}

	if len(profiles) == 0 || !profiles[0].IsAdmin() {
		return "", huma.Error403Forbidden("Admin access required")
	}

	return userID, nil
}

// bearerToken extracts the raw token from an Authorization header.
func bearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", huma.Error401Unauthorized("Missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", huma.Error401Unauthorized("Invalid authorization header format")
	}

	return parts[1], nil
}

// streamToken pulls the caller's token from a stream request. EventSource
// cannot set headers, so streams also accept an access_token query param.
func streamToken(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, err := bearerToken(auth); err == nil {
			return token, true
		}
		return "", false
	}
	if token := r.URL.Query().Get("access_token"); token != "" {
		return token, true
	}
	return "", false
}
