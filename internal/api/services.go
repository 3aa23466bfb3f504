package api

import (
	"context"

	"github.com/dozendreams/dozendreams-server/internal/backend"
	"github.com/dozendreams/dozendreams-server/internal/booking"
	"github.com/dozendreams/dozendreams-server/internal/catalog"
	"github.com/dozendreams/dozendreams-server/internal/chat"
	"github.com/dozendreams/dozendreams-server/internal/geo"
	"github.com/dozendreams/dozendreams-server/internal/listing"
	"github.com/dozendreams/dozendreams-server/internal/media/images"
	"github.com/dozendreams/dozendreams-server/internal/search"
)

// AuthClient is the slice of the hosted backend's auth API the server
// needs. Satisfied by backend.Client.
type AuthClient interface {
	SignIn(ctx context.Context, email, password string) (*backend.Session, error)
	SignUp(ctx context.Context, email, password, fullName string) (*backend.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*backend.Session, error)
	SignOut(ctx context.Context, token string) error
	AuthenticatedUser(ctx context.Context, token string) (*backend.User, error)
}

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Catalog        *catalog.Catalog
	Listings       *listing.Service
	Chat           *chat.Service
	ChatSessions   *chat.Registry
	SearchSessions *search.Registry
	Geo            *geo.Service
	Booking        *booking.Service
	Photos         *images.Processor
}
