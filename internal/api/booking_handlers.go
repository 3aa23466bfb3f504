package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dozendreams/dozendreams-server/internal/domain"
)

func (s *Server) registerBookingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createBooking",
		Method:      http.MethodPost,
		Path:        "/api/v1/bookings",
		Summary:     "Book a stay",
		Description: "Requests a calendar booking for a bookable listing",
		Tags:        []string{"Bookings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateBooking)
}

// === DTOs ===

type CreateBookingRequest struct {
	ListingID string    `json:"listing_id" validate:"required" doc:"Listing to book"`
	GuestName string    `json:"guest_name" validate:"required,max=200" doc:"Name the booking is held under"`
	Email     string    `json:"email" validate:"required,email" doc:"Confirmation email address"`
	CheckIn   time.Time `json:"check_in" validate:"required" doc:"Check-in date"`
	CheckOut  time.Time `json:"check_out" validate:"required" doc:"Check-out date, after check-in"`
	Guests    int       `json:"guests" validate:"gte=1,lte=50" doc:"Guest count"`
}

type CreateBookingInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateBookingRequest
}

type BookingOutput struct {
	Body domain.BookingConfirmation
}

// === Handlers ===

func (s *Server) handleCreateBooking(ctx context.Context, input *CreateBookingInput) (*BookingOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	listing, err := s.services.Listings.Get(ctx, input.Body.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.Type != domain.TypeRent {
		return nil, huma.Error400BadRequest("Listing is not bookable")
	}

	confirmation, err := s.services.Booking.Book(ctx, domain.BookingRequest{
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		GuestName:    input.Body.GuestName,
		Email:        input.Body.Email,
		CheckIn:      input.Body.CheckIn,
		CheckOut:     input.Body.CheckOut,
		Guests:       input.Body.Guests,
	})
	if err != nil {
		return nil, err
	}

	return &BookingOutput{Body: *confirmation}, nil
}
