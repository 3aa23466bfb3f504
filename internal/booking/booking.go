// Package booking handles calendar bookings for bookable listings.
//
// There is no real reservation system behind the marketplace yet; the
// service validates the request, simulates the provider round trip, and
// returns a confirmation. The delay is configurable so tests run fast.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dozendreams/dozendreams-server/internal/config"
	"github.com/dozendreams/dozendreams-server/internal/domain"
	"github.com/dozendreams/dozendreams-server/internal/id"
	"github.com/dozendreams/dozendreams-server/internal/validation"
)

// Service books stays and experiences.
type Service struct {
	delay    time.Duration
	validate *validation.Validator
	logger   *slog.Logger
}

// NewService creates the booking service.
func NewService(cfg config.BookingConfig, logger *slog.Logger) *Service {
	return &Service{
		delay:    cfg.SimulatedDelay,
		validate: validation.New(),
		logger:   logger,
	}
}

// Book validates and confirms a booking request. The simulated provider
// delay respects context cancellation, so an abandoned request does not
// hold the handler open.
func (s *Service) Book(ctx context.Context, request domain.BookingRequest) (*domain.BookingConfirmation, error) {
	if err := s.validate.Validate(request); err != nil {
		return nil, err
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	bookingID := id.MustGenerate(id.PrefixBooking)
	// The provider hands back a UUID reference, unlike our prefixed ids.
	reference := uuid.NewString()
	nights := int(request.CheckOut.Sub(request.CheckIn).Hours() / 24)

	s.logger.Info("booking confirmed",
		"booking", bookingID,
		"reference", reference,
		"listing", request.ListingID,
		"nights", nights,
		"guests", request.Guests,
	)

	return &domain.BookingConfirmation{
		ID:        bookingID,
		Reference: reference,
		Success:   true,
		Message: fmt.Sprintf("Booking confirmed for %s, %d night(s) for %d guest(s). A confirmation email is on its way to %s.",
			request.ListingTitle, nights, request.Guests, request.Email),
	}, nil
}
