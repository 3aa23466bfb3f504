package booking

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dozendreams/dozendreams-server/internal/config"
	"github.com/dozendreams/dozendreams-server/internal/domain"
	"github.com/dozendreams/dozendreams-server/internal/errors"
)

func validRequest() domain.BookingRequest {
	return domain.BookingRequest{
		ListingID:    "lst_stay",
		ListingTitle: "Lagoon Stay",
		GuestName:    "Asha Kapoor",
		Email:        "asha@example.com",
		CheckIn:      time.Date(2026, 10, 1, 14, 0, 0, 0, time.UTC),
		CheckOut:     time.Date(2026, 10, 4, 11, 0, 0, 0, time.UTC),
		Guests:       2,
	}
}

func newTestService(delay time.Duration) *Service {
	return NewService(config.BookingConfig{SimulatedDelay: delay}, slog.New(slog.DiscardHandler))
}

func TestBookConfirms(t *testing.T) {
	svc := newTestService(0)

	confirmation, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, confirmation.Success)
	assert.True(t, strings.HasPrefix(confirmation.ID, "bkg_"))
	assert.NotEmpty(t, confirmation.Reference)
	assert.Contains(t, confirmation.Message, "Lagoon Stay")
	assert.Contains(t, confirmation.Message, "asha@example.com")
}

func TestBookValidation(t *testing.T) {
	svc := newTestService(0)

	tests := []struct {
		name   string
		mutate func(*domain.BookingRequest)
	}{
		{"missing email", func(r *domain.BookingRequest) { r.Email = "" }},
		{"bad email", func(r *domain.BookingRequest) { r.Email = "not-an-email" }},
		{"checkout before checkin", func(r *domain.BookingRequest) { r.CheckOut = r.CheckIn.Add(-time.Hour) }},
		{"zero guests", func(r *domain.BookingRequest) { r.Guests = 0 }},
		{"too many guests", func(r *domain.BookingRequest) { r.Guests = 51 }},
		{"missing listing", func(r *domain.BookingRequest) { r.ListingID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := validRequest()
			tt.mutate(&request)
			_, err := svc.Book(context.Background(), request)
			assert.ErrorIs(t, err, errors.ErrValidation)
		})
	}
}

func TestBookRespectsCancellation(t *testing.T) {
	svc := newTestService(5 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := svc.Book(ctx, validRequest())
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second, "cancellation returns promptly")
}
