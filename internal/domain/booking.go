package domain

import "time"

// BookingRequest is a calendar booking for a bookable listing.
type BookingRequest struct {
	ListingID    string    `json:"listing_id" validate:"required"`
	ListingTitle string    `json:"listing_title" validate:"required"`
	GuestName    string    `json:"guest_name" validate:"required,max=200"`
	Email        string    `json:"email" validate:"required,email"`
	CheckIn      time.Time `json:"check_in" validate:"required"`
	CheckOut     time.Time `json:"check_out" validate:"required,gtfield=CheckIn"`
	Guests       int       `json:"guests" validate:"gte=1,lte=50"`
}

// BookingConfirmation is the outcome of a booking attempt. Success carries
// a human-readable confirmation; failures carry the reason instead.
type BookingConfirmation struct {
	ID string `json:"id,omitempty"`
	// Reference is the provider-side reservation identifier quoted in
	// support requests.
	Reference string `json:"reference,omitempty"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
}
