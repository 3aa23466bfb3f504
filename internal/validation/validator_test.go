package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/dozendreams/dozendreams-server/internal/errors"
)

type bookingInput struct {
	GuestName string `json:"guest_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	CheckIn   string `json:"check_in" validate:"required"`
	Guests    int    `json:"guests" validate:"gte=1,lte=50"`
}

func TestValidatePasses(t *testing.T) {
	v := New()

	err := v.Validate(bookingInput{
		GuestName: "Ada",
		Email:     "ada@example.com",
		CheckIn:   "2026-01-02",
		Guests:    2,
	})
	assert.NoError(t, err)
}

func TestValidateReturnsDomainError(t *testing.T) {
	v := New()

	err := v.Validate(bookingInput{Guests: 0})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)

	// Details keyed by json tag name, not Go field name.
	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "guest_name")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "guests")
	assert.Equal(t, "is required", details["guest_name"])
}

func TestFriendlyMessages(t *testing.T) {
	v := New()

	type input struct {
		Email  string `json:"email" validate:"email"`
		Guests int    `json:"guests" validate:"gte=1"`
	}

	err := v.Validate(input{Email: "not-an-email", Guests: 0})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	details := domainErr.Details.(map[string]string)
	assert.Equal(t, "must be a valid email address", details["email"])
	assert.Equal(t, "must be greater than or equal to 1", details["guests"])
}
