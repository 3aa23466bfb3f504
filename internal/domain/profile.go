package domain

import "time"

// Role determines what a user may administer. All enforcement happens in
// the backend's row-level security; the role here only drives the UI.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Profile is a user's public profile row.
type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role,omitempty"`
}

// IsAdmin reports whether the profile carries the admin role.
func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// SavedListing is a bookmark joining a user to a listing.
type SavedListing struct {
	UserID    string    `json:"user_id"`
	ListingID string    `json:"listing_id"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}
