package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerSavedRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "toggleSavedListing",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{id}/save",
		Summary:     "Toggle saved listing",
		Description: "Bookmarks the listing for the caller, or removes the bookmark",
		Tags:        []string{"Saved"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleToggleSaved)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSavedListings",
		Method:      http.MethodGet,
		Path:        "/api/v1/saved",
		Summary:     "List saved listings",
		Description: "Returns the caller's bookmarked listings",
		Tags:        []string{"Saved"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSaved)
}

// === DTOs ===

type ToggleSavedInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Listing ID"`
}

type SavedStateResponse struct {
	Saved bool `json:"saved" doc:"Resulting saved state"`
}

type SavedStateOutput struct {
	Body SavedStateResponse
}

type ListSavedInput struct {
	Authorization string `header:"Authorization"`
}

// === Handlers ===

func (s *Server) handleToggleSaved(ctx context.Context, input *ToggleSavedInput) (*SavedStateOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	saved, err := s.services.Listings.ToggleSaved(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &SavedStateOutput{Body: SavedStateResponse{Saved: saved}}, nil
}

func (s *Server) handleListSaved(ctx context.Context, input *ListSavedInput) (*ListingsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	listings, err := s.services.Listings.Saved(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ListingsOutput{Body: ListingsResponse{Listings: listings}}, nil
}
