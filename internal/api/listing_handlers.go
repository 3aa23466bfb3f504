package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dozendreams/dozendreams-server/internal/domain"
	"github.com/dozendreams/dozendreams-server/internal/listing"
)

func (s *Server) registerListingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "browseListings",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings",
		Summary:     "Browse listings",
		Description: "Returns listings matching the given filters, featured first",
		Tags:        []string{"Listings"},
	}, s.handleBrowseListings)

	huma.Register(s.api, huma.Operation{
		OperationID: "getListing",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{id}",
		Summary:     "Get listing",
		Description: "Returns a single listing by ID",
		Tags:        []string{"Listings"},
	}, s.handleGetListing)

	huma.Register(s.api, huma.Operation{
		OperationID: "createListing",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings",
		Summary:     "Create listing",
		Description: "Posts a new listing owned by the caller",
		Tags:        []string{"Listings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateListing)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateListing",
		Method:      http.MethodPut,
		Path:        "/api/v1/listings/{id}",
		Summary:     "Update listing",
		Description: "Replaces the mutable fields of a listing the caller owns",
		Tags:        []string{"Listings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateListing)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteListing",
		Method:      http.MethodDelete,
		Path:        "/api/v1/listings/{id}",
		Summary:     "Delete listing",
		Description: "Removes a listing the caller owns",
		Tags:        []string{"Listings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteListing)

	huma.Register(s.api, huma.Operation{
		OperationID: "featureListing",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{id}/feature",
		Summary:     "Set listing boost",
		Description: "Flips the featured flag on a listing. Admin only.",
		Tags:        []string{"Listings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFeatureListing)

	huma.Register(s.api, huma.Operation{
		OperationID: "uploadListingPhoto",
		Method:      http.MethodPut,
		Path:        "/api/v1/listings/{id}/photo",
		Summary:     "Upload listing photo",
		Description: "Processes and stores the listing photo, then points the listing at it",
		Tags:        []string{"Listings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUploadListingPhoto)

	huma.Register(s.api, huma.Operation{
		OperationID: "listOwnListings",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/listings",
		Summary:     "List own listings",
		Description: "Returns the listings owned by the caller",
		Tags:        []string{"Listings"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListOwnListings)
}

// === DTOs ===

type BrowseListingsInput struct {
	Type       string   `query:"type" enum:"SALE,RENT" default:"SALE" doc:"Listing type"`
	Categories []string `query:"category" doc:"Category names to include"`
	MaxPrice   int64    `query:"max_price" minimum:"0" doc:"Inclusive price ceiling, 0 for the default"`
	Location   string   `query:"location" doc:"Location substring, matched case-insensitively"`
	Bedrooms   int      `query:"bedrooms" minimum:"0" doc:"Minimum bedroom count"`
	Keyword    string   `query:"q" doc:"Keyword matched against title and description"`
}

type ListingsResponse struct {
	Listings []domain.Listing `json:"listings" doc:"Matching listings, featured first"`
}

type ListingsOutput struct {
	Body ListingsResponse
}

type GetListingInput struct {
	ID string `path:"id" doc:"Listing ID"`
}

type ListingOutput struct {
	Body domain.Listing
}

type CreateListingInput struct {
	Authorization string `header:"Authorization"`
	Body          listing.ListingInput
}

type UpdateListingInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Listing ID"`
	Body          listing.ListingInput
}

type DeleteListingInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Listing ID"`
}

type FeatureListingRequest struct {
	Featured bool `json:"featured" doc:"Whether the listing is boosted"`
}

type FeatureListingInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Listing ID"`
	Body          FeatureListingRequest
}

type UploadListingPhotoInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Listing ID"`
	RawBody       []byte
}

type PhotoResponse struct {
	URL      string `json:"url" doc:"Public photo URL"`
	BlurHash string `json:"blur_hash,omitempty" doc:"BlurHash placeholder string"`
	Width    int    `json:"width" doc:"Stored width in pixels"`
	Height   int    `json:"height" doc:"Stored height in pixels"`
}

type PhotoOutput struct {
	Body PhotoResponse
}

type ListOwnListingsInput struct {
	Authorization string `header:"Authorization"`
}

// === Handlers ===

func (s *Server) handleBrowseListings(ctx context.Context, input *BrowseListingsInput) (*ListingsOutput, error) {
	filters := browseFilters(input)

	listings, err := s.services.Listings.Browse(ctx, filters, input.Keyword)
	if err != nil {
		return nil, err
	}

	return &ListingsOutput{Body: ListingsResponse{Listings: listings}}, nil
}

func (s *Server) handleGetListing(ctx context.Context, input *GetListingInput) (*ListingOutput, error) {
	l, err := s.services.Listings.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ListingOutput{Body: *l}, nil
}

func (s *Server) handleCreateListing(ctx context.Context, input *CreateListingInput) (*ListingOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	l, err := s.services.Listings.Create(ctx, userID, input.Body)
	if err != nil {
		return nil, err
	}

	return &ListingOutput{Body: *l}, nil
}

func (s *Server) handleUpdateListing(ctx context.Context, input *UpdateListingInput) (*ListingOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	l, err := s.services.Listings.Update(ctx, input.ID, userID, input.Body)
	if err != nil {
		return nil, err
	}

	return &ListingOutput{Body: *l}, nil
}

func (s *Server) handleDeleteListing(ctx context.Context, input *DeleteListingInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Listings.Delete(ctx, input.ID, userID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Listing deleted"}}, nil
}

func (s *Server) handleFeatureListing(ctx context.Context, input *FeatureListingInput) (*MessageOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Listings.SetFeatured(ctx, input.ID, input.Body.Featured); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Listing boost updated"}}, nil
}

func (s *Server) handleUploadListingPhoto(ctx context.Context, input *UploadListingPhotoInput) (*PhotoOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if len(input.RawBody) == 0 {
		return nil, huma.Error400BadRequest("Photo body is required")
	}

	// Ownership is checked before the upload so strangers cannot fill
	// the bucket.
	existing, err := s.services.Listings.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != userID {
		return nil, huma.Error403Forbidden("Not the listing owner")
	}

	photo, err := s.services.Photos.Process(ctx, input.ID, input.RawBody)
	if err != nil {
		return nil, err
	}

	if err := s.services.Listings.SetImageURL(ctx, input.ID, userID, photo.URL); err != nil {
		return nil, err
	}

	return &PhotoOutput{Body: PhotoResponse{
		URL:      photo.URL,
		BlurHash: photo.BlurHash,
		Width:    photo.Width,
		Height:   photo.Height,
	}}, nil
}

func (s *Server) handleListOwnListings(ctx context.Context, input *ListOwnListingsInput) (*ListingsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	listings, err := s.services.Listings.Owned(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ListingsOutput{Body: ListingsResponse{Listings: listings}}, nil
}

// browseFilters maps query parameters onto the domain filter state,
// applying the same defaults a fresh session starts with.
func browseFilters(input *BrowseListingsInput) domain.FilterState {
	filters := domain.DefaultFilters()

	if t := domain.ListingType(input.Type); t.Valid() {
		filters.ListingType = t
	}
	if len(input.Categories) > 0 {
		filters.Categories = input.Categories
	}
	if input.MaxPrice > 0 {
		filters.PriceCeiling = input.MaxPrice
	}
	filters.Location = input.Location
	if input.Bedrooms > 0 {
		bedrooms := input.Bedrooms
		filters.Bedrooms = &bedrooms
	}

	return filters
}
