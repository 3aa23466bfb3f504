package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/dozendreams/dozendreams-server/internal/domain"
	"github.com/dozendreams/dozendreams-server/internal/search"
	"github.com/dozendreams/dozendreams-server/internal/sse"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "openSearchSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/search/sessions",
		Summary:     "Open search session",
		Description: "Starts a live browse session with default filters and kicks off the first fetch",
		Tags:        []string{"Search"},
	}, s.handleOpenSearchSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "setSearchInput",
		Method:      http.MethodPut,
		Path:        "/api/v1/search/sessions/{sessionID}/input",
		Summary:     "Set search input",
		Description: "Updates the live keyword text. The query fires once the text settles.",
		Tags:        []string{"Search"},
	}, s.handleSetSearchInput)

	huma.Register(s.api, huma.Operation{
		OperationID: "setSearchFilters",
		Method:      http.MethodPut,
		Path:        "/api/v1/search/sessions/{sessionID}/filters",
		Summary:     "Set search filters",
		Description: "Replaces the session's filter state and refreshes immediately",
		Tags:        []string{"Search"},
	}, s.handleSetSearchFilters)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSearchSnapshot",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/sessions/{sessionID}",
		Summary:     "Get search snapshot",
		Description: "Returns the session's current filters, keyword and results",
		Tags:        []string{"Search"},
	}, s.handleGetSearchSnapshot)

	huma.Register(s.api, huma.Operation{
		OperationID: "closeSearchSession",
		Method:      http.MethodDelete,
		Path:        "/api/v1/search/sessions/{sessionID}",
		Summary:     "Close search session",
		Description: "Tears the session down and stops its stream",
		Tags:        []string{"Search"},
	}, s.handleCloseSearchSession)
}

// searchTopic names the SSE topic carrying one session's snapshots.
func searchTopic(sessionID string) string {
	return "search:" + sessionID
}

// === DTOs ===

type OpenSearchSessionResponse struct {
	SessionID string `json:"session_id" doc:"Handle for subsequent session calls"`
}

type OpenSearchSessionOutput struct {
	Body OpenSearchSessionResponse
}

type SetSearchInputRequest struct {
	Text string `json:"text" doc:"Live keyword text, may be blank"`
}

type SetSearchInputInput struct {
	SessionID string `path:"sessionID" doc:"Search session ID"`
	Body      SetSearchInputRequest
}

type SetSearchFiltersRequest struct {
	ListingType  string   `json:"listing_type" validate:"required,oneof=SALE RENT" doc:"Listing type"`
	Categories   []string `json:"categories,omitempty" doc:"Selected category names"`
	PriceCeiling int64    `json:"price_ceiling,omitempty" validate:"gte=0" doc:"Inclusive price ceiling, 0 for the default"`
	Location     string   `json:"location,omitempty" doc:"Location substring"`
	Bedrooms     *int     `json:"bedrooms,omitempty" doc:"Minimum bedroom count"`
}

type SetSearchFiltersInput struct {
	SessionID string `path:"sessionID" doc:"Search session ID"`
	Body      SetSearchFiltersRequest
}

type GetSearchSnapshotInput struct {
	SessionID string `path:"sessionID" doc:"Search session ID"`
}

type SearchSnapshotOutput struct {
	Body search.Snapshot
}

type CloseSearchSessionInput struct {
	SessionID string `path:"sessionID" doc:"Search session ID"`
}

// === Handlers ===

func (s *Server) handleOpenSearchSession(_ context.Context, _ *struct{}) (*OpenSearchSessionOutput, error) {
	sessionID := s.services.SearchSessions.Open(func(sessionID string, snapshot search.Snapshot) {
		s.sseManager.Publish(searchTopic(sessionID), sse.NewEvent(sse.EventFeedSnapshot, snapshot))
	})

	return &OpenSearchSessionOutput{Body: OpenSearchSessionResponse{SessionID: sessionID}}, nil
}

func (s *Server) handleSetSearchInput(_ context.Context, input *SetSearchInputInput) (*MessageOutput, error) {
	controller, err := s.services.SearchSessions.Get(input.SessionID)
	if err != nil {
		return nil, err
	}

	controller.SetInput(input.Body.Text)
	return &MessageOutput{Body: MessageResponse{Message: "Input accepted"}}, nil
}

func (s *Server) handleSetSearchFilters(_ context.Context, input *SetSearchFiltersInput) (*MessageOutput, error) {
	if err := s.validate.Validate(input.Body); err != nil {
		return nil, err
	}

	controller, err := s.services.SearchSessions.Get(input.SessionID)
	if err != nil {
		return nil, err
	}

	filters := domain.FilterState{
		ListingType:  domain.ListingType(input.Body.ListingType),
		Categories:   input.Body.Categories,
		PriceCeiling: input.Body.PriceCeiling,
		Location:     input.Body.Location,
		Bedrooms:     input.Body.Bedrooms,
	}
	if filters.PriceCeiling <= 0 {
		filters.PriceCeiling = domain.DefaultPriceCeiling
	}

	controller.SetFilters(filters)
	return &MessageOutput{Body: MessageResponse{Message: "Filters applied"}}, nil
}

func (s *Server) handleGetSearchSnapshot(_ context.Context, input *GetSearchSnapshotInput) (*SearchSnapshotOutput, error) {
	controller, err := s.services.SearchSessions.Get(input.SessionID)
	if err != nil {
		return nil, err
	}

	return &SearchSnapshotOutput{Body: controller.Snapshot()}, nil
}

func (s *Server) handleCloseSearchSession(_ context.Context, input *CloseSearchSessionInput) (*MessageOutput, error) {
	s.services.SearchSessions.Close(input.SessionID)
	return &MessageOutput{Body: MessageResponse{Message: "Session closed"}}, nil
}

// handleSearchStream pushes a session's snapshots over SSE.
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.services.SearchSessions.Get(sessionID); err != nil {
		http.Error(w, "unknown search session", http.StatusNotFound)
		return
	}

	s.sseHandler.Serve(w, r, searchTopic(sessionID))
}
