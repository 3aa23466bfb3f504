package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dozendreams/dozendreams-server/internal/geo"
)

func (s *Server) registerGeoRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "locate",
		Method:      http.MethodGet,
		Path:        "/api/v1/geo/locate",
		Summary:     "Locate caller",
		Description: "Resolves coordinates to a place name, falling back to IP lookup when absent",
		Tags:        []string{"Geo"},
	}, s.handleLocate)

	huma.Register(s.api, huma.Operation{
		OperationID: "suggestPlaces",
		Method:      http.MethodGet,
		Path:        "/api/v1/geo/suggest",
		Summary:     "Suggest places",
		Description: "Returns location suggestions for partial input. Failures yield an empty list, never an error.",
		Tags:        []string{"Geo"},
	}, s.handleSuggestPlaces)
}

// === DTOs ===

type LocateInput struct {
	Lat string `query:"lat" doc:"Latitude, paired with lon"`
	Lon string `query:"lon" doc:"Longitude, paired with lat"`
}

type LocateResponse struct {
	Location string `json:"location" doc:"Resolved place name, empty when nothing matched"`
}

type LocateOutput struct {
	Body LocateResponse
}

type SuggestPlacesInput struct {
	Query string `query:"q" doc:"Partial place name"`
}

type SuggestPlacesResponse struct {
	Places []geo.Place `json:"places" doc:"Matching places, best first"`
}

type SuggestPlacesOutput struct {
	Body SuggestPlacesResponse
}

// === Handlers ===

func (s *Server) handleLocate(ctx context.Context, input *LocateInput) (*LocateOutput, error) {
	// Absent or unparseable coordinates fall through to the IP path.
	var lat, lon *float64
	if input.Lat != "" && input.Lon != "" {
		la, errLat := strconv.ParseFloat(input.Lat, 64)
		lo, errLon := strconv.ParseFloat(input.Lon, 64)
		if errLat == nil && errLon == nil {
			lat, lon = &la, &lo
		}
	}

	location := s.services.Geo.Locate(ctx, lat, lon)
	return &LocateOutput{Body: LocateResponse{Location: location}}, nil
}

func (s *Server) handleSuggestPlaces(ctx context.Context, input *SuggestPlacesInput) (*SuggestPlacesOutput, error) {
	places := s.services.Geo.Suggest(ctx, input.Query)
	return &SuggestPlacesOutput{Body: SuggestPlacesResponse{Places: places}}, nil
}
