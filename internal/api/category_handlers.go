package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dozendreams/dozendreams-server/internal/domain"
)

func (s *Server) registerCategoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Description: "Returns category names for one listing type, in display order",
		Tags:        []string{"Categories"},
	}, s.handleListCategories)
}

// === DTOs ===

type ListCategoriesInput struct {
	Type string `query:"type" enum:"SALE,RENT" default:"SALE" doc:"Listing type to browse"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories" doc:"Category names in display order"`
}

type CategoriesOutput struct {
	Body CategoriesResponse
}

// === Handlers ===

func (s *Server) handleListCategories(_ context.Context, input *ListCategoriesInput) (*CategoriesOutput, error) {
	listingType := domain.ListingType(input.Type)
	if !listingType.Valid() {
		listingType = domain.TypeSale
	}

	return &CategoriesOutput{Body: CategoriesResponse{
		Categories: s.services.Catalog.Browse(listingType),
	}}, nil
}
