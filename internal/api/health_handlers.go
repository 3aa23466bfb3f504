package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dozendreams/dozendreams-server/internal/backend"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := make(map[string]ComponentHealth)
	overall := "healthy"

	backendHealth := s.checkBackend(ctx)
	components["backend"] = backendHealth
	if backendHealth.Status != "healthy" {
		overall = "unhealthy"
	}

	catalogHealth := s.checkCatalog()
	components["catalog"] = catalogHealth
	if catalogHealth.Status == "degraded" && overall == "healthy" {
		overall = "degraded"
	}

	components["sse"] = s.checkSSEManager()

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkBackend verifies the hosted backend answers reads.
func (s *Server) checkBackend(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "backend not configured",
		}
	}

	start := time.Now()

	var rows []struct {
		ID int64 `json:"id"`
	}
	q := backend.From("categories").Select("id").Take(1)
	err := s.store.Select(ctx, q, &rows)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "backend read failed",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
	}
}

// checkCatalog verifies the category map has loaded.
func (s *Server) checkCatalog() ComponentHealth {
	if s.services == nil || s.services.Catalog == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "catalog not configured",
		}
	}

	if !s.services.Catalog.Ready() {
		return ComponentHealth{
			Status:  "degraded",
			Message: "category map not loaded",
		}
	}

	return ComponentHealth{Status: "healthy"}
}

// checkSSEManager reports the SSE relay's connection state.
func (s *Server) checkSSEManager() ComponentHealth {
	if s.sseManager == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "SSE manager not configured",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Message: formatSSEStatus(s.sseManager.ClientCount()),
	}
}

func formatSSEStatus(count int) string {
	switch count {
	case 0:
		return "no connected clients"
	case 1:
		return "1 connected client"
	default:
		return strconv.Itoa(count) + " connected clients"
	}
}
