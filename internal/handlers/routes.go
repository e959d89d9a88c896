package handlers

import "github.com/labstack/echo/v4"

// Handlers groups every API handler
type Handlers struct {
	Reviews    *ReviewHandler
	Ingestion  *IngestionHandler
	Properties *PropertyHandler
	Dashboard  *DashboardHandler
}

// RegisterRoutes mounts the API under /api/v1
func (h *Handlers) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	reviews := api.Group("/reviews")
	h.Ingestion.Register(reviews)
	h.Reviews.Register(reviews)

	h.Properties.Register(api.Group("/properties"))
	h.Dashboard.Register(api.Group("/dashboard"))
}
