package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/thistle/internal/tracing"
	"github.com/Ramsey-B/thistle/pkg/aggregator"
)

type DashboardHandler struct {
	metrics *aggregator.Service
	logger  ectologger.Logger
}

func NewDashboardHandler(metrics *aggregator.Service, logger ectologger.Logger) *DashboardHandler {
	return &DashboardHandler{metrics: metrics, logger: logger}
}

func (h *DashboardHandler) Register(g *echo.Group) {
	g.GET("/metrics", h.Metrics)
}

func (h *DashboardHandler) Metrics(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "DashboardHandler.Metrics")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	dashboard, err := h.metrics.Dashboard(ctx)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to compute dashboard metrics")
		return err
	}
	return SuccessResponse(c, dashboard)
}
