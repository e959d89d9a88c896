package handlers

import (
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/thistle/internal/context"
	"github.com/Ramsey-B/thistle/internal/tracing"
	"github.com/Ramsey-B/thistle/pkg/aggregator"
	"github.com/Ramsey-B/thistle/pkg/filter"
	"github.com/Ramsey-B/thistle/pkg/metrics"
	"github.com/Ramsey-B/thistle/pkg/moderation"
	"github.com/Ramsey-B/thistle/pkg/repositories"
	"github.com/Ramsey-B/thistle/pkg/utils"
)

// ReviewHandler serves review queries and moderation
type ReviewHandler struct {
	repo       repositories.Repository
	metrics    *aggregator.Service
	moderation *moderation.Service
	logger     ectologger.Logger
}

func NewReviewHandler(
	repo repositories.Repository,
	metrics *aggregator.Service,
	moderation *moderation.Service,
	logger ectologger.Logger,
) *ReviewHandler {
	return &ReviewHandler{
		repo:       repo,
		metrics:    metrics,
		moderation: moderation,
		logger:     logger,
	}
}

type ApproveRequest struct {
	ApprovedBy string `json:"approvedBy" validate:"max=128"`
}

type RejectRequest struct {
	RejectedBy string `json:"rejectedBy" validate:"max=128"`
}

// Register registers review routes. Static paths win over /:id in echo's router.
func (h *ReviewHandler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/unlinked", h.Unlinked)
	g.GET("/:id", h.GetByID)
	g.POST("/:id/approve", h.Approve)
	g.POST("/:id/reject", h.Reject)
}

// List returns the reviews matching the query filters, newest first
func (h *ReviewHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ReviewHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var query filter.Query
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &query); err != nil {
		metrics.RecordReviewQuery("invalid")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid filter parameters")
	}

	criteria, err := filter.Parse(query)
	if err != nil {
		metrics.RecordReviewQuery("invalid")
		return err
	}

	reviews, err := h.repo.GetReviews(ctx, criteria)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list reviews")
		return err
	}

	metrics.RecordReviewQuery("ok")
	return SuccessResponse(c, reviews)
}

// Unlinked lists reviews that match no property, or more than one
func (h *ReviewHandler) Unlinked(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ReviewHandler.Unlinked")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	diagnostics, err := h.metrics.Unlinked(ctx)
	if err != nil {
		return err
	}
	return SuccessResponse(c, diagnostics)
}

func (h *ReviewHandler) GetByID(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ReviewHandler.GetByID")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	review, err := h.repo.GetReviewByID(ctx, id)
	if err != nil {
		return err
	}
	return SuccessResponse(c, review)
}

func (h *ReviewHandler) Approve(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ReviewHandler.Approve")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[ApproveRequest](c)
	if err != nil {
		return err
	}

	review, err := h.moderation.Approve(ctx, id, actor(c, req.ApprovedBy))
	if err != nil {
		return err
	}
	return SuccessResponse(c, review)
}

func (h *ReviewHandler) Reject(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "ReviewHandler.Reject")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := RequireParam(c, "id")
	if err != nil {
		return err
	}

	req, err := utils.BindRequest[RejectRequest](c)
	if err != nil {
		return err
	}

	review, err := h.moderation.Reject(ctx, id, actor(c, req.RejectedBy))
	if err != nil {
		return err
	}
	return SuccessResponse(c, review)
}

// actor prefers the body, then the X-Actor header. Empty is defaulted by moderation.
func actor(c echo.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return appctx.GetActor(c.Request().Context())
}
