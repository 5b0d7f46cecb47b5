package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/engine"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type infrastructureService interface {
	Get(ctx context.Context) (*models.Infrastructure, error)
	Save(ctx context.Context, req dto.InfrastructureRequest) (*models.Infrastructure, error)
	TimeSlots(ctx context.Context) (*dto.TimeSlotsResponse, error)
	TeachingLoad(ctx context.Context) (*engine.LoadReport, error)
}

// InfrastructureHandler serves the college infrastructure document.
type InfrastructureHandler struct {
	service infrastructureService
}

// NewInfrastructureHandler constructs the handler.
func NewInfrastructureHandler(svc infrastructureService) *InfrastructureHandler {
	return &InfrastructureHandler{service: svc}
}

// Get godoc
// @Summary Get the college infrastructure
// @Tags Infrastructure
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /infrastructure [get]
func (h *InfrastructureHandler) Get(c *gin.Context) {
	infra, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, infra, nil)
}

// Save godoc
// @Summary Replace the college infrastructure
// @Tags Infrastructure
// @Accept json
// @Produce json
// @Param payload body dto.InfrastructureRequest true "Infrastructure"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /infrastructure [put]
func (h *InfrastructureHandler) Save(c *gin.Context) {
	var req dto.InfrastructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid infrastructure payload"))
		return
	}
	infra, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, infra, nil)
}

// TimeSlots godoc
// @Summary List the daily time slots
// @Tags Infrastructure
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /infrastructure/time-slots [get]
func (h *InfrastructureHandler) TimeSlots(c *gin.Context) {
	slots, err := h.service.TimeSlots(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// TeachingLoad godoc
// @Summary Weekly teaching load per teacher
// @Tags Infrastructure
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /infrastructure/teaching-load [get]
func (h *InfrastructureHandler) TeachingLoad(c *gin.Context) {
	report, err := h.service.TeachingLoad(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
