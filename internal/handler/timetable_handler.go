package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableService interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	Enqueue(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.EnqueueTimetableResponse, error)
	GetRun(ctx context.Context, id string) (*dto.RunDetail, error)
	ListRuns(ctx context.Context, query dto.RunListQuery) ([]models.GenerationRun, *models.Pagination, error)
	Satisfaction(ctx context.Context, id string) (*dto.SatisfactionResponse, error)
}

// TimetableHandler exposes generation endpoints.
type TimetableHandler struct {
	service   timetableService
	runsRoute string
}

// NewTimetableHandler constructs the handler. runsRoute is the public path of the run listing,
// used to build Location headers.
func NewTimetableHandler(svc timetableService, runsRoute string) *TimetableHandler {
	return &TimetableHandler{service: svc, runsRoute: strings.TrimRight(runsRoute, "/")}
}

// Generate godoc
// @Summary Generate timetables
// @Description Runs one generation pass for every course. Seeded requests with an unchanged input are served from cache.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	req, ok := bindGenerateRequest(c)
	if !ok {
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	internalmiddleware.SetCacheHit(c, result.Cached)
	internalmiddleware.SetRunID(c, result.RunID)
	response.JSON(c, http.StatusOK, result, nil, internalmiddleware.ExtractMeta(c))
}

// Enqueue godoc
// @Summary Queue a timetable generation
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /timetables/jobs [post]
func (h *TimetableHandler) Enqueue(c *gin.Context) {
	req, ok := bindGenerateRequest(c)
	if !ok {
		return
	}
	queued, err := h.service.Enqueue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, h.runsRoute+"/"+queued.RunID, queued)
}

// ListRuns godoc
// @Summary List generation runs
// @Tags Timetables
// @Produce json
// @Param status query string false "PENDING, RUNNING, COMPLETED or FAILED"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetables/runs [get]
func (h *TimetableHandler) ListRuns(c *gin.Context) {
	var query dto.RunListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	query.Status = strings.ToUpper(query.Status)
	runs, pagination, err := h.service.ListRuns(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, pagination)
}

// GetRun godoc
// @Summary Get a generation run with its result
// @Tags Timetables
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/runs/{id} [get]
func (h *TimetableHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// Satisfaction godoc
// @Summary Grade a run against teacher preferences
// @Tags Timetables
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/runs/{id}/satisfaction [get]
func (h *TimetableHandler) Satisfaction(c *gin.Context) {
	report, err := h.service.Satisfaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// bindGenerateRequest accepts an empty body as "use the stored infrastructure".
func bindGenerateRequest(c *gin.Context) (dto.GenerateTimetableRequest, bool) {
	var req dto.GenerateTimetableRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return req, false
	}
	return req, true
}
