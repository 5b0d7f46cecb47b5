package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/engine"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type teacherPreferenceService interface {
	List(ctx context.Context) ([]engine.TeacherPreference, error)
	Get(ctx context.Context, name string) (*engine.TeacherPreference, error)
	Upsert(ctx context.Context, name string, req dto.TeacherPreferenceRequest) (*engine.TeacherPreference, error)
}

// TeacherPreferenceHandler manages teacher scheduling preferences.
type TeacherPreferenceHandler struct {
	service teacherPreferenceService
}

// NewTeacherPreferenceHandler constructs the handler.
func NewTeacherPreferenceHandler(svc teacherPreferenceService) *TeacherPreferenceHandler {
	return &TeacherPreferenceHandler{service: svc}
}

// List godoc
// @Summary List stored teacher preferences
// @Tags Preferences
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers/preferences [get]
func (h *TeacherPreferenceHandler) List(c *gin.Context) {
	prefs, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prefs, nil)
}

// Get godoc
// @Summary Get a teacher's preferences
// @Description Teachers without stored preferences get the defaults.
// @Tags Preferences
// @Produce json
// @Param name path string true "Teacher name"
// @Success 200 {object} response.Envelope
// @Router /teachers/{name}/preferences [get]
func (h *TeacherPreferenceHandler) Get(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "teacher name is required"))
		return
	}
	pref, err := h.service.Get(c.Request.Context(), name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pref, nil)
}

// Upsert godoc
// @Summary Update a teacher's preferences
// @Description Omitted fields keep their stored value.
// @Tags Preferences
// @Accept json
// @Produce json
// @Param name path string true "Teacher name"
// @Param payload body dto.TeacherPreferenceRequest true "Preference update"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teachers/{name}/preferences [put]
func (h *TeacherPreferenceHandler) Upsert(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "teacher name is required"))
		return
	}
	var req dto.TeacherPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preference payload"))
		return
	}
	pref, err := h.service.Upsert(c.Request.Context(), name, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pref, nil)
}
