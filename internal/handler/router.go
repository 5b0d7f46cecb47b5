package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes.
type Handlers struct {
	Timetable         *TimetableHandler
	Infrastructure    *InfrastructureHandler
	TeacherPreference *TeacherPreferenceHandler
	Metrics           *MetricsHandler
}

// RegisterRoutes mounts the API under group. generationGuards run in front of the endpoints
// that start a generation pass.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, generationGuards ...gin.HandlerFunc) {
	if h.Infrastructure != nil {
		infra := group.Group("/infrastructure")
		infra.GET("", h.Infrastructure.Get)
		infra.PUT("", h.Infrastructure.Save)
		infra.GET("/time-slots", h.Infrastructure.TimeSlots)
		infra.GET("/teaching-load", h.Infrastructure.TeachingLoad)
	}

	if h.TeacherPreference != nil {
		teachers := group.Group("/teachers")
		teachers.GET("/preferences", h.TeacherPreference.List)
		teachers.GET("/:name/preferences", h.TeacherPreference.Get)
		teachers.PUT("/:name/preferences", h.TeacherPreference.Upsert)
	}

	if h.Timetable != nil {
		timetables := group.Group("/timetables")
		generate := append(append([]gin.HandlerFunc{}, generationGuards...), h.Timetable.Generate)
		enqueue := append(append([]gin.HandlerFunc{}, generationGuards...), h.Timetable.Enqueue)
		timetables.POST("/generate", generate...)
		timetables.POST("/jobs", enqueue...)
		timetables.GET("/runs", h.Timetable.ListRuns)
		timetables.GET("/runs/:id", h.Timetable.GetRun)
		timetables.GET("/runs/:id/satisfaction", h.Timetable.Satisfaction)
	}

	if h.Metrics != nil {
		group.GET("/metrics/summary", h.Metrics.Summary)
	}
}
