package dto

import (
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/engine"
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TimeSettingsRequest describes the college day. Empty values fall back to the defaults.
type TimeSettingsRequest struct {
	CollegeStartTime string `json:"collegeStartTime" validate:"omitempty,clock"`
	CollegeEndTime   string `json:"collegeEndTime" validate:"omitempty,clock"`
	RecessStartTime  string `json:"recessStartTime" validate:"omitempty,clock"`
	RecessDuration   int    `json:"recessDuration" validate:"omitempty,min=0,max=240"`
	LectureDuration  int    `json:"lectureDuration" validate:"omitempty,min=15,max=240"`
}

// InfrastructureRequest replaces the college infrastructure document.
type InfrastructureRequest struct {
	Teachers        []string            `json:"allTeachers" validate:"required,min=1,dive,required"`
	Rooms           []string            `json:"allRooms" validate:"required,min=1,dive,required"`
	Specializations []string            `json:"specializations" validate:"omitempty,dive,required"`
	TimeSettings    TimeSettingsRequest `json:"timeSettings"`
	Courses         []engine.Course     `json:"courses" validate:"required,min=1,dive"`
	WorkingDays     []engine.Day        `json:"workingDays" validate:"omitempty,max=6,dive,weekday"`
}

// Document converts the payload into the stored document.
func (r InfrastructureRequest) Document() models.InfrastructureDocument {
	return models.InfrastructureDocument{
		Teachers:        r.Teachers,
		Rooms:           r.Rooms,
		Specializations: r.Specializations,
		TimeSettings: engine.TimeSettings{
			CollegeStartTime: r.TimeSettings.CollegeStartTime,
			CollegeEndTime:   r.TimeSettings.CollegeEndTime,
			RecessStartTime:  r.TimeSettings.RecessStartTime,
			RecessDuration:   r.TimeSettings.RecessDuration,
			LectureDuration:  r.TimeSettings.LectureDuration,
		},
		Courses:     r.Courses,
		WorkingDays: r.WorkingDays,
	}
}

// TeacherPreferenceRequest carries a partial preference update; omitted fields keep their value.
type TeacherPreferenceRequest struct {
	PreferredSlots        []string       `json:"preferredSlots" validate:"omitempty,dive,slotkey"`
	BlockedSlots          []string       `json:"blockedSlots" validate:"omitempty,dive,slotkey"`
	PreferredDays         []engine.Day   `json:"preferredDays" validate:"omitempty,dive,weekday"`
	MaxConsecutiveClasses *int           `json:"maxConsecutiveClasses" validate:"omitempty,min=1,max=12"`
	MaxDailyClasses       *int           `json:"maxDailyClasses" validate:"omitempty,min=1,max=12"`
	MaxWeeklyHours        *int           `json:"maxWeeklyHours" validate:"omitempty,min=1,max=60"`
	SubjectPreferences    map[string]int `json:"subjectPreferences" validate:"omitempty,dive,keys,required,endkeys,min=0,max=10"`
	Enabled               *bool          `json:"enabled"`
}

// Update converts the request into an engine update.
func (r TeacherPreferenceRequest) Update() engine.PreferenceUpdate {
	return engine.PreferenceUpdate{
		PreferredSlots:        r.PreferredSlots,
		BlockedSlots:          r.BlockedSlots,
		PreferredDays:         r.PreferredDays,
		MaxConsecutiveClasses: r.MaxConsecutiveClasses,
		MaxDailyClasses:       r.MaxDailyClasses,
		MaxWeeklyHours:        r.MaxWeeklyHours,
		SubjectPreferences:    r.SubjectPreferences,
		Enabled:               r.Enabled,
	}
}

// GenerateTimetableRequest triggers a generation pass. Without an inline infrastructure the
// stored document is used; without a seed a random one is drawn.
type GenerateTimetableRequest struct {
	Infrastructure *InfrastructureRequest `json:"infrastructure"`
	Seed           *int64                 `json:"seed"`
	WorkingDays    int                    `json:"workingDays" validate:"omitempty,oneof=5 6"`
}

// GenerateTimetableResponse is the outcome of a synchronous pass.
type GenerateTimetableResponse struct {
	RunID     string                            `json:"runId"`
	Status    models.RunStatus                  `json:"status"`
	Seed      int64                             `json:"seed"`
	Cached    bool                              `json:"cached"`
	Schedules map[string]*engine.CourseSchedule `json:"schedules"`
	Warnings  []engine.Warning                  `json:"warnings"`
	TimeSlots []engine.TimeSlot                 `json:"timeSlots"`
	Days      []engine.Day                      `json:"days"`
}

// EnqueueTimetableResponse points at the queued run.
type EnqueueTimetableResponse struct {
	RunID  string           `json:"runId"`
	Status models.RunStatus `json:"status"`
	Seed   int64            `json:"seed"`
}

// RunListQuery pages through generation runs.
type RunListQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=PENDING RUNNING COMPLETED FAILED"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// RunDetail is a stored run with its decoded result.
type RunDetail struct {
	models.GenerationRun
	Result *engine.Result `json:"result,omitempty"`
}

// SatisfactionResponse grades a completed run against the preferences it was generated with.
type SatisfactionResponse struct {
	RunID    string                         `json:"runId"`
	Teachers map[string]engine.Satisfaction `json:"teachers"`
}

// TimeSlotsResponse lists the grid derived from the stored time settings.
type TimeSlotsResponse struct {
	TimeSettings engine.TimeSettings `json:"timeSettings"`
	TimeSlots    []engine.TimeSlot   `json:"timeSlots"`
	Days         []engine.Day        `json:"days"`
}

// HealthResponse is returned by the readiness check.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
