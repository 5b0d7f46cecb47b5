package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/engine"
)

// TeacherPreference stores the scheduling preferences of one teacher, keyed by name.
type TeacherPreference struct {
	TeacherName           string         `db:"teacher_name" json:"teacher_name"`
	PreferredSlots        types.JSONText `db:"preferred_slots" json:"preferred_slots"`
	BlockedSlots          types.JSONText `db:"blocked_slots" json:"blocked_slots"`
	PreferredDays         types.JSONText `db:"preferred_days" json:"preferred_days"`
	MaxConsecutiveClasses int            `db:"max_consecutive_classes" json:"max_consecutive_classes"`
	MaxDailyClasses       int            `db:"max_daily_classes" json:"max_daily_classes"`
	MaxWeeklyHours        int            `db:"max_weekly_hours" json:"max_weekly_hours"`
	SubjectPreferences    types.JSONText `db:"subject_preferences" json:"subject_preferences"`
	Enabled               bool           `db:"enabled" json:"enabled"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at" json:"updated_at"`
}

// ToEngine decodes the JSON columns. Malformed columns decode as empty.
func (p TeacherPreference) ToEngine() engine.TeacherPreference {
	out := engine.TeacherPreference{
		Name:                  p.TeacherName,
		MaxConsecutiveClasses: p.MaxConsecutiveClasses,
		MaxDailyClasses:       p.MaxDailyClasses,
		MaxWeeklyHours:        p.MaxWeeklyHours,
		Enabled:               p.Enabled,
	}
	_ = p.PreferredSlots.Unmarshal(&out.PreferredSlots)
	_ = p.BlockedSlots.Unmarshal(&out.BlockedSlots)
	_ = p.PreferredDays.Unmarshal(&out.PreferredDays)
	_ = p.SubjectPreferences.Unmarshal(&out.SubjectPreferences)
	return out
}

// TeacherPreferenceFromEngine encodes an engine preference for persistence.
func TeacherPreferenceFromEngine(pref engine.TeacherPreference) (*TeacherPreference, error) {
	slots, err := json.Marshal(nonNil(pref.PreferredSlots))
	if err != nil {
		return nil, err
	}
	blocked, err := json.Marshal(nonNil(pref.BlockedSlots))
	if err != nil {
		return nil, err
	}
	days := pref.PreferredDays
	if days == nil {
		days = []engine.Day{}
	}
	dayJSON, err := json.Marshal(days)
	if err != nil {
		return nil, err
	}
	subjects := pref.SubjectPreferences
	if subjects == nil {
		subjects = map[string]int{}
	}
	subjectJSON, err := json.Marshal(subjects)
	if err != nil {
		return nil, err
	}
	return &TeacherPreference{
		TeacherName:           pref.Name,
		PreferredSlots:        types.JSONText(slots),
		BlockedSlots:          types.JSONText(blocked),
		PreferredDays:         types.JSONText(dayJSON),
		MaxConsecutiveClasses: pref.MaxConsecutiveClasses,
		MaxDailyClasses:       pref.MaxDailyClasses,
		MaxWeeklyHours:        pref.MaxWeeklyHours,
		SubjectPreferences:    types.JSONText(subjectJSON),
		Enabled:               pref.Enabled,
	}, nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
