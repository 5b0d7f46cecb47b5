package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Default college hours used when a setting is left empty.
const (
	DefaultCollegeStartTime = "09:00"
	DefaultCollegeEndTime   = "16:00"
	DefaultRecessStartTime  = "12:00"
	DefaultRecessDuration   = 60
	DefaultLectureDuration  = 60
)

// TimeSettings describes the working day of the college. Clock values are "HH:MM" strings.
type TimeSettings struct {
	CollegeStartTime string `json:"collegeStartTime" yaml:"collegeStartTime"`
	CollegeEndTime   string `json:"collegeEndTime" yaml:"collegeEndTime"`
	RecessStartTime  string `json:"recessStartTime" yaml:"recessStartTime"`
	RecessDuration   int    `json:"recessDuration" yaml:"recessDuration"`
	LectureDuration  int    `json:"lectureDuration" yaml:"lectureDuration"`
}

// WithDefaults fills empty fields with the default college hours. The recess is defaulted
// only when no recess start is given; a recess start with a zero duration means no recess.
func (t TimeSettings) WithDefaults() TimeSettings {
	if strings.TrimSpace(t.CollegeStartTime) == "" {
		t.CollegeStartTime = DefaultCollegeStartTime
	}
	if strings.TrimSpace(t.CollegeEndTime) == "" {
		t.CollegeEndTime = DefaultCollegeEndTime
	}
	if strings.TrimSpace(t.RecessStartTime) == "" {
		t.RecessStartTime = DefaultRecessStartTime
		if t.RecessDuration <= 0 {
			t.RecessDuration = DefaultRecessDuration
		}
	}
	if t.RecessDuration < 0 {
		t.RecessDuration = 0
	}
	if t.LectureDuration <= 0 {
		t.LectureDuration = DefaultLectureDuration
	}
	return t
}

// TimeSlot is one lecture-sized interval of the day, identified by its start time.
type TimeSlot struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	IsRecess bool   `json:"isRecess"`
}

// GenerateTimeSlots lays out the day in lecture-duration steps. Slots starting inside the
// recess window are flagged but kept so renderers can show the break.
func GenerateTimeSlots(settings TimeSettings) ([]TimeSlot, error) {
	if settings.LectureDuration <= 0 {
		return nil, newConfigError("lecture duration must be positive, got %d", settings.LectureDuration)
	}
	start, err := ParseClock(settings.CollegeStartTime)
	if err != nil {
		return nil, newConfigError("invalid college start time: %v", err)
	}
	end, err := ParseClock(settings.CollegeEndTime)
	if err != nil {
		return nil, newConfigError("invalid college end time: %v", err)
	}
	recessStart, err := ParseClock(settings.RecessStartTime)
	if err != nil {
		return nil, newConfigError("invalid recess start time: %v", err)
	}
	if end <= start {
		return nil, newConfigError("college end time %s must be after start time %s", settings.CollegeEndTime, settings.CollegeStartTime)
	}
	recessEnd := recessStart + settings.RecessDuration

	var slots []TimeSlot
	for current := start; current < end; current += settings.LectureDuration {
		next := current + settings.LectureDuration
		if next > end {
			break
		}
		slots = append(slots, TimeSlot{
			Start:    FormatClock(current),
			End:      FormatClock(next),
			IsRecess: current >= recessStart && current < recessEnd,
		})
	}
	return slots, nil
}

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.SplitN(raw, ":", 2)
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", raw, err)
	}
	minute := 0
	if len(parts) == 2 && parts[1] != "" {
		minute, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, fmt.Errorf("parse clock %q: %w", raw, err)
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock %q out of range", raw)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes after midnight as zero-padded "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// shiftClock moves a clock string by delta minutes. ok is false when the input does not parse
// or the result leaves the day.
func shiftClock(start string, delta int) (string, bool) {
	mins, err := ParseClock(start)
	if err != nil {
		return "", false
	}
	mins += delta
	if mins < 0 || mins >= 24*60 {
		return "", false
	}
	return FormatClock(mins), true
}
