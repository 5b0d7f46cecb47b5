package engine

import "strings"

// Day names a working day.
type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
)

// WeekdaysFive is the default Monday-Friday week.
var WeekdaysFive = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

// WeekdaysSix extends the week with Saturday.
var WeekdaysSix = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WorkingDays returns the day set for a five or six day week.
func WorkingDays(count int) []Day {
	src := WeekdaysFive
	if count >= 6 {
		src = WeekdaysSix
	}
	out := make([]Day, len(src))
	copy(out, src)
	return out
}

// IsWorkingDay reports whether day is Monday through Saturday.
func IsWorkingDay(day Day) bool {
	for _, d := range WeekdaysSix {
		if d == day {
			return true
		}
	}
	return false
}

// RoomKind is derived from the marker embedded in a room name.
type RoomKind int

const (
	RoomUnknown RoomKind = iota
	RoomClassroom
	RoomLab
)

const (
	classroomMarker = "(c)"
	labMarker       = "(l)"
)

func (k RoomKind) String() string {
	switch k {
	case RoomClassroom:
		return "classroom"
	case RoomLab:
		return "lab"
	default:
		return "unknown"
	}
}

// KindOf classifies a room by its "(C)" or "(L)" suffix, case-insensitively.
func KindOf(room string) RoomKind {
	lower := strings.ToLower(room)
	switch {
	case strings.Contains(lower, labMarker):
		return RoomLab
	case strings.Contains(lower, classroomMarker):
		return RoomClassroom
	default:
		return RoomUnknown
	}
}

// Registry holds the enumerable resources of one generation pass.
type Registry struct {
	Teachers []string
	Rooms    []string
	Days     []Day
	Slots    []TimeSlot

	slotIndex  map[string]int
	teacherSet map[string]struct{}
	classrooms []string
	labs       []string
}

// NewRegistry builds a registry, generating time slots from the settings.
func NewRegistry(teachers, rooms []string, days []Day, settings TimeSettings) (*Registry, error) {
	slots, err := GenerateTimeSlots(settings)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		days = WorkingDays(5)
	}
	r := &Registry{
		Teachers:   append([]string(nil), teachers...),
		Rooms:      append([]string(nil), rooms...),
		Days:       append([]Day(nil), days...),
		Slots:      slots,
		slotIndex:  make(map[string]int, len(slots)),
		teacherSet: make(map[string]struct{}, len(teachers)),
	}
	for i, slot := range slots {
		r.slotIndex[slot.Start] = i
	}
	for _, t := range teachers {
		r.teacherSet[t] = struct{}{}
	}
	for _, room := range rooms {
		switch KindOf(room) {
		case RoomClassroom:
			r.classrooms = append(r.classrooms, room)
		case RoomLab:
			r.labs = append(r.labs, room)
		}
	}
	return r, nil
}

// Classrooms returns the classroom-tagged rooms in declaration order.
func (r *Registry) Classrooms() []string { return r.classrooms }

// LabRooms returns the lab-tagged rooms in declaration order.
func (r *Registry) LabRooms() []string { return r.labs }

// SlotIndex reports the position of the slot starting at start.
func (r *Registry) SlotIndex(start string) (int, bool) {
	idx, ok := r.slotIndex[start]
	return idx, ok
}

// HasTeacher reports whether the teacher is part of the declared roster.
func (r *Registry) HasTeacher(name string) bool {
	_, ok := r.teacherSet[name]
	return ok
}

// PlaceableSlots returns the non-recess slots.
func (r *Registry) PlaceableSlots() []TimeSlot {
	out := make([]TimeSlot, 0, len(r.Slots))
	for _, slot := range r.Slots {
		if !slot.IsRecess {
			out = append(out, slot)
		}
	}
	return out
}
