package engine

import (
	"fmt"
	"sort"
)

// Session is one placed class. Lab sessions occupy two consecutive slots and are emitted once
// per slot.
type Session struct {
	Day           Day    `json:"day"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Subject       string `json:"subject"`
	Teacher       string `json:"teacher"`
	Room          string `json:"room"`
	IsLab         bool   `json:"isLab"`
	Batch         string `json:"batch,omitempty"`
	IsElective    bool   `json:"isElective,omitempty"`
	ParentSubject string `json:"parentSubject,omitempty"`
}

// CourseSchedule is the list of sessions of one course.
type CourseSchedule struct {
	Classes []Session `json:"classes"`
}

// ByDay groups the classes per day, sorted by start time, for renderers.
func (c *CourseSchedule) ByDay() map[Day][]Session {
	out := make(map[Day][]Session)
	if c == nil {
		return out
	}
	for _, s := range c.Classes {
		out[s.Day] = append(out[s.Day], s)
	}
	for day := range out {
		list := out[day]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Start < list[j].Start })
	}
	return out
}

// WarningKind classifies a non-fatal placement shortfall.
type WarningKind string

const (
	WarningLabRoundUnplaced WarningKind = "LAB_ROUND_UNPLACED"
	WarningLectureShortfall WarningKind = "LECTURE_SHORTFALL"
)

// Warning records a placement shortfall. Partial results are kept.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	CourseID string      `json:"courseId"`
	Subject  string      `json:"subject,omitempty"`
	Round    int         `json:"round,omitempty"`
	Placed   int         `json:"placed"`
	Required int         `json:"required"`
	Message  string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// Result is the artifact handed to rendering and storage collaborators.
type Result struct {
	Schedules map[string]*CourseSchedule `json:"schedules"`
	Warnings  []Warning                  `json:"warnings"`
	TimeSlots []TimeSlot                 `json:"timeSlots"`
	Days      []Day                      `json:"days"`
	Seed      int64                      `json:"seed"`
}

func newResult(courses []Course, reg *Registry, seed int64) *Result {
	r := &Result{
		Schedules: make(map[string]*CourseSchedule, len(courses)),
		Warnings:  []Warning{},
		TimeSlots: reg.Slots,
		Days:      reg.Days,
		Seed:      seed,
	}
	for _, c := range courses {
		r.Schedules[c.ID] = &CourseSchedule{Classes: []Session{}}
	}
	return r
}

func (r *Result) emit(courseID string, s Session) {
	sched, ok := r.Schedules[courseID]
	if !ok {
		sched = &CourseSchedule{}
		r.Schedules[courseID] = sched
	}
	sched.Classes = append(sched.Classes, s)
}

// Sessions flattens all course schedules in course id order.
func (r *Result) Sessions() []Session {
	ids := make([]string, 0, len(r.Schedules))
	for id := range r.Schedules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []Session
	for _, id := range ids {
		out = append(out, r.Schedules[id].Classes...)
	}
	return out
}
