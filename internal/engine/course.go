package engine

import (
	"fmt"
	"strings"
)

// Subject is one course subject as configured by the college.
type Subject struct {
	Name                string `json:"name" yaml:"name" validate:"required"`
	Teacher             string `json:"teacher" yaml:"teacher" validate:"required"`
	LecturesPerWeek     int    `json:"lecturesPerWeek" yaml:"lecturesPerWeek" validate:"min=0"`
	RequiresLab         bool   `json:"requiresLab" yaml:"requiresLab"`
	LabsPerWeek         int    `json:"labsPerWeek" yaml:"labsPerWeek" validate:"min=0"`
	LabRoomNo           string `json:"labRoomNo,omitempty" yaml:"labRoomNo"`
	IsElective          bool   `json:"isElective,omitempty" yaml:"isElective"`
	ElectiveSubjectName string `json:"electiveSubjectName,omitempty" yaml:"electiveSubjectName"`
	ElectiveTeacher     string `json:"electiveTeacher,omitempty" yaml:"electiveTeacher"`
	Specialization      string `json:"specialization,omitempty" yaml:"specialization"`
}

// HasElectivePairing reports whether a co-scheduled elective lecture must accompany this subject.
func (s Subject) HasElectivePairing() bool {
	return s.IsElective && strings.TrimSpace(s.ElectiveTeacher) != "" && strings.TrimSpace(s.ElectiveSubjectName) != ""
}

// Course owns its subjects and batches.
type Course struct {
	ID       string    `json:"id" yaml:"id" validate:"required"`
	Branch   string    `json:"branch" yaml:"branch" validate:"required"`
	Semester string    `json:"semester" yaml:"semester"`
	Subjects []Subject `json:"subjects" yaml:"subjects" validate:"dive"`
	Batches  []string  `json:"batches" yaml:"batches"`
}

// Label is the human readable course name used in messages.
func (c Course) Label() string {
	if c.Semester == "" {
		return c.Branch
	}
	return fmt.Sprintf("%s (Sem %s)", c.Branch, c.Semester)
}

// LabSubjects returns the subjects that need lab sessions, in declaration order.
func (c Course) LabSubjects() []Subject {
	var out []Subject
	for _, s := range c.Subjects {
		if s.RequiresLab {
			out = append(out, s)
		}
	}
	return out
}

// LectureSubjects returns the subjects with at least one theory lecture per week.
func (c Course) LectureSubjects() []Subject {
	var out []Subject
	for _, s := range c.Subjects {
		if s.LecturesPerWeek > 0 {
			out = append(out, s)
		}
	}
	return out
}

// ConfigError is a fatal input problem: the generation call produces no schedule.
type ConfigError struct {
	CourseID string
	Subject  string
	Message  string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func newConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// ValidateCourses checks the structural rules that must hold before generation. Every lab
// subject needs exactly one lab round per batch.
func ValidateCourses(courses []Course) error {
	if len(courses) == 0 {
		return newConfigError("at least one course must be defined before generating")
	}
	seen := make(map[string]struct{}, len(courses))
	for _, course := range courses {
		if strings.TrimSpace(course.ID) == "" {
			return newConfigError("course %s has no id", course.Label())
		}
		if _, dup := seen[course.ID]; dup {
			return &ConfigError{CourseID: course.ID, Message: fmt.Sprintf("duplicate course id %q", course.ID)}
		}
		seen[course.ID] = struct{}{}

		batchCount := len(course.Batches)
		for _, subj := range course.LabSubjects() {
			if subj.LabsPerWeek != batchCount {
				return &ConfigError{
					CourseID: course.ID,
					Subject:  subj.Name,
					Message: fmt.Sprintf(
						"mismatch in %q -> %q: batches %d, labsPerWeek %d; each lab subject needs labsPerWeek equal to the number of batches",
						course.Label(), subj.Name, batchCount, subj.LabsPerWeek,
					),
				}
			}
		}
	}
	return nil
}
