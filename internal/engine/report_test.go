package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeachingLoad(t *testing.T) {
	store := NewPreferenceStore(TeacherPreference{Name: "Alice", MaxWeeklyHours: 6, Enabled: true})
	courses := []Course{
		{ID: "c1", Batches: []string{"A", "B"}, Subjects: []Subject{
			{Name: "Networks", Teacher: "Alice", LecturesPerWeek: 3, RequiresLab: true, LabsPerWeek: 2},
			{Name: "Compilers", Teacher: "Bob", LecturesPerWeek: 2, IsElective: true, ElectiveTeacher: "Carol", ElectiveSubjectName: "Graphics"},
		}},
		{ID: "c2", Subjects: []Subject{{Name: "Maths", LecturesPerWeek: 1}}},
	}

	report := TeachingLoad(courses, store)
	require.Len(t, report.Teachers, 4)
	assert.Equal(t, "Alice", report.Teachers[0].Teacher)
	assert.Equal(t, 7, report.Teachers[0].HoursPerWeek)
	assert.True(t, report.Teachers[0].Overloaded)
	assert.Equal(t, 6, report.Teachers[0].MaxWeeklyHours)
	assert.Equal(t, "Bob", report.Teachers[1].Teacher)
	assert.Equal(t, "Carol", report.Teachers[2].Teacher)
	assert.False(t, report.Teachers[1].Overloaded)
	assert.Equal(t, "Undefined Teacher", report.Teachers[3].Teacher)
	assert.Equal(t, 12, report.TotalHours)
}

func TestSatisfactionReport(t *testing.T) {
	store := NewPreferenceStore(
		TeacherPreference{Name: "Alice", PreferredSlots: []string{"Monday 09:00"}, PreferredDays: []Day{Monday}, Enabled: true},
		TeacherPreference{Name: "Bob", Enabled: false},
		TeacherPreference{Name: "Carol", Enabled: true},
	)
	sessions := []Session{
		{Teacher: "Alice", Day: Monday, Start: "09:00"},
		{Teacher: "Alice", Day: Tuesday, Start: "10:00"},
		{Teacher: "Bob", Day: Monday, Start: "09:00"},
	}

	report := SatisfactionReport(store, sessions)
	require.Contains(t, report, "Alice")
	assert.NotContains(t, report, "Bob")

	alice := report["Alice"]
	assert.Equal(t, 2, alice.TotalClasses)
	assert.Equal(t, 1, alice.PreferredSlotsUsed)
	assert.Equal(t, 1, alice.PreferredDaysUsed)
	assert.Equal(t, 50, alice.SatisfactionScore)
	assert.Equal(t, "Fair", alice.Grade)

	carol := report["Carol"]
	assert.Equal(t, 0, carol.TotalClasses)
	assert.Equal(t, "Poor", carol.Grade)
}

func TestGradeBoundaries(t *testing.T) {
	assert.Equal(t, "Excellent", gradeFor(80))
	assert.Equal(t, "Good", gradeFor(60))
	assert.Equal(t, "Fair", gradeFor(40))
	assert.Equal(t, "Poor", gradeFor(39))
}
