package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestEngine(prefs ...TeacherPreference) *Engine {
	return New(NewPreferenceStore(prefs...), zap.NewNop(), DefaultOptions())
}

func lectureOnlyInput(subjects ...Subject) Input {
	return Input{
		Teachers: []string{"Alice", "Bob", "Carol"},
		Rooms:    []string{"101 (C)", "102 (C)", "Lab1 (L)"},
		Courses:  []Course{{ID: "cse-3", Branch: "CSE", Semester: "3", Subjects: subjects}},
	}
}

func TestGenerateLecturesOnDistinctDays(t *testing.T) {
	eng := newTestEngine()
	res, err := eng.Generate(lectureOnlyInput(Subject{Name: "Maths", Teacher: "Alice", LecturesPerWeek: 3}), NewSeededSource(1))
	require.NoError(t, err)
	require.Empty(t, res.Warnings)

	classes := res.Schedules["cse-3"].Classes
	require.Len(t, classes, 3)
	days := make(map[Day]struct{})
	for _, cls := range classes {
		days[cls.Day] = struct{}{}
		assert.NotEqual(t, "12:00", cls.Start)
		assert.Equal(t, "Alice", cls.Teacher)
		assert.Equal(t, RoomClassroom, KindOf(cls.Room))
		assert.False(t, cls.IsLab)
	}
	assert.Len(t, days, 3)
	assert.Len(t, res.TimeSlots, 7)
	assert.Equal(t, int64(1), res.Seed)
}

func TestGenerateLabRoundsAcrossBatches(t *testing.T) {
	eng := newTestEngine()
	in := Input{
		Teachers: []string{"Alice", "Bob"},
		Rooms:    []string{"101 (C)", "Lab1 (L)", "Lab2 (L)"},
		Courses: []Course{{
			ID: "cse-3", Branch: "CSE",
			Batches: []string{"A", "B"},
			Subjects: []Subject{
				{Name: "Networks", Teacher: "Alice", RequiresLab: true, LabsPerWeek: 2},
				{Name: "Databases", Teacher: "Bob", RequiresLab: true, LabsPerWeek: 2, LabRoomNo: "Lab2 (L)"},
			},
		}},
	}

	res, err := eng.Generate(in, NewSeededSource(7))
	require.NoError(t, err)
	require.Empty(t, res.Warnings)

	perBatch := make(map[string]int)
	subjectsPerBatch := make(map[string]map[string]bool)
	for _, cls := range res.Schedules["cse-3"].Classes {
		require.True(t, cls.IsLab)
		assert.Equal(t, RoomLab, KindOf(cls.Room))
		perBatch[cls.Batch]++
		if subjectsPerBatch[cls.Batch] == nil {
			subjectsPerBatch[cls.Batch] = make(map[string]bool)
		}
		subjectsPerBatch[cls.Batch][cls.Subject] = true
		if cls.Subject == "Databases" {
			assert.Equal(t, "Lab2 (L)", cls.Room)
		}
	}
	assert.Equal(t, map[string]int{"A": 4, "B": 4}, perBatch)
	assert.Len(t, subjectsPerBatch["A"], 2, "rotation gives each batch every lab subject")
	assertNoDoubleBooking(t, res)
}

func twoBatchLabInput(rooms ...string) Input {
	return Input{
		Teachers: []string{"Alice", "Bob"},
		Rooms:    append([]string{"101 (C)"}, rooms...),
		Courses: []Course{{
			ID: "cse-3", Branch: "CSE",
			Batches: []string{"A", "B"},
			Subjects: []Subject{
				{Name: "Networks", Teacher: "Alice", RequiresLab: true, LabsPerWeek: 2},
				{Name: "Databases", Teacher: "Bob", RequiresLab: true, LabsPerWeek: 2},
			},
		}},
	}
}

func TestGenerateLabShortfallWithSingleLabRoom(t *testing.T) {
	eng := newTestEngine()

	res, err := eng.Generate(twoBatchLabInput("Lab1 (L)"), NewSeededSource(3))
	require.NoError(t, err)
	require.Len(t, res.Warnings, 2, "one warning per round")
	for i, w := range res.Warnings {
		assert.Equal(t, WarningLabRoundUnplaced, w.Kind)
		assert.Equal(t, i, w.Round)
		assert.Equal(t, 2, w.Required)
	}
	assert.Empty(t, res.Schedules["cse-3"].Classes)

	res, err = eng.Generate(twoBatchLabInput("Lab1 (L)", "Lab2 (L)"), NewSeededSource(3))
	require.NoError(t, err)
	assert.Empty(t, res.Warnings, "a second lab room seats both batches")
	assert.Len(t, res.Schedules["cse-3"].Classes, 8)
	assertNoDoubleBooking(t, res)
}

func TestGenerateSingleLabSubjectCannotSplitTeacher(t *testing.T) {
	eng := newTestEngine()
	in := Input{
		Teachers: []string{"Alice"},
		Rooms:    []string{"101 (C)", "Lab1 (L)", "Lab2 (L)"},
		Courses: []Course{{
			ID: "cse-3", Branch: "CSE",
			Batches:  []string{"A", "B"},
			Subjects: []Subject{{Name: "Networks", Teacher: "Alice", RequiresLab: true, LabsPerWeek: 2}},
		}},
	}

	res, err := eng.Generate(in, NewSeededSource(3))
	require.NoError(t, err)
	require.Len(t, res.Warnings, 2)
	assert.Empty(t, res.Schedules["cse-3"].Classes, "one teacher never supervises two batches at once")
}

func TestGenerateWithoutLabRoomsWarnsInsteadOfFailing(t *testing.T) {
	eng := newTestEngine()
	in := Input{
		Teachers: []string{"Alice", "Bob"},
		Rooms:    []string{"101 (C)"},
		Courses: []Course{{
			ID: "cse-3", Branch: "CSE",
			Batches: []string{"A"},
			Subjects: []Subject{
				{Name: "Networks", Teacher: "Alice", RequiresLab: true, LabsPerWeek: 1},
				{Name: "Maths", Teacher: "Bob", LecturesPerWeek: 2},
			},
		}},
	}

	res, err := eng.Generate(in, NewSeededSource(3))
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarningLabRoundUnplaced, res.Warnings[0].Kind)
	assert.Len(t, res.Schedules["cse-3"].Classes, 2, "lectures still placed")
}

func TestGenerateElectivePairing(t *testing.T) {
	eng := newTestEngine()
	res, err := eng.Generate(lectureOnlyInput(Subject{
		Name: "Compilers", Teacher: "Alice", LecturesPerWeek: 2,
		IsElective: true, ElectiveSubjectName: "Graphics", ElectiveTeacher: "Bob",
	}), NewSeededSource(5))
	require.NoError(t, err)
	require.Empty(t, res.Warnings)

	classes := res.Schedules["cse-3"].Classes
	require.Len(t, classes, 4)
	for _, cls := range classes {
		if cls.ParentSubject == "" {
			continue
		}
		assert.True(t, cls.IsElective)
		matches := 0
		for _, main := range classes {
			if main.Subject == cls.ParentSubject && main.Day == cls.Day && main.Start == cls.Start {
				matches++
				assert.NotEqual(t, main.Room, cls.Room)
			}
		}
		assert.Equal(t, 1, matches)
	}
}

func TestGenerateElectiveNeedsSecondClassroom(t *testing.T) {
	eng := newTestEngine()
	in := lectureOnlyInput(Subject{
		Name: "Compilers", Teacher: "Alice", LecturesPerWeek: 2,
		IsElective: true, ElectiveSubjectName: "Graphics", ElectiveTeacher: "Bob",
	})
	in.Rooms = []string{"101 (C)"}

	res, err := eng.Generate(in, NewSeededSource(5))
	require.NoError(t, err)
	assert.Empty(t, res.Schedules["cse-3"].Classes)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarningLectureShortfall, res.Warnings[0].Kind)
	assert.Equal(t, 0, res.Warnings[0].Placed)
	assert.Equal(t, 2, res.Warnings[0].Required)
}

func TestGenerateSharedTeacherAcrossCourses(t *testing.T) {
	eng := newTestEngine()
	in := Input{
		Teachers: []string{"Alice", "Bob"},
		Rooms:    []string{"101 (C)"},
		Courses: []Course{
			{ID: "cse-3", Branch: "CSE", Subjects: []Subject{{Name: "Maths", Teacher: "Alice", LecturesPerWeek: 4}, {Name: "Physics", Teacher: "Bob", LecturesPerWeek: 3}}},
			{ID: "ece-3", Branch: "ECE", Subjects: []Subject{{Name: "Maths", Teacher: "Alice", LecturesPerWeek: 4}, {Name: "Circuits", Teacher: "Bob", LecturesPerWeek: 3}}},
		},
	}

	res, err := eng.Generate(in, NewSeededSource(11))
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Len(t, res.Sessions(), 14)
	assertNoDoubleBooking(t, res)
}

func TestGenerateHonoursHardPreferences(t *testing.T) {
	blocked := []string{"Monday 09:00", "Tuesday 09:00", "Wednesday 09:00", "Thursday 09:00", "Friday 09:00"}
	eng := newTestEngine(TeacherPreference{Name: "Alice", BlockedSlots: blocked, MaxConsecutiveClasses: 1, MaxDailyClasses: 2, Enabled: true})

	res, err := eng.Generate(lectureOnlyInput(
		Subject{Name: "Maths", Teacher: "Alice", LecturesPerWeek: 5},
		Subject{Name: "Statistics", Teacher: "Alice", LecturesPerWeek: 4},
	), NewSeededSource(9))
	require.NoError(t, err)

	timeline := NewTeacherTimeline(60)
	perDay := make(map[Day]int)
	for _, cls := range res.Sessions() {
		assert.NotContains(t, blocked, SlotKey(cls.Day, cls.Start))
		prev, _ := shiftClock(cls.Start, -60)
		next, _ := shiftClock(cls.Start, 60)
		assert.False(t, timeline.Has("Alice", cls.Day, prev) || timeline.Has("Alice", cls.Day, next), "back-to-back classes at %s %s", cls.Day, cls.Start)
		timeline.Add(cls)
		perDay[cls.Day]++
	}
	for day, n := range perDay {
		assert.LessOrEqual(t, n, 2, "daily limit on %s", day)
	}
}

func TestGeneratePrefersPreferredSlot(t *testing.T) {
	eng := newTestEngine(TeacherPreference{Name: "Alice", PreferredSlots: []string{"Wednesday 14:00"}, Enabled: true})
	res, err := eng.Generate(lectureOnlyInput(Subject{Name: "Maths", Teacher: "Alice", LecturesPerWeek: 1}), NewSeededSource(2))
	require.NoError(t, err)

	classes := res.Schedules["cse-3"].Classes
	require.Len(t, classes, 1)
	assert.Equal(t, Wednesday, classes[0].Day)
	assert.Equal(t, "14:00", classes[0].Start)
	assert.Equal(t, "15:00", classes[0].End)
}

func TestGenerateSpreadsLecturesBeyondPreferredDay(t *testing.T) {
	eng := newTestEngine(TeacherPreference{Name: "Alice", PreferredDays: []Day{Monday}, Enabled: true})
	res, err := eng.Generate(lectureOnlyInput(Subject{Name: "Maths", Teacher: "Alice", LecturesPerWeek: 3}), NewSeededSource(4))
	require.NoError(t, err)
	require.Empty(t, res.Warnings)

	perDay := make(map[Day]int)
	for _, cls := range res.Schedules["cse-3"].Classes {
		perDay[cls.Day]++
	}
	assert.Len(t, perDay, 3)
	assert.Equal(t, 1, perDay[Monday])
}

func TestGenerateLogsTeachersMissingFromRoster(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	eng := New(nil, zap.New(core), DefaultOptions())

	in := lectureOnlyInput(
		Subject{Name: "Maths", Teacher: "Dave", LecturesPerWeek: 1},
		Subject{Name: "Physics", Teacher: "Dave", LecturesPerWeek: 1},
		Subject{Name: "AI", Teacher: "Alice", LecturesPerWeek: 1, IsElective: true, ElectiveTeacher: "Erin", ElectiveSubjectName: "ML"},
	)
	res, err := eng.Generate(in, NewSeededSource(3))
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	entries := logs.FilterMessage("teacher missing from roster").All()
	require.Len(t, entries, 2)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.ContextMap()["teacher"].(string))
	}
	assert.ElementsMatch(t, []string{"Dave", "Erin"}, names)
	dave := 0
	for _, cls := range res.Sessions() {
		if cls.Teacher == "Dave" {
			dave++
		}
	}
	assert.Equal(t, 2, dave, "unknown teachers are still scheduled")
}

func TestGenerateIsReproducibleForSeed(t *testing.T) {
	in := lectureOnlyInput(
		Subject{Name: "Maths", Teacher: "Alice", LecturesPerWeek: 3},
		Subject{Name: "Physics", Teacher: "Bob", LecturesPerWeek: 3},
		Subject{Name: "Chemistry", Teacher: "Carol", LecturesPerWeek: 2},
		Subject{Name: "Compilers", Teacher: "Alice", LecturesPerWeek: 2, IsElective: true, ElectiveSubjectName: "Graphics", ElectiveTeacher: "Carol"},
	)

	first, err := newTestEngine().Generate(in, NewSeededSource(42))
	require.NoError(t, err)
	second, err := newTestEngine().Generate(in, NewSeededSource(42))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateAbortsOnConfigurationError(t *testing.T) {
	eng := newTestEngine()
	in := Input{
		Teachers: []string{"Alice"},
		Rooms:    []string{"Lab1 (L)", "Lab2 (L)"},
		Courses: []Course{
			{ID: "ok", Branch: "ECE", Subjects: []Subject{{Name: "Maths", Teacher: "Alice", LecturesPerWeek: 1}}},
			{ID: "bad", Branch: "CSE", Batches: []string{"A", "B"}, Subjects: []Subject{{Name: "Networks", Teacher: "Alice", RequiresLab: true, LabsPerWeek: 1}}},
		},
	}

	res, err := eng.Generate(in, NewSeededSource(1))
	require.Error(t, err)
	assert.Nil(t, res)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "bad", cfgErr.CourseID)
	assert.Equal(t, "Networks", cfgErr.Subject)

	_, err = eng.Generate(Input{}, nil)
	assert.Error(t, err)
}

func TestShuffleSubjectsIsPermutation(t *testing.T) {
	subjects := make([]Subject, 6)
	for i := range subjects {
		subjects[i] = Subject{Name: fmt.Sprintf("S%d", i)}
	}
	shuffleSubjects(NewSeededSource(99), subjects)

	seen := make(map[string]bool)
	for _, s := range subjects {
		seen[s.Name] = true
	}
	assert.Len(t, seen, 6)
}

func assertNoDoubleBooking(t *testing.T, res *Result) {
	t.Helper()
	teachers := make(map[string]Session)
	rooms := make(map[string]Session)
	for _, s := range res.Sessions() {
		tk := fmt.Sprintf("%s|%s|%s", s.Teacher, s.Day, s.Start)
		if prev, ok := teachers[tk]; ok {
			t.Fatalf("teacher %s double-booked: %+v and %+v", s.Teacher, prev, s)
		}
		teachers[tk] = s
		rk := fmt.Sprintf("%s|%s|%s", s.Room, s.Day, s.Start)
		if prev, ok := rooms[rk]; ok {
			t.Fatalf("room %s double-booked: %+v and %+v", s.Room, prev, s)
		}
		rooms[rk] = s
	}
}
