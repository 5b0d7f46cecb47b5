package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePreferenceBonus(t *testing.T) {
	store := NewPreferenceStore(TeacherPreference{
		Name:               "Alice",
		PreferredSlots:     []string{"Monday 09:00"},
		BlockedSlots:       []string{"Friday 15:00"},
		PreferredDays:      []Day{Monday, Tuesday},
		SubjectPreferences: map[string]int{"Maths": 8, "Drawing": 1},
		Enabled:            true,
	})

	assert.Equal(t, 30+15+6, store.CalculatePreferenceBonus("Alice", Monday, "09:00", "Maths"))
	assert.Equal(t, 15, store.CalculatePreferenceBonus("Alice", Tuesday, "10:00", "History"))
	assert.Equal(t, -8, store.CalculatePreferenceBonus("Alice", Wednesday, "10:00", "Drawing"))
	assert.Equal(t, BlockedSlotScore, store.CalculatePreferenceBonus("Alice", Friday, "15:00", "Maths"))
}

func TestPreferenceDefaultsAndDisabled(t *testing.T) {
	store := NewPreferenceStore()

	pref := store.Get("Nobody")
	assert.Equal(t, DefaultMaxConsecutiveClasses, pref.MaxConsecutiveClasses)
	assert.Equal(t, DefaultMaxDailyClasses, pref.MaxDailyClasses)
	assert.Equal(t, DefaultMaxWeeklyHours, pref.MaxWeeklyHours)
	assert.True(t, pref.Enabled)
	assert.True(t, store.IsDayPreferred("Nobody", Saturday), "an empty day list means any day")
	assert.Equal(t, NeutralSubjectScore, store.SubjectScore("Nobody", "Maths"))

	store.Put(TeacherPreference{Name: "Off", BlockedSlots: []string{"Monday 09:00"}, Enabled: false})
	assert.False(t, store.IsSlotBlocked("Off", Monday, "09:00"))
	assert.Equal(t, 0, store.CalculatePreferenceBonus("Off", Monday, "09:00", "Maths"))
}

func TestPreferenceUpdateMergesFields(t *testing.T) {
	store := NewPreferenceStore(TeacherPreference{Name: "Alice", PreferredDays: []Day{Monday}, Enabled: true})
	daily := 2
	disabled := false

	updated := store.Update("Alice", PreferenceUpdate{MaxDailyClasses: &daily, BlockedSlots: []string{"Tuesday 10:00"}})
	assert.Equal(t, 2, updated.MaxDailyClasses)
	assert.Equal(t, []Day{Monday}, updated.PreferredDays)
	assert.Equal(t, []string{"Tuesday 10:00"}, updated.BlockedSlots)

	updated = store.Update("Alice", PreferenceUpdate{Enabled: &disabled})
	assert.False(t, updated.Enabled)
	assert.Equal(t, 2, updated.MaxDailyClasses)

	updated.PreferredDays[0] = Friday
	assert.Equal(t, []Day{Monday}, store.Get("Alice").PreferredDays, "callers get copies")
	assert.Len(t, store.All(), 1)
}

func TestSubjectScoreClamped(t *testing.T) {
	store := NewPreferenceStore(TeacherPreference{Name: "Alice", SubjectPreferences: map[string]int{"Maths": 14, "Art": -3}, Enabled: true})
	assert.Equal(t, 10, store.SubjectScore("Alice", "Maths"))
	assert.Equal(t, 0, store.SubjectScore("Alice", "Art"))
}

func TestConsecutiveAndDailyLimits(t *testing.T) {
	store := NewPreferenceStore(TeacherPreference{Name: "Alice", MaxConsecutiveClasses: 3, MaxDailyClasses: 4, Enabled: true})
	timeline := NewTeacherTimeline(60,
		Session{Teacher: "Alice", Day: Monday, Start: "09:00"},
		Session{Teacher: "Alice", Day: Monday, Start: "10:00"},
		Session{Teacher: "Alice", Day: Monday, Start: "11:00"},
	)

	assert.True(t, store.ViolatesConsecutiveLimit("Alice", Monday, "12:00", timeline))
	assert.True(t, store.ViolatesConsecutiveLimit("Alice", Monday, "08:00", timeline))
	assert.False(t, store.ViolatesConsecutiveLimit("Alice", Monday, "13:00", timeline))
	assert.False(t, store.ViolatesConsecutiveLimit("Alice", Tuesday, "12:00", timeline))
	assert.False(t, store.ViolatesDailyLimit("Alice", Monday, timeline))

	timeline.Add(Session{Teacher: "Alice", Day: Monday, Start: "14:00"})
	assert.True(t, store.ViolatesDailyLimit("Alice", Monday, timeline))
	assert.Equal(t, 4, timeline.Count("Alice", Monday))

	timeline.Add(Session{Teacher: "Alice", Day: Monday, Start: "14:00"})
	assert.Equal(t, 4, timeline.Count("Alice", Monday), "duplicate starts are counted once")
}

func TestAllowsChecksWholeLabBlock(t *testing.T) {
	store := NewPreferenceStore(TeacherPreference{Name: "Alice", BlockedSlots: []string{"Monday 10:00"}, MaxConsecutiveClasses: 2, Enabled: true})
	timeline := NewTeacherTimeline(60, Session{Teacher: "Alice", Day: Tuesday, Start: "11:00"})

	assert.False(t, store.allows("Alice", Monday, []string{"09:00", "10:00"}, timeline))
	assert.True(t, store.allows("Alice", Monday, []string{"13:00", "14:00"}, timeline))
	assert.False(t, store.allows("Alice", Tuesday, []string{"09:00", "10:00"}, timeline))
}

func TestParseSlotKey(t *testing.T) {
	day, start, err := ParseSlotKey("Wednesday 9:00")
	require.NoError(t, err)
	assert.Equal(t, Wednesday, day)
	assert.Equal(t, "09:00", start)

	for _, bad := range []string{"", "Monday", "Sunday 09:00", "Monday 25:00", "Monday 09:00 extra"} {
		_, _, err := ParseSlotKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestPreferenceStoreConcurrentUpdateAndRead(t *testing.T) {
	store := NewPreferenceStore(TeacherPreference{Name: "Alice", Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			daily := i%6 + 1
			store.Update("Alice", PreferenceUpdate{
				PreferredSlots:     []string{"Monday 09:00"},
				SubjectPreferences: map[string]int{"Maths": i % 11},
				MaxDailyClasses:    &daily,
			})
		}(i)
		go func() {
			defer wg.Done()
			_ = store.Get("Alice")
			_ = store.CalculatePreferenceBonus("Alice", Monday, "09:00", "Maths")
			_ = store.IsSlotBlocked("Alice", Monday, "09:00")
			_ = store.All()
		}()
	}
	wg.Wait()

	got := store.Get("Alice")
	assert.Equal(t, []string{"Monday 09:00"}, got.PreferredSlots)
	assert.GreaterOrEqual(t, got.MaxDailyClasses, 1)
}
