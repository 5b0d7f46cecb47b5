package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTimeSlotsDefaultDay(t *testing.T) {
	slots, err := GenerateTimeSlots(TimeSettings{}.WithDefaults())
	require.NoError(t, err)
	require.Len(t, slots, 7)

	starts := make([]string, 0, len(slots))
	recess := 0
	for _, slot := range slots {
		starts = append(starts, slot.Start)
		if slot.IsRecess {
			recess++
			assert.Equal(t, "12:00", slot.Start)
			assert.Equal(t, "13:00", slot.End)
		}
	}
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00"}, starts)
	assert.Equal(t, 1, recess)
}

func TestGenerateTimeSlotsDropsPartialTail(t *testing.T) {
	slots, err := GenerateTimeSlots(TimeSettings{
		CollegeStartTime: "08:30",
		CollegeEndTime:   "11:00",
		RecessStartTime:  "10:00",
		RecessDuration:   30,
		LectureDuration:  45,
	})
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, "08:30", slots[0].Start)
	assert.Equal(t, "09:15", slots[0].End)
	assert.Equal(t, "10:00", slots[2].Start)
	assert.True(t, slots[2].IsRecess)
	assert.False(t, slots[1].IsRecess)
}

func TestGenerateTimeSlotsWithoutRecess(t *testing.T) {
	settings := TimeSettings{RecessStartTime: "12:00", RecessDuration: 0}.WithDefaults()
	assert.Equal(t, 0, settings.RecessDuration)

	slots, err := GenerateTimeSlots(settings)
	require.NoError(t, err)
	require.Len(t, slots, 7)
	for _, slot := range slots {
		assert.False(t, slot.IsRecess, "slot %s", slot.Start)
	}

	defaulted := TimeSettings{}.WithDefaults()
	assert.Equal(t, DefaultRecessStartTime, defaulted.RecessStartTime)
	assert.Equal(t, DefaultRecessDuration, defaulted.RecessDuration)

	kept := TimeSettings{RecessDuration: 30}.WithDefaults()
	assert.Equal(t, 30, kept.RecessDuration)
}

func TestGenerateTimeSlotsRejectsBadSettings(t *testing.T) {
	_, err := GenerateTimeSlots(TimeSettings{CollegeStartTime: "16:00", CollegeEndTime: "09:00", RecessStartTime: "12:00", LectureDuration: 60})
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = GenerateTimeSlots(TimeSettings{CollegeStartTime: "nine", CollegeEndTime: "16:00", RecessStartTime: "12:00", LectureDuration: 60})
	assert.Error(t, err)

	_, err = GenerateTimeSlots(TimeSettings{CollegeStartTime: "09:00", CollegeEndTime: "16:00", RecessStartTime: "12:00"})
	assert.Error(t, err)
}

func TestClockHelpers(t *testing.T) {
	mins, err := ParseClock("9:05")
	require.NoError(t, err)
	assert.Equal(t, 545, mins)
	assert.Equal(t, "09:05", FormatClock(mins))

	_, err = ParseClock("25:00")
	assert.Error(t, err)

	next, ok := shiftClock("09:00", 60)
	assert.True(t, ok)
	assert.Equal(t, "10:00", next)

	_, ok = shiftClock("00:30", -60)
	assert.False(t, ok)
}
