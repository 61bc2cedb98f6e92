package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

func TestBuildTimeGridWithLunchOnly(t *testing.T) {
	grid, err := BuildTimeGrid(models.SchoolSettings{
		StartTime:           "08:00",
		EndTime:             "12:00",
		LessonDuration:      60,
		LunchBreakStartTime: "10:00",
		LunchBreakDuration:  60,
		WorkingDays:         []string{"Monday"},
	})
	require.NoError(t, err)

	require.Equal(t, 3, grid.LessonCount())
	require.Len(t, grid.Slots, 4)

	starts := make([]string, 0, len(grid.Slots))
	for _, slot := range grid.Slots {
		starts = append(starts, slot.StartTime)
	}
	assert.Equal(t, []string{"08:00", "09:00", "10:00", "11:00"}, starts)
	assert.Equal(t, SlotLunchBreak, grid.Slots[2].Kind)
	assert.Equal(t, "11:00", grid.Slots[2].EndTime)
}

func TestBuildTimeGridBreakfastSupersedesInterLessonBreak(t *testing.T) {
	grid, err := BuildTimeGrid(models.SchoolSettings{
		StartTime:               "08:00",
		EndTime:                 "13:00",
		LessonDuration:          45,
		BreakDuration:           5,
		HasBreakfastBreak:       true,
		BreakfastBreakStartTime: "09:30",
		BreakfastBreakDuration:  15,
		LunchBreakStartTime:     "12:00",
		LunchBreakDuration:      60,
		WorkingDays:             []string{"Monday"},
	})
	require.NoError(t, err)

	var lessons, breakfasts, lunches []string
	for _, slot := range grid.Slots {
		switch slot.Kind {
		case SlotLesson:
			lessons = append(lessons, slot.StartTime)
		case SlotBreakfastBreak:
			breakfasts = append(breakfasts, slot.StartTime)
		case SlotLunchBreak:
			lunches = append(lunches, slot.StartTime)
		}
	}
	// With breakfast enabled lessons run back to back; breakDuration is
	// not applied between them.
	assert.Equal(t, []string{"08:00", "08:45", "09:45", "10:30", "11:15"}, lessons)
	assert.Equal(t, []string{"09:30"}, breakfasts)
	assert.Equal(t, []string{"12:00"}, lunches)
}

func TestBuildTimeGridDropsPartialTrailingLesson(t *testing.T) {
	grid, err := BuildTimeGrid(models.SchoolSettings{
		StartTime:           "08:00",
		EndTime:             "12:45",
		LessonDuration:      60,
		LunchBreakStartTime: "10:00",
		LunchBreakDuration:  60,
		WorkingDays:         []string{"Monday"},
	})
	require.NoError(t, err)

	require.Equal(t, 3, grid.LessonCount())
	last := grid.Slots[grid.LessonSlots[grid.LessonCount()-1]]
	assert.Equal(t, "12:00", last.EndTime)
}

func TestBuildTimeGridRejectsInvalidSettings(t *testing.T) {
	base := models.SchoolSettings{
		StartTime:           "08:00",
		EndTime:             "15:00",
		LessonDuration:      60,
		LunchBreakStartTime: "12:00",
		LunchBreakDuration:  60,
		WorkingDays:         []string{"Monday"},
	}

	malformed := base
	malformed.StartTime = "8am"
	_, err := BuildTimeGrid(malformed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HH:MM")

	inverted := base
	inverted.EndTime = "07:00"
	_, err = BuildTimeGrid(inverted)
	require.Error(t, err)

	tooShort := base
	tooShort.EndTime = "08:30"
	_, err = BuildTimeGrid(tooShort)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no room")
}
