package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// SlotKind types every slot in the generated time grid.
type SlotKind string

const (
	SlotLesson         SlotKind = "lesson"
	SlotBreakfastBreak SlotKind = "breakfast-break"
	SlotLunchBreak     SlotKind = "lunch-break"
)

// TimeSlot is one typed interval of the daily grid. The grid is identical
// for every working day; the day dimension is applied by the solver.
type TimeSlot struct {
	StartTime string
	EndTime   string
	StartMin  int
	EndMin    int
	Kind      SlotKind
}

// TimeGrid holds the per-day slot sequence plus an index of the
// lesson-kind slots, the only ones the solver may assign.
type TimeGrid struct {
	Slots       []TimeSlot
	LessonSlots []int
}

// LessonCount returns the number of assignable slots per day.
func (g *TimeGrid) LessonCount() int { return len(g.LessonSlots) }

// BuildTimeGrid expands the school timing settings into the ordered slot
// sequence of a single working day.
//
// Lessons are emitted at lessonDuration strides from startTime. A lesson
// that would overlap the breakfast window (when enabled) or the lunch
// window is not emitted; instead the break slot is recorded and the cursor
// resumes at the window's end. When breakfast break is enabled it
// supersedes the uniform inter-lesson break; otherwise breakDuration
// separates consecutive lessons. A trailing span shorter than a full
// lesson is dropped, never emitted truncated.
func BuildTimeGrid(settings models.SchoolSettings) (*TimeGrid, error) {
	startMin, err := parseClock(settings.StartTime)
	if err != nil {
		return nil, fmt.Errorf("startTime: %w", err)
	}
	endMin, err := parseClock(settings.EndTime)
	if err != nil {
		return nil, fmt.Errorf("endTime: %w", err)
	}
	if endMin <= startMin {
		return nil, fmt.Errorf("endTime %s is not after startTime %s", settings.EndTime, settings.StartTime)
	}
	if settings.LessonDuration <= 0 {
		return nil, fmt.Errorf("lessonDuration must be positive, got %d", settings.LessonDuration)
	}

	breakfastStart, breakfastEnd := -1, -1
	if settings.HasBreakfastBreak {
		breakfastStart, err = parseClock(settings.BreakfastBreakStartTime)
		if err != nil {
			return nil, fmt.Errorf("breakfastBreakStartTime: %w", err)
		}
		if settings.BreakfastBreakDuration <= 0 {
			return nil, fmt.Errorf("breakfastBreakDuration must be positive, got %d", settings.BreakfastBreakDuration)
		}
		breakfastEnd = breakfastStart + settings.BreakfastBreakDuration
	}

	lunchStart, err := parseClock(settings.LunchBreakStartTime)
	if err != nil {
		return nil, fmt.Errorf("lunchBreakStartTime: %w", err)
	}
	if settings.LunchBreakDuration <= 0 {
		return nil, fmt.Errorf("lunchBreakDuration must be positive, got %d", settings.LunchBreakDuration)
	}
	lunchEnd := lunchStart + settings.LunchBreakDuration

	// Breakfast supersedes the uniform inter-lesson break.
	interLesson := settings.BreakDuration
	if settings.HasBreakfastBreak {
		interLesson = 0
	}

	grid := &TimeGrid{}
	breakfastEmitted, lunchEmitted := false, false
	cursor := startMin
	for cursor+settings.LessonDuration <= endMin {
		next := cursor + settings.LessonDuration

		if settings.HasBreakfastBreak && cursor < breakfastEnd && next > breakfastStart {
			if !breakfastEmitted {
				grid.Slots = append(grid.Slots, newSlot(breakfastStart, breakfastEnd, SlotBreakfastBreak))
				breakfastEmitted = true
			}
			cursor = breakfastEnd
			continue
		}
		if cursor < lunchEnd && next > lunchStart {
			if !lunchEmitted {
				grid.Slots = append(grid.Slots, newSlot(lunchStart, lunchEnd, SlotLunchBreak))
				lunchEmitted = true
			}
			cursor = lunchEnd
			continue
		}

		grid.LessonSlots = append(grid.LessonSlots, len(grid.Slots))
		grid.Slots = append(grid.Slots, newSlot(cursor, next, SlotLesson))
		cursor = next + interLesson
	}

	if len(grid.LessonSlots) == 0 {
		return nil, fmt.Errorf("timing settings leave no room for a single %d-minute lesson", settings.LessonDuration)
	}
	return grid, nil
}

func newSlot(startMin, endMin int, kind SlotKind) TimeSlot {
	return TimeSlot{
		StartTime: formatClock(startMin),
		EndTime:   formatClock(endMin),
		StartMin:  startMin,
		EndMin:    endMin,
		Kind:      kind,
	}
}

func parseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", raw)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("time %q out of range", raw)
	}
	return hours*60 + minutes, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
