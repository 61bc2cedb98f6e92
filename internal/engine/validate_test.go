package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

func TestValidatePassesCleanInput(t *testing.T) {
	report := Validate(smallSchool())
	assert.True(t, report.Feasible)
	assert.Empty(t, report.Issues)
}

func TestValidateFlagsClassDemandOverflow(t *testing.T) {
	input := smallSchool()
	// Three lesson slots per day over five days gives fifteen; demand 16
	// cannot fit no matter how the solver arranges it.
	input.Subjects[0].HoursPerWeek = 14
	input.Teachers[0].MaxHoursPerWeek = 14
	input.Teachers[0].MaxHoursPerDay = 3

	report := Validate(input)
	require.False(t, report.Feasible)
	assert.Contains(t, report.Issues[0], "c-10a")
}

func TestValidateFlagsSoleTeacherOverload(t *testing.T) {
	input := Input{
		SchoolSettings: weekSettings(),
		Subjects:       []models.Subject{{ID: "physics", HoursPerWeek: 5}},
		Teachers:       []models.Teacher{{ID: "t-solo", Subjects: []string{"physics"}, MaxHoursPerWeek: 6}},
		Classes: []models.Class{
			{ID: "c-1", RequiredSubjects: []string{"physics"}},
			{ID: "c-2", RequiredSubjects: []string{"physics"}},
		},
	}

	report := Validate(input)
	require.False(t, report.Feasible)
	found := false
	for _, issue := range report.Issues {
		if strings.Contains(issue, "t-solo") && strings.Contains(issue, "only option") {
			found = true
		}
	}
	assert.True(t, found, "issues must name the overloaded teacher: %v", report.Issues)
}

func TestValidateFlagsGlobalSupplyShortfall(t *testing.T) {
	input := smallSchool()
	input.Teachers[0].MaxHoursPerWeek = 2
	input.Teachers[0].Subjects = []string{"math", "english"}
	input.Teachers = input.Teachers[:1]

	report := Validate(input)
	require.False(t, report.Feasible)
}

func TestValidateFlagsRoomShortage(t *testing.T) {
	input := smallSchool()
	input.SchoolSettings.UseRoomConstraints = true
	input.Classes = append(input.Classes, models.Class{ID: "c-10b", Name: "10B", RequiredSubjects: []string{"math"}})
	input.Rooms = []models.Room{{ID: "r-1"}}

	report := Validate(input)
	require.False(t, report.Feasible)
	assert.Contains(t, report.Issues[0], "rooms")
}

func TestValidateFlagsStructuralProblems(t *testing.T) {
	input := smallSchool()
	input.Teachers[0].Subjects = nil
	input.Classes[0].RequiredSubjects = append(input.Classes[0].RequiredSubjects, "ghost")

	report := Validate(input)
	require.False(t, report.Feasible)
	assert.Len(t, report.Issues, 2)
}

func TestValidateFlagsIndivisibleExactLessons(t *testing.T) {
	input := smallSchool()
	input.SchoolSettings.ExactLessonsPerDay = intPtr(2)

	report := Validate(input)
	require.False(t, report.Feasible)
	found := false
	for _, issue := range report.Issues {
		if strings.Contains(issue, "c-10a") && strings.Contains(issue, "divisible") {
			found = true
		}
	}
	assert.True(t, found, "issues: %v", report.Issues)
}

func TestValidateIsNotAFeasibilityGuarantee(t *testing.T) {
	// Capacity arithmetic passes, yet the instance cannot be solved:
	// availability windows leave the two teachers three joint slots for
	// four lessons, which the validator does not model.
	input := Input{
		SchoolSettings: models.SchoolSettings{
			StartTime:           "08:00",
			EndTime:             "10:00",
			LessonDuration:      60,
			LunchBreakStartTime: "12:00",
			LunchBreakDuration:  60,
			WorkingDays:         []string{"Monday"},
		},
		Subjects: []models.Subject{{ID: "math", HoursPerWeek: 2}},
		Teachers: []models.Teacher{
			{ID: "t-1", Subjects: []string{"math"}, Availability: []models.AvailabilityWindow{
				{Day: "Monday", TimeSlots: []models.AvailabilityRange{{StartTime: "08:00", EndTime: "10:00"}}},
			}},
			{ID: "t-2", Subjects: []string{"math"}, Availability: []models.AvailabilityWindow{
				{Day: "Monday", TimeSlots: []models.AvailabilityRange{{StartTime: "08:00", EndTime: "09:00"}}},
			}},
		},
		Classes: []models.Class{
			{ID: "c-1", RequiredSubjects: []string{"math"}},
			{ID: "c-2", RequiredSubjects: []string{"math"}},
		},
	}
	report := Validate(input)
	assert.True(t, report.Feasible)
}

