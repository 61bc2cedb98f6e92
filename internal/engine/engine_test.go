package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

func intPtr(n int) *int { return &n }

// weekSettings yields a 5-day grid with three lesson slots per day
// (08:00, 09:00, 11:00) around a fixed lunch hour.
func weekSettings() models.SchoolSettings {
	return models.SchoolSettings{
		StartTime:           "08:00",
		EndTime:             "12:00",
		LessonDuration:      60,
		LunchBreakStartTime: "10:00",
		LunchBreakDuration:  60,
		WorkingDays:         []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
	}
}

func smallSchool() Input {
	return Input{
		SchoolSettings: weekSettings(),
		Subjects: []models.Subject{
			{ID: "math", Name: "Mathematics", HoursPerWeek: 3},
			{ID: "english", Name: "English", HoursPerWeek: 2},
		},
		Teachers: []models.Teacher{
			{ID: "t-math", Name: "Ms. Putri", Subjects: []string{"math"}},
			{ID: "t-english", Name: "Mr. Agus", Subjects: []string{"english"}},
		},
		Classes: []models.Class{
			{ID: "c-10a", Name: "10A", RequiredSubjects: []string{"math", "english"}, Students: 30},
		},
	}
}

// assertScheduleInvariants checks the guarantees every solved timetable
// must uphold, independent of the instance that produced it.
func assertScheduleInvariants(t *testing.T, input Input, entries []models.ScheduleEntry) {
	t.Helper()

	qualified := make(map[string]map[string]bool)
	for _, teacher := range input.Teachers {
		qualified[teacher.ID] = make(map[string]bool)
		for _, sid := range teacher.Subjects {
			qualified[teacher.ID][sid] = true
		}
	}

	classSeen := make(map[string]bool)
	teacherSeen := make(map[string]bool)
	roomSeen := make(map[string]bool)
	subjectHours := make(map[string]int)
	groupTeachers := make(map[string]map[string]bool)

	for _, e := range entries {
		key := e.Day + "|" + e.StartTime
		classKey := key + "|" + e.ClassID
		require.False(t, classSeen[classKey], "class %s double-booked at %s %s", e.ClassID, e.Day, e.StartTime)
		classSeen[classKey] = true

		if e.IsBreak {
			assert.Equal(t, models.BreakTeacherID, e.TeacherID)
			continue
		}

		teacherKey := key + "|" + e.TeacherID
		require.False(t, teacherSeen[teacherKey], "teacher %s double-booked at %s %s", e.TeacherID, e.Day, e.StartTime)
		teacherSeen[teacherKey] = true

		if input.SchoolSettings.UseRoomConstraints {
			roomKey := key + "|" + e.RoomID
			require.False(t, roomSeen[roomKey], "room %s double-booked at %s %s", e.RoomID, e.Day, e.StartTime)
			roomSeen[roomKey] = true
		}

		require.True(t, qualified[e.TeacherID][e.SubjectID],
			"teacher %s is not qualified for subject %s", e.TeacherID, e.SubjectID)

		subjectHours[e.ClassID+"|"+e.SubjectID]++
		gk := e.ClassID + "|" + e.SubjectID
		if groupTeachers[gk] == nil {
			groupTeachers[gk] = make(map[string]bool)
		}
		groupTeachers[gk][e.TeacherID] = true
	}

	for _, class := range input.Classes {
		for _, sid := range class.RequiredSubjects {
			var want int
			for _, s := range input.Subjects {
				if s.ID == sid {
					want = s.HoursPerWeek
				}
			}
			got := subjectHours[class.ID+"|"+sid]
			assert.Equal(t, want, got, "class %s subject %s hours", class.ID, sid)
			assert.Len(t, groupTeachers[class.ID+"|"+sid], 1,
				"class %s subject %s must keep one teacher all week", class.ID, sid)
		}
	}
}

func TestGenerateSolvesSmallSchool(t *testing.T) {
	input := smallSchool()
	result, err := Generate(context.Background(), input, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)
	assert.Empty(t, result.Conflicts)
	assert.Greater(t, result.Stats.Steps, int64(0))

	var lessons, lunches int
	for _, e := range result.Entries {
		switch {
		case e.IsBreak:
			lunches++
			assert.Equal(t, models.EntryKindLunchBreak, e.Kind)
			assert.Equal(t, models.LunchSubjectID, e.SubjectID)
			assert.Equal(t, models.BreakTypeLunch, e.BreakType)
			assert.Equal(t, "10:00", e.StartTime)
		default:
			lessons++
			assert.Equal(t, models.EntryKindLesson, e.Kind)
			// Rooms are mirrored from the class when constraints are off.
			assert.Equal(t, "c-10a", e.RoomID)
			assert.Equal(t, "Room 10A", e.RoomName)
		}
	}
	assert.Equal(t, 5, lessons)
	assert.Equal(t, 5, lunches, "one lunch row per class per working day")

	assertScheduleInvariants(t, input, result.Entries)
}

func TestGenerateIsDeterministic(t *testing.T) {
	input := smallSchool()
	first, err := Generate(context.Background(), input, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusSolved, first.Status)

	for i := 0; i < 3; i++ {
		again, err := Generate(context.Background(), smallSchool(), Options{})
		require.NoError(t, err)
		require.Equal(t, StatusSolved, again.Status)
		assert.Equal(t, first.Entries, again.Entries, "run %d diverged", i)
	}
}

func TestGenerateEntriesAreOrderedAndKeyed(t *testing.T) {
	result, err := Generate(context.Background(), smallSchool(), Options{})
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)

	dayRank := map[string]int{"Monday": 0, "Tuesday": 1, "Wednesday": 2, "Thursday": 3, "Friday": 4}
	ids := make(map[string]bool)
	for i, e := range result.Entries {
		assert.Equal(t, entryID(e.Day, e.StartTime, e.ClassID), e.ID)
		require.False(t, ids[e.ID], "duplicate entry id %s", e.ID)
		ids[e.ID] = true
		if i == 0 {
			continue
		}
		prev := result.Entries[i-1]
		if dayRank[prev.Day] == dayRank[e.Day] {
			assert.LessOrEqual(t, prev.StartTime, e.StartTime)
		} else {
			assert.Less(t, dayRank[prev.Day], dayRank[e.Day])
		}
	}
}

func TestGenerateKeepsOneTeacherPerClassSubject(t *testing.T) {
	input := Input{
		SchoolSettings: weekSettings(),
		Subjects: []models.Subject{
			{ID: "math", HoursPerWeek: 3},
		},
		Teachers: []models.Teacher{
			{ID: "t-1", Subjects: []string{"math"}},
			{ID: "t-2", Subjects: []string{"math"}},
		},
		Classes: []models.Class{
			{ID: "c-1", Name: "10A", RequiredSubjects: []string{"math"}},
			{ID: "c-2", Name: "10B", RequiredSubjects: []string{"math"}},
		},
	}
	result, err := Generate(context.Background(), input, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)
	assertScheduleInvariants(t, input, result.Entries)
}

func TestGenerateAssignsRoomsWithoutClashes(t *testing.T) {
	settings := weekSettings()
	settings.UseRoomConstraints = true
	input := Input{
		SchoolSettings: settings,
		Subjects: []models.Subject{
			{ID: "math", HoursPerWeek: 3},
			{ID: "bio", HoursPerWeek: 2},
		},
		Teachers: []models.Teacher{
			{ID: "t-1", Subjects: []string{"math"}},
			{ID: "t-2", Subjects: []string{"math"}},
			{ID: "t-3", Subjects: []string{"bio"}},
		},
		Classes: []models.Class{
			{ID: "c-1", Name: "10A", RequiredSubjects: []string{"math", "bio"}},
			{ID: "c-2", Name: "10B", RequiredSubjects: []string{"math", "bio"}},
		},
		Rooms: []models.Room{
			{ID: "r-101", Name: "Lab 101"},
			{ID: "r-102", Name: "Lab 102"},
		},
	}
	result, err := Generate(context.Background(), input, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)
	for _, e := range result.Entries {
		if e.IsBreak {
			continue
		}
		assert.Contains(t, []string{"r-101", "r-102"}, e.RoomID)
	}
	assertScheduleInvariants(t, input, result.Entries)
}

func TestGenerateHonoursFreePeriods(t *testing.T) {
	settings := weekSettings()
	settings.FreePeriods = []models.FreePeriod{
		{Name: "Assembly", StartTime: "08:00", Duration: 60, Days: []string{"Monday"}, ForClasses: []string{"all"}},
	}
	input := smallSchool()
	input.SchoolSettings = settings

	result, err := Generate(context.Background(), input, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)
	for _, e := range result.Entries {
		if e.Day == "Monday" && e.StartTime == "08:00" {
			require.True(t, e.IsBreak, "assembly slot must stay free of lessons")
		}
	}
}

func TestGenerateHonoursTeacherAvailability(t *testing.T) {
	input := smallSchool()
	input.Teachers[0].Availability = []models.AvailabilityWindow{
		{Day: "Monday", TimeSlots: []models.AvailabilityRange{{StartTime: "08:00", EndTime: "10:00"}}},
		{Day: "Tuesday", TimeSlots: []models.AvailabilityRange{{StartTime: "08:00", EndTime: "10:00"}}},
	}

	result, err := Generate(context.Background(), input, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)
	for _, e := range result.Entries {
		if e.TeacherID != "t-math" {
			continue
		}
		assert.Contains(t, []string{"Monday", "Tuesday"}, e.Day)
		assert.Contains(t, []string{"08:00", "09:00"}, e.StartTime)
	}
}

func TestGenerateExactLessonsPerDay(t *testing.T) {
	input := Input{
		SchoolSettings: weekSettings(),
		Subjects: []models.Subject{
			{ID: "math", HoursPerWeek: 2},
			{ID: "english", HoursPerWeek: 2},
		},
		Teachers: []models.Teacher{
			{ID: "t-1", Subjects: []string{"math"}},
			{ID: "t-2", Subjects: []string{"english"}},
		},
		Classes: []models.Class{
			{ID: "c-1", Name: "10A", RequiredSubjects: []string{"math", "english"}},
		},
	}
	input.SchoolSettings.ExactLessonsPerDay = intPtr(2)

	result, err := Generate(context.Background(), input, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)

	perDay := make(map[string]int)
	for _, e := range result.Entries {
		if !e.IsBreak {
			perDay[e.Day]++
		}
	}
	for day, n := range perDay {
		assert.Equal(t, 2, n, "day %s must hold exactly two lessons", day)
	}
}

func TestGenerateMaxSubjectsPerDay(t *testing.T) {
	// A single-day grid with three one-hour subjects: without the cap the
	// day necessarily mixes all three, with a cap of two it cannot.
	settings := weekSettings()
	settings.WorkingDays = []string{"Monday"}
	input := Input{
		SchoolSettings: settings,
		Subjects: []models.Subject{
			{ID: "math", HoursPerWeek: 1},
			{ID: "english", HoursPerWeek: 1},
			{ID: "bio", HoursPerWeek: 1},
		},
		Teachers: []models.Teacher{
			{ID: "t-1", Subjects: []string{"math", "english", "bio"}},
		},
		Classes: []models.Class{
			{ID: "c-1", Name: "10A", RequiredSubjects: []string{"math", "english", "bio"}},
		},
	}

	result, err := Generate(context.Background(), input, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status, "nil cap must leave subject variety unconstrained")

	input.SchoolSettings.MaxSubjectsPerDay = intPtr(2)
	result, err = Generate(context.Background(), input, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, result.Status)
	assert.Empty(t, result.Entries)
}

func TestGenerateMinSubjectsPerDay(t *testing.T) {
	input := Input{
		SchoolSettings: weekSettings(),
		Subjects: []models.Subject{
			{ID: "math", HoursPerWeek: 2},
			{ID: "english", HoursPerWeek: 2},
		},
		Teachers: []models.Teacher{
			{ID: "t-1", Subjects: []string{"math"}},
			{ID: "t-2", Subjects: []string{"english"}},
		},
		Classes: []models.Class{
			{ID: "c-1", Name: "10A", RequiredSubjects: []string{"math", "english"}},
		},
	}
	input.SchoolSettings.MinSubjectsPerDay = intPtr(2)

	result, err := Generate(context.Background(), input, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)

	subjectsByDay := make(map[string]map[string]bool)
	for _, e := range result.Entries {
		if e.IsBreak {
			continue
		}
		if subjectsByDay[e.Day] == nil {
			subjectsByDay[e.Day] = make(map[string]bool)
		}
		subjectsByDay[e.Day][e.SubjectID] = true
	}
	require.NotEmpty(t, subjectsByDay)
	for day, subjects := range subjectsByDay {
		assert.GreaterOrEqual(t, len(subjects), 2,
			"day %s with lessons must mix at least two subjects", day)
	}
}

func TestGenerateMinFreeDaysWithExactLessons(t *testing.T) {
	// Six weekly hours at exactly two lessons per teaching day, with two
	// days kept free, forces exactly three teaching days.
	input := Input{
		SchoolSettings: weekSettings(),
		Subjects: []models.Subject{
			{ID: "math", HoursPerWeek: 3},
			{ID: "english", HoursPerWeek: 3},
		},
		Teachers: []models.Teacher{
			{ID: "t-1", Subjects: []string{"math"}},
			{ID: "t-2", Subjects: []string{"english"}},
		},
		Classes: []models.Class{
			{ID: "c-1", Name: "10A", RequiredSubjects: []string{"math", "english"}},
		},
	}
	input.SchoolSettings.ExactLessonsPerDay = intPtr(2)
	input.SchoolSettings.MinFreeDaysPerWeek = intPtr(2)

	result, err := Generate(context.Background(), input, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)

	lessonsByDay := make(map[string]int)
	for _, e := range result.Entries {
		if !e.IsBreak {
			lessonsByDay[e.Day]++
		}
	}
	assert.Len(t, lessonsByDay, 3, "two of five days must stay free")
	for day, n := range lessonsByDay {
		assert.Equal(t, 2, n, "day %s must hold exactly two lessons", day)
	}
	assertScheduleInvariants(t, input, result.Entries)
}

func TestGenerateFreePeriodForSpecificClass(t *testing.T) {
	settings := weekSettings()
	settings.FreePeriods = []models.FreePeriod{
		{Name: "Counselling", StartTime: "08:00", Duration: 60, Days: []string{"Monday"}, ForClasses: []string{"c-2"}},
	}
	input := Input{
		SchoolSettings: settings,
		Subjects:       []models.Subject{{ID: "math", HoursPerWeek: 3}},
		Teachers: []models.Teacher{
			{ID: "t-1", Subjects: []string{"math"}},
			{ID: "t-2", Subjects: []string{"math"}},
		},
		Classes: []models.Class{
			{ID: "c-1", Name: "10A", RequiredSubjects: []string{"math"}},
			{ID: "c-2", Name: "10B", RequiredSubjects: []string{"math"}},
		},
	}

	result, err := Generate(context.Background(), input, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)
	for _, e := range result.Entries {
		if e.ClassID == "c-2" && e.Day == "Monday" && e.StartTime == "08:00" {
			require.True(t, e.IsBreak, "blocked class must not sit a lesson in its free period")
		}
	}
	assertScheduleInvariants(t, input, result.Entries)
}

func TestGenerateRejectsFreePeriodUnknownClass(t *testing.T) {
	input := smallSchool()
	input.SchoolSettings.FreePeriods = []models.FreePeriod{
		{Name: "Counselling", StartTime: "08:00", Duration: 60, Days: []string{"Monday"}, ForClasses: []string{"c-ghost"}},
	}

	_, err := Generate(context.Background(), input, Options{})
	require.Error(t, err)
	engErr, ok := AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, KindInput, engErr.Kind)
	assert.Contains(t, engErr.Message, "c-ghost")
}

func TestGenerateInfeasibleTeacherOverload(t *testing.T) {
	// One teacher, two classes, and a weekly cap that covers only one
	// class's demand: provably infeasible, not a timeout.
	input := Input{
		SchoolSettings: models.SchoolSettings{
			StartTime:           "08:00",
			EndTime:             "10:00",
			LessonDuration:      60,
			LunchBreakStartTime: "12:00",
			LunchBreakDuration:  60,
			WorkingDays:         []string{"Monday", "Tuesday"},
		},
		Subjects: []models.Subject{{ID: "physics", HoursPerWeek: 2}},
		Teachers: []models.Teacher{{ID: "t-solo", Subjects: []string{"physics"}, MaxHoursPerWeek: 2}},
		Classes: []models.Class{
			{ID: "c-1", Name: "10A", RequiredSubjects: []string{"physics"}},
			{ID: "c-2", Name: "10B", RequiredSubjects: []string{"physics"}},
		},
	}

	result, err := Generate(context.Background(), input, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusInfeasible, result.Status)
	assert.Empty(t, result.Entries, "an infeasible result must not carry a partial schedule")

	require.NotEmpty(t, result.Conflicts)
	found := false
	for _, c := range result.Conflicts {
		if c.Dimension == models.ConflictDimensionTeacher && c.TeacherID == "t-solo" {
			found = true
		}
	}
	assert.True(t, found, "conflicts must name the overloaded teacher, got %+v", result.Conflicts)
}

func TestGenerateTimedOutIsNotInfeasible(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Generate(ctx, smallSchool(), Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusTimedOut, result.Status)
	assert.Empty(t, result.Entries)
	assert.Empty(t, result.Conflicts)
}

func TestGenerateStepBudget(t *testing.T) {
	result, err := Generate(context.Background(), smallSchool(), Options{MaxSteps: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusTimedOut, result.Status)
}

func TestGenerateRejectsUnknownSubjectReference(t *testing.T) {
	input := smallSchool()
	input.Classes[0].RequiredSubjects = append(input.Classes[0].RequiredSubjects, "alchemy")

	_, err := Generate(context.Background(), input, Options{})
	require.Error(t, err)
	engErr, ok := AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, KindInput, engErr.Kind)
	assert.Contains(t, engErr.Message, "alchemy")
}

func TestGenerateRejectsSubjectWithoutTeacher(t *testing.T) {
	input := smallSchool()
	input.Subjects = append(input.Subjects, models.Subject{ID: "art", HoursPerWeek: 1})
	input.Classes[0].RequiredSubjects = append(input.Classes[0].RequiredSubjects, "art")

	_, err := Generate(context.Background(), input, Options{})
	require.Error(t, err)
	engErr, ok := AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, KindNoQualifiedTeacher, engErr.Kind)
	assert.Contains(t, engErr.Message, "art")
}

func TestGenerateParallelMode(t *testing.T) {
	input := smallSchool()
	result, err := Generate(context.Background(), input, Options{Parallel: true, Workers: 2})
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)
	assertScheduleInvariants(t, input, result.Entries)
}

func TestGenerateLargerSchool(t *testing.T) {
	subjects := []models.Subject{
		{ID: "math", HoursPerWeek: 3},
		{ID: "english", HoursPerWeek: 2},
		{ID: "science", HoursPerWeek: 2},
	}
	teachers := []models.Teacher{
		{ID: "t-1", Subjects: []string{"math"}},
		{ID: "t-2", Subjects: []string{"math", "science"}},
		{ID: "t-3", Subjects: []string{"english"}},
		{ID: "t-4", Subjects: []string{"english", "science"}},
	}
	var classes []models.Class
	for i := 1; i <= 3; i++ {
		classes = append(classes, models.Class{
			ID:               fmt.Sprintf("c-%d", i),
			Name:             fmt.Sprintf("10-%d", i),
			RequiredSubjects: []string{"math", "english", "science"},
		})
	}
	settings := weekSettings()
	settings.EndTime = "15:00"

	input := Input{SchoolSettings: settings, Subjects: subjects, Teachers: teachers, Classes: classes}
	result, err := Generate(context.Background(), input, Options{})
	require.NoError(t, err)
	require.Equal(t, StatusSolved, result.Status)
	assertScheduleInvariants(t, input, result.Entries)
	assert.GreaterOrEqual(t, result.Stats.Score, 0.0)
	assert.LessOrEqual(t, result.Stats.Score, 100.0)
}
