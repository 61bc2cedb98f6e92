package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/engine"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

func newScheduleServiceFixture(settings SolverSettings) *ScheduleService {
	if settings.Timeout == 0 {
		settings.Timeout = 10 * time.Second
	}
	return NewScheduleService(settings, validator.New(), zap.NewNop(), NewMetricsService())
}

func generateRequestFixture() dto.GenerateTimetableRequest {
	return dto.GenerateTimetableRequest{
		SchoolSettings: models.SchoolSettings{
			StartTime:           "08:00",
			EndTime:             "12:00",
			LessonDuration:      60,
			LunchBreakStartTime: "10:00",
			LunchBreakDuration:  60,
			WorkingDays:         []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		},
		Subjects: []models.Subject{
			{ID: "math", Name: "Mathematics", HoursPerWeek: 3},
			{ID: "english", Name: "English", HoursPerWeek: 2},
		},
		Teachers: []models.Teacher{
			{ID: "t-math", Subjects: []string{"math"}},
			{ID: "t-english", Subjects: []string{"english"}},
		},
		Classes: []models.Class{
			{ID: "c-10a", Name: "10A", RequiredSubjects: []string{"math", "english"}},
		},
	}
}

func TestScheduleServiceGenerateSuccess(t *testing.T) {
	service := newScheduleServiceFixture(SolverSettings{})

	resp, err := service.Generate(context.Background(), generateRequestFixture())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ScheduleID)
	assert.Equal(t, string(engine.StatusSolved), resp.Status)
	assert.NotEmpty(t, resp.Entries)
	assert.Empty(t, resp.Conflicts)
	assert.Greater(t, resp.Stats.Steps, int64(0))
}

func TestScheduleServiceGenerateInfeasiblePassesThrough(t *testing.T) {
	service := newScheduleServiceFixture(SolverSettings{})

	req := generateRequestFixture()
	req.Teachers = []models.Teacher{{ID: "t-solo", Subjects: []string{"math", "english"}, MaxHoursPerWeek: 2}}
	req.Classes = append(req.Classes, models.Class{ID: "c-10b", Name: "10B", RequiredSubjects: []string{"math"}})

	resp, err := service.Generate(context.Background(), req)
	require.NoError(t, err, "infeasibility is a result, not a transport error")
	assert.Equal(t, string(engine.StatusInfeasible), resp.Status)
	assert.Empty(t, resp.Entries)
	assert.NotEmpty(t, resp.Conflicts)
}

func TestScheduleServiceGenerateValidatesRequest(t *testing.T) {
	service := newScheduleServiceFixture(SolverSettings{})

	req := generateRequestFixture()
	req.Teachers = nil

	_, err := service.Generate(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestScheduleServiceGenerateMapsEngineInputError(t *testing.T) {
	service := newScheduleServiceFixture(SolverSettings{})

	req := generateRequestFixture()
	req.SchoolSettings.EndTime = "07:00"

	_, err := service.Generate(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTimings.Code, appErr.Code)
}

func TestScheduleServiceGenerateMapsNoQualifiedTeacher(t *testing.T) {
	service := newScheduleServiceFixture(SolverSettings{})

	req := generateRequestFixture()
	req.Subjects = append(req.Subjects, models.Subject{ID: "art", HoursPerWeek: 1})
	req.Classes[0].RequiredSubjects = append(req.Classes[0].RequiredSubjects, "art")

	_, err := service.Generate(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNoQualifiedTeacher.Code, appErr.Code)
}

func TestScheduleServiceGenerateHonoursTimeout(t *testing.T) {
	service := newScheduleServiceFixture(SolverSettings{Timeout: time.Nanosecond})

	resp, err := service.Generate(context.Background(), generateRequestFixture())
	require.NoError(t, err)
	assert.Equal(t, string(engine.StatusTimedOut), resp.Status)
	assert.Empty(t, resp.Entries)
}

func TestScheduleServiceValidate(t *testing.T) {
	service := newScheduleServiceFixture(SolverSettings{})

	resp, err := service.Validate(context.Background(), generateRequestFixture())
	require.NoError(t, err)
	assert.True(t, resp.Feasible)
	assert.NotNil(t, resp.Issues)
	assert.Empty(t, resp.Issues)
}

func TestScheduleServiceValidateReportsIssues(t *testing.T) {
	service := newScheduleServiceFixture(SolverSettings{})

	req := generateRequestFixture()
	req.Subjects[0].HoursPerWeek = 40

	resp, err := service.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Feasible)
	assert.NotEmpty(t, resp.Issues)
}
