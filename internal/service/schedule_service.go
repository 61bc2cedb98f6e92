package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/engine"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

// SolverSettings bounds every solve the service runs.
type SolverSettings struct {
	Timeout  time.Duration
	MaxSteps int64
	Parallel bool
	Workers  int
}

// ScheduleService fronts the timetable engine: it validates requests,
// enforces the solve budget and maps engine outcomes onto the API error
// vocabulary.
type ScheduleService struct {
	settings  SolverSettings
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(settings SolverSettings, v *validator.Validate, logger *zap.Logger, metrics *MetricsService) *ScheduleService {
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	return &ScheduleService{settings: settings, validator: v, logger: logger, metrics: metrics}
}

// Generate runs one full timetable solve. An infeasible instance and an
// exhausted budget both surface in the response status; only malformed
// input or solver faults return an error.
func (s *ScheduleService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, s.settings.Timeout)
	defer cancel()

	input := engine.Input{
		SchoolSettings: req.SchoolSettings,
		Teachers:       req.Teachers,
		Classes:        req.Classes,
		Subjects:       req.Subjects,
		Rooms:          req.Rooms,
	}
	opts := engine.Options{
		MaxSteps: s.settings.MaxSteps,
		Parallel: s.settings.Parallel,
		Workers:  s.settings.Workers,
	}

	result, err := engine.Generate(ctx, input, opts)
	if err != nil {
		return nil, s.mapEngineError(err)
	}

	s.metrics.ObserveSolve(result.Status, result.Stats)
	s.logger.Info("timetable_solve",
		zap.String("status", string(result.Status)),
		zap.Int("classes", len(req.Classes)),
		zap.Int("entries", len(result.Entries)),
		zap.Int64("steps", result.Stats.Steps),
		zap.Int64("backtracks", result.Stats.Backtracks),
		zap.Duration("duration", result.Stats.Duration),
	)

	return &dto.GenerateTimetableResponse{
		ScheduleID: uuid.NewString(),
		Status:     string(result.Status),
		Entries:    result.Entries,
		Conflicts:  result.Conflicts,
		Stats: dto.SolveStats{
			Steps:      result.Stats.Steps,
			Backtracks: result.Stats.Backtracks,
			DurationMS: result.Stats.DurationMS,
			Score:      result.Stats.Score,
		},
	}, nil
}

// Validate runs the feasibility pre-check without solving.
func (s *ScheduleService) Validate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.ValidateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	report := engine.Validate(engine.Input{
		SchoolSettings: req.SchoolSettings,
		Teachers:       req.Teachers,
		Classes:        req.Classes,
		Subjects:       req.Subjects,
		Rooms:          req.Rooms,
	})

	s.metrics.ObserveValidation(report.Feasible)
	s.logger.Info("timetable_validate",
		zap.Bool("feasible", report.Feasible),
		zap.Int("issues", len(report.Issues)),
	)

	issues := report.Issues
	if issues == nil {
		issues = []string{}
	}
	return &dto.ValidateTimetableResponse{Feasible: report.Feasible, Issues: issues}, nil
}

func (s *ScheduleService) mapEngineError(err error) error {
	engErr, ok := engine.AsEngineError(err)
	if !ok {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	switch engErr.Kind {
	case engine.KindInput:
		return appErrors.Wrap(err, appErrors.ErrInvalidTimings.Code, appErrors.ErrInvalidTimings.Status, engErr.Message)
	case engine.KindNoQualifiedTeacher:
		return appErrors.Wrap(err, appErrors.ErrNoQualifiedTeacher.Code, appErrors.ErrNoQualifiedTeacher.Status, engErr.Message)
	default:
		s.logger.Error("solver_fault", zap.String("kind", string(engErr.Kind)), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
}
