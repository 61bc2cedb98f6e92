// Package engine implements the timetable generation core: a pure function
// from school configuration to a conflict-free weekly schedule. The engine
// owns no durable state and performs no I/O; every solve compiles its own
// model, so independent solves are safe to run concurrently.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// Input is the complete problem description for one solve.
type Input struct {
	SchoolSettings models.SchoolSettings `json:"school_settings" validate:"required"`
	Teachers       []models.Teacher      `json:"teachers" validate:"required,min=1,dive"`
	Classes        []models.Class        `json:"classes" validate:"required,min=1,dive"`
	Subjects       []models.Subject      `json:"subjects" validate:"required,min=1,dive"`
	Rooms          []models.Room         `json:"rooms" validate:"dive"`
}

// Options bounds and tunes a solve. The zero value gives the deterministic
// single-threaded search with the default step budget.
type Options struct {
	// MaxSteps caps search loop iterations; 0 means DefaultMaxSteps.
	MaxSteps int64
	// Parallel opts into splitting the root branches across workers.
	// Parallel search is first-solution-wins and therefore not
	// deterministic in its tie-break selection.
	Parallel bool
	// Workers is the parallel fan-out; 0 means NumCPU.
	Workers int
}

// DefaultMaxSteps bounds a solve when the caller sets no step budget.
const DefaultMaxSteps int64 = 5_000_000

// Status is the terminal state of a solve.
type Status string

const (
	StatusSolved     Status = "success"
	StatusInfeasible Status = "infeasible"
	StatusTimedOut   Status = "timeout"
)

// Stats summarises the search effort behind a result.
type Stats struct {
	Steps      int64         `json:"steps"`
	Backtracks int64         `json:"backtracks"`
	Score      float64       `json:"score"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"durationMs"`
}

// Result is the outcome of Generate. Entries is populated only when Status
// is StatusSolved; a timeout or infeasibility never yields a partial
// schedule. Conflicts is populated on StatusInfeasible with the
// best-effort minimal set of contended resources.
type Result struct {
	Status    Status                    `json:"status"`
	Entries   []models.ScheduleEntry    `json:"entries"`
	Conflicts []models.ScheduleConflict `json:"conflicts,omitempty"`
	Stats     Stats                     `json:"stats"`
}

// ErrorKind classifies engine failures detected before or outside search.
type ErrorKind string

const (
	// KindInput marks malformed or inconsistent input.
	KindInput ErrorKind = "input"
	// KindNoQualifiedTeacher marks a subject demanded by a class that no
	// teacher is qualified to teach.
	KindNoQualifiedTeacher ErrorKind = "no_qualified_teacher"
	// KindInternal marks a solver invariant violation. It must never
	// occur in a correct build but stays distinguishable for
	// observability.
	KindInternal ErrorKind = "internal"
)

// Error is the engine's typed failure for pre-search rejections.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func inputErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindInput, Message: fmt.Sprintf(format, args...)}
}

// AsEngineError unwraps err into *Error when possible.
func AsEngineError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Generate runs the full pipeline: time grid, demand compilation,
// constraint model and search, then decodes the winning assignment into
// schedule entries. Cancellation and deadlines are honoured through ctx,
// polled at every search step; an expired budget yields StatusTimedOut,
// which is distinct from a proven StatusInfeasible.
func Generate(ctx context.Context, input Input, opts Options) (*Result, error) {
	grid, err := BuildTimeGrid(input.SchoolSettings)
	if err != nil {
		return nil, inputErrorf("invalid timing settings: %v", err)
	}

	inst, err := compileDemand(input, grid)
	if err != nil {
		return nil, err
	}

	// Saturated-resource arithmetic proves most infeasibilities without
	// touching the step budget.
	if conflicts := arithmeticConflicts(inst); len(conflicts) > 0 {
		return &Result{Status: StatusInfeasible, Conflicts: conflicts}, nil
	}

	solver := newSolver(inst, opts)
	outcome := solver.run(ctx)

	result := &Result{Status: outcome.status, Stats: outcome.stats}
	switch outcome.status {
	case StatusSolved:
		entries, decodeErr := decodeSolution(inst, outcome.placements)
		if decodeErr != nil {
			return nil, decodeErr
		}
		result.Entries = entries
		result.Stats.Score = scoreSolution(inst, outcome.placements)
	case StatusInfeasible:
		result.Conflicts = diagnoseInfeasibility(inst)
	}
	result.Stats.DurationMS = outcome.stats.Duration.Milliseconds()
	return result, nil
}

// Validate runs the cheap feasibility pre-checks of the validator without
// invoking the solver. A feasible report means the necessary conditions
// hold; it is not a guarantee that a full solve succeeds.
func Validate(input Input) Report {
	return validateInput(input)
}
