package dto

import (
	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// GenerateTimetableRequest carries the full school configuration for one
// timetable solve.
type GenerateTimetableRequest struct {
	SchoolSettings models.SchoolSettings `json:"schoolSettings" validate:"required"`
	Teachers       []models.Teacher      `json:"teachers" validate:"required,min=1,dive"`
	Classes        []models.Class        `json:"classes" validate:"required,min=1,dive"`
	Subjects       []models.Subject      `json:"subjects" validate:"required,min=1,dive"`
	Rooms          []models.Room         `json:"rooms" validate:"omitempty,dive"`
}

// SolveStats summarises the search effort behind a generated timetable.
type SolveStats struct {
	Steps      int64   `json:"steps"`
	Backtracks int64   `json:"backtracks"`
	DurationMS int64   `json:"durationMs"`
	Score      float64 `json:"score"`
}

// GenerateTimetableResponse returns the solved schedule, or the conflict
// set when the instance is provably unsolvable.
type GenerateTimetableResponse struct {
	ScheduleID string                    `json:"scheduleId"`
	Status     string                    `json:"status"`
	Entries    []models.ScheduleEntry    `json:"entries"`
	Conflicts  []models.ScheduleConflict `json:"conflicts,omitempty"`
	Stats      SolveStats                `json:"stats"`
}

// ValidateTimetableResponse reports the feasibility pre-check verdict.
type ValidateTimetableResponse struct {
	Feasible bool     `json:"feasible"`
	Issues   []string `json:"issues"`
}
