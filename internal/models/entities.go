package models

// Teacher is an instructor offered to the engine. Subjects lists the subject
// ids the teacher is qualified to teach.
type Teacher struct {
	ID              string               `json:"id" validate:"required"`
	Name            string               `json:"name"`
	Subjects        []string             `json:"subjects" validate:"required,min=1"`
	MaxHoursPerDay  int                  `json:"maxHoursPerDay"`
	MaxHoursPerWeek int                  `json:"maxHoursPerWeek"`
	Availability    []AvailabilityWindow `json:"availability,omitempty"`
}

// Default workload caps applied when a teacher record leaves them unset.
const (
	DefaultMaxHoursPerDay  = 5
	DefaultMaxHoursPerWeek = 20
)

// EffectiveMaxHoursPerDay returns the daily cap with the default applied.
func (t Teacher) EffectiveMaxHoursPerDay() int {
	if t.MaxHoursPerDay <= 0 {
		return DefaultMaxHoursPerDay
	}
	return t.MaxHoursPerDay
}

// EffectiveMaxHoursPerWeek returns the weekly cap with the default applied.
func (t Teacher) EffectiveMaxHoursPerWeek() int {
	if t.MaxHoursPerWeek <= 0 {
		return DefaultMaxHoursPerWeek
	}
	return t.MaxHoursPerWeek
}

// AvailabilityWindow declares when a teacher can be scheduled on a day.
// A teacher with no windows at all is available everywhere.
type AvailabilityWindow struct {
	Day       string              `json:"day"`
	TimeSlots []AvailabilityRange `json:"timeSlots"`
}

// AvailabilityRange is one start/end pair inside an availability window.
// It matches grid slots whose interval it fully covers.
type AvailabilityRange struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Class is a cohort of students with a required curriculum.
type Class struct {
	ID               string   `json:"id" validate:"required"`
	Name             string   `json:"name"`
	RequiredSubjects []string `json:"requiredSubjects" validate:"required,min=1"`
	Students         int      `json:"students"`
}

// Subject is a taught discipline with its weekly hour demand.
type Subject struct {
	ID           string `json:"id" validate:"required"`
	Name         string `json:"name"`
	HoursPerWeek int    `json:"hoursPerWeek" validate:"required,min=1"`
}

// Room is a physical teaching space, relevant only when room constraints
// are enabled.
type Room struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}
