package engine

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// Report is the outcome of the feasibility pre-check: a pass/fail verdict
// plus one human-readable issue per violated necessary condition. The
// checks are necessary but not sufficient; a clean report can still solve
// to infeasible.
type Report struct {
	Feasible bool     `json:"feasible"`
	Issues   []string `json:"issues"`
}

func (r *Report) add(format string, args ...any) {
	r.Feasible = false
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}

// validateInput runs structural checks over the raw input, then capacity
// arithmetic over the expanded time grid. Structural failures suppress the
// capacity checks, which would only cascade noise.
func validateInput(input Input) Report {
	report := Report{Feasible: true}

	settings := input.SchoolSettings
	if settings.StartTime == "" || settings.EndTime == "" {
		report.add("school start and end times are required")
	}
	if settings.LessonDuration <= 0 {
		report.add("lessonDuration must be a positive number of minutes")
	}
	if len(settings.WorkingDays) == 0 {
		report.add("workingDays must list at least one day")
	}
	if len(input.Teachers) == 0 {
		report.add("at least one teacher is required")
	}
	if len(input.Classes) == 0 {
		report.add("at least one class is required")
	}
	if len(input.Subjects) == 0 {
		report.add("at least one subject is required")
	}
	if settings.UseRoomConstraints && len(input.Rooms) == 0 {
		report.add("room constraints are enabled but no rooms were provided")
	}
	if settings.UseRoomConstraints && len(input.Rooms) > 0 && len(input.Rooms) < len(input.Classes) {
		report.add("room constraints need at least as many rooms (%d) as classes (%d)", len(input.Rooms), len(input.Classes))
	}

	subjectByID := lo.SliceToMap(input.Subjects, func(s models.Subject) (string, models.Subject) { return s.ID, s })
	for _, s := range input.Subjects {
		if s.HoursPerWeek <= 0 {
			report.add("subject %s has no positive hoursPerWeek", s.ID)
		}
	}
	for _, t := range input.Teachers {
		if len(t.Subjects) == 0 {
			report.add("teacher %s is not assigned any subjects", t.ID)
		}
		for _, sid := range t.Subjects {
			if _, ok := subjectByID[sid]; !ok {
				report.add("teacher %s references unknown subject %s", t.ID, sid)
			}
		}
	}
	for _, c := range input.Classes {
		if len(c.RequiredSubjects) == 0 {
			report.add("class %s has no required subjects", c.ID)
		}
		for _, sid := range c.RequiredSubjects {
			if _, ok := subjectByID[sid]; !ok {
				report.add("class %s requires unknown subject %s", c.ID, sid)
			}
		}
	}
	if !report.Feasible {
		return report
	}

	grid, err := BuildTimeGrid(settings)
	if err != nil {
		report.add("invalid timing settings: %v", err)
		return report
	}
	weeklySlots := len(settings.WorkingDays) * grid.LessonCount()

	// Per class and subject: the weekly demand has to fit the week.
	totalDemand := 0
	for _, c := range input.Classes {
		classDemand := 0
		for _, sid := range c.RequiredSubjects {
			s := subjectByID[sid]
			classDemand += s.HoursPerWeek
			if s.HoursPerWeek > weeklySlots {
				report.add("subject %s needs %d weekly hours for class %s but the week has only %d lesson slots",
					sid, s.HoursPerWeek, c.ID, weeklySlots)
			}
		}
		if classDemand > weeklySlots {
			report.add("class %s requires %d weekly lessons but the week has only %d lesson slots",
				c.ID, classDemand, weeklySlots)
		}
		totalDemand += classDemand
	}

	// Per teacher: hours only that teacher can cover must fit their cap.
	qualifiedCount := lo.CountValuesBy(
		lo.FlatMap(input.Teachers, func(t models.Teacher, _ int) []string { return t.Subjects }),
		func(sid string) string { return sid },
	)
	soleDemand := make(map[string]int)
	for _, c := range input.Classes {
		for _, sid := range c.RequiredSubjects {
			if qualifiedCount[sid] == 1 {
				soleDemand[sid] += subjectByID[sid].HoursPerWeek
			} else if qualifiedCount[sid] == 0 {
				report.add("no teacher is qualified to teach subject %s required by class %s", sid, c.ID)
			}
		}
	}
	for _, t := range input.Teachers {
		burden := 0
		for _, sid := range t.Subjects {
			burden += soleDemand[sid]
		}
		limit := t.EffectiveMaxHoursPerWeek()
		if weekly := len(settings.WorkingDays) * t.EffectiveMaxHoursPerDay(); weekly < limit {
			limit = weekly
		}
		if burden > limit {
			report.add("teacher %s is the only option for %d weekly hours but can teach at most %d", t.ID, burden, limit)
		}
	}

	// Global: total demand against total teaching supply.
	totalSupply := lo.SumBy(input.Teachers, func(t models.Teacher) int {
		limit := t.EffectiveMaxHoursPerWeek()
		if weekly := len(settings.WorkingDays) * t.EffectiveMaxHoursPerDay(); weekly < limit {
			limit = weekly
		}
		return limit
	})
	if totalDemand > totalSupply {
		report.add("classes require %d weekly lessons in total but teachers can supply at most %d", totalDemand, totalSupply)
	}

	// Rooms: aggregate weekly room capacity.
	if settings.UseRoomConstraints && totalDemand > len(input.Rooms)*weeklySlots {
		report.add("%d weekly lessons exceed the %d room-slots available", totalDemand, len(input.Rooms)*weeklySlots)
	}

	// Daily arithmetic for the exact-lessons constraint.
	if settings.ExactLessonsPerDay != nil {
		n := *settings.ExactLessonsPerDay
		if n <= 0 || n > grid.LessonCount() {
			report.add("exactLessonsPerDay is %d but a day holds %d lesson slots", n, grid.LessonCount())
		} else {
			for _, c := range input.Classes {
				classDemand := lo.SumBy(c.RequiredSubjects, func(sid string) int { return subjectByID[sid].HoursPerWeek })
				if classDemand%n != 0 {
					report.add("class %s requires %d weekly lessons, not divisible into full days of exactly %d", c.ID, classDemand, n)
				}
			}
		}
	}

	return report
}
