package engine

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// instance is the compiled, index-based form of one solve. All entity
// references are resolved to dense integer indices so the search state can
// live in flat slices instead of maps.
type instance struct {
	settings models.SchoolSettings
	grid     *TimeGrid

	days     []string
	teachers []models.Teacher
	classes  []models.Class
	subjects []models.Subject
	rooms    []models.Room

	// groups are the (class, subject) demand blocks; units expand them to
	// one searchable item per required hour.
	groups []unitGroup
	units  []lessonUnit

	// teacherAvail[t][d*slots+s] is false when teacher t declared
	// availability windows and none of them covers that slot.
	teacherAvail [][]bool
	// classBlocked[c][d*slots+s] marks lesson slots consumed by a free
	// period for that class.
	classBlocked [][]bool

	// heavySubject flags subjects listed in the morning preference.
	heavySubject []bool

	teacherMaxDay  []int
	teacherMaxWeek []int
}

// unitGroup is the weekly demand of one subject for one class. The solver
// binds a single teacher to the whole group at its first placement so that
// every hour of a subject is taught by the same instructor.
type unitGroup struct {
	class    int
	subject  int
	hours    int
	teachers []int
	rooms    []int
}

// lessonUnit is one hour of one group. ordinal distinguishes the hours of
// a group but carries no semantics beyond search bookkeeping.
type lessonUnit struct {
	group   int
	ordinal int
}

func (in *instance) slotsPerDay() int   { return in.grid.LessonCount() }
func (in *instance) weeklySlots() int   { return len(in.days) * in.grid.LessonCount() }
func (in *instance) cell(d, s int) int  { return d*in.grid.LessonCount() + s }
func (in *instance) useRooms() bool     { return in.settings.UseRoomConstraints }
func (in *instance) totalDemand() int   { return len(in.units) }
func (in *instance) balanceOn() bool    { return in.settings.Preferences.BalanceSubjects() }
func (in *instance) morningPref() bool {
	return in.settings.Preferences != nil && in.settings.Preferences.PreferMorningForHeavySubjects
}

// compileDemand resolves every entity reference, expands the per-class
// curricula into lesson units and precomputes the static availability and
// free-period masks. It fails fast: an unknown reference or a subject no
// teacher can cover is rejected before any search starts.
func compileDemand(input Input, grid *TimeGrid) (*instance, error) {
	if len(input.SchoolSettings.WorkingDays) == 0 {
		return nil, inputErrorf("workingDays must not be empty")
	}
	if len(input.Teachers) == 0 {
		return nil, inputErrorf("at least one teacher is required")
	}
	if len(input.Classes) == 0 {
		return nil, inputErrorf("at least one class is required")
	}
	if len(input.Subjects) == 0 {
		return nil, inputErrorf("at least one subject is required")
	}
	if input.SchoolSettings.UseRoomConstraints && len(input.Rooms) == 0 {
		return nil, inputErrorf("room constraints are enabled but no rooms were provided")
	}

	in := &instance{
		settings: input.SchoolSettings,
		grid:     grid,
		days:     input.SchoolSettings.WorkingDays,
		teachers: input.Teachers,
		classes:  input.Classes,
		subjects: input.Subjects,
		rooms:    input.Rooms,
	}

	subjectIdx, err := indexByID(input.Subjects, func(s models.Subject) string { return s.ID }, "subject")
	if err != nil {
		return nil, err
	}
	if _, err := indexByID(input.Teachers, func(t models.Teacher) string { return t.ID }, "teacher"); err != nil {
		return nil, err
	}
	if _, err := indexByID(input.Classes, func(c models.Class) string { return c.ID }, "class"); err != nil {
		return nil, err
	}
	if _, err := indexByID(input.Rooms, func(r models.Room) string { return r.ID }, "room"); err != nil {
		return nil, err
	}

	for _, s := range input.Subjects {
		if s.HoursPerWeek <= 0 {
			return nil, inputErrorf("subject %s has no positive hoursPerWeek", s.ID)
		}
	}

	// Qualified teachers per subject, in input order for determinism.
	teachersBySubject := make(map[int][]int)
	for ti, t := range input.Teachers {
		if len(t.Subjects) == 0 {
			return nil, inputErrorf("teacher %s has no subjects", t.ID)
		}
		for _, sid := range t.Subjects {
			si, ok := subjectIdx[sid]
			if !ok {
				return nil, inputErrorf("teacher %s references unknown subject %s", t.ID, sid)
			}
			teachersBySubject[si] = append(teachersBySubject[si], ti)
		}
	}

	// When room constraints are on every room is a candidate for every
	// group; capacity is not modelled as a hard rule.
	allRooms := lo.RangeFrom(0, len(input.Rooms))

	for ci, class := range input.Classes {
		if len(class.RequiredSubjects) == 0 {
			return nil, inputErrorf("class %s has no required subjects", class.ID)
		}
		seen := make(map[int]bool, len(class.RequiredSubjects))
		for _, sid := range class.RequiredSubjects {
			si, ok := subjectIdx[sid]
			if !ok {
				return nil, inputErrorf("class %s requires unknown subject %s", class.ID, sid)
			}
			if seen[si] {
				return nil, inputErrorf("class %s lists subject %s twice", class.ID, sid)
			}
			seen[si] = true

			qualified := teachersBySubject[si]
			if len(qualified) == 0 {
				return nil, &Error{
					Kind:    KindNoQualifiedTeacher,
					Message: fmt.Sprintf("no teacher is qualified to teach subject %s required by class %s", sid, class.ID),
				}
			}

			gi := len(in.groups)
			in.groups = append(in.groups, unitGroup{
				class:    ci,
				subject:  si,
				hours:    input.Subjects[si].HoursPerWeek,
				teachers: qualified,
				rooms:    allRooms,
			})
			for h := 0; h < input.Subjects[si].HoursPerWeek; h++ {
				in.units = append(in.units, lessonUnit{group: gi, ordinal: h})
			}
		}
	}

	in.heavySubject = make([]bool, len(input.Subjects))
	if in.morningPref() {
		for _, sid := range input.SchoolSettings.Preferences.HeavySubjects {
			if si, ok := subjectIdx[sid]; ok {
				in.heavySubject[si] = true
			}
		}
	}

	in.teacherMaxDay = lo.Map(input.Teachers, func(t models.Teacher, _ int) int { return t.EffectiveMaxHoursPerDay() })
	in.teacherMaxWeek = lo.Map(input.Teachers, func(t models.Teacher, _ int) int { return t.EffectiveMaxHoursPerWeek() })

	if err := in.compileAvailability(); err != nil {
		return nil, err
	}
	if err := in.compileFreePeriods(); err != nil {
		return nil, err
	}
	return in, nil
}

// compileAvailability expands availability windows into a per-teacher slot
// mask. A window covers a lesson slot only when it contains the whole slot
// interval; a teacher without windows is unrestricted.
func (in *instance) compileAvailability() error {
	dayIdx := dayIndex(in.days)
	in.teacherAvail = make([][]bool, len(in.teachers))
	for ti, t := range in.teachers {
		mask := make([]bool, in.weeklySlots())
		if len(t.Availability) == 0 {
			for i := range mask {
				mask[i] = true
			}
			in.teacherAvail[ti] = mask
			continue
		}
		for _, win := range t.Availability {
			d, ok := dayIdx[win.Day]
			if !ok {
				// Windows on non-working days contribute nothing.
				continue
			}
			for _, r := range win.TimeSlots {
				startMin, err := parseClock(r.StartTime)
				if err != nil {
					return inputErrorf("teacher %s availability: %v", t.ID, err)
				}
				endMin, err := parseClock(r.EndTime)
				if err != nil {
					return inputErrorf("teacher %s availability: %v", t.ID, err)
				}
				for s, slotIdx := range in.grid.LessonSlots {
					slot := in.grid.Slots[slotIdx]
					if slot.StartMin >= startMin && slot.EndMin <= endMin {
						mask[in.cell(d, s)] = true
					}
				}
			}
		}
		in.teacherAvail[ti] = mask
	}
	return nil
}

// compileFreePeriods marks the lesson slots each free period removes from
// the affected classes.
func (in *instance) compileFreePeriods() error {
	dayIdx := dayIndex(in.days)
	in.classBlocked = make([][]bool, len(in.classes))
	for ci := range in.classes {
		in.classBlocked[ci] = make([]bool, in.weeklySlots())
	}

	for _, fp := range in.settings.FreePeriods {
		startMin, err := parseClock(fp.StartTime)
		if err != nil {
			return inputErrorf("free period %q: %v", fp.Name, err)
		}
		if fp.Duration <= 0 {
			return inputErrorf("free period %q has no positive duration", fp.Name)
		}
		endMin := startMin + fp.Duration

		days := resolveDays(fp.Days, in.days, dayIdx)
		classes, err := in.resolveClasses(fp)
		if err != nil {
			return err
		}

		for _, d := range days {
			for s, slotIdx := range in.grid.LessonSlots {
				slot := in.grid.Slots[slotIdx]
				if slot.StartMin < endMin && slot.EndMin > startMin {
					for _, ci := range classes {
						in.classBlocked[ci][in.cell(d, s)] = true
					}
				}
			}
		}
	}
	return nil
}

func (in *instance) resolveClasses(fp models.FreePeriod) ([]int, error) {
	if len(fp.ForClasses) == 0 || lo.Contains(fp.ForClasses, "all") {
		return lo.RangeFrom(0, len(in.classes)), nil
	}
	var out []int
	for _, id := range fp.ForClasses {
		_, ci, found := lo.FindIndexOf(in.classes, func(c models.Class) bool { return c.ID == id })
		if !found {
			return nil, inputErrorf("free period %q references unknown class %s", fp.Name, id)
		}
		out = append(out, ci)
	}
	sort.Ints(out)
	return out, nil
}

func resolveDays(requested, working []string, dayIdx map[string]int) []int {
	if len(requested) == 0 || lo.Contains(requested, "all") {
		return lo.RangeFrom(0, len(working))
	}
	var out []int
	for _, day := range requested {
		if d, ok := dayIdx[day]; ok {
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out
}

func dayIndex(days []string) map[string]int {
	idx := make(map[string]int, len(days))
	for i, d := range days {
		idx[d] = i
	}
	return idx
}

func indexByID[T any](items []T, id func(T) string, kind string) (map[string]int, error) {
	idx := make(map[string]int, len(items))
	for i, item := range items {
		key := id(item)
		if key == "" {
			return nil, inputErrorf("%s at position %d has an empty id", kind, i)
		}
		if prev, dup := idx[key]; dup {
			return nil, inputErrorf("duplicate %s id %s at positions %d and %d", kind, key, prev, i)
		}
		idx[key] = i
	}
	return idx, nil
}
