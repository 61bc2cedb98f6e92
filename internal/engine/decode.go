package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// decodeSolution turns the solver's group placements into the public
// schedule: one lesson entry per placed unit plus the fixed break entries
// every class shares. Output order and entry ids are fully determined by
// the input, so identical requests decode to byte-identical schedules.
func decodeSolution(in *instance, placements [][]placement) ([]models.ScheduleEntry, error) {
	dayOrder := dayIndex(in.days)
	var entries []models.ScheduleEntry

	for gi, ps := range placements {
		g := in.groups[gi]
		if len(ps) != g.hours {
			return nil, &Error{
				Kind: KindInternal,
				Message: fmt.Sprintf("group %s/%s decoded %d of %d placements",
					in.classes[g.class].ID, in.subjects[g.subject].ID, len(ps), g.hours),
			}
		}
		for _, p := range ps {
			slot := in.grid.Slots[in.grid.LessonSlots[p.slot]]
			class := in.classes[g.class]
			entry := models.ScheduleEntry{
				Day:       in.days[p.day],
				StartTime: slot.StartTime,
				EndTime:   slot.EndTime,
				ClassID:   class.ID,
				SubjectID: in.subjects[g.subject].ID,
				TeacherID: in.teachers[p.teacher].ID,
				Kind:      models.EntryKindLesson,
			}
			if in.useRooms() {
				entry.RoomID = in.rooms[p.room].ID
				entry.RoomName = in.rooms[p.room].Name
			} else {
				// Without room constraints every class stays in its own
				// room, mirrored from the class identity.
				entry.RoomID = class.ID
				entry.RoomName = "Room " + class.Name
			}
			entry.ID = entryID(entry.Day, entry.StartTime, entry.ClassID)
			entries = append(entries, entry)
		}
	}

	entries = append(entries, breakEntries(in)...)

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if dayOrder[a.Day] != dayOrder[b.Day] {
			return dayOrder[a.Day] < dayOrder[b.Day]
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ClassID < b.ClassID
	})
	return entries, nil
}

// breakEntries emits the breakfast and lunch rows for every class on every
// working day. Breaks are schedule furniture, not solver decisions, and
// carry the reserved marker ids.
func breakEntries(in *instance) []models.ScheduleEntry {
	var out []models.ScheduleEntry
	for _, day := range in.days {
		for _, slot := range in.grid.Slots {
			if slot.Kind == SlotLesson {
				continue
			}
			for _, class := range in.classes {
				entry := models.ScheduleEntry{
					Day:       day,
					StartTime: slot.StartTime,
					EndTime:   slot.EndTime,
					ClassID:   class.ID,
					TeacherID: models.BreakTeacherID,
					IsBreak:   true,
				}
				switch slot.Kind {
				case SlotBreakfastBreak:
					entry.SubjectID = models.BreakfastSubjectID
					entry.Kind = models.EntryKindBreakfastBreak
					entry.BreakType = models.BreakTypeBreakfast
				case SlotLunchBreak:
					entry.SubjectID = models.LunchSubjectID
					entry.Kind = models.EntryKindLunchBreak
					entry.BreakType = models.BreakTypeLunch
				}
				entry.ID = entryID(day, entry.StartTime, class.ID)
				out = append(out, entry)
			}
		}
	}
	return out
}

// entryID derives a stable identifier from the entry's natural key. Each
// class occupies at most one entry per (day, start), so the key is unique
// within a schedule.
func entryID(day, startTime, classID string) string {
	return strings.ToLower(day) + "-" + strings.ReplaceAll(startTime, ":", "") + "-" + classID
}

// scoreSolution grades a complete schedule 0..100 against the soft
// preferences: idle gaps inside teacher days weigh heaviest, then gaps
// inside class days, then heavy subjects landing after noon.
func scoreSolution(in *instance, placements [][]placement) float64 {
	slots := in.slotsPerDay()
	teacherCells := make([][]bool, len(in.teachers))
	for t := range teacherCells {
		teacherCells[t] = make([]bool, in.weeklySlots())
	}
	classCells := make([][]bool, len(in.classes))
	for c := range classCells {
		classCells[c] = make([]bool, in.weeklySlots())
	}

	heavyAfternoon := 0
	for gi, ps := range placements {
		g := in.groups[gi]
		for _, p := range ps {
			cell := in.cell(p.day, p.slot)
			teacherCells[p.teacher][cell] = true
			classCells[g.class][cell] = true
			if in.morningPref() && in.heavySubject[g.subject] {
				if in.grid.Slots[in.grid.LessonSlots[p.slot]].StartMin >= morningCutoffMin {
					heavyAfternoon++
				}
			}
		}
	}

	teacherGaps := 0
	for t := range teacherCells {
		for d := range in.days {
			teacherGaps += dayGaps(teacherCells[t], d, slots)
		}
	}
	classGaps := 0
	for c := range classCells {
		for d := range in.days {
			classGaps += dayGaps(classCells[c], d, slots)
		}
	}

	score := 100.0 - 2.0*float64(teacherGaps) - 1.5*float64(classGaps) - 1.0*float64(heavyAfternoon)
	if score < 0 {
		score = 0
	}
	return score
}

// dayGaps counts idle lesson slots strictly between the first and last
// occupied slot of one day.
func dayGaps(cells []bool, day, slots int) int {
	first, last := -1, -1
	for s := 0; s < slots; s++ {
		if cells[day*slots+s] {
			if first < 0 {
				first = s
			}
			last = s
		}
	}
	gaps := 0
	for s := first + 1; s < last; s++ {
		if !cells[day*slots+s] {
			gaps++
		}
	}
	return gaps
}
