package engine

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// solver drives a depth-first backtracking search over the compiled
// instance. The stack is explicit so depth is bounded by the number of
// lesson units, never by goroutine stack growth, and so cancellation can
// be polled between any two steps.
type solver struct {
	in       *instance
	maxSteps int64
	parallel bool
	workers  int

	// forced pins the first placement; used by parallel workers to carve
	// the root of the search tree into disjoint subtrees.
	forced *forcedRoot
}

type forcedRoot struct {
	group int
	p     placement
}

type outcome struct {
	status     Status
	placements [][]placement // per group, in placement order
	stats      Stats
}

// frame is one level of the explicit search stack: a chosen group, its
// feasible candidates at push time and a cursor over them.
type frame struct {
	group int
	cands []placement
	next  int
	cur   placement
}

const morningCutoffMin = 12 * 60

func newSolver(in *instance, opts Options) *solver {
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &solver{in: in, maxSteps: maxSteps, parallel: opts.Parallel, workers: workers}
}

func (s *solver) run(ctx context.Context) outcome {
	if s.parallel && s.forced == nil {
		return s.runParallel(ctx)
	}
	return s.runSingle(ctx)
}

// runSingle is the deterministic search: identical input always walks the
// tree in the same order and returns the same assignment.
func (s *solver) runSingle(ctx context.Context) outcome {
	start := time.Now()
	st := newSearchState(s.in)
	var stack []*frame
	var steps, backtracks int64

	if s.forced != nil {
		if !st.canPlace(s.forced.group, s.forced.p) {
			return outcome{status: StatusInfeasible, stats: Stats{Duration: time.Since(start)}}
		}
		st.place(s.forced.group, s.forced.p)
	}

	total := s.in.totalDemand()
	placed := len(stack)
	if s.forced != nil {
		placed = 1
	}

	finish := func(status Status) outcome {
		out := outcome{
			status: status,
			stats:  Stats{Steps: steps, Backtracks: backtracks, Duration: time.Since(start)},
		}
		if status == StatusSolved {
			out.placements = collectPlacements(s, stack)
		}
		return out
	}

	for {
		steps++
		if steps > s.maxSteps || ctx.Err() != nil {
			return finish(StatusTimedOut)
		}

		if placed == total {
			if st.completionOK() {
				return finish(StatusSolved)
			}
			if !backtrack(st, &stack, &placed, &backtracks) {
				return finish(StatusInfeasible)
			}
			continue
		}

		g, cands := s.selectGroup(st)
		if len(cands) == 0 {
			if !backtrack(st, &stack, &placed, &backtracks) {
				return finish(StatusInfeasible)
			}
			continue
		}

		f := &frame{group: g, cands: cands, next: 1, cur: cands[0]}
		stack = append(stack, f)
		st.place(g, f.cur)
		placed++

		if !st.forwardOK() {
			if !backtrack(st, &stack, &placed, &backtracks) {
				return finish(StatusInfeasible)
			}
		}
	}
}

// backtrack undoes the top placement and advances to its next sibling,
// popping exhausted frames. It returns false when the whole tree is spent.
func backtrack(st *searchState, stack *[]*frame, placed *int, backtracks *int64) bool {
	*backtracks++
	for len(*stack) > 0 {
		top := (*stack)[len(*stack)-1]
		st.unplace(top.group, top.cur)
		*placed--

		for top.next < len(top.cands) {
			cand := top.cands[top.next]
			top.next++
			// Siblings were feasible at push time but may clash with
			// surviving placements of shallower frames after teacher
			// rebinding; recheck before committing.
			if !st.canPlace(top.group, cand) {
				continue
			}
			top.cur = cand
			st.place(top.group, cand)
			*placed++
			if st.forwardOK() {
				return true
			}
			st.unplace(top.group, cand)
			*placed--
		}
		*stack = (*stack)[:len(*stack)-1]
	}
	return false
}

// selectGroup applies minimum-remaining-values ordering: among groups with
// unplaced units, pick the one with the fewest feasible candidates, ties
// broken by group index. The winner's candidate list is returned already
// sorted by preference score.
func (s *solver) selectGroup(st *searchState) (int, []placement) {
	best := -1
	var bestCands []placement
	for g := range s.in.groups {
		if st.groupPlaced[g] >= s.in.groups[g].hours {
			continue
		}
		cands := s.enumerate(st, g)
		if len(cands) == 0 {
			return g, nil
		}
		if best < 0 || len(cands) < len(bestCands) {
			best, bestCands = g, cands
		}
	}
	s.orderCandidates(st, best, bestCands)
	return best, bestCands
}

// enumerate lists every feasible placement for one unit of group g. Rooms
// carry no distinguishing constraints, so only the lowest-index free room
// is offered per (day, slot); branching over interchangeable rooms would
// only multiply symmetric subtrees.
func (s *solver) enumerate(st *searchState, g int) []placement {
	in := s.in
	grp := in.groups[g]
	teachers := grp.teachers
	if bound := st.groupTeacher[g]; bound >= 0 {
		teachers = []int{bound}
	}

	var out []placement
	for d := range in.days {
		for slot := 0; slot < in.slotsPerDay(); slot++ {
			room := -1
			if in.useRooms() {
				room = s.firstFreeRoom(st, g, d, slot)
				if room < 0 {
					continue
				}
			}
			for _, t := range teachers {
				p := placement{day: d, slot: slot, teacher: t, room: room}
				if st.canPlace(g, p) {
					out = append(out, p)
				}
			}
		}
	}
	return out
}

func (s *solver) firstFreeRoom(st *searchState, g, day, slot int) int {
	cell := s.in.cell(day, slot)
	for _, r := range s.in.groups[g].rooms {
		if !st.roomBusy[r][cell] {
			return r
		}
	}
	return -1
}

// orderCandidates sorts candidates best-first by the soft preferences:
// spread a subject across days, keep class days even, keep teacher
// schedules compact, and pull heavy subjects into the morning. The final
// (day, slot, teacher, room) tie-break keeps the order total and the
// search deterministic.
func (s *solver) orderCandidates(st *searchState, g int, cands []placement) {
	type scored struct {
		p     placement
		score int
	}
	ranked := lo.Map(cands, func(p placement, _ int) scored {
		return scored{p: p, score: s.score(st, g, p)}
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		a, b := ranked[i].p, ranked[j].p
		if a.day != b.day {
			return a.day < b.day
		}
		if a.slot != b.slot {
			return a.slot < b.slot
		}
		if a.teacher != b.teacher {
			return a.teacher < b.teacher
		}
		return a.room < b.room
	})
	for i, r := range ranked {
		cands[i] = r.p
	}
}

func (s *solver) score(st *searchState, g int, p placement) int {
	in := s.in
	grp := in.groups[g]
	score := 0

	// Even class load across the week.
	score -= st.classDay[grp.class][p.day] * 8
	// One sitting of a subject per day when balancing is on.
	if in.balanceOn() && st.classDaySubject[grp.class][p.day][grp.subject] > 0 {
		score -= 25
	}
	// Compact teacher timetables: adjacency is rewarded, a detached
	// lesson on an already-used day risks a gap.
	if adj := st.teacherAdjacent(p.teacher, p.day, p.slot); adj {
		score += 12
	} else if st.teacherDay[p.teacher][p.day] > 0 {
		score -= 6
	}
	// Heavy subjects lean on morning slots.
	if in.morningPref() && in.heavySubject[grp.subject] {
		slot := in.grid.Slots[in.grid.LessonSlots[p.slot]]
		if slot.StartMin < morningCutoffMin {
			score += 15
		} else {
			score -= 15
		}
	}
	return score
}

func (st *searchState) teacherAdjacent(t, day, slot int) bool {
	if slot > 0 && st.teacherBusy[t][st.in.cell(day, slot-1)] {
		return true
	}
	if slot+1 < st.in.slotsPerDay() && st.teacherBusy[t][st.in.cell(day, slot+1)] {
		return true
	}
	return false
}

func collectPlacements(s *solver, stack []*frame) [][]placement {
	out := make([][]placement, len(s.in.groups))
	if s.forced != nil {
		out[s.forced.group] = append(out[s.forced.group], s.forced.p)
	}
	for _, f := range stack {
		out[f.group] = append(out[f.group], f.cur)
	}
	return out
}

// runParallel splits the root of the search tree: the first MRV group's
// candidates are partitioned across workers, each solving its subtrees
// independently, first solution wins. Which solution wins depends on
// scheduling, so parallel runs trade determinism for latency.
func (s *solver) runParallel(ctx context.Context) outcome {
	start := time.Now()
	st := newSearchState(s.in)
	g, cands := s.selectGroup(st)
	if len(cands) == 0 {
		return outcome{status: StatusInfeasible, stats: Stats{Duration: time.Since(start)}}
	}

	workers := s.workers
	if workers > len(cands) {
		workers = len(cands)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome, workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			agg := outcome{status: StatusInfeasible}
			for i := w; i < len(cands); i += workers {
				if ctx.Err() != nil {
					agg.status = StatusTimedOut
					break
				}
				sub := &solver{in: s.in, maxSteps: s.maxSteps, forced: &forcedRoot{group: g, p: cands[i]}}
				out := sub.runSingle(ctx)
				agg.stats.Steps += out.stats.Steps
				agg.stats.Backtracks += out.stats.Backtracks
				if out.status == StatusSolved {
					out.stats = agg.stats
					results <- out
					return
				}
				if out.status == StatusTimedOut {
					agg.status = StatusTimedOut
				}
			}
			results <- agg
		}(w)
	}

	final := outcome{status: StatusInfeasible}
	for w := 0; w < workers; w++ {
		out := <-results
		final.stats.Steps += out.stats.Steps
		final.stats.Backtracks += out.stats.Backtracks
		switch out.status {
		case StatusSolved:
			if final.status != StatusSolved {
				final.status = StatusSolved
				final.placements = out.placements
			}
			cancel()
		case StatusTimedOut:
			if final.status == StatusInfeasible {
				final.status = StatusTimedOut
			}
		}
	}
	final.stats.Duration = time.Since(start)
	return final
}

// diagnoseInfeasibility builds the best-effort conflict set for a proven
// infeasible instance. When the arithmetic checks name no saturated
// resource the proof came from constraint interaction, so the tightest
// demand block is reported instead. It never re-runs the search.
func diagnoseInfeasibility(in *instance) []models.ScheduleConflict {
	conflicts := arithmeticConflicts(in)
	if len(conflicts) > 0 {
		return conflicts
	}
	gi := tightestGroup(in)
	g := in.groups[gi]
	return []models.ScheduleConflict{{
		Dimension: models.ConflictDimensionDemand,
		ClassID:   in.classes[g.class].ID,
		SubjectID: in.subjects[g.subject].ID,
		Message: fmt.Sprintf("no conflict-free placement exists for subject %s of class %s under the configured constraints",
			in.subjects[g.subject].ID, in.classes[g.class].ID),
	}}
}

// arithmeticConflicts compares committed demand against hard supply per
// resource. Any conflict it returns proves infeasibility outright, so the
// solver consults it before spending its step budget on search.
func arithmeticConflicts(in *instance) []models.ScheduleConflict {
	var conflicts []models.ScheduleConflict
	week := in.weeklySlots()

	// A class cannot host more weekly hours than it has open slots.
	blocked := make([]int, len(in.classes))
	for c := range in.classes {
		blocked[c] = lo.CountBy(in.classBlocked[c], func(b bool) bool { return b })
	}
	demand := make([]int, len(in.classes))
	for _, g := range in.groups {
		demand[g.class] += g.hours
	}
	settings := in.settings
	for c, class := range in.classes {
		open := week - blocked[c]
		openDays := len(in.days)
		if settings.MinFreeDaysPerWeek != nil {
			openDays -= *settings.MinFreeDaysPerWeek
		}
		perDay := in.slotsPerDay()
		if settings.ExactLessonsPerDay != nil && *settings.ExactLessonsPerDay < perDay {
			perDay = *settings.ExactLessonsPerDay
		}
		if budget := openDays * perDay; budget < open {
			open = budget
		}
		if demand[c] > open {
			conflicts = append(conflicts, models.ScheduleConflict{
				Dimension: models.ConflictDimensionClass,
				ClassID:   class.ID,
				Message:   fmt.Sprintf("class %s requires %d weekly lessons but only %d slots are open", class.ID, demand[c], open),
			})
			continue
		}
		if settings.ExactLessonsPerDay != nil && demand[c]%*settings.ExactLessonsPerDay != 0 {
			conflicts = append(conflicts, models.ScheduleConflict{
				Dimension: models.ConflictDimensionClass,
				ClassID:   class.ID,
				Message: fmt.Sprintf("class %s requires %d weekly lessons, not divisible into full days of exactly %d",
					class.ID, demand[c], *settings.ExactLessonsPerDay),
			})
		}
	}

	// Hours that can only be taught by one teacher must fit that
	// teacher's weekly supply.
	soleDemand := make([]int, len(in.teachers))
	soleSubjects := make([][]int, len(in.teachers))
	for gi, g := range in.groups {
		if len(g.teachers) != 1 {
			continue
		}
		t := g.teachers[0]
		soleDemand[t] += g.hours
		soleSubjects[t] = append(soleSubjects[t], gi)
	}
	for t, teacher := range in.teachers {
		if soleDemand[t] == 0 {
			continue
		}
		avail := lo.CountBy(in.teacherAvail[t], func(ok bool) bool { return ok })
		supply := in.teacherMaxWeek[t]
		if avail < supply {
			supply = avail
		}
		if daily := len(in.days) * in.teacherMaxDay[t]; daily < supply {
			supply = daily
		}
		if soleDemand[t] > supply {
			gi := soleSubjects[t][0]
			conflicts = append(conflicts, models.ScheduleConflict{
				Dimension: models.ConflictDimensionTeacher,
				TeacherID: teacher.ID,
				SubjectID: in.subjects[in.groups[gi].subject].ID,
				Message:   fmt.Sprintf("teacher %s is the only option for %d weekly hours but can supply at most %d", teacher.ID, soleDemand[t], supply),
			})
		}
	}

	// Aggregate room capacity across the week.
	if in.useRooms() {
		total := lo.Sum(demand)
		roomSupply := len(in.rooms) * week
		if total > roomSupply {
			conflicts = append(conflicts, models.ScheduleConflict{
				Dimension: models.ConflictDimensionRoom,
				Message:   fmt.Sprintf("%d weekly lessons exceed the %d room-slots available", total, roomSupply),
			})
		}
	}

	return conflicts
}

// tightestGroup ranks demand blocks by hours per qualified teacher, the
// crudest proxy for contention.
func tightestGroup(in *instance) int {
	best, bestRatio := 0, -1.0
	for gi, g := range in.groups {
		ratio := float64(g.hours) / float64(len(g.teachers))
		if ratio > bestRatio {
			best, bestRatio = gi, ratio
		}
	}
	return best
}
