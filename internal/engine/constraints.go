package engine

// placement fixes one lesson unit of a group at (day, slot) under a
// teacher; room is -1 when room constraints are off.
type placement struct {
	day     int
	slot    int
	teacher int
	room    int
}

// searchState is the mutable hard-constraint model the solver places
// against. Every table is indexed by compiled instance indices; place and
// unplace are exact inverses so backtracking restores the state verbatim.
type searchState struct {
	in *instance

	classBusy   [][]bool // [class][day*slots+slot]
	teacherBusy [][]bool
	roomBusy    [][]bool

	teacherDay  [][]int // hours taught per day
	teacherWeek []int

	classDay        [][]int   // lessons per class per day
	classDaySubject [][][]int // lessons of each subject per class per day
	classDays       []int     // days on which the class has at least one lesson
	classPlaced     []int

	// groupTeacher pins the instructor chosen at a group's first
	// placement; -1 while unbound.
	groupTeacher []int
	groupPlaced  []int

	// Remaining-capacity counters backing the forward check.
	classFree        []int // open slots left per class (not busy, not blocked)
	classRemaining   []int // unplaced units per class
	teacherCommitted []int // unplaced units of groups already bound to the teacher
	teacherWeekAvail []int // weekly cap minus hours already placed
}

func newSearchState(in *instance) *searchState {
	st := &searchState{in: in}
	week := in.weeklySlots()

	st.classBusy = boolTable(len(in.classes), week)
	st.teacherBusy = boolTable(len(in.teachers), week)
	if in.useRooms() {
		st.roomBusy = boolTable(len(in.rooms), week)
	}

	st.teacherDay = intTable(len(in.teachers), len(in.days))
	st.teacherWeek = make([]int, len(in.teachers))

	st.classDay = intTable(len(in.classes), len(in.days))
	st.classDaySubject = make([][][]int, len(in.classes))
	for c := range in.classes {
		st.classDaySubject[c] = intTable(len(in.days), len(in.subjects))
	}
	st.classDays = make([]int, len(in.classes))
	st.classPlaced = make([]int, len(in.classes))

	st.groupTeacher = make([]int, len(in.groups))
	for g := range st.groupTeacher {
		st.groupTeacher[g] = -1
	}
	st.groupPlaced = make([]int, len(in.groups))

	st.classFree = make([]int, len(in.classes))
	st.classRemaining = make([]int, len(in.classes))
	for c := range in.classes {
		for cell := 0; cell < week; cell++ {
			if !in.classBlocked[c][cell] {
				st.classFree[c]++
			}
		}
	}
	for _, g := range in.groups {
		st.classRemaining[g.class] += g.hours
	}
	st.teacherCommitted = make([]int, len(in.teachers))
	st.teacherWeekAvail = make([]int, len(in.teachers))
	for t := range in.teachers {
		st.teacherWeekAvail[t] = in.teacherMaxWeek[t]
	}
	return st
}

// canPlace reports whether assigning group g to (day, slot, teacher, room)
// violates any hard rule in the current state.
func (st *searchState) canPlace(g int, p placement) bool {
	in := st.in
	grp := in.groups[g]
	cell := in.cell(p.day, p.slot)

	if st.classBusy[grp.class][cell] || in.classBlocked[grp.class][cell] {
		return false
	}
	if st.teacherBusy[p.teacher][cell] || !in.teacherAvail[p.teacher][cell] {
		return false
	}
	if bound := st.groupTeacher[g]; bound >= 0 && bound != p.teacher {
		return false
	}
	if in.useRooms() && st.roomBusy[p.room][cell] {
		return false
	}
	if st.teacherDay[p.teacher][p.day] >= in.teacherMaxDay[p.teacher] {
		return false
	}
	if st.teacherWeek[p.teacher] >= in.teacherMaxWeek[p.teacher] {
		return false
	}

	settings := in.settings
	if settings.ExactLessonsPerDay != nil && st.classDay[grp.class][p.day] >= *settings.ExactLessonsPerDay {
		return false
	}
	if settings.MaxSubjectsPerDay != nil &&
		st.classDaySubject[grp.class][p.day][grp.subject] == 0 &&
		st.distinctSubjects(grp.class, p.day) >= *settings.MaxSubjectsPerDay {
		return false
	}
	// Opening a new teaching day must leave the free-day budget intact.
	if settings.MinFreeDaysPerWeek != nil && st.classDay[grp.class][p.day] == 0 &&
		st.classDays[grp.class]+1 > len(in.days)-*settings.MinFreeDaysPerWeek {
		return false
	}
	return true
}

func (st *searchState) place(g int, p placement) {
	in := st.in
	grp := in.groups[g]
	cell := in.cell(p.day, p.slot)

	st.classBusy[grp.class][cell] = true
	st.teacherBusy[p.teacher][cell] = true
	if in.useRooms() {
		st.roomBusy[p.room][cell] = true
	}

	st.teacherDay[p.teacher][p.day]++
	st.teacherWeek[p.teacher]++
	st.teacherWeekAvail[p.teacher]--

	if st.classDay[grp.class][p.day] == 0 {
		st.classDays[grp.class]++
	}
	st.classDay[grp.class][p.day]++
	st.classDaySubject[grp.class][p.day][grp.subject]++
	st.classPlaced[grp.class]++
	st.classFree[grp.class]--
	st.classRemaining[grp.class]--

	if st.groupTeacher[g] < 0 {
		st.groupTeacher[g] = p.teacher
		st.teacherCommitted[p.teacher] += grp.hours
	}
	st.groupPlaced[g]++
	st.teacherCommitted[p.teacher]--
}

func (st *searchState) unplace(g int, p placement) {
	in := st.in
	grp := in.groups[g]
	cell := in.cell(p.day, p.slot)

	st.classBusy[grp.class][cell] = false
	st.teacherBusy[p.teacher][cell] = false
	if in.useRooms() {
		st.roomBusy[p.room][cell] = false
	}

	st.teacherDay[p.teacher][p.day]--
	st.teacherWeek[p.teacher]--
	st.teacherWeekAvail[p.teacher]++

	st.classDay[grp.class][p.day]--
	if st.classDay[grp.class][p.day] == 0 {
		st.classDays[grp.class]--
	}
	st.classDaySubject[grp.class][p.day][grp.subject]--
	st.classPlaced[grp.class]--
	st.classFree[grp.class]++
	st.classRemaining[grp.class]++

	st.teacherCommitted[p.teacher]++
	st.groupPlaced[g]--
	if st.groupPlaced[g] == 0 {
		st.teacherCommitted[p.teacher] -= grp.hours
		st.groupTeacher[g] = -1
	}
}

// forwardOK runs the cheap necessary-condition checks after a placement:
// every class must still have enough open slots for its remaining demand
// and every bound teacher enough weekly headroom for the hours committed
// to them. A false return means the current branch cannot complete.
func (st *searchState) forwardOK() bool {
	for c := range st.in.classes {
		if st.classRemaining[c] > st.classFree[c] {
			return false
		}
	}
	for t := range st.in.teachers {
		if st.teacherCommitted[t] > st.teacherWeekAvail[t] {
			return false
		}
	}
	return true
}

// completionOK verifies the whole-week constraints that only a finished
// assignment can satisfy or violate.
func (st *searchState) completionOK() bool {
	settings := st.in.settings
	for c := range st.in.classes {
		for d := range st.in.days {
			n := st.classDay[c][d]
			if n == 0 {
				continue
			}
			if settings.ExactLessonsPerDay != nil && n != *settings.ExactLessonsPerDay {
				return false
			}
			if settings.MinSubjectsPerDay != nil && st.distinctSubjects(c, d) < *settings.MinSubjectsPerDay {
				return false
			}
		}
	}
	return true
}

func (st *searchState) distinctSubjects(c, d int) int {
	n := 0
	for _, cnt := range st.classDaySubject[c][d] {
		if cnt > 0 {
			n++
		}
	}
	return n
}

func boolTable(rows, cols int) [][]bool {
	t := make([][]bool, rows)
	for i := range t {
		t[i] = make([]bool, cols)
	}
	return t
}

func intTable(rows, cols int) [][]int {
	t := make([][]int, rows)
	for i := range t {
		t[i] = make([]int, cols)
	}
	return t
}
