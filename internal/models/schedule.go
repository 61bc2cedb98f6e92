package models

// EntryKind discriminates lesson entries from the fixed break entries the
// decoder injects. Breaks never originate from the solver.
type EntryKind string

const (
	EntryKindLesson         EntryKind = "lesson"
	EntryKindBreakfastBreak EntryKind = "breakfast-break"
	EntryKindLunchBreak     EntryKind = "lunch-break"
)

// Reserved marker values emitted on break entries. Consumers must never
// treat them as real entity identifiers.
const (
	BreakTeacherID     = "break"
	BreakfastSubjectID = "breakfast-break"
	LunchSubjectID     = "lunch-break"
	BreakTypeBreakfast = "breakfast"
	BreakTypeLunch     = "lunch"
)

// ScheduleEntry is the engine's only output artifact: one placed lesson or
// one injected break for a class. IDs are derived from (day, start, class)
// so that identical input yields byte-identical entries.
type ScheduleEntry struct {
	ID        string    `json:"id"`
	Day       string    `json:"day"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	ClassID   string    `json:"classId"`
	SubjectID string    `json:"subjectId"`
	TeacherID string    `json:"teacherId"`
	RoomID    string    `json:"roomId,omitempty"`
	RoomName  string    `json:"roomName,omitempty"`
	Kind      EntryKind `json:"kind"`
	IsBreak   bool      `json:"isBreak"`
	BreakType string    `json:"breakType,omitempty"`
}

// ScheduleConflict names a resource contention the solver identified while
// proving an instance infeasible. The set is best-effort minimal.
type ScheduleConflict struct {
	Dimension string `json:"dimension"`
	ClassID   string `json:"classId,omitempty"`
	SubjectID string `json:"subjectId,omitempty"`
	TeacherID string `json:"teacherId,omitempty"`
	RoomID    string `json:"roomId,omitempty"`
	Message   string `json:"message"`
}

// Contention dimensions reported on infeasible results.
const (
	ConflictDimensionTeacher = "TEACHER"
	ConflictDimensionClass   = "CLASS"
	ConflictDimensionRoom    = "ROOM"
	ConflictDimensionDemand  = "DEMAND"
)
