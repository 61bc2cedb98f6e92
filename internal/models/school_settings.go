package models

// SchoolSettings carries the school-wide timing grid configuration plus the
// optional advanced scheduling constraints. Optional constraints use pointer
// fields so that "absent" is distinguishable from zero; an absent constraint
// is unconstrained, never defaulted to its most restrictive reading.
type SchoolSettings struct {
	StartTime      string `json:"startTime" validate:"required"`
	EndTime        string `json:"endTime" validate:"required"`
	LessonDuration int    `json:"lessonDuration" validate:"required,min=1"`
	BreakDuration  int    `json:"breakDuration" validate:"min=0"`

	HasBreakfastBreak       bool   `json:"hasBreakfastBreak"`
	BreakfastBreakStartTime string `json:"breakfastBreakStartTime"`
	BreakfastBreakDuration  int    `json:"breakfastBreakDuration"`
	LunchBreakStartTime     string `json:"lunchBreakStartTime" validate:"required"`
	LunchBreakDuration      int    `json:"lunchBreakDuration" validate:"required,min=1"`

	WorkingDays        []string `json:"workingDays" validate:"required,min=1"`
	UseRoomConstraints bool     `json:"useRoomConstraints"`

	MaxSubjectsPerDay  *int `json:"maxSubjectsPerDay,omitempty"`
	ExactLessonsPerDay *int `json:"exactLessonsPerDay,omitempty"`
	MinSubjectsPerDay  *int `json:"minSubjectsPerDay,omitempty"`
	MinFreeDaysPerWeek *int `json:"minFreeDaysPerWeek,omitempty"`

	FreePeriods []FreePeriod           `json:"freePeriods,omitempty"`
	Preferences *SchedulingPreferences `json:"schedulingPreferences,omitempty"`
}

// FreePeriod blocks a recurring window (assembly, sports, prayer) for a set
// of classes. Days and ForClasses accept the literal "all".
type FreePeriod struct {
	Name       string   `json:"name"`
	StartTime  string   `json:"startTime"`
	Duration   int      `json:"duration"`
	Days       []string `json:"days"`
	ForClasses []string `json:"forClasses"`
}

// SchedulingPreferences are soft preferences the solver optimises for but
// never fails on.
type SchedulingPreferences struct {
	BalanceSubjectsAcrossDays     *bool    `json:"balanceSubjectsAcrossDays,omitempty"`
	PreferMorningForHeavySubjects bool     `json:"preferMorningForHeavySubjects"`
	HeavySubjects                 []string `json:"heavySubjects,omitempty"`
}

// BalanceSubjects reports the balance preference, defaulting to enabled.
func (p *SchedulingPreferences) BalanceSubjects() bool {
	if p == nil || p.BalanceSubjectsAcrossDays == nil {
		return true
	}
	return *p.BalanceSubjectsAcrossDays
}
