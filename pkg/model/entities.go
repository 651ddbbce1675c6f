package model

import "time"

const (
	DateLayout     = "2006-01-02"
	ClockLayout    = "15:04"
	dateTimeLayout = DateLayout + " " + ClockLayout
)

// Score given to every (teacher, session) pair without an explicit preference
const NeutralPreference float64 = 0

// Half-open interval [Start, End)
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

func (window TimeWindow) Overlaps(other TimeWindow) bool {
	return window.Start.Before(other.End) && other.Start.Before(window.End)
}

func (window TimeWindow) Duration() time.Duration {
	return window.End.Sub(window.Start)
}

func (window TimeWindow) Date() string {
	return window.Start.Format(DateLayout)
}

type ExamSession struct {
	Id          string
	Window      TimeWindow
	Subject     string
	Rooms       []string
	Required    int      // Exact number of invigilators the session needs
	Tags        []string // Specializations an invigilator must hold
	Responsible []string // Teachers in charge of the exam, kept free during it
}

type Teacher struct {
	Id         string
	Name       string
	Department string
	Grade      string
	MinQuota   int
	MaxQuota   int
	Tags       []string
	Blackouts  []TimeWindow
}

type Preference struct {
	Teacher string
	Session string
	Score   float64
}

type PinnedAssignment struct {
	Teacher string `mapstructure:"teacher" json:"teacher" yaml:"teacher" validate:"required"`
	Session string `mapstructure:"session" json:"session" yaml:"session" validate:"required"`
}

type Assignment struct {
	Teacher string `json:"teacher" yaml:"teacher"`
	Session string `json:"session" yaml:"session"`
	Pinned  bool   `json:"pinned" yaml:"pinned"`
}

// Hard rule families. The compiler tags every constraint with one of them and the auditor reports violations with them
type ConstraintClass string

const (
	ClassCoverage    ConstraintClass = "coverage"
	ClassNoOverlap   ConstraintClass = "no_overlap"
	ClassEligibility ConstraintClass = "eligibility"
	ClassBlackout    ConstraintClass = "blackout"
	ClassResponsible ConstraintClass = "responsible"
	ClassQuotaMax    ConstraintClass = "quota_max"
	ClassQuotaMin    ConstraintClass = "quota_min"
	ClassDailyLimit  ConstraintClass = "daily_limit"
	ClassPinned      ConstraintClass = "pinned"
	ClassLoad        ConstraintClass = "load"
	ClassCapacity    ConstraintClass = "capacity"
)

type Status string

const (
	StatusOptimal            Status = "optimal"
	StatusFeasibleSuboptimal Status = "feasible_suboptimal"
	StatusInfeasible         Status = "infeasible"
	StatusTimedOut           Status = "timed_out"
	StatusSolverError        Status = "solver_error"
)

type TeacherMetrics struct {
	Teacher         string  `json:"teacher" yaml:"teacher"`
	Duties          int     `json:"duties" yaml:"duties"`
	PreferenceScore float64 `json:"preference_score" yaml:"preference_score"`
	QuotaExcess     int     `json:"quota_excess" yaml:"quota_excess"` // Duties above the minimum quota
	WorkingDays     int     `json:"working_days" yaml:"working_days"`
	IsolatedDays    int     `json:"isolated_days" yaml:"isolated_days"` // Days with a single duty
	GapDays         int     `json:"gap_days" yaml:"gap_days"`           // Idle days between the first and last working day
	Satisfaction    float64 `json:"satisfaction" yaml:"satisfaction"`   // 0 to 100
}

type RosterMetrics struct {
	Teachers        []TeacherMetrics `json:"teachers" yaml:"teachers"`
	MeanDuties      float64          `json:"mean_duties" yaml:"mean_duties"`
	DutyVariance    float64          `json:"duty_variance" yaml:"duty_variance"`
	DutyStdDev      float64          `json:"duty_std_dev" yaml:"duty_std_dev"`
	PreferenceScore float64          `json:"preference_score" yaml:"preference_score"`
	Coverage        map[string]int   `json:"coverage" yaml:"coverage"` // Assigned invigilators per session
}

// Roster is produced once per run and never mutated afterwards; edits are new runs with pinned assignments
type Roster struct {
	Id            string        `json:"id" yaml:"id"`
	Status        Status        `json:"status" yaml:"status"`
	Assignments   []Assignment  `json:"assignments" yaml:"assignments"`
	FairnessScore float64       `json:"fairness_score" yaml:"fairness_score"`
	Metrics       RosterMetrics `json:"metrics" yaml:"metrics"`
}

// Assignments of a single teacher, in roster order
func (roster Roster) AssignmentsOf(teacher string) []Assignment {
	assignments := make([]Assignment, 0)
	for _, assignment := range roster.Assignments {
		if assignment.Teacher == teacher {
			assignments = append(assignments, assignment)
		}
	}
	return assignments
}

// Pins reproduces every assignment of the roster as a pinned assignment for an incremental re-run
func (roster Roster) Pins() []PinnedAssignment {
	pins := make([]PinnedAssignment, 0, len(roster.Assignments))
	for _, assignment := range roster.Assignments {
		pins = append(pins, PinnedAssignment{Teacher: assignment.Teacher, Session: assignment.Session})
	}
	return pins
}
