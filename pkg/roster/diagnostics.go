package roster

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/limaJavier/invigilation/pkg/sat"
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Conflict explains one reason why no roster exists
type Conflict struct {
	Class    model.ConstraintClass `json:"class" yaml:"class"`
	Sessions []string              `json:"sessions,omitempty" yaml:"sessions,omitempty"`
	Teachers []string              `json:"teachers,omitempty" yaml:"teachers,omitempty"`
	Detail   string                `json:"detail" yaml:"detail"`
}

type SolveDiagnostics struct {
	RunId          string                  `json:"run_id" yaml:"run_id"`
	Status         model.Status            `json:"status" yaml:"status"`
	Caveat         string                  `json:"caveat,omitempty" yaml:"caveat,omitempty"`
	Backend        string                  `json:"backend" yaml:"backend"`
	Variables      int                     `json:"variables" yaml:"variables"`
	Constraints    int                     `json:"constraints" yaml:"constraints"`
	Cost           int                     `json:"cost" yaml:"cost"`
	BuildTime      time.Duration           `json:"build_time" yaml:"build_time"`
	CompileTime    time.Duration           `json:"compile_time" yaml:"compile_time"`
	SolveTime      time.Duration           `json:"solve_time" yaml:"solve_time"`
	Conflicts      []Conflict              `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	MinimalClasses []model.ConstraintClass `json:"minimal_classes,omitempty" yaml:"minimal_classes,omitempty"`
}

// Classes the deletion filter may relax. Load constraints only define auxiliary variables
var relaxableClasses = []model.ConstraintClass{
	model.ClassCoverage,
	model.ClassNoOverlap,
	model.ClassQuotaMax,
	model.ClassQuotaMin,
	model.ClassDailyLimit,
	model.ClassPinned,
}

// structuralConflicts looks for counting arguments that prove infeasibility without a solver
func structuralConflicts(canonical *model.Model, config model.RunConfiguration) []Conflict {
	conflicts := make([]Conflict, 0)
	if conflict, ok := capacityConflict(canonical); ok {
		conflicts = append(conflicts, conflict)
	}
	conflicts = append(conflicts, simultaneousConflicts(canonical)...)
	if conflict, ok := minQuotaConflict(canonical, config); ok {
		conflicts = append(conflicts, conflict)
	}
	return conflicts
}

// Matches every invigilator seat to a duty of an eligible teacher, each teacher offering MaxQuota duties, and names
// the sessions whose seats are left unmatched
func capacityConflict(canonical *model.Model) (Conflict, bool) {
	seats := make([][2]int, 0) // (session, seat)
	for session, examSession := range canonical.Sessions {
		for seat := range examSession.Required {
			seats = append(seats, [2]int{session, seat})
		}
	}
	duties := make([][2]int, 0) // (teacher, duty)
	for teacher, examTeacher := range canonical.Teachers {
		for duty := range examTeacher.MaxQuota {
			duties = append(duties, [2]int{teacher, duty})
		}
	}

	unmatched := unmatchedSeats(seats, duties, func(seat, duty [2]int) bool {
		return canonical.Eligible(duty[0], seat[0])
	})
	if len(unmatched) == 0 {
		return Conflict{}, false
	}

	sessions := sessionIds(canonical, unmatched)
	capacity := lo.SumBy(canonical.Teachers, func(teacher model.Teacher) int { return teacher.MaxQuota })
	return Conflict{
		Class:    model.ClassCapacity,
		Sessions: sessions,
		Detail: fmt.Sprintf(
			"sessions demand %d invigilator duties but teachers can take at most %d of them; %d seat(s) of %v cannot be staffed",
			canonical.Demand(), capacity, len(unmatched), sessions,
		),
	}, true
}

// Sessions running at the same instant need distinct teachers. Every session start is checked against the sessions
// active at that instant
func simultaneousConflicts(canonical *model.Model) []Conflict {
	conflicts := make([]Conflict, 0)
	seen := make(map[string]bool)

	for s := range canonical.Sessions {
		active := []int{s}
		for other := range canonical.Sessions {
			if other != s && canonical.Overlap(s, other) && !canonical.Sessions[other].Window.Start.After(canonical.Sessions[s].Window.Start) {
				active = append(active, other)
			}
		}
		if len(active) < 2 {
			continue
		}
		slices.Sort(active)
		key := fmt.Sprint(active)
		if seen[key] {
			continue
		}
		seen[key] = true

		seats := make([][2]int, 0)
		for _, session := range active {
			for seat := range canonical.Sessions[session].Required {
				seats = append(seats, [2]int{session, seat})
			}
		}
		teachers := make([][2]int, 0, len(canonical.Teachers))
		for teacher := range canonical.Teachers {
			teachers = append(teachers, [2]int{teacher, 0})
		}

		unmatched := unmatchedSeats(seats, teachers, func(seat, teacher [2]int) bool {
			return canonical.Eligible(teacher[0], seat[0])
		})
		if len(unmatched) == 0 {
			continue
		}

		sessions := sessionIds(canonical, seats)
		conflicts = append(conflicts, Conflict{
			Class:    model.ClassNoOverlap,
			Sessions: sessions,
			Detail: fmt.Sprintf(
				"overlapping sessions %v need %d invigilators at once but only %d can be staffed by distinct eligible teachers",
				sessions, len(seats), len(seats)-len(unmatched),
			),
		})
	}
	return conflicts
}

func minQuotaConflict(canonical *model.Model, config model.RunConfiguration) (Conflict, bool) {
	if config.MinQuotaMode == model.QuotaSoft || config.CoverageMode == model.CoverageAtLeast {
		return Conflict{}, false
	}
	total := lo.SumBy(canonical.Teachers, func(teacher model.Teacher) int { return teacher.MinQuota })
	if total <= canonical.Demand() {
		return Conflict{}, false
	}
	teachers := lo.FilterMap(canonical.Teachers, func(teacher model.Teacher, _ int) (string, bool) {
		return teacher.Id, teacher.MinQuota > 0
	})
	return Conflict{
		Class:    model.ClassQuotaMin,
		Teachers: teachers,
		Detail:   fmt.Sprintf("minimum quotas add up to %d duties but sessions only offer %d", total, canonical.Demand()),
	}, true
}

// unmatchedSeats returns the seats left out of a maximum matching
func unmatchedSeats(seats, offers [][2]int, neighbors func(seat, offer [2]int) bool) [][2]int {
	if len(offers) == 0 {
		return seats
	}

	seatsAny := lo.Map(seats, func(seat [2]int, _ int) any { return seat })
	offersAny := lo.Map(offers, func(offer [2]int, _ int) any { return offer })
	graph, err := bipartitegraph.NewBipartiteGraph(seatsAny, offersAny, func(seatAny, offerAny any) (bool, error) {
		return neighbors(seatAny.([2]int), offerAny.([2]int)), nil
	})
	if err != nil {
		return nil
	}

	matched := make(map[int]bool)
	for _, edge := range graph.LargestMatching() {
		matched[edge.Node1] = true
	}
	return lo.Filter(seats, func(_ [2]int, i int) bool { return !matched[i] })
}

func sessionIds(canonical *model.Model, seats [][2]int) []string {
	ids := lo.Uniq(lo.Map(seats, func(seat [2]int, _ int) string { return canonical.Sessions[seat[0]].Id }))
	slices.Sort(ids)
	return ids
}

// minimalClasses runs a deletion filter over the relaxable classes: a class is dropped for good when the problem stays
// infeasible without it. Undecided solves keep the class, so the result may be larger than minimal once the budget runs out
func minimalClasses(ctx context.Context, solver sat.Solver, problem sat.Problem, budget time.Duration, logger *zap.Logger) ([]model.ConstraintClass, bool) {
	deadline := time.Now().Add(budget)
	decision := problem.Decision()

	present := lo.Filter(relaxableClasses, func(class model.ConstraintClass, _ int) bool {
		return slices.Contains(decision.Classes(), string(class))
	})
	kept := slices.Clone(present)
	complete := true

	for _, class := range present {
		remaining := time.Until(deadline)
		if remaining <= 0 || ctx.Err() != nil {
			complete = false
			break
		}

		candidate := lo.Without(kept, class)
		removed := lo.Map(lo.Without(relaxableClasses, candidate...), func(class model.ConstraintClass, _ int) string { return string(class) })
		outcome, err := solver.Solve(ctx, decision.Without(removed...), remaining)
		if err != nil {
			logger.Warn("deletion filter solve failed", zap.String("class", string(class)), zap.Error(err))
			complete = false
			continue
		}

		switch outcome.Status {
		case sat.Infeasible:
			kept = candidate
		case sat.Optimal, sat.FeasibleSuboptimal:
		default:
			if !outcome.HasModel() {
				complete = false
			}
		}
	}
	return kept, complete
}
