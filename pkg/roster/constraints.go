package roster

import (
	"slices"

	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/limaJavier/invigilation/pkg/sat"
	"github.com/samber/lo"
)

type constraintState struct {
	canonical *model.Model
	config    model.RunConfiguration
	evaluator predicateEvaluator
	indexer   indexer
	generator permutationGenerator

	teachers,
	sessions int
}

// Σ_j x(j, s) = Required(s), or ≥ Required(s) when overstaffing is tolerated
func coverageConstraints(state constraintState) []sat.Constraint {
	problem := sat.Problem{}
	for session := range state.sessions {
		variables := sessionVariables(state, session)
		required := state.canonical.Sessions[session].Required

		if state.config.CoverageMode == model.CoverageAtLeast {
			problem.AtLeast(string(model.ClassCoverage), variables, required)
		} else {
			problem.Exactly(string(model.ClassCoverage), variables, required)
		}
	}
	return problem.Constraints
}

// ¬x(j, s) ∨ ¬x(j, s') for every teacher j eligible for two overlapping sessions s < s'
func noOverlapConstraints(state constraintState) []sat.Constraint {
	permutations := state.generator.ConstrainedPermutations([]func(permutation []int) bool{
		// Eligible(j, s) = 1
		func(permutation []int) bool {
			teacher, session := permutation[0], permutation[1]

			return teacher == unset ||
				session == unset ||

				// Actual predicate
				state.evaluator.Eligible(teacher, session)
		},
		// s < s', Overlap(s, s') = 1
		func(permutation []int) bool {
			session1, session2 := permutation[1], permutation[2]

			return session1 == unset ||
				session2 == unset ||

				// Actual predicate
				session1 < session2 && state.evaluator.Overlap(session1, session2)
		},
		// Eligible(j, s') = 1
		func(permutation []int) bool {
			teacher, session := permutation[0], permutation[2]

			return teacher == unset ||
				session == unset ||

				// Actual predicate
				state.evaluator.Eligible(teacher, session)
		},
	})

	problem := sat.Problem{}
	for _, permutation := range permutations {
		teacher, session1, session2 := permutation[0], permutation[1], permutation[2]
		variable1, _ := state.indexer.Index(teacher, session1)
		variable2, _ := state.indexer.Index(teacher, session2)
		problem.Clause(string(model.ClassNoOverlap), -variable1, -variable2)
	}
	return problem.Constraints
}

// Σ_s x(j, s) ≤ MaxQuota(j)
func quotaMaxConstraints(state constraintState) []sat.Constraint {
	problem := sat.Problem{}
	for teacher := range state.teachers {
		variables := teacherVariables(state, teacher)
		maxQuota := state.canonical.Teachers[teacher].MaxQuota
		// Skip bounds that cannot be exceeded
		if maxQuota < len(variables) {
			problem.AtMost(string(model.ClassQuotaMax), variables, maxQuota)
		}
	}
	return problem.Constraints
}

// Σ_s x(j, s) ≥ MinQuota(j). Soft minimum quotas are relaxed by deficit variables added with the objective
func quotaMinConstraints(state constraintState) []sat.Constraint {
	problem := sat.Problem{}
	if state.config.MinQuotaMode == model.QuotaSoft {
		return problem.Constraints
	}
	for teacher := range state.teachers {
		minQuota := state.canonical.Teachers[teacher].MinQuota
		if minQuota > 0 {
			problem.AtLeast(string(model.ClassQuotaMin), teacherVariables(state, teacher), minQuota)
		}
	}
	return problem.Constraints
}

// Σ_{s on day d} x(j, s) ≤ MaxSessionsPerDay for every teacher j and date d
func dailyLimitConstraints(state constraintState) []sat.Constraint {
	problem := sat.Problem{}
	limit := state.config.MaxSessionsPerDay
	if limit <= 0 {
		return problem.Constraints
	}

	for teacher := range state.teachers {
		days := make([][]int, 0) // Eligible sessions grouped by date, in order of first appearance
		for _, session := range state.canonical.EligibleSessions(teacher) {
			day := slices.IndexFunc(days, func(sessions []int) bool { return state.evaluator.SameDay(sessions[0], session) })
			if day < 0 {
				days = append(days, []int{session})
				continue
			}
			days[day] = append(days[day], session)
		}

		for _, sessions := range days {
			if len(sessions) <= limit {
				continue
			}
			variables := lo.Map(sessions, func(session int, _ int) int {
				variable, _ := state.indexer.Index(teacher, session)
				return variable
			})
			problem.AtMost(string(model.ClassDailyLimit), variables, limit)
		}
	}
	return problem.Constraints
}

// x(j, s) for every pinned pair
func pinnedConstraints(state constraintState) []sat.Constraint {
	problem := sat.Problem{}
	for variable := 1; variable <= state.indexer.Variables(); variable++ {
		if state.evaluator.Pinned(state.indexer.Attributes(variable)) {
			problem.Clause(string(model.ClassPinned), variable)
		}
	}
	return problem.Constraints
}

func teacherVariables(state constraintState, teacher int) []int {
	variables := make([]int, 0)
	for _, session := range state.canonical.EligibleSessions(teacher) {
		variable, _ := state.indexer.Index(teacher, session)
		variables = append(variables, variable)
	}
	return variables
}

func sessionVariables(state constraintState, session int) []int {
	variables := make([]int, 0)
	for _, teacher := range state.canonical.Candidates(session) {
		variable, _ := state.indexer.Index(teacher, session)
		variables = append(variables, variable)
	}
	return variables
}
