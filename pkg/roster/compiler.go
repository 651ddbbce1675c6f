package roster

import (
	"context"
	"math"

	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/limaJavier/invigilation/pkg/sat"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Fractional weights and scores are kept to two decimals in the integer cost function
const costScale = 100

// maxObjective bounds the total cost so the solver's integer sums cannot overflow
const maxObjective = 1 << 50

// compilation is the formal problem of a canonical model plus what is needed to read its solutions back
type compilation struct {
	problem   sat.Problem
	indexer   indexer
	decisions int // Variables 1..decisions are (teacher, session) pairs; the rest are auxiliary
}

var generators = []func(state constraintState) []sat.Constraint{
	coverageConstraints,
	noOverlapConstraints,
	quotaMaxConstraints,
	quotaMinConstraints,
	dailyLimitConstraints,
	pinnedConstraints,
}

func compile(ctx context.Context, canonical *model.Model, config model.RunConfiguration) (*compilation, error) {
	//** Initialize dependencies
	indexer := newIndexer(canonical)
	state := constraintState{
		canonical: canonical,
		config:    config,
		evaluator: newPredicateEvaluator(canonical),
		indexer:   indexer,
		generator: newPermutationGenerator(len(canonical.Teachers), len(canonical.Sessions)),
		teachers:  len(canonical.Teachers),
		sessions:  len(canonical.Sessions),
	}

	//** Generate hard constraints
	// Generators run on different goroutines; each one writes its own slot so the constraint order never changes
	results := make([][]sat.Constraint, len(generators))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, generator := range generators {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			results[i] = generator(state)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, errors.Wrap(err, "constraint generation interrupted")
	}

	problem := sat.Problem{Variables: indexer.Variables()}
	for _, constraints := range results {
		problem.Constraints = append(problem.Constraints, constraints...)
	}

	//** Build objective
	primary := objective(&problem, state)
	if err := applyTieBreak(&problem, primary, indexer.Variables()); err != nil {
		return nil, err
	}

	return &compilation{problem: problem, indexer: indexer, decisions: indexer.Variables()}, nil
}

// objective adds the auxiliary variables of the soft terms and returns the primary cost per variable
func objective(problem *sat.Problem, state constraintState) map[int]int {
	primary := make(map[int]int)

	//** Preferences
	// Maximizing Σ pref·x is minimizing Σ (best - pref)·x, which keeps every weight non-negative
	best := model.NeutralPreference
	for variable := 1; variable <= state.indexer.Variables(); variable++ {
		best = math.Max(best, state.canonical.Preference(state.indexer.Attributes(variable)))
	}
	for variable := 1; variable <= state.indexer.Variables(); variable++ {
		teacher, session := state.indexer.Attributes(variable)
		regret := best - state.canonical.Preference(teacher, session)
		primary[variable] = scaled(state.config.PreferenceWeight * regret)
	}

	for teacher := range state.teachers {
		variables := teacherVariables(state, teacher)

		//** Soft minimum quota
		minQuota := state.canonical.Teachers[teacher].MinQuota
		if state.config.MinQuotaMode == model.QuotaSoft && minQuota > 0 {
			// Σ x + Σ deficit ≥ MinQuota, every deficit costs the penalty
			lits := append([]int{}, variables...)
			for range minQuota {
				deficit := problem.NewVariable()
				lits = append(lits, deficit)
				primary[deficit] = scaled(state.config.MinQuotaPenalty)
			}
			problem.AtLeast(string(model.ClassQuotaMin), lits, minQuota)
		}

		//** Fairness
		// load(j, k) holds when teacher j has at least k duties. Costing it 2k-1 makes the total cost Σ_j duties(j)²,
		// which for a fixed number of duties is lowest when the load is even
		maxLoad := len(variables) // Kept independent from the quota so each class can be relaxed on its own
		if state.config.FairnessWeight <= 0 || maxLoad == 0 {
			continue
		}
		loads := make([]int, maxLoad)
		for k := range maxLoad {
			loads[k] = problem.NewVariable()
			primary[loads[k]] = scaled(state.config.FairnessWeight * float64(2*k+1))
			if k > 0 {
				problem.Clause(string(model.ClassLoad), -loads[k], loads[k-1])
			}
		}
		// Σ x + Σ ¬load = maxLoad, i.e. Σ x = Σ load
		lits := append([]int{}, variables...)
		for _, load := range loads {
			lits = append(lits, -load)
		}
		problem.Exactly(string(model.ClassLoad), lits, maxLoad)
	}

	return primary
}

// applyTieBreak scales the primary cost above the largest possible rank sum and adds each decision variable's index
// as its rank. Any primary improvement outweighs every rank, and among equally good rosters the one with the
// smallest sum of ranks wins. That is a deterministic preference for low teacher and session ids, not a
// lexicographic order over them
func applyTieBreak(problem *sat.Problem, primary map[int]int, decisions int) error {
	tieScale := decisions*(decisions+1)/2 + 1
	total := 0
	for variable := 1; variable <= problem.Variables; variable++ {
		if primary[variable] > (maxObjective-total)/tieScale {
			return model.NewValidationError(model.Problem{
				Entity: "config",
				Id:     "objective",
				Reason: "weights and preference scores are too large for the cost function",
			})
		}
		weight := primary[variable] * tieScale
		if variable <= decisions {
			weight += variable
		}
		total += weight
		problem.Minimize(variable, weight)
	}
	return nil
}

// scaled saturates at maxObjective, which applyTieBreak then rejects
func scaled(value float64) int {
	return int(math.Round(math.Min(value*costScale, maxObjective)))
}
