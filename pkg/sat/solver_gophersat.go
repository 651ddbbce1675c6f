package sat

import (
	"context"
	"time"

	"github.com/crillab/gophersat/solver"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type gophersatSolver struct{}

// NewGophersatSolver returns the in-process pseudo-boolean optimizer
func NewGophersatSolver() Solver {
	return &gophersatSolver{}
}

func (*gophersatSolver) Name() string {
	return "gophersat"
}

func (*gophersatSolver) Solve(ctx context.Context, problem Problem, limit time.Duration) (outcome Outcome, err error) {
	if err := ctx.Err(); err != nil {
		return Outcome{Status: Unsolved}, err
	}

	// Costs are non-negative, so variables no constraint mentions stay false
	constrained := lastConstrainedVariable(problem)
	if constrained == 0 {
		if satisfied, _ := problem.Evaluate(nil); !satisfied {
			return Outcome{Status: Infeasible}, nil
		}
		return Outcome{Status: Optimal, Model: make([]bool, problem.Variables)}, nil
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Status: SolverError}
			err = errors.Errorf("gophersat panicked: %v", r)
		}
	}()

	pb := solver.ParsePBConstrs(toPBConstrs(problem))
	terms := lo.Filter(problem.Cost, func(term Term, _ int) bool { return term.Var <= constrained })
	if len(terms) > 0 {
		lits := lo.Map(terms, func(term Term, _ int) solver.Lit { return solver.IntToLit(int32(term.Var)) })
		weights := lo.Map(terms, func(term Term, _ int) int { return term.Weight })
		pb.SetCostFunc(lits, weights)
	}
	s := solver.New(pb)

	// gophersat cannot be interrupted: on a stop the search keeps running in the background until it finishes,
	// and its remaining results are drained
	results := make(chan solver.Result)
	finished := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				finished <- errors.Errorf("gophersat panicked: %v", r)
			}
		}()
		s.Optimal(results, nil)
		finished <- nil
	}()
	abandon := func() {
		go func() {
			for range results {
			}
		}()
	}

	timer := time.NewTimer(limit)
	defer timer.Stop()

	var last solver.Result
	for {
		select {
		case result, ok := <-results:
			if ok {
				last = result
				continue
			}
			if err := <-finished; err != nil {
				return Outcome{Status: SolverError}, err
			}
			switch last.Status {
			case solver.Unsat:
				return Outcome{Status: Infeasible}, nil
			case solver.Sat:
				model := trimModel(last.Model, problem.Variables)
				_, cost := problem.Evaluate(model)
				return Outcome{Status: Optimal, Model: model, Cost: cost}, nil
			default:
				return Outcome{Status: SolverError}, errors.New("gophersat returned an undetermined status")
			}
		case <-timer.C:
			abandon()
			if last.Status != solver.Sat {
				return Outcome{Status: TimedOut}, nil
			}
			model := trimModel(last.Model, problem.Variables)
			_, cost := problem.Evaluate(model)
			return Outcome{Status: TimedOut, Model: model, Cost: cost}, nil
		case <-ctx.Done():
			abandon()
			if last.Status != solver.Sat {
				return Outcome{Status: Unsolved}, ctx.Err()
			}
			model := trimModel(last.Model, problem.Variables)
			_, cost := problem.Evaluate(model)
			return Outcome{Status: FeasibleSuboptimal, Model: model, Cost: cost}, nil
		}
	}
}

func toPBConstrs(problem Problem) []solver.PBConstr {
	constrs := make([]solver.PBConstr, 0, len(problem.Constraints))
	for _, constraint := range problem.Constraints {
		switch constraint.Comparator {
		case GreaterOrEqual:
			constrs = append(constrs, solver.AtLeast(constraint.Lits, constraint.Bound))
		case LessOrEqual:
			constrs = append(constrs, solver.AtMost(constraint.Lits, constraint.Bound))
		}
	}
	return constrs
}

func lastConstrainedVariable(problem Problem) int {
	last := 0
	for _, constraint := range problem.Constraints {
		for _, lit := range constraint.Lits {
			last = max(last, lit, -lit)
		}
	}
	return last
}

// Pads variables the parser never saw (they appear in no constraint) as false
func trimModel(model []bool, variables int) []bool {
	if model == nil {
		return nil
	}
	trimmed := make([]bool, variables)
	copy(trimmed, model)
	return trimmed
}
