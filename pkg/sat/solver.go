package sat

import (
	"context"
	"sync"
	"time"
)

type Status int

const (
	Unsolved Status = iota
	Solving
	Optimal
	FeasibleSuboptimal
	Infeasible
	TimedOut
	SolverError
)

func (status Status) String() string {
	switch status {
	case Unsolved:
		return "unsolved"
	case Solving:
		return "solving"
	case Optimal:
		return "optimal"
	case FeasibleSuboptimal:
		return "feasible_suboptimal"
	case Infeasible:
		return "infeasible"
	case TimedOut:
		return "timed_out"
	case SolverError:
		return "solver_error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends a solve
func (status Status) Terminal() bool {
	return status >= Optimal
}

// Outcome is the classified result of a solve. Model is only set for Optimal, FeasibleSuboptimal and a TimedOut
// search that found at least one solution; Model[i] holds variable i+1
type Outcome struct {
	Status  Status
	Model   []bool
	Cost    int
	Elapsed time.Duration
}

func (outcome Outcome) HasModel() bool {
	return outcome.Model != nil
}

type Solver interface {
	Name() string
	// Solve minimizes the problem within limit. Cancelling ctx stops the search: the best model found so far is
	// returned as FeasibleSuboptimal, or ctx.Err() when there is none
	Solve(ctx context.Context, problem Problem, limit time.Duration) (Outcome, error)
}

// Driver runs a solver and keeps track of the solve state. A driver serves a single run
type Driver struct {
	solver Solver
	mutex  sync.Mutex
	status Status
}

func NewDriver(solver Solver) *Driver {
	return &Driver{solver: solver, status: Unsolved}
}

func (driver *Driver) Name() string {
	return driver.solver.Name()
}

func (driver *Driver) Status() Status {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()
	return driver.status
}

func (driver *Driver) Run(ctx context.Context, problem Problem, limit time.Duration) (Outcome, error) {
	driver.setStatus(Solving)

	start := time.Now()
	outcome, err := driver.solver.Solve(ctx, problem, limit)
	outcome.Elapsed = time.Since(start)
	if err != nil {
		if ctx.Err() != nil && outcome.Status != SolverError {
			driver.setStatus(Unsolved) // Cancelled before any solution
		} else {
			outcome.Status = SolverError
			driver.setStatus(SolverError)
		}
		return outcome, err
	}

	if outcome.Status == Infeasible {
		outcome.Model = nil
	}
	driver.setStatus(outcome.Status)
	return outcome, nil
}

func (driver *Driver) setStatus(status Status) {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()
	driver.status = status
}
