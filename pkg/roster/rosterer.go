package roster

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/limaJavier/invigilation/pkg/audit"
	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/limaJavier/invigilation/pkg/sat"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Namespace of the name-based roster ids: identical input and configuration always give the same id
var rosterNamespace = uuid.MustParse("6f1c8a52-3d0e-4c1b-9a57-2b8e4f0d7c31")

// Result of a run. Roster is nil unless a roster was accepted: Infeasible and rejected TimedOut runs are reported by
// Diagnostics only
type Result struct {
	Roster      *model.Roster
	Diagnostics SolveDiagnostics
}

// Rosterer runs the whole pipeline: build, compile, solve, interpret and audit. A Rosterer holds no run state, so
// several runs may use it concurrently
type Rosterer struct {
	solver sat.Solver
	logger *zap.Logger
}

type Option func(rosterer *Rosterer)

func WithLogger(logger *zap.Logger) Option {
	return func(rosterer *Rosterer) {
		rosterer.logger = logger
	}
}

func NewRosterer(solver sat.Solver, options ...Option) *Rosterer {
	rosterer := &Rosterer{solver: solver, logger: zap.NewNop()}
	for _, option := range options {
		option(rosterer)
	}
	return rosterer
}

func (rosterer *Rosterer) Run(ctx context.Context, rawInput model.RawInput, config model.RunConfiguration) (Result, error) {
	diagnostics := SolveDiagnostics{RunId: uuid.NewString(), Backend: rosterer.solver.Name()}
	logger := rosterer.logger.With(zap.String("run", diagnostics.RunId))
	deadline := time.Now().Add(config.TimeLimit())

	//** Build canonical model
	start := time.Now()
	canonical, err := model.ProcessRawInput(rawInput, config)
	if err != nil {
		logger.Warn("input rejected", zap.Error(err))
		return Result{Diagnostics: diagnostics}, err
	}
	diagnostics.BuildTime = time.Since(start)
	logger.Info("model built",
		zap.Int("sessions", len(canonical.Sessions)),
		zap.Int("teachers", len(canonical.Teachers)),
		zap.Int("demand", canonical.Demand()),
		zap.Duration("elapsed", diagnostics.BuildTime),
	)

	//** Compile
	start = time.Now()
	compiled, err := compile(ctx, canonical, config)
	if err != nil {
		return Result{Diagnostics: diagnostics}, err
	}
	diagnostics.CompileTime = time.Since(start)
	diagnostics.Variables = compiled.problem.Variables
	diagnostics.Constraints = len(compiled.problem.Constraints)
	logger.Info("model compiled",
		zap.Int("variables", diagnostics.Variables),
		zap.Int("decisions", compiled.decisions),
		zap.Int("constraints", diagnostics.Constraints),
		zap.Duration("elapsed", diagnostics.CompileTime),
	)

	//** Solve
	driver := sat.NewDriver(rosterer.solver)
	outcome, err := driver.Run(ctx, compiled.problem, max(time.Until(deadline), time.Millisecond))
	diagnostics.SolveTime = outcome.Elapsed
	if err != nil {
		if outcome.Status != sat.SolverError {
			logger.Info("run cancelled", zap.Error(err))
			return Result{Diagnostics: diagnostics}, errors.WithStack(err)
		}
		diagnostics.Status = model.StatusSolverError
		logger.Error("solver failed", zap.Error(err))
		return Result{Diagnostics: diagnostics}, &model.SolverError{Backend: driver.Name(), Err: err}
	}
	diagnostics.Status = statusOf(outcome.Status)
	diagnostics.Cost = outcome.Cost
	logger.Info("model solved",
		zap.Stringer("status", outcome.Status),
		zap.Int("cost", outcome.Cost),
		zap.Duration("elapsed", outcome.Elapsed),
	)

	switch {
	case outcome.Status == sat.Infeasible:
		diagnostics.Conflicts = structuralConflicts(canonical, config)
		if config.ExplainInfeasibility {
			classes, complete := minimalClasses(ctx, rosterer.solver, compiled.problem, time.Until(deadline), logger)
			diagnostics.MinimalClasses = classes
			if !complete {
				diagnostics.Caveat = "time budget ran out before the conflicting constraint classes were narrowed down"
			}
		}
		logger.Info("no roster exists",
			zap.Int("conflicts", len(diagnostics.Conflicts)),
			zap.Any("classes", diagnostics.MinimalClasses),
		)
		return Result{Diagnostics: diagnostics}, nil

	case outcome.Status == sat.TimedOut && !outcome.HasModel():
		diagnostics.Caveat = "time limit reached before any roster was found; the instance may still be feasible"
		return Result{Diagnostics: diagnostics}, nil

	case outcome.Status == sat.TimedOut && !config.AllowSuboptimalOnTimeout:
		diagnostics.Caveat = "time limit reached with a roster that is not proven optimal; rejected by configuration"
		return Result{Diagnostics: diagnostics}, nil
	}

	//** Interpret
	id, err := rosterId(rawInput, config)
	if err != nil {
		return Result{Diagnostics: diagnostics}, err
	}
	roster, err := interpret(canonical, compiled, outcome.Model, config, diagnostics.Status, id)
	if err != nil {
		logger.Error("solution does not cover the calendar", zap.Error(err))
		return Result{Diagnostics: diagnostics}, err
	}
	if outcome.Status == sat.TimedOut {
		diagnostics.Caveat = "time limit reached; the roster is feasible but not proven optimal"
	}

	//** Audit
	if err := audit.Audit(canonical, *roster, config); err != nil {
		logger.Error("roster failed the audit", zap.Error(err))
		return Result{Diagnostics: diagnostics}, err
	}
	logger.Info("roster accepted",
		zap.String("roster", roster.Id),
		zap.Int("assignments", len(roster.Assignments)),
		zap.Float64("fairness", roster.FairnessScore),
	)

	return Result{Roster: roster, Diagnostics: diagnostics}, nil
}

func statusOf(status sat.Status) model.Status {
	return model.Status(status.String())
}

func rosterId(rawInput model.RawInput, config model.RunConfiguration) (string, error) {
	fingerprint, err := json.Marshal(struct {
		Input  model.RawInput
		Config model.RunConfiguration
	}{rawInput, config})
	if err != nil {
		return "", errors.Wrap(err, "cannot fingerprint run")
	}
	return uuid.NewSHA1(rosterNamespace, fingerprint).String(), nil
}

// Compile builds and compiles the input without solving it, e.g. to export the problem to another solver
func Compile(ctx context.Context, rawInput model.RawInput, config model.RunConfiguration) (sat.Problem, error) {
	canonical, err := model.ProcessRawInput(rawInput, config)
	if err != nil {
		return sat.Problem{}, err
	}
	compiled, err := compile(ctx, canonical, config)
	if err != nil {
		return sat.Problem{}, err
	}
	return compiled.problem, nil
}
