package sat

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Grace period granted to the external process on top of its own time limit before it is killed
const externalGrace = 5 * time.Second

type externalSolver struct {
	config ExternalConfig
}

// NewExternalSolver runs an OPB solver binary that reads the problem from its standard input and enforces the time
// limit itself through config.TimeLimitFlag
func NewExternalSolver(config ExternalConfig) Solver {
	return &externalSolver{config: config}
}

func (solver *externalSolver) Name() string {
	return solver.config.Path
}

func (solver *externalSolver) Solve(ctx context.Context, problem Problem, limit time.Duration) (Outcome, error) {
	opb := problem.ToOPB() // Transform the problem into OPB string format

	args := append([]string{}, solver.config.Args...)
	if solver.config.TimeLimitFlag != "" {
		seconds := fmt.Sprintf("%d", max(1, int(limit.Seconds())))
		if strings.HasSuffix(solver.config.TimeLimitFlag, "=") {
			args = append(args, solver.config.TimeLimitFlag+seconds)
		} else {
			args = append(args, solver.config.TimeLimitFlag, seconds)
		}
	}

	processCtx, cancel := context.WithTimeout(ctx, limit+externalGrace)
	defer cancel()

	cmd := exec.CommandContext(processCtx, solver.config.Path, args...)
	cmd.Stdin = strings.NewReader(opb) // Feed the problem into the solver's standard input

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if cmd.ProcessState == nil {
		return Outcome{Status: SolverError}, errors.Wrapf(err, "cannot start %v", solver.config.Path)
	}
	// Competition exit codes: 10 satisfiable, 20 unsatisfiable, 30 optimum found, 0 unknown
	exitCode := cmd.ProcessState.ExitCode()
	if err != nil && exitCode != 0 && exitCode != 10 && exitCode != 20 && exitCode != 30 {
		if ctx.Err() != nil {
			return Outcome{Status: Unsolved}, ctx.Err()
		}
		return Outcome{Status: SolverError}, errors.Errorf("an error occurred during %v execution: %v : %v", solver.config.Path, err, stderr.String())
	}

	output, err := parseSolution(stdOut.String(), problem.Variables)
	if err != nil {
		return Outcome{Status: SolverError}, err
	}

	cost := output.cost
	if !output.hasCost && output.model != nil {
		_, cost = problem.Evaluate(output.model)
	}

	switch output.status {
	case "OPTIMUM FOUND":
		return Outcome{Status: Optimal, Model: output.model, Cost: cost}, nil
	case "UNSATISFIABLE":
		return Outcome{Status: Infeasible}, nil
	case "SATISFIABLE":
		if output.model == nil {
			return Outcome{Status: SolverError}, errors.New("solver reported a solution without values")
		}
		if len(problem.Cost) == 0 {
			return Outcome{Status: Optimal, Model: output.model, Cost: cost}, nil
		}
		// An optimizer only stops at a non-proven solution when interrupted
		if ctx.Err() != nil {
			return Outcome{Status: FeasibleSuboptimal, Model: output.model, Cost: cost}, nil
		}
		return Outcome{Status: TimedOut, Model: output.model, Cost: cost}, nil
	case "UNKNOWN", "":
		if ctx.Err() != nil {
			return Outcome{Status: Unsolved}, ctx.Err()
		}
		return Outcome{Status: TimedOut}, nil
	default:
		return Outcome{Status: SolverError}, errors.Errorf("unexpected solver status %q", output.status)
	}
}
