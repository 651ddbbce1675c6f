package sat

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGophersatAgainstBruteForce(t *testing.T) {
	solver := NewGophersatSolver()
	random := rand.New(rand.NewPCG(7, 11))
	infeasibleCount := 0

	for range 25 {
		//** Arrange
		problem := GenerateProblem(random, 1+random.IntN(10), 1+random.IntN(12))
		_, bestCost, feasible := BruteForce(problem)

		//** Act
		outcome, err := solver.Solve(context.Background(), problem, 10*time.Second)

		//** Assert
		require.NoError(t, err)
		if !feasible {
			infeasibleCount++
			assert.Equal(t, Infeasible, outcome.Status)
			assert.False(t, outcome.HasModel())
			continue
		}
		require.Equal(t, Optimal, outcome.Status)
		satisfied, cost := problem.Evaluate(outcome.Model)
		assert.True(t, satisfied)
		assert.Equal(t, bestCost, cost)
	}

	t.Logf("Infeasible instances: %v", infeasibleCount)
}

func TestGophersatWithoutVariables(t *testing.T) {
	outcome, err := NewGophersatSolver().Solve(context.Background(), Problem{}, time.Second)

	require.NoError(t, err)
	assert.Equal(t, Optimal, outcome.Status)
	assert.True(t, outcome.HasModel())
}

func TestGophersatCancelled(t *testing.T) {
	//** Arrange
	problem := GenerateProblem(rand.New(rand.NewPCG(1, 2)), 10, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	//** Act
	outcome, err := NewGophersatSolver().Solve(ctx, problem, 10*time.Second)

	//** Assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Unsolved, outcome.Status)
	assert.False(t, outcome.HasModel())
}

func TestGophersatStopsAtTimeLimit(t *testing.T) {
	//** Arrange
	problem := Pigeonhole(10, 9)
	limit := 200 * time.Millisecond

	//** Act
	start := time.Now()
	outcome, err := NewGophersatSolver().Solve(context.Background(), problem, limit)
	elapsed := time.Since(start)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, TimedOut, outcome.Status)
	assert.False(t, outcome.HasModel())
	assert.Less(t, elapsed, limit+250*time.Millisecond)
}

func TestGophersatCancelledMidSearch(t *testing.T) {
	//** Arrange
	problem := Pigeonhole(10, 9)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	//** Act
	start := time.Now()
	outcome, err := NewGophersatSolver().Solve(ctx, problem, time.Minute)
	elapsed := time.Since(start)

	//** Assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Unsolved, outcome.Status)
	assert.False(t, outcome.HasModel())
	assert.Less(t, elapsed, 350*time.Millisecond)
}

func TestDriverStates(t *testing.T) {
	//** Arrange
	driver := NewDriver(NewGophersatSolver())
	problem := Problem{}
	x := problem.NewVariable()
	problem.Clause("unit", x)
	problem.Clause("unit", -x)

	//** Act
	assert.Equal(t, Unsolved, driver.Status())
	outcome, err := driver.Run(context.Background(), problem, time.Second)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, Infeasible, outcome.Status)
	assert.Equal(t, Infeasible, driver.Status())
	assert.True(t, driver.Status().Terminal())
	assert.Equal(t, "infeasible", driver.Status().String())
}

func TestParseSolution(t *testing.T) {
	//** Arrange
	output := "c comment\no 7\no 4\ns OPTIMUM FOUND\nv x1 -x2\nv x3\n"

	//** Act
	parsed, err := parseSolution(output, 3)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, "OPTIMUM FOUND", parsed.status)
	assert.Equal(t, []bool{true, false, true}, parsed.model)
	assert.Equal(t, 4, parsed.cost)

	_, err = parseSolution("s SATISFIABLE\nv x9\n", 3)
	assert.Error(t, err)
}

func TestExternalSolver(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	//** Arrange
	script := filepath.Join(t.TempDir(), "solver.sh")
	content := "#!/bin/sh\ncat > /dev/null\necho \"o 3\"\necho \"s OPTIMUM FOUND\"\necho \"v x1 -x2\"\nexit 30\n"
	require.NoError(t, os.WriteFile(script, []byte(content), 0o755))

	config, err := ExternalConfigFromMap(map[string]any{"path": script, "time_limit_flag": "-t"})
	require.NoError(t, err)

	//** Act
	outcome, err := NewExternalSolver(config).Solve(context.Background(), smallProblem(), time.Second)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, Optimal, outcome.Status)
	assert.Equal(t, []bool{true, false}, outcome.Model)
	assert.Equal(t, 3, outcome.Cost)
}

func TestExternalConfigRequiresPath(t *testing.T) {
	_, err := ExternalConfigFromMap(map[string]any{"args": []string{"-v"}})
	assert.Error(t, err)
}
