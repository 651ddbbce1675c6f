package roster

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/limaJavier/invigilation/pkg/sat"
)

// Two overlapping sessions and three interchangeable teachers
func exampleInput() model.RawInput {
	return model.RawInput{
		Sessions: []model.RawSession{
			{Id: "S1", Date: "2025-06-02", Start: "09:00", End: "11:00", Subject: "Algebra", Required: 2},
			{Id: "S2", Date: "2025-06-02", Start: "10:00", End: "12:00", Subject: "Physics", Required: 1},
		},
		Teachers: []model.RawTeacher{
			{Id: "T1", Name: "Alice", MaxQuota: 2},
			{Id: "T2", Name: "Bruno", MaxQuota: 2},
			{Id: "T3", Name: "Chloe", MaxQuota: 2},
		},
	}
}

// overbookedInput holds more simultaneous sessions than teachers, so no roster exists and refuting that takes
// the solver far longer than a test runs
func overbookedInput(sessions, teachers int) model.RawInput {
	input := model.RawInput{}
	for i := range sessions {
		input.Sessions = append(input.Sessions, model.RawSession{
			Id: fmt.Sprintf("S%02d", i), Date: "2025-06-02", Start: "09:00", End: "11:00", Required: 1,
		})
	}
	for i := range teachers {
		input.Teachers = append(input.Teachers, model.RawTeacher{Id: fmt.Sprintf("T%02d", i)})
	}
	return input
}

// generateInput builds a random calendar over a few days where every session can be staffed on its own
func generateInput(random *rand.Rand, sessions, teachers int) model.RawInput {
	input := model.RawInput{}
	slots := [][2]string{{"08:00", "10:00"}, {"09:30", "11:30"}, {"13:00", "15:00"}, {"15:30", "17:30"}}

	for i := range sessions {
		slot := slots[random.IntN(len(slots))]
		input.Sessions = append(input.Sessions, model.RawSession{
			Id:       fmt.Sprintf("S%02d", i),
			Date:     fmt.Sprintf("2025-06-%02d", 2+random.IntN(3)),
			Start:    slot[0],
			End:      slot[1],
			Required: 1 + random.IntN(2),
		})
	}
	for i := range teachers {
		input.Teachers = append(input.Teachers, model.RawTeacher{
			Id:       fmt.Sprintf("T%02d", i),
			MaxQuota: sessions,
		})
		for j := range sessions {
			if random.Float32() < 0.3 {
				input.Preferences = append(input.Preferences, model.RawPreference{
					Teacher: fmt.Sprintf("T%02d", i),
					Session: fmt.Sprintf("S%02d", j),
					Score:   float64(random.IntN(5)),
				})
			}
		}
	}
	return input
}

// timedOutSolver finds a solution with the wrapped solver and reports it as a timeout
type timedOutSolver struct {
	inner sat.Solver
}

func (solver *timedOutSolver) Name() string {
	return "timed-out"
}

func (solver *timedOutSolver) Solve(ctx context.Context, problem sat.Problem, limit time.Duration) (sat.Outcome, error) {
	outcome, err := solver.inner.Solve(ctx, problem, limit)
	if err != nil {
		return outcome, err
	}
	outcome.Status = sat.TimedOut
	return outcome, nil
}

// fixedSolver always answers the same outcome
type fixedSolver struct {
	outcome func(problem sat.Problem) sat.Outcome
	err     error
}

func (solver *fixedSolver) Name() string {
	return "fixed"
}

func (solver *fixedSolver) Solve(_ context.Context, problem sat.Problem, _ time.Duration) (sat.Outcome, error) {
	return solver.outcome(problem), solver.err
}

func testConfig() model.RunConfiguration {
	config := model.DefaultRunConfiguration()
	config.TimeLimitSeconds = 20
	return config
}

func pairs(roster *model.Roster) [][2]string {
	result := make([][2]string, 0, len(roster.Assignments))
	for _, assignment := range roster.Assignments {
		result = append(result, [2]string{assignment.Teacher, assignment.Session})
	}
	return result
}
