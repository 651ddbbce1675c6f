package sat

import "math/rand/v2"

// GenerateProblem builds a random cardinality problem with a random cost function
func GenerateProblem(random *rand.Rand, variables, constraints int) Problem {
	problem := Problem{Variables: variables}

	for range constraints {
		lits := make([]int, 0, variables)
		for j := range variables {
			if random.Float32() < 0.5 {
				var sign = 1
				if random.Float32() < 0.5 {
					sign = -1
				}
				lits = append(lits, sign*(1+j))
			}
		}
		if len(lits) == 0 {
			lits = append(lits, 1+random.IntN(variables))
		}

		bound := 1 + random.IntN(len(lits))
		if random.Float32() < 0.5 {
			problem.AtLeast("random", lits, bound)
		} else {
			problem.AtMost("random", lits, bound-1)
		}
	}

	for variable := 1; variable <= variables; variable++ {
		problem.Minimize(variable, random.IntN(10))
	}
	return problem
}

// BruteForce enumerates every assignment and returns the cheapest satisfying one, or false when none exists
func BruteForce(problem Problem) ([]bool, int, bool) {
	var best []bool
	bestCost := 0
	for mask := range 1 << problem.Variables {
		model := make([]bool, problem.Variables)
		for i := range problem.Variables {
			model[i] = mask&(1<<i) != 0
		}
		satisfied, cost := problem.Evaluate(model)
		if satisfied && (best == nil || cost < bestCost) {
			best, bestCost = model, cost
		}
	}
	return best, bestCost, best != nil
}

// Pigeonhole places pigeons into holes, one pigeon per hole at most. With more pigeons than holes it is infeasible
// and takes clause learning exponential time to refute
func Pigeonhole(pigeons, holes int) Problem {
	problem := Problem{Variables: pigeons * holes}
	variable := func(pigeon, hole int) int { return pigeon*holes + hole + 1 }

	for pigeon := range pigeons {
		lits := make([]int, 0, holes)
		for hole := range holes {
			lits = append(lits, variable(pigeon, hole))
		}
		problem.AtLeast("pigeon", lits, 1)
	}
	for hole := range holes {
		for first := range pigeons {
			for second := first + 1; second < pigeons; second++ {
				problem.Clause("hole", -variable(first, hole), -variable(second, hole))
			}
		}
	}

	for v := 1; v <= problem.Variables; v++ {
		problem.Minimize(v, 1)
	}
	return problem
}
