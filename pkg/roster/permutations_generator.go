package roster

// Marks a position of the permutation that has not been chosen yet
const unset = -1

type permutationGenerator interface {
	// Attributes' order in the permutation parameter is the following: Teacher, Session, Session.
	// All the constraints must take into account that if the value of permutation[i] is unset then the permutation is not
	// ready to be evaluated if this evaluation involves permutation[i]
	//
	// Example:
	//
	//	generator := newPermutationGenerator(teachers, sessions)
	//
	//	permutations := generator.ConstrainedPermutations([]func(permutation []int) bool{
	//		func(permutation []int) bool {
	//			// Verify "permutation[1] == unset", since the predicate relies on this index
	//			return permutation[1] == unset || evaluator.Eligible(permutation[0], permutation[1])
	//		},
	//	})
	ConstrainedPermutations(constraints []func(permutation []int) bool) [][]int
}

func newPermutationGenerator(teachers, sessions int) permutationGenerator {
	return &permutationGeneratorImplementation{teachers: teachers, sessions: sessions}
}

type permutationGeneratorImplementation struct {
	teachers, sessions int
}

func (generator *permutationGeneratorImplementation) ConstrainedPermutations(constraints []func(permutation []int) bool) [][]int {
	permutations := make([][]int, 0)
	generator.constrainedPermutations(
		constraints,
		[]int{generator.teachers, generator.sessions, generator.sessions},
		0,
		[]int{unset, unset, unset},
		&permutations,
	)
	return permutations
}

func (generator *permutationGeneratorImplementation) constrainedPermutations(
	constraints []func(permutation []int) bool,
	domains []int,
	currentDomain int,
	permutation []int,
	permutations *[][]int) {

	if currentDomain >= len(domains) {
		permutationCopy := make([]int, len(permutation))
		copy(permutationCopy, permutation)
		*permutations = append(*permutations, permutationCopy)
		return
	}

	for i := range domains[currentDomain] {
		permutation[currentDomain] = i
		constraintViolated := false
		for _, constraint := range constraints {
			if !constraint(permutation) {
				constraintViolated = true
				break
			}
		}

		if constraintViolated {
			continue
		}

		generator.constrainedPermutations(constraints, domains, currentDomain+1, permutation, permutations)
	}

	permutation[currentDomain] = unset
}
