package sat

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

type Comparator int

const (
	GreaterOrEqual Comparator = iota
	LessOrEqual
)

// Constraint is a cardinality constraint over signed literals: the number of true literals compared against Bound
type Constraint struct {
	Class      string
	Lits       []int
	Comparator Comparator
	Bound      int
}

// Term adds Weight to the cost whenever Var is true
type Term struct {
	Var    int
	Weight int
}

// Problem is a pseudo-boolean minimization problem. Variables are numbered from 1
type Problem struct {
	Variables   int
	Constraints []Constraint
	Cost        []Term
}

func (problem *Problem) NewVariable() int {
	problem.Variables++
	return problem.Variables
}

func (problem *Problem) Clause(class string, lits ...int) {
	problem.AtLeast(class, lits, 1)
}

func (problem *Problem) AtLeast(class string, lits []int, bound int) {
	problem.Constraints = append(problem.Constraints, Constraint{Class: class, Lits: lits, Comparator: GreaterOrEqual, Bound: bound})
}

func (problem *Problem) AtMost(class string, lits []int, bound int) {
	problem.Constraints = append(problem.Constraints, Constraint{Class: class, Lits: lits, Comparator: LessOrEqual, Bound: bound})
}

func (problem *Problem) Exactly(class string, lits []int, bound int) {
	problem.AtLeast(class, lits, bound)
	problem.AtMost(class, lits, bound)
}

func (problem *Problem) Minimize(variable, weight int) {
	if weight != 0 {
		problem.Cost = append(problem.Cost, Term{Var: variable, Weight: weight})
	}
}

// Classes returns the distinct constraint classes in order of first appearance
func (problem Problem) Classes() []string {
	return lo.Uniq(lo.Map(problem.Constraints, func(constraint Constraint, _ int) string { return constraint.Class }))
}

// Without returns a copy of the problem without the constraints of the given classes
func (problem Problem) Without(classes ...string) Problem {
	return Problem{
		Variables: problem.Variables,
		Constraints: lo.Filter(problem.Constraints, func(constraint Constraint, _ int) bool {
			return !slices.Contains(classes, constraint.Class)
		}),
		Cost: problem.Cost,
	}
}

// Decision returns a copy of the problem without its cost function
func (problem Problem) Decision() Problem {
	return Problem{Variables: problem.Variables, Constraints: problem.Constraints}
}

// Evaluate reports whether the model satisfies every constraint and the cost it incurs. model[i] holds variable i+1
func (problem Problem) Evaluate(model []bool) (bool, int) {
	value := func(lit int) bool {
		variable := lit
		if lit < 0 {
			variable = -lit
		}
		if variable > len(model) {
			return lit < 0 // Unassigned variables are false
		}
		return model[variable-1] == (lit > 0)
	}

	satisfied := true
	for _, constraint := range problem.Constraints {
		count := lo.CountBy(constraint.Lits, value)
		if constraint.Comparator == GreaterOrEqual && count < constraint.Bound ||
			constraint.Comparator == LessOrEqual && count > constraint.Bound {
			satisfied = false
			break
		}
	}

	cost := 0
	for _, term := range problem.Cost {
		if value(term.Var) {
			cost += term.Weight
		}
	}
	return satisfied, cost
}

// ToOPB serializes the problem in the OPB format of the pseudo-boolean competitions
func (problem Problem) ToOPB() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "* #variable= %d #constraint= %d\n", problem.Variables, len(problem.Constraints))

	if len(problem.Cost) > 0 {
		builder.WriteString("min:")
		for _, term := range problem.Cost {
			fmt.Fprintf(&builder, " %+d x%d", term.Weight, term.Var)
		}
		builder.WriteString(" ;\n")
	}

	for _, constraint := range problem.Constraints {
		// A negated literal ~x is written as 1 - x, moving the constant to the right-hand side
		sign, bound := 1, constraint.Bound
		if constraint.Comparator == LessOrEqual {
			sign, bound = -1, -constraint.Bound
		}
		for _, lit := range constraint.Lits {
			if lit > 0 {
				fmt.Fprintf(&builder, "%+d x%d ", sign, lit)
			} else {
				fmt.Fprintf(&builder, "%+d x%d ", -sign, -lit)
				bound -= sign
			}
		}
		fmt.Fprintf(&builder, ">= %d ;\n", bound)
	}
	return builder.String()
}
