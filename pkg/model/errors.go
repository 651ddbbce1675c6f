package model

import (
	"fmt"
	"strings"
)

const maxReportedProblems = 5

type Problem struct {
	Entity string // "session", "teacher", "preference", "pin" or "config"
	Id     string
	Reason string
}

// ValidationError is returned when the raw input or the configuration cannot produce a canonical model, or when a solution does not cover the calendar
type ValidationError struct {
	Problems []Problem
}

func (err *ValidationError) Error() string {
	return summarize("invalid input", len(err.Problems), func(i int) string {
		problem := err.Problems[i]
		return fmt.Sprintf("%v %q: %v", problem.Entity, problem.Id, problem.Reason)
	})
}

func (err *ValidationError) add(entity, id, format string, args ...any) {
	err.Problems = append(err.Problems, Problem{Entity: entity, Id: id, Reason: fmt.Sprintf(format, args...)})
}

func (err *ValidationError) empty() bool {
	return len(err.Problems) == 0
}

func NewValidationError(problems ...Problem) *ValidationError {
	return &ValidationError{Problems: problems}
}

type Violation struct {
	Rule    ConstraintClass
	Teacher string
	Session string
	Detail  string
}

// AuditViolationError means an accepted solution broke a hard rule. It always indicates a bug in the compiler or the solver
type AuditViolationError struct {
	Violations []Violation
}

func (err *AuditViolationError) Error() string {
	return summarize("audit failed", len(err.Violations), func(i int) string {
		violation := err.Violations[i]
		return fmt.Sprintf("[%v] %v", violation.Rule, violation.Detail)
	})
}

type SolverError struct {
	Backend string
	Err     error
}

func (err *SolverError) Error() string {
	return fmt.Sprintf("solver %v failed: %v", err.Backend, err.Err)
}

func (err *SolverError) Unwrap() error {
	return err.Err
}

func summarize(header string, total int, line func(i int) string) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "%v: %d problem(s)", header, total)
	for i := range min(total, maxReportedProblems) {
		builder.WriteString("; ")
		builder.WriteString(line(i))
	}
	if total > maxReportedProblems {
		fmt.Fprintf(&builder, "; and %d more", total-maxReportedProblems)
	}
	return builder.String()
}
