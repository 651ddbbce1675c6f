package roster

import "github.com/limaJavier/invigilation/pkg/model"

type predicateEvaluator interface {
	// Checks whether the teacher may invigilate the session (tags, blackouts and responsibilities)
	Eligible(teacher, session int) bool

	// Checks whether the time windows of session1 and session2 intersect
	Overlap(session1, session2 int) bool

	// Checks whether session1 and session2 take place on the same calendar date
	SameDay(session1, session2 int) bool

	// Checks whether the pair is carried over from a prior roster
	Pinned(teacher, session int) bool
}

func newPredicateEvaluator(canonical *model.Model) predicateEvaluator {
	dates := make([]string, len(canonical.Sessions))
	for i, session := range canonical.Sessions {
		dates[i] = session.Window.Date()
	}
	return &predicateEvaluatorStandard{canonical: canonical, dates: dates}
}

type predicateEvaluatorStandard struct {
	canonical *model.Model
	dates     []string
}

func (evaluator *predicateEvaluatorStandard) Eligible(teacher, session int) bool {
	return evaluator.canonical.Eligible(teacher, session)
}

func (evaluator *predicateEvaluatorStandard) Overlap(session1, session2 int) bool {
	return session1 != session2 && evaluator.canonical.Overlap(session1, session2)
}

func (evaluator *predicateEvaluatorStandard) SameDay(session1, session2 int) bool {
	return evaluator.dates[session1] == evaluator.dates[session2]
}

func (evaluator *predicateEvaluatorStandard) Pinned(teacher, session int) bool {
	return evaluator.canonical.Pinned(teacher, session)
}
