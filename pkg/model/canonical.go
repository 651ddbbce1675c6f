package model

import "slices"

// Model is the canonical, read-only input of a scheduling run. Sessions and teachers are sorted by id and every
// other structure refers to them by index
type Model struct {
	Sessions []ExamSession
	Teachers []Teacher

	candidates  [][]int             // Eligible teachers per session, ascending
	eligible    map[[2]int]bool     // (teacher, session)
	preferences map[[2]int]float64  // (teacher, session), only explicit entries
	pins        map[[2]int]bool     // (teacher, session)
	overlaps    [][]bool            // Session-by-session time intersection
	sessionIds  map[string]int
	teacherIds  map[string]int
}

func (model *Model) SessionIndex(id string) (int, bool) {
	index, ok := model.sessionIds[id]
	return index, ok
}

func (model *Model) TeacherIndex(id string) (int, bool) {
	index, ok := model.teacherIds[id]
	return index, ok
}

// Candidates returns the teachers allowed to invigilate the session: tag-eligible, outside blackouts and not held by a responsibility
func (model *Model) Candidates(session int) []int {
	return slices.Clone(model.candidates[session])
}

func (model *Model) Eligible(teacher, session int) bool {
	return model.eligible[[2]int{teacher, session}]
}

// EligibleSessions returns the sessions the teacher may invigilate, ascending
func (model *Model) EligibleSessions(teacher int) []int {
	sessions := make([]int, 0)
	for session := range model.Sessions {
		if model.eligible[[2]int{teacher, session}] {
			sessions = append(sessions, session)
		}
	}
	return sessions
}

// Preference returns the explicit score of the pair, or NeutralPreference when none was given
func (model *Model) Preference(teacher, session int) float64 {
	if score, ok := model.preferences[[2]int{teacher, session}]; ok {
		return score
	}
	return NeutralPreference
}

func (model *Model) Pinned(teacher, session int) bool {
	return model.pins[[2]int{teacher, session}]
}

// Pins returns pinned (teacher, session) pairs ordered by teacher then session
func (model *Model) Pins() [][2]int {
	pins := make([][2]int, 0, len(model.pins))
	for pin := range model.pins {
		pins = append(pins, pin)
	}
	slices.SortFunc(pins, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})
	return pins
}

func (model *Model) Overlap(session1, session2 int) bool {
	return model.overlaps[session1][session2]
}

// Demand is the total number of invigilator seats of the calendar
func (model *Model) Demand() int {
	demand := 0
	for _, session := range model.Sessions {
		demand += session.Required
	}
	return demand
}
