package model

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ProcessRawInput normalizes the imported records into a canonical model. Validation is all-or-nothing: either every
// record is consistent or a ValidationError listing every problem is returned
func ProcessRawInput(rawInput RawInput, config RunConfiguration) (*Model, error) {
	problems := &ValidationError{}

	if err := config.Validate(); err != nil {
		var configProblems *ValidationError
		if !errors.As(err, &configProblems) {
			return nil, err
		}
		problems.Problems = append(problems.Problems, configProblems.Problems...)
	}

	//** Manage sessions
	sessions := make([]ExamSession, 0, len(rawInput.Sessions))
	seenSessions := make(map[string]bool)
	for _, rawSession := range rawInput.Sessions {
		if rawSession.Id == "" {
			problems.add("session", rawSession.Id, "missing id")
			continue
		}
		if seenSessions[rawSession.Id] {
			problems.add("session", rawSession.Id, "duplicate id")
			continue
		}
		seenSessions[rawSession.Id] = true

		window, err := parseWindow(rawSession.Date, rawSession.Start, rawSession.End, false)
		if err != nil {
			problems.add("session", rawSession.Id, "%v", err)
			continue
		}

		required := rawSession.Required
		// Derive the requirement from the rooms when the record leaves it unset
		if required == 0 && config.SupervisorsPerRoom > 0 && len(rawSession.Rooms) > 0 {
			required = len(rawSession.Rooms) * config.SupervisorsPerRoom
		}
		if required <= 0 {
			problems.add("session", rawSession.Id, "invigilator requirement must be positive, got %d", required)
			continue
		}

		sessions = append(sessions, ExamSession{
			Id:          rawSession.Id,
			Window:      window,
			Subject:     rawSession.Subject,
			Rooms:       slices.Clone(rawSession.Rooms),
			Required:    required,
			Tags:        normalizeTags(rawSession.Tags),
			Responsible: lo.Uniq(rawSession.Responsible),
		})
	}
	slices.SortFunc(sessions, func(a, b ExamSession) int { return strings.Compare(a.Id, b.Id) })

	//** Manage teachers
	teachers := make([]Teacher, 0, len(rawInput.Teachers))
	seenTeachers := make(map[string]bool)
	for _, rawTeacher := range rawInput.Teachers {
		if rawTeacher.Id == "" {
			problems.add("teacher", rawTeacher.Id, "missing id")
			continue
		}
		if seenTeachers[rawTeacher.Id] {
			problems.add("teacher", rawTeacher.Id, "duplicate id")
			continue
		}
		seenTeachers[rawTeacher.Id] = true

		if rawTeacher.MinQuota < 0 || rawTeacher.MaxQuota < 0 {
			problems.add("teacher", rawTeacher.Id, "quotas must not be negative, got [%d, %d]", rawTeacher.MinQuota, rawTeacher.MaxQuota)
			continue
		}

		blackouts := make([]TimeWindow, 0, len(rawTeacher.Blackouts))
		blackoutsValid := true
		for _, rawBlackout := range rawTeacher.Blackouts {
			window, err := parseWindow(rawBlackout.Date, rawBlackout.Start, rawBlackout.End, true)
			if err != nil {
				problems.add("teacher", rawTeacher.Id, "blackout: %v", err)
				blackoutsValid = false
				continue
			}
			blackouts = append(blackouts, window)
		}
		if !blackoutsValid {
			continue
		}

		maxQuota := rawTeacher.MaxQuota
		if maxQuota == 0 {
			maxQuota = config.GradeQuotas[rawTeacher.Grade] // Still 0 (unbounded) when the grade has no quota
		}

		teachers = append(teachers, Teacher{
			Id:         rawTeacher.Id,
			Name:       rawTeacher.Name,
			Department: rawTeacher.Department,
			Grade:      rawTeacher.Grade,
			MinQuota:   rawTeacher.MinQuota,
			MaxQuota:   maxQuota,
			Tags:       normalizeTags(rawTeacher.Tags),
			Blackouts:  blackouts,
		})
	}
	slices.SortFunc(teachers, func(a, b Teacher) int { return strings.Compare(a.Id, b.Id) })

	model := &Model{
		Sessions:    sessions,
		Teachers:    teachers,
		eligible:    make(map[[2]int]bool),
		preferences: make(map[[2]int]float64),
		pins:        make(map[[2]int]bool),
		sessionIds:  make(map[string]int, len(sessions)),
		teacherIds:  make(map[string]int, len(teachers)),
	}
	for i, session := range sessions {
		model.sessionIds[session.Id] = i
	}
	for i, teacher := range teachers {
		model.teacherIds[teacher.Id] = i
	}

	//** Manage overlaps
	model.overlaps = make([][]bool, len(sessions))
	for i := range sessions {
		model.overlaps[i] = make([]bool, len(sessions))
	}
	for i := range sessions {
		for j := i + 1; j < len(sessions); j++ {
			if sessions[i].Window.Overlaps(sessions[j].Window) {
				model.overlaps[i][j] = true
				model.overlaps[j][i] = true
			}
		}
	}

	//** Manage responsibilities
	// held[teacher][session] = true when the teacher is responsible for another exam running at the same time
	held := make(map[[2]int]bool)
	for s, session := range sessions {
		for _, responsible := range session.Responsible {
			teacher, ok := model.teacherIds[responsible]
			if !ok {
				problems.add("session", session.Id, "unknown responsible teacher %q", responsible)
				continue
			}
			for other := range sessions {
				if other != s && model.overlaps[s][other] {
					held[[2]int{teacher, other}] = true
				}
			}
		}
	}

	//** Manage eligibility
	model.candidates = make([][]int, len(sessions))
	for s, session := range sessions {
		model.candidates[s] = make([]int, 0)
		for t, teacher := range teachers {
			// Teacher must hold every tag of the session
			if !lo.Every(teacher.Tags, session.Tags) {
				continue
			}
			// Teacher must not be blacked out during the session
			if lo.SomeBy(teacher.Blackouts, func(blackout TimeWindow) bool { return blackout.Overlaps(session.Window) }) {
				continue
			}
			// Teacher must not be held by an exam they are responsible for
			if held[[2]int{t, s}] {
				continue
			}
			model.eligible[[2]int{t, s}] = true
			model.candidates[s] = append(model.candidates[s], t)
		}

		if len(model.candidates[s]) < session.Required {
			problems.add("session", session.Id, "requires %d invigilators but only %d eligible teachers exist", session.Required, len(model.candidates[s]))
		}
	}

	//** Manage quotas
	for t := range teachers {
		teacher := &model.Teachers[t]
		eligibleSessions := len(model.EligibleSessions(t))
		if teacher.MaxQuota == 0 || teacher.MaxQuota > eligibleSessions {
			teacher.MaxQuota = eligibleSessions
		}
		if teacher.MinQuota > eligibleSessions {
			problems.add("teacher", teacher.Id, "minimum quota %d exceeds the %d sessions the teacher is eligible for", teacher.MinQuota, eligibleSessions)
		} else if teacher.MinQuota > teacher.MaxQuota {
			problems.add("teacher", teacher.Id, "minimum quota %d exceeds maximum quota %d", teacher.MinQuota, teacher.MaxQuota)
		}
	}

	//** Manage preferences
	processPreferences(model, rawInput.Preferences, problems)

	//** Manage pinned assignments
	processPins(model, config.PinnedAssignments, problems)

	if !problems.empty() {
		return nil, problems
	}
	return model, nil
}

// Session-level scores win over slot-level ones; a session matched by several slots gets their mean
func processPreferences(model *Model, rawPreferences []RawPreference, problems *ValidationError) {
	slotScores := make(map[[2]int][]float64)

	for _, rawPreference := range rawPreferences {
		teacher, ok := model.teacherIds[rawPreference.Teacher]
		if !ok {
			problems.add("preference", rawPreference.Teacher, "unknown teacher")
			continue
		}

		if rawPreference.Session != "" {
			session, ok := model.sessionIds[rawPreference.Session]
			if !ok {
				problems.add("preference", rawPreference.Teacher, "unknown session %q", rawPreference.Session)
				continue
			}
			model.preferences[[2]int{teacher, session}] = rawPreference.Score
			continue
		}

		slot, err := parseWindow(rawPreference.Date, rawPreference.Start, rawPreference.End, true)
		if err != nil {
			problems.add("preference", rawPreference.Teacher, "%v", err)
			continue
		}
		for s, session := range model.Sessions {
			if slot.Overlaps(session.Window) {
				key := [2]int{teacher, s}
				slotScores[key] = append(slotScores[key], rawPreference.Score)
			}
		}
	}

	for key, scores := range slotScores {
		if _, ok := model.preferences[key]; ok {
			continue
		}
		model.preferences[key] = lo.Sum(scores) / float64(len(scores))
	}
}

func processPins(model *Model, pinnedAssignments []PinnedAssignment, problems *ValidationError) {
	pinsPerSession := make(map[int]int)
	pinsPerTeacher := make(map[int][]int)

	for _, pin := range pinnedAssignments {
		teacher, teacherOk := model.teacherIds[pin.Teacher]
		session, sessionOk := model.sessionIds[pin.Session]
		if !teacherOk || !sessionOk {
			problems.add("pin", fmt.Sprintf("%v~%v", pin.Teacher, pin.Session), "unknown teacher or session")
			continue
		}

		key := [2]int{teacher, session}
		if model.pins[key] {
			continue
		}
		if !model.eligible[key] {
			problems.add("pin", fmt.Sprintf("%v~%v", pin.Teacher, pin.Session), "teacher is not eligible for the session")
			continue
		}
		model.pins[key] = true
		pinsPerSession[session]++
		pinsPerTeacher[teacher] = append(pinsPerTeacher[teacher], session)
	}

	for session, count := range pinsPerSession {
		if count > model.Sessions[session].Required {
			problems.add("session", model.Sessions[session].Id, "%d pinned assignments exceed the requirement of %d", count, model.Sessions[session].Required)
		}
	}

	for teacher, sessions := range pinsPerTeacher {
		if len(sessions) > model.Teachers[teacher].MaxQuota {
			problems.add("teacher", model.Teachers[teacher].Id, "%d pinned assignments exceed the maximum quota of %d", len(sessions), model.Teachers[teacher].MaxQuota)
		}
		for i := range len(sessions) {
			for j := i + 1; j < len(sessions); j++ {
				if model.overlaps[sessions[i]][sessions[j]] {
					problems.add("teacher", model.Teachers[teacher].Id, "pinned sessions %q and %q overlap", model.Sessions[sessions[i]].Id, model.Sessions[sessions[j]].Id)
				}
			}
		}
	}
}

// Parses a date plus optional clock times. With allowFullDay, missing times cover the whole day
func parseWindow(date, start, end string, allowFullDay bool) (TimeWindow, error) {
	day, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("invalid date %q", date)
	}

	if start == "" && end == "" && allowFullDay {
		return TimeWindow{Start: day, End: day.AddDate(0, 0, 1)}, nil
	}

	startTime, err := time.ParseInLocation(dateTimeLayout, date+" "+start, time.UTC)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("invalid start time %q", start)
	}
	endTime, err := time.ParseInLocation(dateTimeLayout, date+" "+end, time.UTC)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("invalid end time %q", end)
	}

	window := TimeWindow{Start: startTime, End: endTime}
	if window.Duration() <= 0 {
		return TimeWindow{}, fmt.Errorf("window %v %v-%v has no duration", date, start, end)
	}
	return window, nil
}

func normalizeTags(tags []string) []string {
	normalized := lo.Uniq(lo.Map(tags, func(tag string, _ int) string { return strings.ToLower(strings.TrimSpace(tag)) }))
	slices.Sort(normalized)
	return normalized
}
