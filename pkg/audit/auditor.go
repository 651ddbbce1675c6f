// Package audit re-checks a roster against the hard rules straight from the canonical entities. It shares nothing
// with the compiler: overlaps, eligibility and quotas are recomputed from times, tags and records
package audit

import (
	"fmt"
	"slices"

	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/samber/lo"
)

// Audit returns an AuditViolationError listing every broken rule, or nil when the roster complies
func Audit(canonical *model.Model, roster model.Roster, config model.RunConfiguration) error {
	auditor := newAuditor(canonical, config)
	auditor.check(roster)
	if len(auditor.violations) > 0 {
		return &model.AuditViolationError{Violations: auditor.violations}
	}
	return nil
}

type auditor struct {
	config     model.RunConfiguration
	sessions   map[string]model.ExamSession
	teachers   map[string]model.Teacher
	calendar   []model.ExamSession
	staff      []model.Teacher
	pins       []model.PinnedAssignment
	violations []model.Violation
}

func newAuditor(canonical *model.Model, config model.RunConfiguration) *auditor {
	return &auditor{
		config:   config,
		sessions: lo.KeyBy(canonical.Sessions, func(session model.ExamSession) string { return session.Id }),
		teachers: lo.KeyBy(canonical.Teachers, func(teacher model.Teacher) string { return teacher.Id }),
		calendar: canonical.Sessions,
		staff:    canonical.Teachers,
		pins:     config.PinnedAssignments,
	}
}

func (auditor *auditor) report(rule model.ConstraintClass, teacher, session, format string, args ...any) {
	auditor.violations = append(auditor.violations, model.Violation{
		Rule:    rule,
		Teacher: teacher,
		Session: session,
		Detail:  fmt.Sprintf(format, args...),
	})
}

func (auditor *auditor) check(roster model.Roster) {
	duties := make(map[string][]model.ExamSession)
	staffing := make(map[string]int)
	seen := make(map[[2]string]bool)

	//** Check every assignment on its own
	for _, assignment := range roster.Assignments {
		session, sessionOk := auditor.sessions[assignment.Session]
		teacher, teacherOk := auditor.teachers[assignment.Teacher]
		if !sessionOk || !teacherOk {
			auditor.report(model.ClassEligibility, assignment.Teacher, assignment.Session, "assignment references an unknown teacher or session")
			continue
		}

		key := [2]string{teacher.Id, session.Id}
		if seen[key] {
			auditor.report(model.ClassCoverage, teacher.Id, session.Id, "teacher %v is assigned twice to session %v", teacher.Id, session.Id)
			continue
		}
		seen[key] = true

		// Teacher must hold every tag of the session
		if missing, _ := lo.Difference(session.Tags, teacher.Tags); len(missing) > 0 {
			auditor.report(model.ClassEligibility, teacher.Id, session.Id, "teacher %v lacks tags %v required by session %v", teacher.Id, missing, session.Id)
		}

		// Teacher must be available
		for _, blackout := range teacher.Blackouts {
			if intersect(blackout, session.Window) {
				auditor.report(model.ClassBlackout, teacher.Id, session.Id, "session %v falls in a blackout of teacher %v", session.Id, teacher.Id)
				break
			}
		}

		// Teacher must not be in charge of another exam at the same time
		for _, other := range auditor.calendar {
			if other.Id != session.Id && slices.Contains(other.Responsible, teacher.Id) && intersect(other.Window, session.Window) {
				auditor.report(model.ClassResponsible, teacher.Id, session.Id, "teacher %v is responsible for %v while invigilating %v", teacher.Id, other.Id, session.Id)
			}
		}

		duties[teacher.Id] = append(duties[teacher.Id], session)
		staffing[session.Id]++
	}

	//** Check coverage
	for _, session := range auditor.calendar {
		count := staffing[session.Id]
		if count < session.Required || count > session.Required && auditor.config.CoverageMode != model.CoverageAtLeast {
			auditor.report(model.ClassCoverage, "", session.Id, "session %v has %d invigilators but requires %d", session.Id, count, session.Required)
		}
	}

	//** Check every teacher's duties
	for _, teacher := range auditor.staff {
		sessions := duties[teacher.Id]

		for i := range len(sessions) {
			for j := i + 1; j < len(sessions); j++ {
				if intersect(sessions[i].Window, sessions[j].Window) {
					auditor.report(model.ClassNoOverlap, teacher.Id, sessions[i].Id, "teacher %v invigilates overlapping sessions %v and %v", teacher.Id, sessions[i].Id, sessions[j].Id)
				}
			}
		}

		if len(sessions) > teacher.MaxQuota {
			auditor.report(model.ClassQuotaMax, teacher.Id, "", "teacher %v has %d duties, above the maximum of %d", teacher.Id, len(sessions), teacher.MaxQuota)
		}
		if auditor.config.MinQuotaMode != model.QuotaSoft && len(sessions) < teacher.MinQuota {
			auditor.report(model.ClassQuotaMin, teacher.Id, "", "teacher %v has %d duties, below the minimum of %d", teacher.Id, len(sessions), teacher.MinQuota)
		}

		if limit := auditor.config.MaxSessionsPerDay; limit > 0 {
			perDay := lo.CountValuesBy(sessions, func(session model.ExamSession) string { return session.Window.Start.Format(model.DateLayout) })
			for day, count := range perDay {
				if count > limit {
					auditor.report(model.ClassDailyLimit, teacher.Id, "", "teacher %v has %d duties on %v, above the daily limit of %d", teacher.Id, count, day, limit)
				}
			}
		}
	}

	//** Check pinned assignments
	for _, pin := range auditor.pins {
		if !seen[[2]string{pin.Teacher, pin.Session}] {
			auditor.report(model.ClassPinned, pin.Teacher, pin.Session, "pinned assignment %v~%v is missing", pin.Teacher, pin.Session)
		}
	}
}

func intersect(a, b model.TimeWindow) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}
