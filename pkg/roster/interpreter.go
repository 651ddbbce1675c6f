package roster

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/samber/lo"
)

// interpret turns the true decision variables of a solver model into a roster with its metrics
func interpret(canonical *model.Model, compiled *compilation, solution []bool, config model.RunConfiguration, status model.Status, id string) (*model.Roster, error) {
	assignments := make([]model.Assignment, 0)
	for variable := 1; variable <= compiled.decisions && variable <= len(solution); variable++ {
		if !solution[variable-1] {
			continue
		}
		teacher, session := compiled.indexer.Attributes(variable)
		assignments = append(assignments, model.Assignment{
			Teacher: canonical.Teachers[teacher].Id,
			Session: canonical.Sessions[session].Id,
			Pinned:  canonical.Pinned(teacher, session),
		})
	}
	// Sessions first, so a roster reads like the exam calendar
	slices.SortFunc(assignments, func(a, b model.Assignment) int {
		if c := strings.Compare(a.Session, b.Session); c != 0 {
			return c
		}
		return strings.Compare(a.Teacher, b.Teacher)
	})

	//** Coverage checksum
	coverage := lo.CountValuesBy(assignments, func(assignment model.Assignment) string { return assignment.Session })
	problems := make([]model.Problem, 0)
	for _, session := range canonical.Sessions {
		assigned := coverage[session.Id]
		if assigned == session.Required || config.CoverageMode == model.CoverageAtLeast && assigned > session.Required {
			continue
		}
		problems = append(problems, model.Problem{
			Entity: "session",
			Id:     session.Id,
			Reason: fmt.Sprintf("solution assigns %d invigilators but %d are required", assigned, session.Required),
		})
	}
	if len(problems) > 0 {
		return nil, model.NewValidationError(problems...)
	}

	metrics := computeMetrics(canonical, assignments)
	for _, session := range canonical.Sessions {
		metrics.Coverage[session.Id] = coverage[session.Id]
	}

	return &model.Roster{
		Id:            id,
		Status:        status,
		Assignments:   assignments,
		FairnessScore: 1 / (1 + metrics.DutyStdDev),
		Metrics:       metrics,
	}, nil
}

func computeMetrics(canonical *model.Model, assignments []model.Assignment) model.RosterMetrics {
	sessionsOf := lo.GroupBy(assignments, func(assignment model.Assignment) string { return assignment.Teacher })

	metrics := model.RosterMetrics{
		Teachers: make([]model.TeacherMetrics, 0, len(canonical.Teachers)),
		Coverage: make(map[string]int),
	}
	for t, teacher := range canonical.Teachers {
		sessions := lo.FilterMap(sessionsOf[teacher.Id], func(assignment model.Assignment, _ int) (int, bool) {
			return canonical.SessionIndex(assignment.Session)
		})
		teacherMetrics := teacherSatisfaction(canonical, t, sessions)
		metrics.Teachers = append(metrics.Teachers, teacherMetrics)
		metrics.PreferenceScore += teacherMetrics.PreferenceScore
	}

	if len(metrics.Teachers) == 0 {
		return metrics
	}
	duties := lo.Map(metrics.Teachers, func(teacherMetrics model.TeacherMetrics, _ int) float64 { return float64(teacherMetrics.Duties) })
	metrics.MeanDuties = lo.Sum(duties) / float64(len(duties))
	metrics.DutyVariance = lo.SumBy(duties, func(duty float64) float64 {
		return (duty - metrics.MeanDuties) * (duty - metrics.MeanDuties)
	}) / float64(len(duties))
	metrics.DutyStdDev = math.Sqrt(metrics.DutyVariance)
	return metrics
}

// teacherSatisfaction scores how comfortable a teacher's duties are: few duties above the minimum, few working days,
// no days with a lone duty and no idle days in between
func teacherSatisfaction(canonical *model.Model, teacher int, sessions []int) model.TeacherMetrics {
	metrics := model.TeacherMetrics{
		Teacher: canonical.Teachers[teacher].Id,
		Duties:  len(sessions),
	}
	for _, session := range sessions {
		metrics.PreferenceScore += canonical.Preference(teacher, session)
	}
	metrics.QuotaExcess = max(0, len(sessions)-canonical.Teachers[teacher].MinQuota)

	dutiesPerDay := lo.CountValuesBy(sessions, func(session int) string { return canonical.Sessions[session].Window.Date() })
	days := lo.Keys(dutiesPerDay)
	slices.Sort(days)

	metrics.WorkingDays = len(days)
	metrics.IsolatedDays = lo.CountBy(days, func(day string) bool { return dutiesPerDay[day] == 1 })
	if len(days) > 1 {
		first, _ := time.Parse(model.DateLayout, days[0])
		last, _ := time.Parse(model.DateLayout, days[len(days)-1])
		span := int(last.Sub(first).Hours()/24) + 1
		metrics.GapDays = span - len(days)
	}

	idealDays := max(1, (metrics.Duties+1)/2)
	extraDays := max(0, metrics.WorkingDays-idealDays)

	satisfaction := 100.0
	satisfaction -= math.Min(30, 5*float64(metrics.QuotaExcess))
	satisfaction -= math.Min(25, 5*float64(extraDays))
	satisfaction -= math.Min(15, 7.5*float64(metrics.IsolatedDays))
	satisfaction -= math.Min(10, 2*float64(metrics.GapDays))
	metrics.Satisfaction = math.Max(0, satisfaction)
	return metrics
}
