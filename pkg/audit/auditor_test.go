package audit

import (
	"testing"

	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calendar(t *testing.T, config model.RunConfiguration) *model.Model {
	input := model.RawInput{
		Sessions: []model.RawSession{
			{Id: "S1", Date: "2025-06-02", Start: "09:00", End: "11:00", Required: 2, Responsible: []string{"T4"}},
			{Id: "S2", Date: "2025-06-02", Start: "10:00", End: "12:00", Required: 1, Tags: []string{"lab"}},
			{Id: "S3", Date: "2025-06-03", Start: "09:00", End: "11:00", Required: 1},
		},
		Teachers: []model.RawTeacher{
			{Id: "T1", MaxQuota: 2, Tags: []string{"lab"}},
			{Id: "T2", MaxQuota: 2, MinQuota: 1},
			{Id: "T3", MaxQuota: 2, Blackouts: []model.RawWindow{{Date: "2025-06-03"}}},
			{Id: "T4", MaxQuota: 2, Tags: []string{"lab"}},
		},
	}
	canonical, err := model.ProcessRawInput(input, config)
	require.NoError(t, err)
	return canonical
}

func roster(pairs ...[2]string) model.Roster {
	return model.Roster{
		Assignments: lo.Map(pairs, func(pair [2]string, _ int) model.Assignment {
			return model.Assignment{Teacher: pair[0], Session: pair[1]}
		}),
	}
}

func rules(err error) []model.ConstraintClass {
	auditError, ok := err.(*model.AuditViolationError)
	if !ok {
		return nil
	}
	return lo.Uniq(lo.Map(auditError.Violations, func(violation model.Violation, _ int) model.ConstraintClass { return violation.Rule }))
}

func TestAuditAcceptsValidRoster(t *testing.T) {
	//** Arrange
	config := model.DefaultRunConfiguration()
	canonical := calendar(t, config)

	//** Act
	err := Audit(canonical, roster(
		[2]string{"T2", "S1"}, [2]string{"T3", "S1"},
		[2]string{"T1", "S2"},
		[2]string{"T2", "S3"},
	), config)

	//** Assert
	assert.NoError(t, err)
}

func TestAuditViolations(t *testing.T) {
	config := model.DefaultRunConfiguration()
	config.MaxSessionsPerDay = 1

	tests := []struct {
		name   string
		roster model.Roster
		rule   model.ConstraintClass
	}{
		{
			name:   "Under coverage",
			roster: roster([2]string{"T2", "S1"}, [2]string{"T1", "S2"}, [2]string{"T2", "S3"}),
			rule:   model.ClassCoverage,
		},
		{
			name:   "Over coverage",
			roster: roster([2]string{"T2", "S1"}, [2]string{"T3", "S1"}, [2]string{"T1", "S1"}, [2]string{"T4", "S2"}, [2]string{"T2", "S3"}),
			rule:   model.ClassCoverage,
		},
		{
			name:   "Overlap",
			roster: roster([2]string{"T1", "S1"}, [2]string{"T2", "S1"}, [2]string{"T1", "S2"}, [2]string{"T2", "S3"}),
			rule:   model.ClassNoOverlap,
		},
		{
			name:   "Missing tag",
			roster: roster([2]string{"T1", "S1"}, [2]string{"T3", "S1"}, [2]string{"T2", "S2"}, [2]string{"T2", "S3"}),
			rule:   model.ClassEligibility,
		},
		{
			name:   "Blackout",
			roster: roster([2]string{"T2", "S1"}, [2]string{"T3", "S1"}, [2]string{"T1", "S2"}, [2]string{"T3", "S3"}),
			rule:   model.ClassBlackout,
		},
		{
			name:   "Responsible teacher",
			roster: roster([2]string{"T2", "S1"}, [2]string{"T3", "S1"}, [2]string{"T4", "S2"}, [2]string{"T2", "S3"}),
			rule:   model.ClassResponsible,
		},
		{
			name:   "Minimum quota",
			roster: roster([2]string{"T1", "S1"}, [2]string{"T3", "S1"}, [2]string{"T4", "S2"}, [2]string{"T1", "S3"}),
			rule:   model.ClassQuotaMin,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			//** Arrange
			canonical := calendar(t, config)

			//** Act
			err := Audit(canonical, test.roster, config)

			//** Assert
			require.Error(t, err)
			assert.Contains(t, rules(err), test.rule)
		})
	}
}

func TestAuditMaxQuota(t *testing.T) {
	//** Arrange
	config := model.DefaultRunConfiguration()
	canonical := calendar(t, config)
	canonical.Teachers[1].MaxQuota = 1 // T2

	//** Act
	err := Audit(canonical, roster(
		[2]string{"T2", "S1"}, [2]string{"T3", "S1"},
		[2]string{"T1", "S2"},
		[2]string{"T2", "S3"},
	), config)

	//** Assert
	assert.ElementsMatch(t, []model.ConstraintClass{model.ClassQuotaMax}, rules(err))
}

func TestAuditDailyLimit(t *testing.T) {
	//** Arrange
	config := model.DefaultRunConfiguration()
	config.MaxSessionsPerDay = 1
	canonical, err := model.ProcessRawInput(model.RawInput{
		Sessions: []model.RawSession{
			{Id: "M", Date: "2025-06-02", Start: "09:00", End: "10:00", Required: 1},
			{Id: "A", Date: "2025-06-02", Start: "14:00", End: "15:00", Required: 1},
		},
		Teachers: []model.RawTeacher{{Id: "T1"}, {Id: "T2"}},
	}, config)
	require.NoError(t, err)

	//** Act
	err = Audit(canonical, roster([2]string{"T1", "M"}, [2]string{"T1", "A"}), config)

	//** Assert
	assert.Equal(t, []model.ConstraintClass{model.ClassDailyLimit}, rules(err))
	assert.NoError(t, Audit(canonical, roster([2]string{"T1", "M"}, [2]string{"T2", "A"}), config))
}

func TestAuditPins(t *testing.T) {
	//** Arrange
	config := model.DefaultRunConfiguration()
	config.PinnedAssignments = []model.PinnedAssignment{{Teacher: "T4", Session: "S3"}}
	canonical := calendar(t, config)

	//** Act
	err := Audit(canonical, roster(
		[2]string{"T2", "S1"}, [2]string{"T3", "S1"},
		[2]string{"T1", "S2"},
		[2]string{"T2", "S3"},
	), config)

	//** Assert
	assert.Equal(t, []model.ConstraintClass{model.ClassPinned}, rules(err))
}
