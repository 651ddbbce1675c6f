package model

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() RawInput {
	return RawInput{
		Sessions: []RawSession{
			{Id: "S2", Date: "2025-06-02", Start: "10:00", End: "12:00", Rooms: []string{"B1"}, Tags: []string{" Lab "}},
			{Id: "S1", Date: "2025-06-02", Start: "09:00", End: "11:00", Required: 2, Responsible: []string{"T3"}},
			{Id: "S3", Date: "2025-06-03", Start: "09:00", End: "11:00", Required: 1},
		},
		Teachers: []RawTeacher{
			{Id: "T2", Grade: "assistant", Tags: []string{"lab"}},
			{Id: "T1", MaxQuota: 3, Tags: []string{"LAB"}, Blackouts: []RawWindow{{Date: "2025-06-03"}}},
			{Id: "T3", MaxQuota: 2, Tags: []string{"lab"}},
			{Id: "T4", MaxQuota: 2},
		},
		Preferences: []RawPreference{
			{Teacher: "T1", Session: "S1", Score: 5},
			{Teacher: "T1", Date: "2025-06-02", Start: "08:00", End: "10:30", Score: 1},
			{Teacher: "T2", Date: "2025-06-02", Start: "08:00", End: "09:30", Score: 2},
			{Teacher: "T2", Date: "2025-06-02", Score: 4},
		},
	}
}

func validConfig() RunConfiguration {
	config := DefaultRunConfiguration()
	config.SupervisorsPerRoom = 1
	config.GradeQuotas = map[string]int{"assistant": 1}
	return config
}

func TestProcessRawInput(t *testing.T) {
	//** Act
	model, err := ProcessRawInput(validInput(), validConfig())

	//** Assert
	require.NoError(t, err)

	// Sorted by id
	assert.Equal(t, []string{"S1", "S2", "S3"}, lo.Map(model.Sessions, func(session ExamSession, _ int) string { return session.Id }))
	assert.Equal(t, []string{"T1", "T2", "T3", "T4"}, lo.Map(model.Teachers, func(teacher Teacher, _ int) string { return teacher.Id }))

	// Requirement derived from rooms and tags normalized
	s2, _ := model.SessionIndex("S2")
	assert.Equal(t, 1, model.Sessions[s2].Required)
	assert.Equal(t, []string{"lab"}, model.Sessions[s2].Tags)

	// S1: everybody; S2: lab teachers but T3 is kept free by S1; S3: T1 is blacked out
	t1, _ := model.TeacherIndex("T1")
	t2, _ := model.TeacherIndex("T2")
	t3, _ := model.TeacherIndex("T3")
	t4, _ := model.TeacherIndex("T4")
	assert.Equal(t, []int{t1, t2, t3, t4}, model.Candidates(0))
	assert.Equal(t, []int{t1, t2}, model.Candidates(s2))
	assert.Equal(t, []int{t2, t3, t4}, model.Candidates(2))
	assert.True(t, model.Overlap(0, s2))
	assert.False(t, model.Overlap(0, 2))

	// Max quota: record, grade, eligible sessions
	assert.Equal(t, 2, model.Teachers[t1].MaxQuota)
	assert.Equal(t, 1, model.Teachers[t2].MaxQuota)
	assert.Equal(t, 2, model.Teachers[t3].MaxQuota)

	// Session-level preference wins, slot preferences are averaged, missing ones are neutral
	assert.Equal(t, 5.0, model.Preference(t1, 0))
	assert.Equal(t, 1.0, model.Preference(t1, s2))
	assert.Equal(t, 3.0, model.Preference(t2, 0))
	assert.Equal(t, 4.0, model.Preference(t2, s2))
	assert.Equal(t, NeutralPreference, model.Preference(t4, 2))

	assert.Equal(t, 4, model.Demand())
}

func TestProcessRawInputPins(t *testing.T) {
	//** Arrange
	config := validConfig()
	config.PinnedAssignments = []PinnedAssignment{{Teacher: "T3", Session: "S1"}, {Teacher: "T3", Session: "S1"}}

	//** Act
	model, err := ProcessRawInput(validInput(), config)

	//** Assert
	require.NoError(t, err)
	t3, _ := model.TeacherIndex("T3")
	assert.True(t, model.Pinned(t3, 0))
	assert.Equal(t, [][2]int{{t3, 0}}, model.Pins())
}

func TestProcessRawInputRejects(t *testing.T) {
	tests := []struct {
		name   string
		adjust func(input *RawInput, config *RunConfiguration)
		entity string
		id     string
	}{
		{
			name:   "Too few eligible teachers",
			adjust: func(input *RawInput, _ *RunConfiguration) { input.Sessions[1].Required = 5 },
			entity: "session", id: "S1",
		},
		{
			name:   "Zero duration",
			adjust: func(input *RawInput, _ *RunConfiguration) { input.Sessions[2].End = "09:00" },
			entity: "session", id: "S3",
		},
		{
			name: "No requirement",
			adjust: func(input *RawInput, config *RunConfiguration) {
				config.SupervisorsPerRoom = 0
			},
			entity: "session", id: "S2",
		},
		{
			name:   "Negative requirement",
			adjust: func(input *RawInput, _ *RunConfiguration) { input.Sessions[2].Required = -1 },
			entity: "session", id: "S3",
		},
		{
			name:   "Duplicate session",
			adjust: func(input *RawInput, _ *RunConfiguration) { input.Sessions = append(input.Sessions, input.Sessions[0]) },
			entity: "session", id: "S2",
		},
		{
			name:   "Invalid date",
			adjust: func(input *RawInput, _ *RunConfiguration) { input.Sessions[2].Date = "03/06/2025" },
			entity: "session", id: "S3",
		},
		{
			name:   "Unknown responsible teacher",
			adjust: func(input *RawInput, _ *RunConfiguration) { input.Sessions[1].Responsible = []string{"T9"} },
			entity: "session", id: "S1",
		},
		{
			name:   "Minimum quota above eligible sessions",
			adjust: func(input *RawInput, _ *RunConfiguration) { input.Teachers[1].MinQuota = 3 },
			entity: "teacher", id: "T1",
		},
		{
			name:   "Minimum quota above maximum quota",
			adjust: func(input *RawInput, _ *RunConfiguration) { input.Teachers[3].MinQuota = 3; input.Teachers[3].MaxQuota = 1 },
			entity: "teacher", id: "T4",
		},
		{
			name:   "Negative quota",
			adjust: func(input *RawInput, _ *RunConfiguration) { input.Teachers[0].MaxQuota = -1 },
			entity: "teacher", id: "T2",
		},
		{
			name: "Unknown preference session",
			adjust: func(input *RawInput, _ *RunConfiguration) {
				input.Preferences = append(input.Preferences, RawPreference{Teacher: "T1", Session: "S9"})
			},
			entity: "preference", id: "T1",
		},
		{
			name: "Ineligible pin",
			adjust: func(_ *RawInput, config *RunConfiguration) {
				config.PinnedAssignments = []PinnedAssignment{{Teacher: "T1", Session: "S3"}}
			},
			entity: "pin", id: "T1~S3",
		},
		{
			name: "Overlapping pins",
			adjust: func(_ *RawInput, config *RunConfiguration) {
				config.PinnedAssignments = []PinnedAssignment{{Teacher: "T1", Session: "S1"}, {Teacher: "T1", Session: "S2"}}
			},
			entity: "teacher", id: "T1",
		},
		{
			name:   "Invalid configuration",
			adjust: func(_ *RawInput, config *RunConfiguration) { config.CoverageMode = "most" },
			entity: "config", id: "RunConfiguration.CoverageMode",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			//** Arrange
			input, config := validInput(), validConfig()
			test.adjust(&input, &config)

			//** Act
			model, err := ProcessRawInput(input, config)

			//** Assert
			assert.Nil(t, model)
			var validationError *ValidationError
			require.ErrorAs(t, err, &validationError)
			assert.True(t, lo.SomeBy(validationError.Problems, func(problem Problem) bool {
				return problem.Entity == test.entity && problem.Id == test.id
			}), "problems: %v", validationError.Problems)
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{}
	for i := range 7 {
		err.add("session", string(rune('A'+i)), "broken")
	}

	assert.Contains(t, err.Error(), "7 problem(s)")
	assert.Contains(t, err.Error(), "and 2 more")
}
