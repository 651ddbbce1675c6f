package roster

import (
	"context"
	"testing"
	"time"

	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/limaJavier/invigilation/pkg/sat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSimultaneousConflicts(t *testing.T) {
	//** Arrange
	// Each session can be staffed on its own but together they need four distinct teachers out of three
	input := exampleInput()
	input.Sessions[1].Required = 2
	canonical, err := model.ProcessRawInput(input, testConfig())
	require.NoError(t, err)

	//** Act
	conflicts := structuralConflicts(canonical, testConfig())

	//** Assert
	require.Len(t, conflicts, 1)
	assert.Equal(t, model.ClassNoOverlap, conflicts[0].Class)
	assert.Equal(t, []string{"S1", "S2"}, conflicts[0].Sessions)
}

func TestMinQuotaConflict(t *testing.T) {
	//** Arrange
	input := exampleInput()
	for i := range input.Teachers {
		input.Teachers[i].MinQuota = 2
	}
	canonical, err := model.ProcessRawInput(input, testConfig())
	require.NoError(t, err)

	//** Act
	conflicts := structuralConflicts(canonical, testConfig())

	//** Assert
	found := false
	for _, conflict := range conflicts {
		if conflict.Class == model.ClassQuotaMin {
			found = true
			assert.Equal(t, []string{"T1", "T2", "T3"}, conflict.Teachers)
		}
	}
	assert.True(t, found)
}

func TestMinimalClasses(t *testing.T) {
	//** Arrange
	input := exampleInput()
	input.Sessions[1].Required = 2
	config := testConfig()
	canonical, err := model.ProcessRawInput(input, config)
	require.NoError(t, err)
	compiled, err := compile(context.Background(), canonical, config)
	require.NoError(t, err)

	//** Act
	classes, complete := minimalClasses(context.Background(), sat.NewGophersatSolver(), compiled.problem, 10*time.Second, zap.NewNop())

	//** Assert
	assert.True(t, complete)
	assert.ElementsMatch(t, []model.ConstraintClass{model.ClassCoverage, model.ClassNoOverlap}, classes)
}
