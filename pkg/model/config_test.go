package model

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	assert.NoError(t, DefaultRunConfiguration().Validate())
}

func TestValidateKeepsValueVerbatim(t *testing.T) {
	//** Arrange
	config := DefaultRunConfiguration()
	config.CoverageMode = "50%"

	//** Act
	err := config.Validate()

	//** Assert
	var validationError *ValidationError
	require.True(t, errors.As(err, &validationError))
	require.Len(t, validationError.Problems, 1)
	assert.Equal(t, "config", validationError.Problems[0].Entity)
	assert.Equal(t, `value 50% fails "oneof" (exact at_least)`, validationError.Problems[0].Reason)
}

func TestValidateBoundsWeights(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(config *RunConfiguration)
	}{
		{name: "Fairness weight", mutate: func(config *RunConfiguration) { config.FairnessWeight = 1e18 }},
		{name: "Preference weight", mutate: func(config *RunConfiguration) { config.PreferenceWeight = 1e18 }},
		{name: "Minimum quota penalty", mutate: func(config *RunConfiguration) { config.MinQuotaPenalty = 1e18 }},
		{name: "Negative weight", mutate: func(config *RunConfiguration) { config.FairnessWeight = -1 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := DefaultRunConfiguration()
			test.mutate(&config)

			err := config.Validate()

			var validationError *ValidationError
			require.True(t, errors.As(err, &validationError))
			assert.Equal(t, "config", validationError.Problems[0].Entity)
		})
	}
}
