package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

type CoverageMode string

const (
	CoverageExact   CoverageMode = "exact"
	CoverageAtLeast CoverageMode = "at_least"
)

type QuotaMode string

const (
	QuotaHard QuotaMode = "hard"
	QuotaSoft QuotaMode = "soft"
)

type RunConfiguration struct {
	TimeLimitSeconds         int                `mapstructure:"time_limit_seconds" validate:"gte=1"`
	FairnessWeight           float64            `mapstructure:"fairness_weight" validate:"gte=0,lte=1000"`
	PreferenceWeight         float64            `mapstructure:"preference_weight" validate:"gte=0,lte=1000"`
	PinnedAssignments        []PinnedAssignment `mapstructure:"pinned_assignments" validate:"dive"`
	AllowSuboptimalOnTimeout bool               `mapstructure:"allow_suboptimal_on_timeout"`
	CoverageMode             CoverageMode       `mapstructure:"coverage_mode" validate:"oneof=exact at_least"`
	MinQuotaMode             QuotaMode          `mapstructure:"min_quota_mode" validate:"oneof=hard soft"`
	MinQuotaPenalty          float64            `mapstructure:"min_quota_penalty" validate:"gte=0,lte=1000000"`
	MaxSessionsPerDay        int                `mapstructure:"max_sessions_per_day" validate:"gte=0"` // 0 disables the daily limit
	SupervisorsPerRoom       int                `mapstructure:"supervisors_per_room" validate:"gte=0"` // 0 disables deriving requirements from rooms
	GradeQuotas              map[string]int     `mapstructure:"grade_quotas" validate:"dive,gte=0"`
	ExplainInfeasibility     bool               `mapstructure:"explain_infeasibility"`
}

func DefaultRunConfiguration() RunConfiguration {
	return RunConfiguration{
		TimeLimitSeconds:         30,
		FairnessWeight:           1,
		PreferenceWeight:         1,
		AllowSuboptimalOnTimeout: true,
		CoverageMode:             CoverageExact,
		MinQuotaMode:             QuotaHard,
		MinQuotaPenalty:          50,
		ExplainInfeasibility:     true,
	}
}

func (config RunConfiguration) TimeLimit() time.Duration {
	return time.Duration(config.TimeLimitSeconds) * time.Second
}

var validate = validator.New()

// Validate reports every invalid option as a ValidationError
func (config RunConfiguration) Validate() error {
	err := validate.Struct(config)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return errors.Wrap(err, "cannot validate run configuration")
	}

	validationError := &ValidationError{}
	for _, fieldError := range fieldErrors {
		reason := fmt.Sprintf("value %v fails %q", fieldError.Value(), fieldError.Tag())
		if fieldError.Param() != "" {
			reason = fmt.Sprintf("value %v fails %q (%v)", fieldError.Value(), fieldError.Tag(), fieldError.Param())
		}
		validationError.add("config", fieldError.Namespace(), "%v", reason)
	}
	return validationError
}
