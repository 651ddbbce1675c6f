package sat

import (
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ExternalConfig locates an OPB solver binary. TimeLimitFlag is passed with the limit in whole seconds, e.g. "-t"
// produces "-t 30", and "--timeout=" produces "--timeout=30"
type ExternalConfig struct {
	Path          string   `mapstructure:"path"`
	Args          []string `mapstructure:"args"`
	TimeLimitFlag string   `mapstructure:"time_limit_flag"`
}

func ExternalConfigFromMap(configMap map[string]any) (ExternalConfig, error) {
	var config ExternalConfig
	if err := mapstructure.Decode(configMap, &config); err != nil {
		return ExternalConfig{}, errors.Wrap(err, "cannot decode solver config")
	}
	if config.Path == "" {
		return ExternalConfig{}, errors.New("solver path is not present in config")
	}
	return config, nil
}

// solverOutput is the parsed answer of a solver following the pseudo-boolean competition output format
type solverOutput struct {
	status  string // Content of the "s" line
	model   []bool
	cost    int
	hasCost bool
}

func parseSolution(output string, variables int) (solverOutput, error) {
	lines := lo.Filter(strings.Split(output, "\n"), func(line string, _ int) bool {
		return len(line) > 0
	})

	var parsed solverOutput
	values := lo.Reduce(
		lo.Filter(lines, func(line string, _ int) bool { return line[0] == 'v' }),
		func(values []string, line string, _ int) []string {
			return append(values, strings.Fields(line[1:])...)
		},
		[]string{},
	)

	for _, line := range lines {
		switch line[0] {
		case 's':
			parsed.status = strings.TrimSpace(line[1:])
		case 'o':
			// The last "o" line holds the best cost found
			cost, err := strconv.Atoi(strings.TrimSpace(line[1:]))
			if err != nil {
				return solverOutput{}, errors.Wrapf(err, "invalid objective line %q", line)
			}
			parsed.cost, parsed.hasCost = cost, true
		}
	}

	if len(values) > 0 {
		parsed.model = make([]bool, variables)
		for _, value := range values {
			negated := strings.HasPrefix(value, "-")
			name := strings.TrimPrefix(strings.TrimPrefix(value, "-"), "x")
			variable, err := strconv.Atoi(name)
			if err != nil {
				return solverOutput{}, errors.Wrapf(err, "invalid literal %q in solver output", value)
			}
			if variable < 1 || variable > variables {
				return solverOutput{}, errors.Errorf("literal %q is out of range", value)
			}
			parsed.model[variable-1] = !negated
		}
	}
	return parsed, nil
}
