package config

import (
	"strings"

	"github.com/limaJavier/invigilation/pkg/model"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	BackendGophersat = "gophersat"
	BackendExternal  = "external"
)

// Config gathers everything a front end needs to run the engine. Run options live at the top level of the file
type Config struct {
	Run    model.RunConfiguration `mapstructure:",squash"`
	Solver SolverConfig           `mapstructure:"solver"`
	Log    LogConfig              `mapstructure:"log"`
}

type SolverConfig struct {
	Backend       string   `mapstructure:"backend"`
	Path          string   `mapstructure:"path"`
	Args          []string `mapstructure:"args"`
	TimeLimitFlag string   `mapstructure:"time_limit_flag"`
}

// Map returns the external solver settings in the shape sat.ExternalConfigFromMap expects
func (config SolverConfig) Map() map[string]any {
	return map[string]any{
		"path":            config.Path,
		"args":            config.Args,
		"time_limit_flag": config.TimeLimitFlag,
	}
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load reads the configuration with precedence environment > file > defaults. An empty path looks for
// invigilation.{yaml,json} in the working directory and runs on defaults when there is none
func Load(path string) (*Config, error) {
	v := viper.New()

	//** Defaults
	defaults := model.DefaultRunConfiguration()
	v.SetDefault("time_limit_seconds", defaults.TimeLimitSeconds)
	v.SetDefault("fairness_weight", defaults.FairnessWeight)
	v.SetDefault("preference_weight", defaults.PreferenceWeight)
	v.SetDefault("allow_suboptimal_on_timeout", defaults.AllowSuboptimalOnTimeout)
	v.SetDefault("coverage_mode", string(defaults.CoverageMode))
	v.SetDefault("min_quota_mode", string(defaults.MinQuotaMode))
	v.SetDefault("min_quota_penalty", defaults.MinQuotaPenalty)
	v.SetDefault("max_sessions_per_day", defaults.MaxSessionsPerDay)
	v.SetDefault("supervisors_per_room", defaults.SupervisorsPerRoom)
	v.SetDefault("explain_infeasibility", defaults.ExplainInfeasibility)

	v.SetDefault("solver.backend", BackendGophersat)
	v.SetDefault("solver.path", "")
	v.SetDefault("solver.time_limit_flag", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	//** File
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("invigilation")
		v.AddConfigPath(".")
	}

	//** Environment
	v.SetEnvPrefix("INVIGILATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "cannot read config file")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "cannot decode config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (config *Config) Validate() error {
	switch config.Solver.Backend {
	case BackendGophersat:
	case BackendExternal:
		if config.Solver.Path == "" {
			return errors.New("solver.path is required by the external backend")
		}
	default:
		return errors.Errorf("unknown solver backend %q", config.Solver.Backend)
	}
	return config.Run.Validate()
}
