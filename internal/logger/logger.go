package logger

import (
	"github.com/limaJavier/invigilation/internal/config"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a json production logger, or a colored development logger when the format is "console"
func New(logConfig config.LogConfig) (*zap.Logger, error) {
	var zapConfig zap.Config

	switch logConfig.Format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(logConfig.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", logConfig.Level)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	// Diagnostics go to stderr so the roster can be written to stdout
	zapConfig.OutputPaths = []string{"stderr"}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, errors.Wrap(err, "cannot build logger")
	}
	return logger, nil
}
