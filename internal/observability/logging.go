package observability

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/squad-service/internal/config"
)

// NewLogger builds the process logger. Production runs emit sampled JSON;
// LOG_FORMAT=console gives colored human output for local work.
func NewLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.MessageKey = "message"
		zapCfg.EncoderConfig.TimeKey = "ts"
		zapCfg.EncoderConfig.StacktraceKey = "stack"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.Sampling = nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.Development = level == zapcore.DebugLevel

	fields := map[string]interface{}{}
	if cfg.Service != "" {
		fields["service"] = cfg.Service
	}
	if cfg.Env != "" {
		fields["env"] = cfg.Env
	}
	zapCfg.InitialFields = fields

	return zapCfg.Build()
}
