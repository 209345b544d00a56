package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type LoggerConfig struct {
	Level          string         `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format         string         `mapstructure:"format" validate:"oneof=json console"`
	OutputTarget   string         `mapstructure:"output_target" validate:"oneof=stdout stderr file"`
	FilePath       string         `mapstructure:"file_path" validate:"required_if=OutputTarget file"`
	TimeField      string         `mapstructure:"time_field"`
	TimeFormat     string         `mapstructure:"time_format" validate:"oneof=rfc3339 rfc3339nano unix unix_ms"`
	ServiceName    string         `mapstructure:"service_name"`
	ServiceVersion string         `mapstructure:"service_version"`
	Env            string         `mapstructure:"env" validate:"oneof=dev test staging prod"`
	WithCaller     bool           `mapstructure:"with_caller"`
	Stacktrace     bool           `mapstructure:"stacktrace"`
	Fields         map[string]any `mapstructure:"fields"`
}

// New builds the root logger. Every component derives its own child from it
// with module/component fields, so the common service fields are set here once.
func New(cfg *LoggerConfig) (zerolog.Logger, error) {
	cfg.setDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return zerolog.Nop(), fmt.Errorf("logger config validation error: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	zerolog.TimestampFieldName = cfg.TimeField
	zerolog.TimeFieldFormat = timeLayout(cfg.TimeFormat)

	writer, err := cfg.writer()
	if err != nil {
		return zerolog.Nop(), err
	}

	logger := zerolog.New(writer).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("version", cfg.ServiceVersion).
		Str("env", cfg.Env).
		Logger()

	if cfg.WithCaller {
		logger = logger.With().Caller().Logger()
	}
	if cfg.Stacktrace {
		logger = logger.With().Stack().Logger()
	}
	if len(cfg.Fields) > 0 {
		logger = logger.With().Fields(cfg.Fields).Logger()
	}

	// global level must follow ParseLevel, otherwise child loggers ignore it
	zerolog.SetGlobalLevel(level)

	return logger, nil
}

func (c *LoggerConfig) writer() (io.Writer, error) {
	var out io.Writer
	switch c.OutputTarget {
	case "stderr":
		out = os.Stderr
	case "file":
		if err := os.MkdirAll(filepath.Dir(c.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(c.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	default:
		out = os.Stdout
	}

	if c.Format == "console" {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}, nil
	}
	return out, nil
}

func timeLayout(format string) string {
	switch format {
	case "rfc3339":
		return time.RFC3339
	case "unix":
		return zerolog.TimeFormatUnix
	case "unix_ms":
		return zerolog.TimeFormatUnixMs
	default:
		return time.RFC3339Nano
	}
}

func (c *LoggerConfig) setDefaults() {
	if c.Env == "" {
		c.Env = "prod"
	}

	// level and format follow the environment unless set explicitly
	if c.Level == "" {
		if c.Env == "dev" {
			c.Level = "debug"
		} else {
			c.Level = "info"
		}
	}
	if c.Format == "" {
		if c.Env == "dev" {
			c.Format = "console"
		} else {
			c.Format = "json"
		}
	}
	if c.OutputTarget == "" {
		if c.Env == "dev" {
			c.OutputTarget = "stderr"
		} else {
			c.OutputTarget = "stdout"
		}
	}

	if c.TimeField == "" {
		c.TimeField = "ts"
	}
	if c.TimeFormat == "" {
		c.TimeFormat = "rfc3339nano"
	}

	if !c.WithCaller && c.Env == "dev" {
		c.WithCaller = true
	}

	if c.ServiceName == "" {
		c.ServiceName = "poc-paginacao-multibanco"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "0.0.1"
	}
}
