// Package logger builds the zap logger used across the service.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects level, encoding and destination.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is json or console.
	Format string
	// Output is stdout, stderr or file.
	Output string
	// FilePath is used when Output is file. Rotated by size.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	// Development switches to the development encoder and adds caller info.
	Development bool
}

// New creates a logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil || cfg.Level == "" {
		level.SetLevel(zapcore.InfoLevel)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "@timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var ws zapcore.WriteSyncer
	switch cfg.Output {
	case "stderr":
		ws = zapcore.AddSync(os.Stderr)
	case "file":
		if cfg.FilePath == "" {
			ws = zapcore.AddSync(os.Stdout)
			break
		}
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    orDefault(cfg.MaxSizeMB, 50),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			Compress:   true,
		})
	default:
		ws = zapcore.AddSync(os.Stdout)
	}

	log := zap.New(zapcore.NewCore(encoder, ws, level), zap.AddStacktrace(zapcore.ErrorLevel))
	if cfg.Development {
		log = log.WithOptions(zap.AddCaller())
	}
	return log, nil
}

// Must is New that falls back to a production logger on error.
func Must(cfg Config) *zap.Logger {
	log, err := New(cfg)
	if err != nil {
		fallback, _ := zap.NewProduction()
		return fallback
	}
	return log
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
