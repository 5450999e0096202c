// Package logging builds the process logger from the logging configuration.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ZentaChain/zentalk-client/pkg/config"
)

// Setup builds a zap.Logger from c and installs it as the global logger.
// The caller should defer logger.Sync().
func Setup(c config.Logging) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	atom := zap.NewAtomicLevelAt(level)

	encCfg := encoderConfig(c.Development)
	var encoder zapcore.Encoder
	if c.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	var cores []zapcore.Core
	for _, out := range c.Outputs {
		ws, err := writeSyncer(out, c.Rotation)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(encoder, ws, atom))
	}

	opts := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
	if c.Development {
		opts = append(opts, zap.Development(), zap.AddCaller())
	}

	logger := zap.New(zapcore.NewTee(cores...), opts...)
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func writeSyncer(out string, r config.Rotation) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(out) {
	case "stdout":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
	}

	if r.Enable {
		filename := out
		if strings.TrimSpace(r.Filename) != "" {
			filename = r.Filename
		}
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   filename,
			MaxSize:    atLeast(r.MaxSizeMB, 10),
			MaxBackups: atLeast(r.MaxBackups, 1),
			MaxAge:     atLeast(r.MaxAgeDays, 7),
			Compress:   r.Compress,
		}), nil
	}

	f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	return zapcore.AddSync(f), nil
}

func encoderConfig(dev bool) zapcore.EncoderConfig {
	if dev {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}
	return zap.NewProductionEncoderConfig()
}

func atLeast(v, min int) int {
	if v < min {
		return min
	}
	return v
}
