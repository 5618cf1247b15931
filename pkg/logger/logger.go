package logger

import (
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/huynhanx03/go-nosql/pkg/settings"
)

const (
	defaultMaxSize    = 100 // Megabytes
	defaultMaxBackups = 5
	defaultMaxAge     = 30 // Days
)

// New builds a JSON zap logger writing to stdout and, when a file name is
// configured, to a size-rotated log file.
func New(cfg settings.Logger) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.LogLevel != "" {
		parsed, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", cfg.LogLevel)
		}
		level = parsed
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	sink := zapcore.AddSync(os.Stdout)
	if cfg.FileLogName != "" {
		sink = zapcore.NewMultiWriteSyncer(sink, zapcore.AddSync(newRotator(cfg)))
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func newRotator(cfg settings.Logger) *lumberjack.Logger {
	rotator := &lumberjack.Logger{
		Filename:   cfg.FileLogName,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	if rotator.MaxSize == 0 {
		rotator.MaxSize = defaultMaxSize
	}
	if rotator.MaxBackups == 0 {
		rotator.MaxBackups = defaultMaxBackups
	}
	if rotator.MaxAge == 0 {
		rotator.MaxAge = defaultMaxAge
	}
	return rotator
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
