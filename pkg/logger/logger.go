package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log and Sugar discard everything until Init is called, so packages can log
// unconditionally (tests included).
var (
	Log   = zap.NewNop()
	Sugar = Log.Sugar()
)

// Options controls where and how much the global logger writes.
type Options struct {
	Level string // debug, info, warn, error
	File  string // optional rotating log file in addition to stdout
}

// Init initializes the global logger configuration.
func Init(opts Options) error {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.Set(opts.Level); err != nil {
			return err
		}
	}

	var writer io.Writer = os.Stdout
	if opts.File != "" {
		writer = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename: opts.File,
			MaxSize:  100,
			MaxAge:   28,
			Compress: true,
		})
	}

	Log = zap.New(newCore(zapcore.AddSync(writer), level), zap.AddCaller())
	Sugar = Log.Sugar()
	return nil
}

func newCore(ws zapcore.WriteSyncer, level zapcore.Level) zapcore.Core {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), ws, level)
}

// Sync flushes buffered entries. Call it before the process exits.
func Sync() {
	_ = Log.Sync()
}
