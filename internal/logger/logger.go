// internal/logger/logger.go
//
// Structured logger (Zap + Lumberjack).
//
// Context
// -------
// wpconfig logs to stderr by default so stdout stays clean for `print`
// output.  When a log directory is given, JSON events also go to one file
// per day under `<dir>/wpconfig-YYYY-MM-DD.log`, rotated and compressed by
// Lumberjack.  Console output is colorized only in a TTY.
//
// Usage
// -----
//
//	log, err := logger.New(logger.Options{Dir: dir, Level: "debug"})
//	if err != nil { … }
//	defer log.Sync()
//
// Notes
// -----
// • ISO-8601 timestamps and lowercase levels in both encoders.
// • Errors from zap itself go to the same sinks via `ErrorOutput`.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.  The zero value logs info and above to stderr.
type Options struct {
	// Dir enables the JSON file sink when non-empty.
	Dir string
	// Level is any zapcore level name; empty means "info".
	Level string
	// Console is where human-readable output goes; nil means os.Stderr.
	Console io.Writer
	// Color forces the colored level encoder.
	Color bool
	// Quiet drops the console sink, leaving only the file.
	Quiet bool
}

// New builds a *zap.SugaredLogger from opts and installs it as the
// process-wide default via zap.ReplaceGlobals.
func New(opts Options) (*zap.SugaredLogger, error) {
	lvl := zap.InfoLevel
	if opts.Level != "" {
		if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", opts.Level, err)
		}
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		NameKey:      "logger",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	var (
		cores  []zapcore.Core
		errOut []zapcore.WriteSyncer
	)

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, err
		}
		fileSink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName(time.Now())),
			MaxSize:    10, // MB
			MaxBackups: 7,
			MaxAge:     14, // days
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), fileSink, lvl))
		errOut = append(errOut, fileSink)
	}

	if !opts.Quiet || opts.Dir == "" {
		out := opts.Console
		if out == nil {
			out = os.Stderr
		}
		conCfg := encCfg
		if opts.Color {
			conCfg.EncodeLevel = zapcore.LowercaseColorLevelEncoder
		}
		sink := zapcore.AddSync(out)
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(conCfg), sink, lvl))
		errOut = append(errOut, sink)
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.ErrorOutput(zapcore.NewMultiWriteSyncer(errOut...)),
	).Sugar()

	zap.ReplaceGlobals(z.Desugar())

	z.Debugw("logger online", "dir", opts.Dir, "level", lvl.String())
	return z, nil
}

// FileName is the daily log file name for t.
func FileName(t time.Time) string {
	return "wpconfig-" + t.Format("2006-01-02") + ".log"
}

// IsTTY reports whether f is a character device.
func IsTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
