// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// The request tooling writes lifecycle, decode, and session events to one
// JSON log per day under `<log.dir>/YYYY-MM-DD.log`.  Interactive runs of
// `reqdump env` tee the same events to stderr; CGI runs never do, because
// stdout carries the HTTP response.  Rotation, compression, and retention are
// handled by Lumberjack.
//
// Usage
// -----
//
//	log, err := logger.New(logger.Options{Dir: dir, Level: cfg.Log.Level})
//	if err != nil { … }
//	log.Infow("request built", "method", rc.Method())
//
// Notes
// -----
// • Zap core uses ISO-8601 timestamps and lowercase levels.
// • Errors are written to the same sink via `ErrorOutput`.
// • Oxford commas, two spaces after periods.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the sink directory, threshold, and optional console tee.
type Options struct {
	Dir   string // created when missing
	Level string // debug, info, warn, or error; empty means info
	Tee   bool   // mirror to stderr with a console encoder
}

// New returns a *zap.SugaredLogger writing JSON to Dir/YYYY-MM-DD.log and
// installs it as the process-wide default via zap.ReplaceGlobals.
func New(opts Options) (*zap.SugaredLogger, error) {
	lvl := zap.InfoLevel
	if opts.Level != "" {
		if err := lvl.Set(opts.Level); err != nil {
			return nil, fmt.Errorf("logger level %q: %w", opts.Level, err)
		}
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}

	fileSink := &lumberjack.Logger{
		Filename:   FileName(opts.Dir, time.Now()),
		MaxSize:    50, // MB
		MaxBackups: 7,
		MaxAge:     14, // days
		Compress:   true,
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(fileSink), lvl),
	}
	if opts.Tee {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			lvl,
		))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.ErrorOutput(zapcore.AddSync(fileSink)),
		zap.AddCaller(),
	).Sugar()

	zap.ReplaceGlobals(z.Desugar())

	z.Infow("logger online", "dir", opts.Dir, "level", lvl.String(), "tee", opts.Tee)
	return z, nil
}

// FileName is the daily log path inside dir.
func FileName(dir string, day time.Time) string {
	return filepath.Join(dir, day.Format("2006-01-02")+".log")
}
