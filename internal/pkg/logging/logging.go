// Package logging builds the process logger: a colored console logger in
// development, JSON on stdout in production, both teed into a daily file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logFilePerm = 0o644
	logDirPerm  = 0o755
)

// Options selects the logger flavour.
type Options struct {
	Dev   bool
	Dir   string // daily files are skipped when empty
	Level zapcore.Level
}

// DailyFilename returns the log file name for the day of now.
func DailyFilename(now time.Time) string {
	return "cms_" + now.Format(time.DateOnly) + ".log"
}

// DailyWriter appends to one file per calendar day, switching files when the
// date changes.
type DailyWriter struct {
	mu   sync.Mutex
	dir  string
	day  string
	file *os.File
	now  func() time.Time
}

func NewDailyWriter(dir string) (*DailyWriter, error) {
	if err := os.MkdirAll(dir, logDirPerm); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &DailyWriter{dir: dir, now: time.Now}, nil
}

func (w *DailyWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	name := DailyFilename(w.now())
	if w.file == nil || name != w.day {
		if w.file != nil {
			_ = w.file.Close()
		}
		f, err := os.OpenFile(filepath.Join(w.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFilePerm)
		if err != nil {
			w.file = nil
			return 0, err
		}
		w.file, w.day = f, name
	}
	return w.file.Write(p)
}

func (w *DailyWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

func (w *DailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// New builds the logger described by opts.
func New(opts Options) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(opts.Level)

	var console zapcore.Encoder
	if opts.Dev {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		console = zapcore.NewConsoleEncoder(cfg)
	} else {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		console = zapcore.NewJSONEncoder(cfg)
	}
	cores := []zapcore.Core{zapcore.NewCore(console, zapcore.Lock(os.Stdout), level)}

	if opts.Dir != "" {
		writer, err := NewDailyWriter(opts.Dir)
		if err != nil {
			return nil, err
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(writer), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if opts.Dev {
		logger = logger.WithOptions(zap.Development())
	}
	return logger, nil
}
