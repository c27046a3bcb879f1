package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

// Logger is a leveled key/value logger. Messages are written as
//
//	time="..." level=info msg="..." key=value ...
//
// or as JSON objects when created with JSON set.
type Logger struct {
	entry *logrus.Entry
}

// Options controls how New builds a Logger.
type Options struct {
	Out   io.Writer
	Level Level
	JSON  bool
}

var std = New(Options{Out: os.Stderr, Level: LevelInfo})

// New builds a standalone Logger. Nil Out means stderr.
func New(opts Options) *Logger {
	l := logrus.New()
	if opts.Out != nil {
		l.SetOutput(opts.Out)
	} else {
		l.SetOutput(os.Stderr)
	}
	if opts.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	}
	l.SetLevel(toLogrus(opts.Level))
	return &Logger{entry: logrus.NewEntry(l)}
}

// Default returns the process-wide logger used by the package-level helpers.
func Default() *Logger { return std }

// SetDefault replaces the logger used by the package-level helpers.
func SetDefault(l *Logger) {
	if l != nil {
		std = l
	}
}

// ParseLevel maps "debug", "info" and "error" (any case) to a Level.
// Anything else is LevelInfo.
func ParseLevel(s string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// With returns a child logger that always carries the given pairs.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{entry: l.entry.WithFields(fields(kv))}
}

func (l *Logger) Debug(msg string, kv ...any) {
	l.entry.WithFields(fields(kv)).Debug(msg)
}

func (l *Logger) Info(msg string, kv ...any) {
	l.entry.WithFields(fields(kv)).Info(msg)
}

func (l *Logger) Error(msg string, err error, kv ...any) {
	e := l.entry.WithFields(fields(kv))
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(msg)
}

func Debug(msg string, kv ...any) {
	std.Debug(msg, kv...)
}

func Info(msg string, kv ...any) {
	std.Info(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	std.Error(msg, err, kv...)
}

func toLogrus(level Level) logrus.Level {
	switch level {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// fields expects kv as pairs: key, value, key, value, ...
// Non-string keys are skipped and a trailing odd value is ignored.
func fields(kv []any) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	return f
}
