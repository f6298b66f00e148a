// Package logging provides a non-singleton logger handle for the ambient
// diagnostic events the core and its collaborators emit. Re-encodes the
// original SPLogger.c's process-wide logger (levels 1-4, default
// destination stdout) as an explicit *logrus.Logger handed to whatever
// component needs to emit diagnostics -- the core's correctness never
// depends on its presence, and NoOp returns a handle that discards
// everything for callers with no destination configured.
package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Level mirrors SPConsts.h's SP_CONFIG_DEFAULT_LOGGER_LEVEL constraint: an
// integer in [1,4], least to most verbose.
type Level int

const (
	// ErrorLevel logs only errors.
	ErrorLevel Level = 1
	// WarningLevel logs warnings and errors.
	WarningLevel Level = 2
	// InfoLevel logs info, warnings, and errors. This is the original's default.
	InfoLevel Level = 3
	// DebugLevel logs everything.
	DebugLevel Level = 4
)

func (l Level) logrusLevel() logrus.Level {
	switch l {
	case ErrorLevel:
		return logrus.ErrorLevel
	case WarningLevel:
		return logrus.WarnLevel
	case InfoLevel:
		return logrus.InfoLevel
	case DebugLevel:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// New builds a logger writing to filename ("" or "stdout" means os.Stdout,
// matching SP_CONFIG_DEFAULT_LOGGER_FILENAME) at the given level.
//
// Returns an error if level is outside [1,4]; a file that can't be opened is
// surfaced as a wrapped error.
func New(level Level, filename string) (*logrus.Logger, error) {
	if level < ErrorLevel || level > DebugLevel {
		return nil, errors.Errorf("logging: level %d out of range [%d,%d]", level, ErrorLevel, DebugLevel)
	}

	var out io.Writer = os.Stdout
	if filename != "" && filename != "stdout" {
		f, err := os.Create(filename)
		if err != nil {
			return nil, errors.WithMessagef(err, "logging: could not open %q for writing", filename)
		}
		out = f
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(level.logrusLevel())
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log, nil
}

// NoOp returns a logger that discards everything -- the safe default when no
// destination was configured.
func NoOp() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
