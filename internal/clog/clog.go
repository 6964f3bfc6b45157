// Package clog provides conditional, per-location logging for the replay
// engine and active-message runtime. It is adapted from a small conditional
// logger originally written for a distributed compute example: one process
// may own several simulated locations (ranks/threads), so each Logger carries
// its own prefix instead of logging through one process-global instance.
package clog

import (
	"fmt"
	"log"

	"github.com/google/uuid"
)

var enabled = false

// Enable turns on conditional log output process-wide.
func Enable() {
	enabled = true
}

// Disable turns conditional log output back off.
func Disable() {
	enabled = false
}

// Enabled reports whether conditional log output is currently turned on.
func Enabled() bool {
	return enabled
}

// A Logger logs output in the manner of the standard logger but can be
// conditionally enabled. By default, conditional logging is disabled.
type Logger struct {
	logger *log.Logger
}

// New creates a new conditional logger with the given prefix.
func New(prefixFormat string, prefixArgs ...any) *Logger {
	return &Logger{
		log.New(
			log.Default().Writer(),
			fmt.Sprintf(prefixFormat, prefixArgs...),
			log.Ldate|log.Ltime|log.Lmicroseconds|log.Lmsgprefix,
		),
	}
}

// ForLocation creates a conditional logger prefixed with a shortened
// location identifier, for use by one location's replay/AM state.
func ForLocation(role string, locationID string) *Logger {
	return New("%s %s ", role, Short(locationID))
}

// Printf logs output conditionally (if enabled via Enable) in the manner of
// log.Printf.
func (l *Logger) Printf(format string, a ...any) {
	if !enabled {
		return
	}
	l.logger.Printf(format, a...)
}

// Errorf logs output unconditionally, i.e. always, in the manner of
// log.Printf. Used for warnings and errors that a user should see regardless
// of whether conditional logging has been enabled.
func (l *Logger) Errorf(format string, a ...any) {
	l.logger.Printf(format, a...)
}

// Short returns the first segment of a string in UUID v4 format (up to the
// first hyphen); otherwise the complete string is returned unchanged. Used
// to keep diagnostic output for location/request identifiers readable.
func Short(id string) string {
	for i := 0; i < len(id); i++ {
		if id[i] == '-' {
			return id[:i]
		}
	}
	return id
}

// NewID returns a fresh random identifier suitable for a location or an
// in-flight active-message request.
func NewID() string {
	return uuid.NewString()
}
