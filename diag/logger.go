// Package diag is Lakesis's thin logging façade: every ambient
// diagnostic (GC warnings, DEBUG* instruction output, fault reports,
// the CLI's own status lines) goes through here instead of a bare
// fmt.Println, so the backend can be swapped without touching call
// sites.
//
// Grounded on chazu-maggie/server/lsp.go's use of
// github.com/tliron/commonlog (commonlog.NewInfoMessage) and its blank
// import of github.com/tliron/commonlog/simple to register a console
// backend.
package diag

import (
	"fmt"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

// Logger tags every message with a component name (e.g. "gc", "vm",
// "cli") so a fault dump or GC warning can be traced back to its
// origin.
type Logger struct {
	name string
}

// New returns a Logger for the named component.
func New(name string) *Logger {
	return &Logger{name: name}
}

func (l *Logger) format(format string, args ...any) string {
	return fmt.Sprintf("[%s] %s", l.name, fmt.Sprintf(format, args...))
}

// Info logs a routine status message: DEBUGCPU/DEBUGMEM/DEBUGDUMP
// output, run start/stop.
func (l *Logger) Info(format string, args ...any) {
	commonlog.NewInfoMessage(1, l.format(format, args...))
}

// Warning logs a non-fatal condition: a GC root or child reference
// pointing at an id no longer present in the indirection table
// (spec.md §7, "GC warning").
func (l *Logger) Warning(format string, args ...any) {
	commonlog.NewWarningMessage(1, l.format(format, args...))
}

// Error logs a fatal condition just before the process exits non-zero.
func (l *Logger) Error(format string, args ...any) {
	commonlog.NewErrorMessage(1, l.format(format, args...))
}
