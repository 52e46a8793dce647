// Package report provides the console diagnostic sink for the linter.
// Messages carry an [INFO]/[WARNING]/[ERROR] prefix, colored when the
// output is a terminal; warnings and errors are counted so the driver can
// derive a single worst-severity outcome for the run.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Level classifies the severity of a diagnostic message.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Logger writes prefixed diagnostics to an output and an error stream.
// Safe for concurrent use.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer

	infoPrefix    string
	warningPrefix string
	errorPrefix   string

	warnings int
	errors   int
}

// NewLogger creates a logger writing info and warning messages to out and
// error messages to errOut. Prefix coloring follows the fatih/color global
// state, so it is disabled automatically for non-terminal outputs.
func NewLogger(out, errOut io.Writer) *Logger {
	return &Logger{
		out:           out,
		errOut:        errOut,
		infoPrefix:    color.New(color.FgBlue).Sprint("[INFO]"),
		warningPrefix: color.New(color.FgYellow).Sprint("[WARNING]"),
		errorPrefix:   color.New(color.FgRed).Sprint("[ERROR]"),
	}
}

// Infof reports an informational message.
func (l *Logger) Infof(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s %s\n", l.infoPrefix, fmt.Sprintf(format, args...))
}

// Warningf reports a style violation or other non-fatal finding.
func (l *Logger) Warningf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings++
	fmt.Fprintf(l.out, "%s %s\n", l.warningPrefix, fmt.Sprintf(format, args...))
}

// Errorf reports an error. Errors decide the process exit status but never
// stop the run.
func (l *Logger) Errorf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors++
	fmt.Fprintf(l.errOut, "%s %s\n", l.errorPrefix, fmt.Sprintf(format, args...))
}

// WarningAt reports a warning tied to a fragment line.
func (l *Logger) WarningAt(path string, line int, format string, args ...any) {
	l.Warningf("%s:%d: %s", path, line, fmt.Sprintf(format, args...))
}

// ErrorAt reports an error tied to a fragment line.
func (l *Logger) ErrorAt(path string, line int, format string, args ...any) {
	l.Errorf("%s:%d: %s", path, line, fmt.Sprintf(format, args...))
}

// Warnings returns the number of warnings reported so far.
func (l *Logger) Warnings() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.warnings
}

// Errors returns the number of errors reported so far.
func (l *Logger) Errors() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errors
}

// HadErrors reports whether any error was recorded.
func (l *Logger) HadErrors() bool {
	return l.Errors() > 0
}
