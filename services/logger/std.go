package logsvc

import (
	"log"

	"github.com/lmsexplorer/lmsexplorer/core"
)

// StdLogger writes to a standard log.Logger; used in DEV and as the fallback
// when no rollbar token is configured.
type StdLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger, debug bool) *StdLogger {
	return &StdLogger{std: std, debug: debug}
}

func (l StdLogger) output(level, msg string, args []interface{}) {
	l.std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		l.std.Printf("%s:   %+v", level, arg)
	}
}

func (l StdLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.output("DEBUG", msg, args)
	}
}

func (l StdLogger) Info(msg string, args ...interface{})  { l.output("INFO", msg, args) }
func (l StdLogger) Warn(msg string, args ...interface{})  { l.output("WARN", msg, args) }
func (l StdLogger) Error(msg string, args ...interface{}) { l.output("ERROR", msg, args) }
