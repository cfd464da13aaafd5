// Package logging is a small structured logger in the go-ethereum/log15
// idiom: a Logger carries a fixed context of key/value pairs, each call
// site adds its own, and the record renders as "LVL[timestamp] msg k=v
// k=v...". Level-tagged color comes from github.com/fatih/color, routed
// through github.com/mattn/go-colorable so ANSI codes still render on
// Windows conhost, and suppressed entirely when
// github.com/mattn/go-isatty reports the output isn't a terminal (piped
// into a file, or running under a harness). Crit additionally captures
// the calling goroutine's Go stack via github.com/go-stack/stack, mirroring
// log15's own "fatal errors carry a stack trace" convention.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
)

// Level orders the five severities every call site logs at, Debug lowest.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCrit
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "EROR"
	case LevelCrit:
		return "CRIT"
	default:
		return "????"
	}
}

func (l Level) color() *color.Color {
	switch l {
	case LevelDebug:
		return color.New(color.FgHiBlack)
	case LevelInfo:
		return color.New(color.FgGreen)
	case LevelWarn:
		return color.New(color.FgYellow)
	case LevelError:
		return color.New(color.FgRed)
	case LevelCrit:
		return color.New(color.FgHiRed, color.Bold)
	default:
		return color.New()
	}
}

// Logger is the handle every component of the runtime (compiler
// diagnostics, the module loader, the VM's own unhandled-rejection
// reporting) logs through, each carrying its own fixed context.
type Logger struct {
	out     io.Writer
	color   bool
	ctx     []interface{}
	minimum Level
	mu      *sync.Mutex
}

// Root is the default logger, writing to stderr with color auto-detected
// from the terminal, matching log15's root logger convention.
func Root() *Logger {
	return newLogger(colorable.NewColorableStderr(), isatty.IsTerminal(os.Stderr.Fd()), LevelDebug, &sync.Mutex{})
}

func newLogger(out io.Writer, useColor bool, minimum Level, mu *sync.Mutex) *Logger {
	return &Logger{out: out, color: useColor, minimum: minimum, mu: mu}
}

// New returns a child logger with ctx appended to the parent's own
// context, the log15 pattern for "this is the sub-logger for module X".
func (l *Logger) New(ctx ...interface{}) *Logger {
	child := &Logger{out: l.out, color: l.color, minimum: l.minimum, mu: l.mu}
	child.ctx = append(append([]interface{}{}, l.ctx...), ctx...)
	return child
}

// SetLevel returns a copy of this logger whose minimum level is level. The
// receiver and any child already created from it keep their own level.
func (l *Logger) SetLevel(level Level) *Logger {
	clone := *l
	clone.minimum = level
	return &clone
}

func (l *Logger) log(level Level, msg string, ctx []interface{}) {
	if level < l.minimum {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder
	ts := time.Now().Format("01-02|15:04:05.000")
	if l.color {
		l.writeColored(&b, level, ts, msg)
	} else {
		fmt.Fprintf(&b, "%s[%s] %s", level, ts, msg)
	}
	writeFields(&b, l.ctx)
	writeFields(&b, ctx)
	if level == LevelCrit {
		fmt.Fprintf(&b, "\n%s", stack.Trace().TrimRuntime())
	}
	fmt.Fprintln(l.out, b.String())
}

func (l *Logger) writeColored(b *strings.Builder, level Level, ts, msg string) {
	c := level.color()
	b.WriteString(c.Sprint(level.String()))
	fmt.Fprintf(b, "[%s] %s", ts, msg)
}

func writeFields(b *strings.Builder, ctx []interface{}) {
	for i := 0; i+1 < len(ctx); i += 2 {
		fmt.Fprintf(b, " %v=%v", ctx[i], ctx[i+1])
	}
}

func (l *Logger) Debug(msg string, ctx ...interface{}) { l.log(LevelDebug, msg, ctx) }
func (l *Logger) Info(msg string, ctx ...interface{})  { l.log(LevelInfo, msg, ctx) }
func (l *Logger) Warn(msg string, ctx ...interface{})  { l.log(LevelWarn, msg, ctx) }
func (l *Logger) Error(msg string, ctx ...interface{}) { l.log(LevelError, msg, ctx) }

// Crit logs at the highest severity and attaches a Go call stack; unlike
// log15's Crit it does not os.Exit, since a library-embedded interpreter
// should never unilaterally terminate its host process. Callers wanting
// the classic "log and die" behavior for cmd/vela's own fatal paths do
// that explicitly at the call site.
func (l *Logger) Crit(msg string, ctx ...interface{}) { l.log(LevelCrit, msg, ctx) }
