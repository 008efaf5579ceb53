// Package logger provides the warning/error sink shared by every stage of
// the build pipeline. It intentionally knows nothing about JavaScript
// syntax or source positions beyond the opaque fields the plugin API lets
// a plugin attach to a message.
package logger

import (
	"fmt"
	"sort"
	"sync"
)

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
)

// Pos is the optional source position a plugin can attach to a warning or
// an error via PluginContext.Warn/Error.
type Pos struct {
	File   string
	Line   int
	Column int
}

type Msg struct {
	Kind       MsgKind
	Code       string
	Text       string
	Plugin     string
	URL        string
	Pos        *Pos
	Loc        *Pos
	Frame      string
}

func (msg Msg) String() string {
	prefix := "warning"
	if msg.Kind == Error {
		prefix = "error"
	}
	if msg.Plugin != "" {
		prefix = fmt.Sprintf("%s (plugin %s)", prefix, msg.Plugin)
	}
	if msg.Pos != nil && msg.Pos.File != "" {
		return fmt.Sprintf("%s: %s: %s", msg.Pos.File, prefix, msg.Text)
	}
	return fmt.Sprintf("%s: %s", prefix, msg.Text)
}

// Log is a thread-safe sink for warnings and errors accumulated over the
// course of a build or generate call. It mirrors the shape plugins are
// handed: callers never see the underlying storage, only these functions.
type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

// NewDeferLog creates a Log that buffers every message until Done is
// called, sorting errors before warnings and otherwise preserving arrival
// order. This is what the Plugin Context uses to collect warnings emitted
// during a build or generate call.
func NewDeferLog() Log {
	var msgs []Msg
	var mutex sync.Mutex
	var hasErrors bool

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			if msg.Kind == Error {
				hasErrors = true
			}
			msgs = append(msgs, msg)
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return hasErrors
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			result := make([]Msg, len(msgs))
			copy(result, msgs)
			sort.SliceStable(result, func(i, j int) bool {
				return result[i].Kind < result[j].Kind
			})
			return result
		},
	}
}

// WarnSink receives every warning that escapes a build, generate, or write
// call. The zero value of OnWarn is StderrWarnSink.
type WarnSink func(Msg)

// StderrWarnSink is the default sink: a single line per warning, the same
// shape a human reads when working from a terminal. When stderr is a
// terminal and NO_COLOR is unset, the line is printed in bold.
func StderrWarnSink(msg Msg) {
	fmt.Fprintln(stderrWriter(), formatOneLine(msg))
}

func formatOneLine(msg Msg) string {
	text := msg.String()
	if useColor() {
		return colorBold + text + colorReset
	}
	return text
}
