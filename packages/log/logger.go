// Package log is the structured logger used by checkspec. It wraps zerolog
// and switches to a human readable console writer on terminals.
package log

import (
	"io"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Discard drops every message.
var Discard = New(WithLevel(Silent), WithWriter(io.Discard))

func New(ops ...Option) *Logger {
	defaults := []Option{
		WithWriter(os.Stderr),
		WithLevel(Info),
	}

	l := Logger{log: zerolog.New(os.Stderr).With().Timestamp().Logger()}
	for _, op := range slices.Concat(defaults, ops) {
		op(&l)
	}
	return &l
}

type Option func(*Logger)

type Fields map[string]any

func WithLevel(level Level) Option {
	return func(l *Logger) {
		l.log = l.log.Level(level.zerolog())
	}
}

func WithWriter(w io.Writer) Option {
	return func(l *Logger) {
		out := w
		if isTerminal(w) {
			out = zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
				cw.TimeFormat = time.TimeOnly
				cw.Out = w
			})
		}
		l.log = l.log.Output(out)
	}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return true
	}
	return false
}

type Logger struct {
	log zerolog.Logger
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(f Fields) *Logger {
	return &Logger{log: l.log.With().Fields(map[string]any(f)).Logger()}
}

func (l *Logger) Error(msg string, err error) {
	l.log.Error().Err(err).Msg(msg)
}

func (l *Logger) Info(msg string, f Fields) {
	l.log.Info().Fields(map[string]any(f)).Msg(msg)
}

func (l *Logger) Debug(msg string, f Fields) {
	l.log.Debug().Fields(map[string]any(f)).Msg(msg)
}
