package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SlogLogger adapts *slog.Logger to Logger.
type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}

// Options selects where and how log records are written.
type Options struct {
	// File, when set, sends output to a size-rotated file instead of stderr.
	File string
	// MaxSizeMB and MaxBackups tune rotation of File.
	MaxSizeMB  int
	MaxBackups int
	// Level is the minimum level emitted.
	Level slog.Level
	// JSON forces the JSON handler. Otherwise text is used on a terminal
	// and JSON everywhere else.
	JSON bool
}

// New builds a Logger from opts. The returned closer releases the log file
// and is never nil.
func New(opts Options) (Logger, io.Closer) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
		tty              = term.IsTerminal(int(os.Stderr.Fd()))
	)

	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		w, closer, tty = lj, lj, false
	}

	return NewSlogLogger(slog.New(newHandler(w, opts, tty))), closer
}

func newHandler(w io.Writer, opts Options, tty bool) slog.Handler {
	ho := &slog.HandlerOptions{Level: opts.Level}
	if tty && !opts.JSON {
		return slog.NewTextHandler(w, ho)
	}
	return slog.NewJSONHandler(w, ho)
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
