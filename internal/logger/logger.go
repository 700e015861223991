package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Format selects the log output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Options controls the logger built by New.
type Options struct {
	Level  slog.Level
	Format Format
}

// Setup returns a JSON slog.Logger at info level writing to w.
func Setup(w io.Writer) *slog.Logger {
	return New(w, Options{Level: slog.LevelInfo, Format: FormatJSON})
}

// New returns a slog.Logger for the given options.
// FormatText uses tint for colored human readable output; anything else is JSON.
func New(w io.Writer, opts Options) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	var handler slog.Handler
	switch opts.Format {
	case FormatText:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      opts.Level,
			TimeFormat: time.DateTime,
			NoColor:    !isTerminal(w),
		})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: opts.Level,
		})
	}
	return slog.New(handler)
}

// SetupDefault installs a JSON logger writing to w as the global logger.
// A nil writer means os.Stdout.
func SetupDefault(w io.Writer) {
	slog.SetDefault(Setup(w))
}

// Configure installs a logger built from level and format names as the global logger.
func Configure(w io.Writer, level, format string) *slog.Logger {
	l := New(w, Options{Level: ParseLevel(level), Format: Format(strings.ToLower(format))})
	slog.SetDefault(l)
	return l
}

// ParseLevel maps a level name to slog.Level. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
