package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs a JSON slog logger writing to stdout as the default and
// returns its handler so it can be combined with others.
func Setup() slog.Handler {
	return SetupWriter(os.Stdout, slog.LevelInfo)
}

func SetupWriter(w io.Writer, level slog.Level) slog.Handler {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	return handler
}
