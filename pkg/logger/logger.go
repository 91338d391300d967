package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/yanqian/appliance-assistant/internal/infra/config"
)

// New constructs the JSON slog logger shared by every component.
func New(cfg *config.Config) *slog.Logger {
	level := parseLevel(firstNonEmpty(os.Getenv("LOG_LEVEL"), cfg.App.LogLevel))
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", cfg.App.ServiceName)
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
