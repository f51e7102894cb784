package serverapp

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"wildcraft/internal/config"
)

// NewLogger builds the process logger from the logging config. Unknown levels
// fall back to info.
func NewLogger(cfg config.LoggingConfig, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = log.InfoLevel
	}
	formatter := log.TextFormatter
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
	})
}

func logSecurityHints(logger *log.Logger) {
	if logger == nil {
		return
	}
	env := strings.ToLower(strings.TrimSpace(os.Getenv("WILDCRAFT_ENV")))
	cookieSecure := strings.ToLower(strings.TrimSpace(os.Getenv("WILDCRAFT_COOKIE_SECURE")))
	sameSite := strings.ToLower(strings.TrimSpace(os.Getenv("WILDCRAFT_COOKIE_SAMESITE")))

	if env == "production" || env == "prod" {
		if cookieSecure != "1" && cookieSecure != "true" && cookieSecure != "yes" {
			logger.Warn("WILDCRAFT_COOKIE_SECURE is not explicitly true", "env", env)
		}
		if sameSite == "" {
			logger.Warn("WILDCRAFT_COOKIE_SAMESITE unset, defaulting to lax", "env", env)
		}
	}
}
