package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv overrides file settings with WILDCRAFT_* environment variables.
// Unset or unparsable values leave the current setting untouched.
func ApplyEnv(cfg *Config) {
	if cfg == nil {
		return
	}

	if val := getEnv("WILDCRAFT_ADDR"); val != "" {
		cfg.Server.Addr = val
	}
	if val := getEnv("WILDCRAFT_DATA_DIR"); val != "" {
		cfg.Storage.DataDir = val
	}
	if val := getEnv("WILDCRAFT_AUDIT_DRIVER"); val != "" {
		cfg.Storage.AuditDriver = strings.ToLower(val)
	}
	if val := getEnv("WILDCRAFT_AUDIT_DSN"); val != "" {
		cfg.Storage.AuditDSN = val
	}
	if val := getEnv("WILDCRAFT_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = strings.ToLower(val)
	}
	if val := getEnv("WILDCRAFT_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = strings.ToLower(val)
	}
	if val := getEnvInt64("WILDCRAFT_RESPAWN_DELAY_MS"); val > 0 {
		cfg.World.RespawnDelayMs = val
	}
	if val := getEnvInt64("WILDCRAFT_ONLINE_WINDOW_MS"); val > 0 {
		cfg.World.OnlineWindowMs = val
	}
	if val, ok := os.LookupEnv("WILDCRAFT_SWEEP_RESPAWNS"); ok {
		cfg.Sweeps.Respawns = strings.TrimSpace(val)
	}
	if val, ok := os.LookupEnv("WILDCRAFT_SWEEP_CRAFTS"); ok {
		cfg.Sweeps.Crafts = strings.TrimSpace(val)
	}
	if val, ok := os.LookupEnv("WILDCRAFT_SWEEP_SESSIONS"); ok {
		cfg.Sweeps.Sessions = strings.TrimSpace(val)
	}
	switch strings.ToLower(getEnv("WILDCRAFT_RATE_LIMIT")) {
	case "1", "true", "yes":
		cfg.RateLimit.Enabled = true
	case "0", "false", "no":
		cfg.RateLimit.Enabled = false
	}
	if val := getEnvFloat("WILDCRAFT_RATE_RPS"); val > 0 {
		cfg.RateLimit.RPS = val
	}
	if val := getEnvInt64("WILDCRAFT_RATE_BURST"); val > 0 {
		cfg.RateLimit.Burst = int(val)
	}
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getEnvInt64(key string) int64 {
	val := getEnv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return num
}

func getEnvFloat(key string) float64 {
	val := getEnv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0
	}
	return num
}
