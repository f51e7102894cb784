package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Version   string          `yaml:"version" json:"version"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	World     WorldConfig     `yaml:"world" json:"world"`
	Crafting  CraftingConfig  `yaml:"crafting" json:"crafting"`
	Sweeps    SweepConfig     `yaml:"sweeps" json:"sweeps"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

type StorageConfig struct {
	DataDir     string `yaml:"data_dir" json:"data_dir"`
	AuditDriver string `yaml:"audit_driver" json:"audit_driver"`
	AuditDSN    string `yaml:"audit_dsn" json:"audit_dsn"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type WorldConfig struct {
	MinCoord       float64 `yaml:"min_coord" json:"min_coord"`
	MaxCoord       float64 `yaml:"max_coord" json:"max_coord"`
	DefaultBiome   string  `yaml:"default_biome" json:"default_biome"`
	SpawnMin       float64 `yaml:"spawn_min" json:"spawn_min"`
	SpawnMax       float64 `yaml:"spawn_max" json:"spawn_max"`
	HarvestRange   float64 `yaml:"harvest_range" json:"harvest_range"`
	RespawnDelayMs int64   `yaml:"respawn_delay_ms" json:"respawn_delay_ms"`
	OnlineWindowMs int64   `yaml:"online_window_ms" json:"online_window_ms"`
	// Minimum spacing between two placed workbenches of the same biome.
	WorkbenchSpacing float64 `yaml:"workbench_spacing" json:"workbench_spacing"`
}

type CraftingConfig struct {
	StationRange   float64 `yaml:"station_range" json:"station_range"`
	MaxQty         int     `yaml:"max_qty" json:"max_qty"`
	AlwaysAtHandID string  `yaml:"always_at_hand_station" json:"always_at_hand_station"`
}

// SweepConfig holds cron specs; an empty spec disables the sweep.
type SweepConfig struct {
	Respawns string `yaml:"respawns" json:"respawns"`
	Crafts   string `yaml:"crafts" json:"crafts"`
	Sessions string `yaml:"sessions" json:"sessions"`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" json:"enabled"`
	RPS     float64 `yaml:"rps" json:"rps"`
	Burst   int     `yaml:"burst" json:"burst"`
}

func (w *WorldConfig) ApplyDefaults() {
	if w.MaxCoord == 0 {
		w.MaxCoord = 100
	}
	if w.DefaultBiome == "" {
		w.DefaultBiome = "forest"
	}
	if w.SpawnMin == 0 && w.SpawnMax == 0 {
		w.SpawnMin = 10
		w.SpawnMax = 90
	}
	if w.HarvestRange == 0 {
		w.HarvestRange = 12
	}
	if w.RespawnDelayMs == 0 {
		w.RespawnDelayMs = 60_000
	}
	if w.OnlineWindowMs == 0 {
		w.OnlineWindowMs = 45_000
	}
	if w.WorkbenchSpacing == 0 {
		w.WorkbenchSpacing = 3
	}
}

func (c *CraftingConfig) ApplyDefaults() {
	if c.StationRange == 0 {
		c.StationRange = 10
	}
	if c.MaxQty == 0 {
		c.MaxQty = 99
	}
	if c.AlwaysAtHandID == "" {
		c.AlwaysAtHandID = "campfire"
	}
}

func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":42069"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.AuditDriver == "" {
		c.Storage.AuditDriver = "sqlite"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	c.World.ApplyDefaults()
	c.Crafting.ApplyDefaults()
	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 20
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 40
	}
}

// Default returns a config with every default applied and the sweeps enabled.
func Default() *Config {
	c := &Config{
		Sweeps: SweepConfig{
			Respawns: "@every 5s",
			Crafts:   "@every 2s",
			Sessions: "@every 10m",
		},
		RateLimit: RateLimitConfig{Enabled: true},
	}
	c.ApplyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := Default()
	if err := yaml.Unmarshal(b, r); err != nil {
		return nil, err
	}
	r.ApplyDefaults()
	return r, nil
}
