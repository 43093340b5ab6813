// Package config loads server settings from an optional YAML file, an
// optional .env file and the process environment, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sashatouille39/gmm71-sub000/internal/game"
	"github.com/sashatouille39/gmm71-sub000/internal/rules"
	"github.com/sashatouille39/gmm71-sub000/internal/vip"
)

// Storage drivers
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type Config struct {
	Server         ServerConfig   `yaml:"server"`
	Storage        StorageConfig  `yaml:"storage"`
	Auth           AuthConfig     `yaml:"auth"`
	Log            LogConfig      `yaml:"log"`
	Game           GameConfig     `yaml:"game"`
	Realtime       RealtimeConfig `yaml:"realtime"`
	Classification rules.Config   `yaml:"classification"`
}

type ServerConfig struct {
	Port           int     `yaml:"port"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
	MaxBodyBytes   int64   `yaml:"max_body_bytes"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type AuthConfig struct {
	// JWTSecret enables bearer auth when set
	JWTSecret string `yaml:"jwt_secret"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type GameConfig struct {
	MinPlayers        int         `yaml:"min_players"`
	MaxPlayers        int         `yaml:"max_players"`
	BaseCost          int64       `yaml:"base_cost"`
	CostPerPlayer     int64       `yaml:"cost_per_player"`
	CostPerEvent      int64       `yaml:"cost_per_event"`
	StartingWallet    int64       `yaml:"starting_wallet"`
	DefaultSalonLevel int         `yaml:"default_salon_level"`
	SalonCapacities   map[int]int `yaml:"salon_capacities"`
	SurvivalPoints    int         `yaml:"survival_points"`
	KillPoints        int         `yaml:"kill_points"`
	AutoCollect       bool        `yaml:"auto_collect"`
}

type RealtimeConfig struct {
	MinSpeed float64 `yaml:"min_speed"`
	MaxSpeed float64 `yaml:"max_speed"`
	// SecondsPerUnit is the wall-clock length of one survival second at speed 1
	SecondsPerUnit time.Duration `yaml:"seconds_per_unit"`
}

// Default returns the built-in settings
func Default() Config {
	gc := game.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Port:           8080,
			RateLimitRPS:   10,
			RateLimitBurst: 20,
			MaxBodyBytes:   1 << 20,
		},
		Storage: StorageConfig{Driver: DriverSQLite, Path: "brm.db"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Game: GameConfig{
			MinPlayers:        gc.MinPlayers,
			MaxPlayers:        gc.MaxPlayers,
			BaseCost:          gc.BaseCost,
			CostPerPlayer:     gc.CostPerPlayer,
			CostPerEvent:      gc.CostPerEvent,
			StartingWallet:    1_000_000_000,
			DefaultSalonLevel: gc.DefaultSalonLevel,
			SalonCapacities:   vip.DefaultCapacities(),
			SurvivalPoints:    gc.Score.SurvivalPoints,
			KillPoints:        gc.Score.KillPoints,
		},
		Realtime: RealtimeConfig{
			MinSpeed:       gc.MinSpeed,
			MaxSpeed:       gc.MaxSpeed,
			SecondsPerUnit: gc.TickUnit,
		},
		Classification: rules.DefaultConfig(),
	}
}

// Load builds the configuration. A missing YAML file or .env file is not an
// error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("DB_PATH"); ok {
		c.Storage.Path = v
	}
	if v, ok := lookup("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := lookup("JWT_SECRET"); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		c.Log.Format = strings.ToLower(v)
	}
	return nil
}

// Validate rejects inconsistent settings
func (c Config) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add("server.port %d out of range", c.Server.Port)
	}
	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst <= 0 {
		add("server rate limit must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		add("server.max_body_bytes must be positive")
	}
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			add("storage.path is required for sqlite")
		}
	case DriverMemory:
	default:
		add("unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		add("unknown log.format %q", c.Log.Format)
	}

	g := c.Game
	if g.MinPlayers < 2 || g.MaxPlayers < g.MinPlayers {
		add("game players bounds %d..%d invalid", g.MinPlayers, g.MaxPlayers)
	}
	if g.BaseCost < 0 || g.CostPerPlayer < 0 || g.CostPerEvent < 0 || g.StartingWallet < 0 {
		add("game costs must not be negative")
	}
	if _, ok := g.SalonCapacities[g.DefaultSalonLevel]; !ok {
		add("game.default_salon_level %d has no capacity", g.DefaultSalonLevel)
	}
	for level, capacity := range g.SalonCapacities {
		if capacity < 0 {
			add("salon level %d has negative capacity", level)
		}
	}
	if g.SurvivalPoints <= 0 || g.KillPoints < 0 {
		add("game score points invalid")
	}

	r := c.Realtime
	if r.MinSpeed <= 0 || r.MaxSpeed < r.MinSpeed {
		add("realtime speed bounds %.2f..%.2f invalid", r.MinSpeed, r.MaxSpeed)
	}
	if r.SecondsPerUnit <= 0 {
		add("realtime.seconds_per_unit must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GameConfig maps the settings onto the lifecycle manager's rules
func (c Config) GameConfig() game.Config {
	return game.Config{
		MinPlayers:        c.Game.MinPlayers,
		MaxPlayers:        c.Game.MaxPlayers,
		BaseCost:          c.Game.BaseCost,
		CostPerPlayer:     c.Game.CostPerPlayer,
		CostPerEvent:      c.Game.CostPerEvent,
		DefaultSalonLevel: c.Game.DefaultSalonLevel,
		AutoCollect:       c.Game.AutoCollect,
		Score: game.ScoreConfig{
			SurvivalPoints: c.Game.SurvivalPoints,
			KillPoints:     c.Game.KillPoints,
		},
		MinSpeed: c.Realtime.MinSpeed,
		MaxSpeed: c.Realtime.MaxSpeed,
		TickUnit: c.Realtime.SecondsPerUnit,
	}
}

// Addr is the listen address of the HTTP server
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
