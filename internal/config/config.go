// Package config loads runtime settings from the environment, with an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/talgya/hexfront/internal/world"
)

// Config is the full runtime configuration.
type Config struct {
	World     WorldConfig
	Engine    EngineConfig
	Storage   StorageConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	Entropy   EntropyConfig
}

type WorldConfig struct {
	Seed   int64
	Width  int
	Height int
	Noise  bool

	// ExtraOpponents is how many barbarian villages to place on a fresh
	// world besides the two fixed ones.
	ExtraOpponents int
}

type EngineConfig struct {
	TickInterval time.Duration
	SummaryEvery uint64
}

type StorageConfig struct {
	DBPath    string
	SaveEvery uint64 // ticks between archive writes, 0 disables periodic saves
}

type ServerConfig struct {
	Port        int
	CORSOrigins []string
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	TrustProxy        bool // honor X-Forwarded-For
}

type LoggingConfig struct {
	Level      string
	JSONFormat bool
}

type EntropyConfig struct {
	RandomOrgAPIKey string
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	cfg := FromEnv()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables and defaults.
func FromEnv() *Config {
	gen := world.DefaultGenConfig()
	return &Config{
		World: WorldConfig{
			Seed:   resolveSeed(getInt64("HEXFRONT_SEED", gen.Seed)),
			Width:  getInt("HEXFRONT_GRID_W", gen.Width),
			Height: getInt("HEXFRONT_GRID_H", gen.Height),
			Noise:  getBool("HEXFRONT_NOISE_TERRAIN", false),

			ExtraOpponents: getInt("HEXFRONT_EXTRA_OPPONENTS", 0),
		},
		Engine: EngineConfig{
			TickInterval: getDuration("HEXFRONT_TICK_INTERVAL", time.Second),
			SummaryEvery: uint64(getInt("HEXFRONT_SUMMARY_EVERY", 300)),
		},
		Storage: StorageConfig{
			DBPath:    getEnv("HEXFRONT_DB_PATH", "data/hexfront.db"),
			SaveEvery: uint64(getInt("HEXFRONT_SAVE_EVERY", 60)),
		},
		Server: ServerConfig{
			Port:        getInt("HEXFRONT_API_PORT", 8080),
			CORSOrigins: splitList(getEnv("HEXFRONT_CORS_ORIGINS", "http://localhost:3000")),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBool("HEXFRONT_RATE_LIMIT", true),
			RequestsPerSecond: getFloat("HEXFRONT_RATE_LIMIT_RPS", 10),
			BurstSize:         getInt("HEXFRONT_RATE_LIMIT_BURST", 20),
			TrustProxy:        getBool("HEXFRONT_TRUST_PROXY", false),
		},
		Logging: LoggingConfig{
			Level:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
			JSONFormat: strings.EqualFold(getEnv("LOG_FORMAT", "text"), "json"),
		},
		Entropy: EntropyConfig{
			RandomOrgAPIKey: getEnv("RANDOM_ORG_API_KEY", ""),
		},
	}
}

// GenConfig returns world generation parameters for this configuration.
func (c *Config) GenConfig() world.GenConfig {
	gen := world.DefaultGenConfig()
	gen.Seed = c.World.Seed
	gen.Width = c.World.Width
	gen.Height = c.World.Height
	gen.Noise = c.World.Noise
	return gen
}

// resolveSeed turns seed 0 into a fixed random seed, so every grid built
// from this configuration shares the same terrain.
func resolveSeed(seed int64) int64 {
	for seed == 0 {
		seed = rand.Int63()
	}
	return seed
}

func (c *Config) validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("grid size %dx%d must be positive", c.World.Width, c.World.Height)
	}
	if c.World.ExtraOpponents < 0 {
		return fmt.Errorf("extra opponents %d must not be negative", c.World.ExtraOpponents)
	}
	if c.Engine.TickInterval <= 0 {
		return fmt.Errorf("tick interval %v must be positive", c.Engine.TickInterval)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("api port %d out of range", c.Server.Port)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.BurstSize <= 0) {
		return errors.New("rate limit needs positive rps and burst")
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	raw := getEnv(key, "")
	v, err := strconv.Atoi(raw)
	if err != nil {
		if raw != "" {
			slog.Warn("ignoring malformed setting", "key", key, "value", raw)
		}
		return def
	}
	return v
}

func getInt64(key string, def int64) int64 {
	v, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil {
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
