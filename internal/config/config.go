package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DoyleJ11/snake-draft-backend/internal/engine"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server         ServerConfig
	Draft          DraftConfig
	Logging        LoggingConfig
	AllowedOrigins []string
}

type ServerConfig struct {
	Port string
	Host string
	Env  string // "development" or "production"
}

// DraftConfig is the rule set and player pool every new lobby starts from.
type DraftConfig struct {
	Rules       engine.Rules
	RostersFile string
	Rosters     []engine.Roster
	IdleTTL     time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string // "json" or "console"
}

type rostersFile struct {
	Rosters []engine.Roster `yaml:"rosters"`
}

// Load reads .env (if present) and the environment, then loads and validates
// the roster file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Draft: DraftConfig{
			Rules: engine.Rules{
				Slots:               getEnvInt("DRAFT_SLOTS", 4),
				PicksPerParticipant: getEnvInt("DRAFT_PICKS_PER_PARTICIPANT", 2),
				TotalPicks:          getEnvInt("DRAFT_TOTAL_PICKS", 0),
			},
			RostersFile: getEnv("DRAFT_ROSTERS_FILE", ""),
			IdleTTL:     time.Duration(getEnvInt("LOBBY_IDLE_TTL_MINUTES", 120)) * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
		if cfg.IsDevelopment() {
			cfg.Logging.Format = "console"
		}
	}

	rosters, err := LoadRosters(cfg.Draft.RostersFile)
	if err != nil {
		return nil, err
	}
	cfg.Draft.Rosters = rosters

	if err := cfg.Draft.Rules.Validate(rosters); err != nil {
		return nil, fmt.Errorf("draft config: %w", err)
	}
	return cfg, nil
}

// LoadRosters reads a YAML roster file. An empty path yields the built-in
// lineups.
func LoadRosters(path string) ([]engine.Roster, error) {
	if path == "" {
		return engine.DefaultRosters(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rosters: %w", err)
	}
	var f rostersFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse rosters %s: %w", path, err)
	}
	if err := engine.ValidateRosters(f.Rosters); err != nil {
		return nil, fmt.Errorf("rosters %s: %w", path, err)
	}
	return f.Rosters, nil
}

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console", "text":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
