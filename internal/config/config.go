package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  Server  `yaml:"server" json:"server"`
	Storage Storage `yaml:"storage" json:"storage"`
	Rewards Rewards `yaml:"rewards" json:"rewards"`
	Auth    Auth    `yaml:"auth" json:"auth"`
	Debug   Debug   `yaml:"debug" json:"debug"`
	Log     Log     `yaml:"log" json:"log"`
}

type Server struct {
	Addr string `yaml:"addr" json:"addr"`
}

type Storage struct {
	Path string `yaml:"path" json:"path"`
}

// Rewards is the XP award table per habit cadence. Product-tunable; do
// not hardcode these at call sites.
type Rewards struct {
	Daily  int `yaml:"daily" json:"daily"`
	Weekly int `yaml:"weekly" json:"weekly"`
}

type Auth struct {
	SessionTTLHours int `yaml:"session_ttl_hours" json:"session_ttl_hours"`
	BcryptCost      int `yaml:"bcrypt_cost" json:"bcrypt_cost"`
}

type Debug struct {
	// Clock enables the debug clock endpoint for fast-forwarding days.
	Clock bool `yaml:"clock" json:"clock"`
}

type Log struct {
	Level string `yaml:"level" json:"level"`
}

func Default() *Config {
	return &Config{
		Server:  Server{Addr: ":8080"},
		Storage: Storage{Path: "data/habithisson.db"},
		Rewards: Rewards{Daily: 500, Weekly: 5000},
		Auth:    Auth{SessionTTLHours: 7 * 24, BcryptCost: 12},
		Debug:   Debug{Clock: false},
		Log:     Log{Level: "info"},
	}
}

// Load reads a YAML config file, falling back to defaults when the file
// is absent, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("HABITHISSON_ADDR")); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("HABITHISSON_DB")); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("HABITHISSON_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := getEnvInt("HABITHISSON_REWARD_DAILY"); v > 0 {
		cfg.Rewards.Daily = v
	}
	if v := getEnvInt("HABITHISSON_REWARD_WEEKLY"); v > 0 {
		cfg.Rewards.Weekly = v
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("HABITHISSON_DEBUG_CLOCK"))) {
	case "1", "true", "yes":
		cfg.Debug.Clock = true
	case "0", "false", "no":
		cfg.Debug.Clock = false
	}
}

func getEnvInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func (c *Config) validate() error {
	if c.Rewards.Daily <= 0 || c.Rewards.Weekly <= 0 {
		return fmt.Errorf("rewards must be positive (daily=%d weekly=%d)", c.Rewards.Daily, c.Rewards.Weekly)
	}
	if c.Auth.SessionTTLHours <= 0 {
		return fmt.Errorf("session_ttl_hours must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt_cost out of range: %d", c.Auth.BcryptCost)
	}
	return nil
}
