package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/CIDgravity/snakelet"
)

// config structure
type Config struct {
	API       APIConfig       `mapstructure:"API"`
	Tasks     TasksConfig     `mapstructure:"TASKS"`
	Logs      LogsConfig      `mapstructure:"LOGS"`
	Github    GithubConfig    `mapstructure:"GITHUB"`
	Database  DatabaseConfig  `mapstructure:"DATABASE"`
	Redis     RedisConfig     `mapstructure:"REDIS"`
	Scheduler SchedulerConfig `mapstructure:"SCHEDULER"`
	Profile   ProfileConfig   `mapstructure:"PROFILE"`
}

type APIConfig struct {
	ListenPort string `mapstructure:"ListenPort"`
}

type TasksConfig struct {
	MaxParallelTasksAllowed int `mapstructure:"MaxParallelTasksAllowed"`
}

type LogsConfig struct {
	Level            string `mapstructure:"Level"` // error | warn | info | debug | trace - case insensitive
	OutputLogsAsJSON bool   `mapstructure:"OutputLogsAsJSON"`
	ReportCaller     bool   `mapstructure:"ReportCaller"`
}

type GithubConfig struct {
	Token   string `mapstructure:"Token"`
	PerPage int    `mapstructure:"PerPage"`
}

type DatabaseConfig struct {
	Driver     string `mapstructure:"Driver"` // postgres | sqlite
	URL        string `mapstructure:"URL"`
	SQLitePath string `mapstructure:"SQLitePath"` // directory, or :memory:
}

type RedisConfig struct {
	URL     string        `mapstructure:"URL"` // empty = in-process locks, no events
	LockTTL time.Duration `mapstructure:"LockTTL"`
}

type SchedulerConfig struct {
	Enabled                 bool          `mapstructure:"Enabled"`
	FullSyncSpec            string        `mapstructure:"FullSyncSpec"`
	IncrementalSyncSpec     string        `mapstructure:"IncrementalSyncSpec"`
	UserDelay               time.Duration `mapstructure:"UserDelay"`
	IncrementalUserDelay    time.Duration `mapstructure:"IncrementalUserDelay"`
	FullSyncInterval        time.Duration `mapstructure:"FullSyncInterval"`
	IncrementalActiveWindow time.Duration `mapstructure:"IncrementalActiveWindow"`
}

type ProfileConfig struct {
	// when true, interests and goals are merged like skills instead of overwritten
	UnionInterests bool `mapstructure:"UnionInterests"`
}

// Load
func Load() (*Config, error) {
	dir, err := filepath.Abs(filepath.Dir(os.Args[0]))

	if err != nil {
		return nil, err
	}

	// check config file exists
	configFilePath := dir + "/config/config.toml"

	if _, err := os.Stat(configFilePath); errors.Is(err, os.ErrNotExist) {
		if _, err := os.Stat("config/config.toml"); errors.Is(err, os.ErrNotExist) {
			return nil, err
		} else {
			configFilePath = "config/config.toml"
		}
	}

	return LoadFrom(configFilePath)
}

// LoadFrom loads defaults then overrides them with the given file content
func LoadFrom(configFilePath string) (*Config, error) {
	cfg := GetDefault()
	_, err := snakelet.InitAndLoad(cfg, configFilePath)

	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database url is required with postgres driver")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required with sqlite driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Tasks.MaxParallelTasksAllowed < 1 {
		return fmt.Errorf("MaxParallelTasksAllowed must be positive, got %d", c.Tasks.MaxParallelTasksAllowed)
	}

	if c.Github.PerPage < 1 || c.Github.PerPage > 100 {
		return fmt.Errorf("github PerPage must be between 1 and 100, got %d", c.Github.PerPage)
	}

	return nil
}

// GetDefault
func GetDefault() *Config {
	return &Config{
		API: APIConfig{
			ListenPort: "5000",
		},
		Tasks: TasksConfig{
			MaxParallelTasksAllowed: 8,
		},
		Logs: LogsConfig{
			Level:            "debug",
			OutputLogsAsJSON: false,
		},
		Github: GithubConfig{
			PerPage: 100,
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data",
		},
		Redis: RedisConfig{
			LockTTL: 10 * time.Minute,
		},
		Scheduler: SchedulerConfig{
			Enabled:                 true,
			FullSyncSpec:            "@daily",
			IncrementalSyncSpec:     "@every 6h",
			UserDelay:               time.Second,
			IncrementalUserDelay:    500 * time.Millisecond,
			FullSyncInterval:        24 * time.Hour,
			IncrementalActiveWindow: 7 * 24 * time.Hour,
		},
		Profile: ProfileConfig{
			UnionInterests: false,
		},
	}
}
