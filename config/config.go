// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every setting the service reads at startup.
type Config struct {
	Secret string `env:"SECRETA"`
	Port   int    `env:"PORT" envDefault:"4000"`
	Debug  bool   `env:"DEBUG" envDefault:"false"`

	StorageConfig

	RedisConnectionString string        `env:"REDIS_CONNECTION_STRING"`
	CacheTTL              time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"4h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// StorageConfig names the Azure Storage account, tables and queue.
type StorageConfig struct {
	StorageConnectionString string `env:"STORAGE_CONNECTION_STRING"`
	UsersTable              string `env:"USERS_TABLE" envDefault:"users"`
	ProjectsTable           string `env:"PROJECTS_TABLE" envDefault:"projects"`
	TasksTable              string `env:"TASKS_TABLE" envDefault:"tasks"`
	EventsQueue             string `env:"EVENTS_QUEUE"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports missing or out of range settings.
func (c Config) Validate() error {
	var errs []error
	if c.Secret == "" {
		errs = append(errs, errors.New("SECRETA is required"))
	}
	if err := c.StorageConfig.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be greater than zero"))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, errors.New("CACHE_TTL must not be negative"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("invalid BCRYPT_COST %d", c.BcryptCost))
	}
	return errors.Join(errs...)
}

// ListenAddr is the address the HTTP server binds to.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LoadStorage parses only the storage settings.
func LoadStorage() (StorageConfig, error) {
	var cfg StorageConfig
	if err := env.Parse(&cfg); err != nil {
		return StorageConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return StorageConfig{}, err
	}
	return cfg, nil
}

func (c StorageConfig) Validate() error {
	var errs []error
	if c.StorageConnectionString == "" {
		errs = append(errs, errors.New("STORAGE_CONNECTION_STRING is required"))
	}
	if c.UsersTable == "" || c.ProjectsTable == "" || c.TasksTable == "" {
		errs = append(errs, errors.New("table names must not be empty"))
	}
	return errors.Join(errs...)
}

// Tables lists the table names in a stable order.
func (c StorageConfig) Tables() []string {
	return []string{c.UsersTable, c.ProjectsTable, c.TasksTable}
}
