// Package config provides Viper-based configuration loading for the armory
// simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/armory/internal/game/arena"
	"github.com/cory-johannsen/armory/internal/game/geom"
)

// EnvPrefix prefixes environment overrides, e.g. ARMORY_LOGGING_LEVEL.
const EnvPrefix = "ARMORY"

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled turns ammo persistence on.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// SimulationConfig holds the simulator's clock and content settings.
type SimulationConfig struct {
	// TickInterval is the wall-clock period between clock advances.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// WeaponsDir holds weapon definition YAML files.
	WeaponsDir string `mapstructure:"weapons_dir"`
	// ScriptsDir holds Lua weapon hooks; empty disables scripting.
	ScriptsDir string `mapstructure:"scripts_dir"`
	// ScriptInstructionLimit caps opcodes per hook call; 0 uses the default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
	// HolderID keys persisted ammo and the holder's script scope.
	HolderID string `mapstructure:"holder_id"`
	// StartWeapons lists weapon definition IDs spawned into the arsenal.
	StartWeapons []string `mapstructure:"start_weapons"`
}

// ArenaConfig describes the space the holder stands in.
type ArenaConfig struct {
	Boxes  []arena.Box        `mapstructure:"boxes"`
	Avatar arena.AvatarConfig `mapstructure:"avatar"`
	// MeshSockets are the socket transforms of every weapon mesh.
	MeshSockets map[string]geom.Transform `mapstructure:"mesh_sockets"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Arena      ArenaConfig      `mapstructure:"arena"`
	Database   DatabaseConfig   `mapstructure:"database"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateArena(c.Arena); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.tick_interval must be > 0, got %s", s.TickInterval))
	}
	if s.WeaponsDir == "" {
		errs = append(errs, "simulation.weapons_dir must not be empty")
	}
	if s.ScriptInstructionLimit < 0 {
		errs = append(errs, "simulation.script_instruction_limit must be >= 0")
	}
	if s.HolderID == "" {
		errs = append(errs, "simulation.holder_id must not be empty")
	}
	if len(s.StartWeapons) == 0 {
		errs = append(errs, "simulation.start_weapons must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateArena(a ArenaConfig) error {
	var errs []string
	for _, b := range a.Boxes {
		if err := b.Validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if a.Avatar.EyeHeight < 0 || a.Avatar.CameraDistance < 0 {
		errs = append(errs, "arena.avatar eye_height and camera_distance must be >= 0")
	}
	if len(a.MeshSockets) == 0 {
		errs = append(errs, "arena.mesh_sockets must not be empty")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance with defaults and ARMORY_ environment
// overrides applied but no config file.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulation.tick_interval", "16ms")
	v.SetDefault("simulation.weapons_dir", "content/weapons")
	v.SetDefault("simulation.scripts_dir", "content/scripts")
	v.SetDefault("simulation.script_instruction_limit", 0)
	v.SetDefault("simulation.holder_id", "player")
	v.SetDefault("simulation.start_weapons", []string{"service-pistol", "assault-rifle"})

	v.SetDefault("arena.avatar.id", "player")
	v.SetDefault("arena.avatar.eye_height", 64.0)
	v.SetDefault("arena.avatar.camera_distance", 250.0)
	v.SetDefault("arena.avatar.attach_point", "hand_r")
	v.SetDefault("arena.avatar.hand", map[string]any{
		"location": map[string]any{"x": 20.0, "y": 12.0, "z": 40.0},
	})
	v.SetDefault("arena.mesh_sockets", map[string]any{
		"muzzle": map[string]any{"location": map[string]any{"x": 45.0}},
	})

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "armory")
	v.SetDefault("database.password", "armory")
	v.SetDefault("database.name", "armory")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
}
