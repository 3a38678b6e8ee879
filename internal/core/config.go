package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// PasswordEnv supplies the default SSH password, from the environment or
// secrets.env.
const PasswordEnv = "GAXX_RICH_PASSWORD"

type Config struct {
	Inventory InventoryConfig `yaml:"inventory"`
	Runner    RunnerConfig    `yaml:"runner"`
	SSH       SSHConfig       `yaml:"ssh"`
	Render    RenderConfig    `yaml:"render"`
}

type InventoryConfig struct {
	Path string `yaml:"path"`
}

type RunnerConfig struct {
	Workers int `yaml:"workers"`
}

type SSHConfig struct {
	KeyPath         string `yaml:"key_path"`
	KnownHosts      string `yaml:"known_hosts"`
	TrustOnFirstUse bool   `yaml:"trust_on_first_use"`
	User            string `yaml:"user"`
	Port            int    `yaml:"port"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	Retries         int    `yaml:"retries"`
	Password        string `yaml:"-"`
}

// RenderConfig holds the defaults for the rich printers.
type RenderConfig struct {
	Severity   string `yaml:"severity"`
	Expand     bool   `yaml:"expand"`
	Equal      bool   `yaml:"equal"`
	LineBreaks bool   `yaml:"line_breaks"`
	// Color is one of auto, always or never.
	Color string `yaml:"color"`
}

// Level parses Severity.
func (r RenderConfig) Level() (zerolog.Level, error) {
	if r.Severity == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(r.Severity)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("render severity: %w", err)
	}
	return lvl, nil
}

// DefaultConfigDir resolves $XDG_CONFIG_HOME/gaxx-rich or ~/.config/gaxx-rich.
func DefaultConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "gaxx-rich")
}

func DefaultConfig() Config {
	dir := DefaultConfigDir()
	return Config{
		Inventory: InventoryConfig{Path: filepath.Join(dir, "inventory.yaml")},
		Runner:    RunnerConfig{Workers: DefaultWorkers},
		SSH: SSHConfig{
			KeyPath:        filepath.Join(dir, "ssh", "id_ed25519"),
			KnownHosts:     filepath.Join(dir, "ssh", "known_hosts"),
			User:           "gx",
			Port:           22,
			TimeoutSeconds: 15,
			Retries:        2,
		},
		Render: RenderConfig{Severity: "info", Equal: true, Color: "auto"},
	}
}

// LoadConfig reads YAML configuration from path on top of the defaults. With
// an empty path the file under DefaultConfigDir is used, and a missing file
// there just yields the defaults. The SSH password comes from secrets.env
// next to the config file, overridden by the environment.
func LoadConfig(fsys afero.Fs, path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		path = filepath.Join(DefaultConfigDir(), "config.yaml")
	}

	content, err := afero.ReadFile(fsys, path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	secrets, err := LoadSecretsEnv(fsys, filepath.Join(filepath.Dir(path), "secrets.env"))
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv(PasswordEnv); v != "" {
		secrets[PasswordEnv] = v
	}
	cfg.SSH.Password = secrets[PasswordEnv]

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Runner.Workers <= 0 {
		return fmt.Errorf("runner workers must be positive, got %d", c.Runner.Workers)
	}
	if c.SSH.Port <= 0 || c.SSH.Port > 65535 {
		return fmt.Errorf("ssh port out of range: %d", c.SSH.Port)
	}
	switch c.Render.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("render color must be auto, always or never, got %q", c.Render.Color)
	}
	if _, err := c.Render.Level(); err != nil {
		return err
	}
	return nil
}

// WriteDefault writes the default configuration to path unless a file is
// already there. It reports whether it wrote.
func WriteDefault(fsys afero.Fs, path string) (bool, error) {
	if ok, err := afero.Exists(fsys, path); err != nil || ok {
		return false, err
	}
	out, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return false, fmt.Errorf("encode config: %w", err)
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("mkdir config dir: %w", err)
	}
	if err := afero.WriteFile(fsys, path, out, 0o600); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
