// Package config provides the speedbuild configuration loader.
// Config is loaded by merging speedbuild.yaml → ~/.speedbuild/config.yaml → SPEEDBUILD_* env vars.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	v1 "github.com/f9-o/speedbuild/api/v1"
	"github.com/f9-o/speedbuild/pkg/netutil"
)

// sensitiveKeyRegex matches config keys that should be redacted in log output.
var sensitiveKeyRegex = regexp.MustCompile(`(?i)(password|token|secret|key|passphrase)`)

// Defaults contains factory-default values applied before any config file is loaded.
// The project and build defaults reproduce the original packaging script verbatim:
// same entry point, same manifest, same venv and dist locations, full profile.
var Defaults = map[string]any{
	"project.entry":        "wifi_speed.py",
	"project.requirements": "requirements.txt",
	"project.venv":         "venv",
	"project.dist":         "dist",
	"project.target":       runtime.GOOS,
	"build.profile":        "full",
	"build.strict":         false,
	"build.pause":          "auto",
	"build.step_timeout":   "15m",
	"ci.workflow":          "build.yml",
	"ci.artifact":          "wifi_speed",
	"ci.remote":            "origin",
	"network.index":        "https://pypi.org",
	"log.level":            "info",
	"log.format":           "text",
}

// ─────────────────────────────────────────────────────────────────────────────
// Config types
// ─────────────────────────────────────────────────────────────────────────────

// Config is the fully-decoded project configuration.
type Config struct {
	Version string         `mapstructure:"version"`
	Project v1.ProjectSpec `mapstructure:"project"`
	Build   BuildConfig    `mapstructure:"build"`
	CI      v1.CISpec      `mapstructure:"ci"`
	Network NetworkConfig  `mapstructure:"network"`
	Log     LogConfig      `mapstructure:"log"`
}

// BuildConfig controls pipeline behaviour.
type BuildConfig struct {
	Profile     string        `mapstructure:"profile"`      // full | lite
	Strict      bool          `mapstructure:"strict"`       // stop on first failing step
	Pause       string        `mapstructure:"pause"`        // auto | always | never
	StepTimeout time.Duration `mapstructure:"step_timeout"` // per-command safety net
}

// NetworkConfig holds package-index settings used by diagnostics.
type NetworkConfig struct {
	Index string `mapstructure:"index"` // package index base URL
}

// LogConfig controls logging behaviour.
type LogConfig struct {
	Level  string `mapstructure:"level"` // debug | info | warn | error
	File   string `mapstructure:"file"`
	Format string `mapstructure:"format"` // json | text
}

// ─────────────────────────────────────────────────────────────────────────────
// Loader
// ─────────────────────────────────────────────────────────────────────────────

// Load discovers and loads the configuration, walking up directories to find
// speedbuild.yaml, then merging it with the global config and environment variables.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()

	// Apply defaults
	for k, val := range Defaults {
		v.SetDefault(k, val)
	}

	// Environment variable binding: SPEEDBUILD_LOG_LEVEL → log.level
	v.SetEnvPrefix("SPEEDBUILD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load global config (~/.speedbuild/config.yaml) if it exists
	globalCfg := filepath.Join(speedbuildHome(), "config.yaml")
	if _, err := os.Stat(globalCfg); err == nil {
		v.SetConfigFile(globalCfg)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read global config: %w", err)
		}
	}

	// Load project config
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		path, err := discoverProjectConfig()
		if err == nil {
			v.SetConfigFile(path)
		}
	}

	if v.ConfigFileUsed() != "" || explicitPath != "" {
		if err := v.MergeInConfig(); err != nil && explicitPath != "" {
			return nil, fmt.Errorf("read project config %q: %w", explicitPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Resolve env variable placeholders in string values
	expandEnvInConfig(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// Profile returns the configured packaging profile as a typed value.
func (c *Config) Profile() v1.Profile {
	return v1.Profile(c.Build.Profile)
}

// DisplayName returns the project name, falling back to the entry-point stem.
func (c *Config) DisplayName() string {
	if c.Project.Name != "" {
		return c.Project.Name
	}
	base := filepath.Base(c.Project.Entry)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsSensitiveKey returns true if key matches a known sensitive pattern.
func IsSensitiveKey(key string) bool {
	return sensitiveKeyRegex.MatchString(key)
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ─────────────────────────────────────────────────────────────────────────────

// discoverProjectConfig walks up from the CWD looking for speedbuild.yaml.
func discoverProjectConfig() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, "speedbuild.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("speedbuild.yaml not found (searched up from %s)", func() string { d, _ := os.Getwd(); return d }())
}

// expandEnvInConfig resolves ${VAR} placeholders in path-like string fields.
func expandEnvInConfig(cfg *Config) {
	cfg.Project.Python = os.ExpandEnv(cfg.Project.Python)
	cfg.Project.Entry = os.ExpandEnv(cfg.Project.Entry)
	cfg.Network.Index = os.ExpandEnv(cfg.Network.Index)
}

// validate performs semantic validation on the loaded config.
func validate(cfg *Config) error {
	switch cfg.Build.Profile {
	case "full", "lite":
	default:
		return fmt.Errorf("build.profile must be %q or %q, got %q", "full", "lite", cfg.Build.Profile)
	}

	switch cfg.Build.Pause {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("build.pause must be auto, always or never, got %q", cfg.Build.Pause)
	}

	if cfg.Project.Entry == "" {
		return fmt.Errorf("project.entry is required")
	}
	if cfg.Project.Requirements == "" {
		return fmt.Errorf("project.requirements is required")
	}
	if cfg.Project.Venv == "" || cfg.Project.Dist == "" {
		return fmt.Errorf("project.venv and project.dist must not be empty")
	}

	if cfg.CI.Artifact != "" && !netutil.IsValidArtifactName(cfg.CI.Artifact) {
		return fmt.Errorf("ci.artifact %q is not a valid artifact name", cfg.CI.Artifact)
	}

	if cfg.Network.Index != "" {
		u, err := url.Parse(cfg.Network.Index)
		if err != nil || u.Host == "" {
			return fmt.Errorf("network.index %q is not a valid URL", cfg.Network.Index)
		}
	}

	return nil
}

// speedbuildHome returns the speedbuild home directory (~/.speedbuild).
func speedbuildHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".speedbuild"
	}
	return filepath.Join(home, ".speedbuild")
}

// Home is the exported variant for use by other packages.
func Home() string {
	return speedbuildHome()
}

// DefaultConfigTemplate is the content written by `speedbuild init`.
const DefaultConfigTemplate = `# speedbuild.yaml — Packaging manifest
# See: https://github.com/f9-o/speedbuild/docs/cli-reference.md
version: "1"

project:
  name: wifi-speed-reader
  entry: wifi_speed.py
  requirements: requirements.txt
  venv: venv
  dist: dist
  # python: C:\Python312\python.exe  # base interpreter override
  # target: windows                  # artifact platform (defaults to this machine)

build:
  profile: full # full | lite
  strict: false # stop on the first failing step
  pause: auto   # auto | always | never

# ci:
#   workflow: build.yml  # hosted workflow file to dispatch
#   artifact: wifi_speed # artifact name the workflow uploads
#   remote: origin       # git remote the repository is derived from
`
