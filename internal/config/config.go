// Package config loads and validates the keydrop client configuration.
// The file is a tagged struct with enumerated sections; unknown keys are
// rejected at the boundary rather than silently ignored.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file inside the keydrop directory.
const FileName = "config.yaml"

// Mask styles for secret display.
const (
	MaskStylePartial = "partial" // prefix/suffix preserving for long values
	MaskStyleFixed   = "fixed"   // fixed-width mask for everything
)

var ErrInvalid = errors.New("config: invalid configuration")

// Config is the full client configuration.
type Config struct {
	Security     Security     `yaml:"security"`
	Backup       Backup       `yaml:"backup"`
	Integrations Integrations `yaml:"integrations"`
	UI           UI           `yaml:"ui"`
}

// Security holds lock behavior.
type Security struct {
	// AutoLockMinutes is how long an unlocked vault stays unlocked.
	AutoLockMinutes int `yaml:"auto_lock_minutes"`
}

// Backup holds backup destination settings. The backup file format itself
// is owned by the vault backend.
type Backup struct {
	Directory string `yaml:"directory"`
	Keep      int    `yaml:"keep"`
}

// Integrations configures the external editor bridge.
type Integrations struct {
	// EditorBridgeCommand is the argv of the MCP editor-integration server.
	// Empty disables liveness probing (status reads Unknown).
	EditorBridgeCommand []string `yaml:"editor_bridge_command"`

	// EditorPollSeconds is the liveness freshness window.
	EditorPollSeconds int `yaml:"editor_poll_seconds"`
}

// UI holds terminal output preferences.
type UI struct {
	Color     bool   `yaml:"color"`
	MaskStyle string `yaml:"mask_style"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Security: Security{AutoLockMinutes: 30},
		Backup:   Backup{Keep: 5},
		Integrations: Integrations{
			EditorPollSeconds: 5,
		},
		UI: UI{Color: true, MaskStyle: MaskStylePartial},
	}
}

// Path returns the config file path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads the config from dir, strictly: unrecognized keys are an error.
// A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", Path(dir), err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to dir, creating the directory if needed.
func Save(dir string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("config: creating %s: %w", dir, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.WriteFile(Path(dir), data, 0o600); err != nil {
		return fmt.Errorf("config: writing %s: %w", Path(dir), err)
	}
	return nil
}

// Validate checks enumerated values and bounds.
func (c *Config) Validate() error {
	if c.Security.AutoLockMinutes < 1 || c.Security.AutoLockMinutes > 240 {
		return fmt.Errorf("%w: security.auto_lock_minutes must be 1-240, got %d",
			ErrInvalid, c.Security.AutoLockMinutes)
	}
	if c.Backup.Keep < 0 {
		return fmt.Errorf("%w: backup.keep must not be negative", ErrInvalid)
	}
	if c.Integrations.EditorPollSeconds < 1 || c.Integrations.EditorPollSeconds > 300 {
		return fmt.Errorf("%w: integrations.editor_poll_seconds must be 1-300, got %d",
			ErrInvalid, c.Integrations.EditorPollSeconds)
	}
	switch c.UI.MaskStyle {
	case MaskStylePartial, MaskStyleFixed:
	default:
		return fmt.Errorf("%w: ui.mask_style must be %q or %q, got %q",
			ErrInvalid, MaskStylePartial, MaskStyleFixed, c.UI.MaskStyle)
	}
	return nil
}

// EditorFreshness returns the liveness freshness window as a duration.
func (c *Config) EditorFreshness() time.Duration {
	return time.Duration(c.Integrations.EditorPollSeconds) * time.Second
}
