package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Security.AutoLockMinutes != 30 {
		t.Errorf("AutoLockMinutes = %d, want default 30", cfg.Security.AutoLockMinutes)
	}
	if cfg.Integrations.EditorPollSeconds != 5 {
		t.Errorf("EditorPollSeconds = %d, want default 5", cfg.Integrations.EditorPollSeconds)
	}
	if cfg.UI.MaskStyle != MaskStylePartial {
		t.Errorf("MaskStyle = %q, want partial", cfg.UI.MaskStyle)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	contents := "security:\n  auto_lock_minutes: 10\n  tiemout: 5\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(dir)
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("Load() with unknown key error = %v, want ErrInvalid", err)
	}
}

func TestLoadRejectsUnknownSection(t *testing.T) {
	dir := t.TempDir()
	contents := "telemetry:\n  enabled: true\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); !errors.Is(err, ErrInvalid) {
		t.Errorf("Load() with unknown section error = %v, want ErrInvalid", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults valid", func(*Config) {}, true},
		{"zero auto lock", func(c *Config) { c.Security.AutoLockMinutes = 0 }, false},
		{"poll too long", func(c *Config) { c.Integrations.EditorPollSeconds = 301 }, false},
		{"negative keep", func(c *Config) { c.Backup.Keep = -1 }, false},
		{"bad mask style", func(c *Config) { c.UI.MaskStyle = "rainbow" }, false},
		{"fixed mask style", func(c *Config) { c.UI.MaskStyle = MaskStyleFixed }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Security.AutoLockMinutes = 15
	cfg.Integrations.EditorBridgeCommand = []string{"keydrop-editor-bridge", "--vscode"}
	cfg.Integrations.EditorPollSeconds = 10

	if err := Save(dir, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got.Security.AutoLockMinutes != 15 {
		t.Errorf("AutoLockMinutes = %d", got.Security.AutoLockMinutes)
	}
	if len(got.Integrations.EditorBridgeCommand) != 2 || got.Integrations.EditorBridgeCommand[0] != "keydrop-editor-bridge" {
		t.Errorf("EditorBridgeCommand = %v", got.Integrations.EditorBridgeCommand)
	}
	if got.EditorFreshness().Seconds() != 10 {
		t.Errorf("EditorFreshness = %v", got.EditorFreshness())
	}
}
