package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type testConfig struct {
	Name  string `yaml:"name"`
	Level int    `yaml:"level"`
}

func (c *testConfig) Validate() error {
	if c.Level < 0 {
		return errors.New("level must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SENSEMAP_TEST_NAME", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "name: ${SENSEMAP_TEST_NAME}\nlevel: 3\n")

	cfg := testConfig{Level: 1}
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "from-env" || cfg.Level != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestExpandEnv_Defaults(t *testing.T) {
	t.Setenv("SENSEMAP_SET", "value")
	t.Setenv("SENSEMAP_EMPTY", "")

	tests := []struct {
		in, want string
	}{
		{"${SENSEMAP_SET}", "value"},
		{"$SENSEMAP_SET", "value"},
		{"${SENSEMAP_SET:-fallback}", "value"},
		{"${SENSEMAP_EMPTY:-fallback}", "fallback"},
		{"${SENSEMAP_UNSET_VAR:-8080}", "8080"},
		{"${SENSEMAP_UNSET_VAR}", ""},
		{"port: ${SENSEMAP_UNSET_VAR:-}", "port: "},
	}
	for _, tt := range tests {
		if got := ExpandEnv(tt.in); got != tt.want {
			t.Errorf("ExpandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoad_KeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "name: only-name\n")

	cfg := testConfig{Level: 7}
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Level != 7 {
		t.Errorf("level = %d, want default 7", cfg.Level)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	invalid := filepath.Join(dir, "invalid.yaml")
	writeFile(t, invalid, "level: -1\n")
	broken := filepath.Join(dir, "broken.yaml")
	writeFile(t, broken, "name: [unterminated\n")

	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing file", filepath.Join(dir, "nope.yaml"), "failed to read"},
		{"bad yaml", broken, "failed to parse"},
		{"validation", invalid, "validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg testConfig
			err := Load(tt.path, &cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadWithDefaults_FallsBack(t *testing.T) {
	dir := t.TempDir()
	def := filepath.Join(dir, "default.yaml")
	writeFile(t, def, "name: default\n")

	var cfg testConfig
	if err := LoadWithDefaults(filepath.Join(dir, "missing.yaml"), def, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "default" {
		t.Errorf("name = %q", cfg.Name)
	}
	if err := LoadWithDefaults(filepath.Join(dir, "missing.yaml"), "", &cfg); err == nil {
		t.Error("expected error without default file")
	}
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "name: first\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan *testConfig, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, logger, func() *testConfig { return &testConfig{} }, func(c *testConfig) {
			reloads <- c
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	writeFile(t, path, "level: -5\n")
	select {
	case c := <-reloads:
		t.Fatalf("invalid config should not be applied: %+v", c)
	case <-time.After(400 * time.Millisecond):
	}

	writeFile(t, path, "name: second\nlevel: 2\n")
	select {
	case c := <-reloads:
		if c.Name != "second" || c.Level != 2 {
			t.Errorf("reloaded = %+v", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after change")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}
