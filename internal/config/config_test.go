package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setEnvForTest sets an environment variable and restores it on cleanup.
func setEnvForTest(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

// useTempConfigDir points XDG_CONFIG_HOME at a temp dir and returns the
// socos config dir inside it.
func useTempConfigDir(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	setEnvForTest(t, "XDG_CONFIG_HOME", base)
	for _, key := range []string{EnvSpeaker, EnvTimeout, EnvPlain, EnvLogLevel, EnvLogFile} {
		setEnvForTest(t, key, "")
		os.Unsetenv(key)
	}
	return filepath.Join(base, "socos")
}

func TestValidate_Defaults(t *testing.T) {
	useTempConfigDir(t)

	cfg := New()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if cfg.DiscoverySeconds != DefaultDiscoverySeconds {
		t.Errorf("DiscoverySeconds = %d, want %d", cfg.DiscoverySeconds, DefaultDiscoverySeconds)
	}
	if cfg.Speaker != "" {
		t.Errorf("Speaker = %q, want empty", cfg.Speaker)
	}
}

func TestValidate_LoadsFile(t *testing.T) {
	dir := useTempConfigDir(t)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "speaker = \"192.168.1.5\"\ndiscovery_seconds = 7\nplain = true\nlog_level = \"debug\"\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := New()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if cfg.Speaker != "192.168.1.5" {
		t.Errorf("Speaker = %q", cfg.Speaker)
	}
	if cfg.DiscoverySeconds != 7 {
		t.Errorf("DiscoverySeconds = %d, want 7", cfg.DiscoverySeconds)
	}
	if !cfg.Plain {
		t.Error("Plain = false, want true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestValidate_FlagsWinOverFile(t *testing.T) {
	dir := useTempConfigDir(t)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "speaker = \"192.168.1.5\"\ndiscovery_seconds = 7\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	// Values cobra has already bound must survive the file merge.
	cfg := &Config{Speaker: "10.0.0.9", DiscoverySeconds: 1}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if cfg.Speaker != "10.0.0.9" {
		t.Errorf("Speaker = %q, want flag value", cfg.Speaker)
	}
	if cfg.DiscoverySeconds != 1 {
		t.Errorf("DiscoverySeconds = %d, want flag value 1", cfg.DiscoverySeconds)
	}
}

func TestValidate_EnvWinsOverFile(t *testing.T) {
	dir := useTempConfigDir(t)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("speaker = \"192.168.1.5\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	setEnvForTest(t, EnvSpeaker, "192.168.1.77")
	setEnvForTest(t, EnvTimeout, "9")
	setEnvForTest(t, EnvPlain, "true")

	cfg := New()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if cfg.Speaker != "192.168.1.77" {
		t.Errorf("Speaker = %q, want env value", cfg.Speaker)
	}
	if cfg.DiscoverySeconds != 9 {
		t.Errorf("DiscoverySeconds = %d, want 9", cfg.DiscoverySeconds)
	}
	if !cfg.Plain {
		t.Error("Plain = false, want true from env")
	}
}

func TestValidate_BadFile(t *testing.T) {
	dir := useTempConfigDir(t)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("speaker = [not toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := New().Validate(); err == nil {
		t.Fatal("Validate() expected error for malformed config")
	}
}

func TestDiscoveryTimeout(t *testing.T) {
	cfg := &Config{DiscoverySeconds: 5}
	if got := cfg.DiscoveryTimeout(); got != 5*time.Second {
		t.Errorf("DiscoveryTimeout() = %v, want 5s", got)
	}
}

func TestWriteSample(t *testing.T) {
	dir := useTempConfigDir(t)
	path := filepath.Join(dir, "config.toml")

	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample() unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("sample config is empty")
	}

	// The sample must be valid TOML the loader accepts.
	cfg := New()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() rejects the sample config: %v", err)
	}

	if err := WriteSample(path); err == nil {
		t.Fatal("WriteSample() must refuse to overwrite")
	}
}
