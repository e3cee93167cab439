package config

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"roboclone/internal/engine"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tool != "robocopy" || !cfg.Mirror || !cfg.Notify {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.PostAction != engine.ActionNone || cfg.DryRun {
		t.Errorf("unexpected job defaults %+v", cfg)
	}
	if filepath.Base(cfg.LogDir) != "logs" {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if !cfg.NeedsForm() {
		t.Error("a config without folders needs the form")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadEnvThenFlags(t *testing.T) {
	t.Setenv("ROBOCLONE_TOOL", "/opt/robocopy")
	t.Setenv("ROBOCLONE_RETRIES", "3")
	t.Setenv("ROBOCLONE_THREADS", "8")
	t.Setenv("ROBOCLONE_MIRROR", "false")
	t.Setenv("ROBOCLONE_NOTIFY", "true")
	t.Setenv("ROBOCLONE_LOG_LEVEL", "debug")
	t.Setenv("ROBOCLONE_RETRY_WAIT", "not a number")

	cfg, err := Load([]string{
		"--source", `C:\data`, "-t", `E:\backup`,
		"-x", "*.tmp;node_modules", "--exclude", "*.TMP",
		"--dry-run", "--post-action", "Shutdown",
		"--threads", "16", "--no-notify",
	}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Tool != "/opt/robocopy" || cfg.Retries != 3 || cfg.Mirror || cfg.LogLevel != "debug" {
		t.Errorf("environment not applied: %+v", cfg)
	}
	if cfg.RetryWait != 0 {
		t.Errorf("bad env value should fall back, got %d", cfg.RetryWait)
	}
	if cfg.Threads != 16 {
		t.Errorf("flag should override env: Threads = %d", cfg.Threads)
	}
	if cfg.Notify {
		t.Error("--no-notify ignored")
	}
	if want := []string{"*.tmp", "node_modules"}; !reflect.DeepEqual(cfg.Exclusions, want) {
		t.Errorf("Exclusions = %q, want %q", cfg.Exclusions, want)
	}
	if cfg.PostAction != engine.ActionShutdown || !cfg.DryRun {
		t.Errorf("job flags = %+v", cfg)
	}
	if cfg.NeedsForm() {
		t.Error("complete config should not need the form")
	}

	req := cfg.Request()
	if req.Source != `C:\data` || req.Target != `E:\backup` || !req.DryRun {
		t.Errorf("Request = %+v", req)
	}
	opts := cfg.JobOptions()
	if opts.Tool != "/opt/robocopy" || opts.Threads != 16 || opts.Mirror {
		t.Errorf("JobOptions = %+v", opts)
	}
}

func TestLoadPositional(t *testing.T) {
	cfg, err := Load([]string{"/src", "/dst"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != "/src" || cfg.Target != "/dst" {
		t.Errorf("folders = %q %q", cfg.Source, cfg.Target)
	}

	if _, err := Load([]string{"-s", "/a", "/src", "/dst"}, &bytes.Buffer{}); err == nil {
		t.Error("flags and positional folders together should fail")
	}
	if _, err := Load([]string{"/only-one"}, &bytes.Buffer{}); err == nil {
		t.Error("a single positional argument should fail")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load([]string{"--post-action", "hibernate"}, &bytes.Buffer{}); err == nil {
		t.Error("unknown post-action accepted")
	}

	var out bytes.Buffer
	if _, err := Load([]string{"--help"}, &out); !errors.Is(err, ErrHelp) {
		t.Errorf("err = %v, want ErrHelp", err)
	}
	if !strings.Contains(out.String(), "--post-action") {
		t.Errorf("usage missing flags:\n%s", out.String())
	}

	if _, err := Load([]string{"--bogus"}, &bytes.Buffer{}); err == nil {
		t.Error("unknown flag accepted")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Source: "a", Target: "b", Tool: "robocopy", LogFormat: "json"}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"negative retries", func(c *Config) { c.Retries = -1 }, false},
		{"negative wait", func(c *Config) { c.RetryWait = -5 }, false},
		{"too many threads", func(c *Config) { c.Threads = 129 }, false},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, false},
		{"only source", func(c *Config) { c.Target = "" }, false},
		{"empty tool", func(c *Config) { c.Tool = "" }, false},
		{"plain needs folders", func(c *Config) { c.Source, c.Target, c.Plain = "", "", true }, false},
		{"version skips checks", func(c *Config) { c.ShowVersion, c.Retries = true, -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestLoggingConfig(t *testing.T) {
	c := &Config{LogDir: filepath.Join("x", "logs"), LogLevel: "warn", LogFormat: "console"}
	lc := c.Logging()
	if lc.OutputPath != filepath.Join("x", "logs", "roboclone.log") || lc.Level != "warn" || lc.Format != "console" {
		t.Errorf("Logging() = %+v", lc)
	}
}
