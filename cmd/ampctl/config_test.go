package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigExample(t *testing.T) {
	cfg, err := loadConfig("ex.config.toml", defaultConfig())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Mode != "vox" {
		t.Fatalf("unexpected mode: %q", cfg.Mode)
	}
	if cfg.FBVPort != "/dev/ttyUSB0" || cfg.AmpPort != "socket://192.168.1.20:5000" {
		t.Fatalf("unexpected ports: %q %q", cfg.FBVPort, cfg.AmpPort)
	}
	if cfg.Baud != 38400 {
		t.Fatalf("unexpected baud: %d", cfg.Baud)
	}
	if cfg.HoldTime != 1500*time.Millisecond || cfg.FlashTime != 80*time.Millisecond {
		t.Fatalf("unexpected times: hold %v flash %v", cfg.HoldTime, cfg.FlashTime)
	}
	if cfg.Poll != 5*time.Millisecond {
		t.Fatalf("unexpected poll interval: %v", cfg.Poll)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ampctl.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "fbv_port = \"/dev/ttyS0\"\n")

	cfg, err := loadConfig(path, defaultConfig())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	def := defaultConfig()
	if cfg.Mode != def.Mode || cfg.Baud != def.Baud || cfg.HoldTime != def.HoldTime || cfg.FlashTime != def.FlashTime {
		t.Fatalf("defaults overwritten: %+v", cfg)
	}
	if cfg.FBVPort != "/dev/ttyS0" {
		t.Fatalf("unexpected fbv port: %q", cfg.FBVPort)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad toml", "mode = \n", "load config"},
		{"bad hold", "hold_time = \"long\"\n", "parse hold_time"},
		{"bad flash", "flash_time = \"5\"\n", "parse flash_time"},
		{"bad poll", "poll_interval = \"x\"\n", "parse poll_interval"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tc.body), defaultConfig())
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"), defaultConfig()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: %v", err)
	}
}

func TestParseArgs(t *testing.T) {
	path := writeConfig(t, "mode = \"vox\"\nfbv_port = \"/dev/ttyS0\"\namp_port = \"/dev/ttyS1\"\nhttp = \"127.0.0.1:9000\"\n")

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg config)
	}{
		{"file only", []string{"-config", path}, func(t *testing.T, cfg config) {
			if cfg.Mode != "vox" || cfg.HTTP != "127.0.0.1:9000" {
				t.Fatalf("unexpected config %+v", cfg)
			}
		}},
		{"flags override file", []string{"-config", path, "-m", "Kemper", "-a", "tcp://amp:4000", "-s", "8080", "-hold", "1s"}, func(t *testing.T, cfg config) {
			if cfg.Mode != "kemper" || cfg.AmpPort != "tcp://amp:4000" || cfg.FBVPort != "/dev/ttyS0" {
				t.Fatalf("unexpected config %+v", cfg)
			}
			if cfg.HTTP != ":8080" || cfg.HoldTime != time.Second {
				t.Fatalf("unexpected http %q hold %v", cfg.HTTP, cfg.HoldTime)
			}
		}},
		{"flags only", []string{"-f", "/dev/a", "-a", "/dev/b", "-v"}, func(t *testing.T, cfg config) {
			if cfg.Mode != "kemper" || !cfg.Verbose || cfg.HTTP != "" {
				t.Fatalf("unexpected config %+v", cfg)
			}
		}},
		{"list ports needs no ports", []string{"-l"}, func(t *testing.T, cfg config) {
			if !cfg.ListPorts {
				t.Fatalf("list not set")
			}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := parseArgs(tc.args)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			tc.check(t, cfg)
		})
	}
}

func TestParseArgsValidates(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no ports", []string{"-m", "vox"}, errNoPort},
		{"one port", []string{"-f", "/dev/a"}, errNoPort},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseArgs(tc.args); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	if _, err := parseArgs([]string{"-m", "marshall", "-f", "/dev/a", "-a", "/dev/b"}); err == nil {
		t.Fatalf("unknown mode accepted")
	}
	if _, err := parseArgs([]string{"-b", "0", "-f", "/dev/a", "-a", "/dev/b"}); err == nil {
		t.Fatalf("zero baud accepted")
	}
}
