package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func mustLoad(t *testing.T, path string) *Config {
	t.Helper()
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q): %v", path, err)
	}
	return cfg
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %q: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore wd %q: %v", prev, err)
		}
	})
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg := mustLoad(t, "")
	if cfg.Mode != ModeServer || cfg.HTTP.Port != "8080" || cfg.Device.Backend != BackendBLE {
		t.Fatalf("unexpected top-level defaults: %+v", cfg)
	}
	if cfg.Device.NameFilter != "UD18_BLE" || cfg.Device.ScanTimeout != 5*time.Second {
		t.Fatalf("unexpected device defaults: %+v", cfg.Device)
	}
	if cfg.Recorder.Interval != 5*time.Second {
		t.Fatalf("recorder interval = %v", cfg.Recorder.Interval)
	}
	if cfg.Store.CSVPath != "ble_data_log.csv" {
		t.Fatalf("csv path = %q", cfg.Store.CSVPath)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("token ttl = %v", cfg.Auth.TokenTTL)
	}
}

func TestLoad_FileValues(t *testing.T) {
	cfg := mustLoad(t, writeConfig(t, `
mode: standalone
device:
  backend: simulator
  scan_timeout: 2s
simulator:
  period: 250ms
recorder:
  interval: 10s
store:
  driver: sqlite
`))
	if cfg.Mode != ModeStandalone || cfg.Device.Backend != BackendSimulator {
		t.Fatalf("mode/backend = %q/%q", cfg.Mode, cfg.Device.Backend)
	}
	if cfg.Device.ScanTimeout != 2*time.Second || cfg.Simulator.Period != 250*time.Millisecond {
		t.Fatalf("durations: scan=%v period=%v", cfg.Device.ScanTimeout, cfg.Simulator.Period)
	}
	if cfg.Recorder.Interval != 10*time.Second || cfg.Store.Driver != "sqlite" {
		t.Fatalf("recorder/store: %v %q", cfg.Recorder.Interval, cfg.Store.Driver)
	}
	// untouched keys keep their defaults
	if cfg.Device.FrameBuffer != 64 {
		t.Fatalf("frame buffer = %d, want 64", cfg.Device.FrameBuffer)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "http:\n  port: \"9000\"\n")
	t.Setenv("UD18_HTTP_PORT", "9100")
	t.Setenv("UD18_RECORDER_INTERVAL", "1s")
	t.Setenv("UD18_DEVICE_NAME_FILTER", "ud18")

	cfg := mustLoad(t, path)
	if cfg.HTTP.Port != "9100" {
		t.Fatalf("port = %q, want env value", cfg.HTTP.Port)
	}
	if cfg.Recorder.Interval != time.Second || cfg.Device.NameFilter != "ud18" {
		t.Fatalf("env overrides not applied: %v %q", cfg.Recorder.Interval, cfg.Device.NameFilter)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatalf("expected error for explicit missing file")
	}

	for name, body := range map[string]string{
		"mode":     "mode: daemon\n",
		"backend":  "device:\n  backend: usb\n",
		"driver":   "store:\n  driver: parquet\n",
		"interval": "recorder:\n  interval: 0s\n",
		"timeout":  "device:\n  scan_timeout: -1s\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected validation error for %q", body)
			}
		})
	}
}
