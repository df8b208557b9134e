// Package config loads the service configuration from configs/config.yml
// and UD18_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ModeServer     = "server"
	ModeStandalone = "standalone"

	BackendBLE       = "ble"
	BackendSimulator = "simulator"

	envPrefix = "UD18"
)

type Config struct {
	Mode      string          `mapstructure:"mode"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Device    DeviceConfig    `mapstructure:"device"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
	Recorder  RecorderConfig  `mapstructure:"recorder"`
	Store     StoreConfig     `mapstructure:"store"`
	DB        DBConfig        `mapstructure:"db"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
}

type HTTPConfig struct {
	Port string `mapstructure:"port"`
	// Autostart begins a capture session as soon as the server is up.
	Autostart bool `mapstructure:"autostart"`
}

type DeviceConfig struct {
	Backend     string        `mapstructure:"backend"`
	NameFilter  string        `mapstructure:"name_filter"`
	NotifyUUID  string        `mapstructure:"notify_uuid"`
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`
	FrameBuffer int           `mapstructure:"frame_buffer"`
	HCIID       int           `mapstructure:"hci_id"`
}

type SimulatorConfig struct {
	Period time.Duration `mapstructure:"period"`
	Name   string        `mapstructure:"name"`
}

type RecorderConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type StoreConfig struct {
	Driver  string `mapstructure:"driver"`
	CSVPath string `mapstructure:"csv_path"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

var defaults = map[string]any{
	"mode":                ModeServer,
	"http.port":           "8080",
	"http.autostart":      false,
	"device.backend":      BackendBLE,
	"device.name_filter":  "UD18_BLE",
	"device.notify_uuid":  "0000ffe1-0000-1000-8000-00805f9b34fb",
	"device.scan_timeout": 5 * time.Second,
	"device.frame_buffer": 64,
	"device.hci_id":       0,
	"simulator.period":    time.Second,
	"simulator.name":      "UD18_BLE-SIM",
	"recorder.interval":   5 * time.Second,
	"store.driver":        "csv",
	"store.csv_path":      "ble_data_log.csv",
	"db.path":             "app.db",
	"auth.signing_key":    "",
	"auth.token_ttl":      time.Hour,
	"log.level":           "info",
	"log.file":            "",
}

// Load reads path, or configs/config.yml when path is empty. A missing
// default file is not an error; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown modes, backends and drivers and non-positive
// timings.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeServer, ModeStandalone:
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	switch c.Device.Backend {
	case BackendBLE, BackendSimulator:
	default:
		return fmt.Errorf("config: unknown device.backend %q", c.Device.Backend)
	}
	switch c.Store.Driver {
	case "csv", "sqlite":
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if c.Device.ScanTimeout <= 0 {
		return errors.New("config: device.scan_timeout must be positive")
	}
	if c.Recorder.Interval <= 0 {
		return errors.New("config: recorder.interval must be positive")
	}
	if c.Store.Driver == "csv" && c.Store.CSVPath == "" {
		return errors.New("config: store.csv_path is required for the csv driver")
	}
	return nil
}
