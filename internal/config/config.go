package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	DataPath      string       `yaml:"data_path,omitempty"`     // Readings CSV (fallback: data/consumes.csv)
	DatabasePath  string       `yaml:"database_path,omitempty"` // Snapshot store (fallback: data.db)
	LogLevel      string       `yaml:"log_level,omitempty"`     // debug, info, warn, error
	Server        ServerConfig `yaml:"server,omitempty"`
	MQTT          MQTTConfig   `yaml:"mqtt,omitempty"`
	HomeAssistant HAConfig     `yaml:"home_assistant,omitempty"`
}

// ServerConfig holds dashboard HTTP server settings
type ServerConfig struct {
	Addr         string        `yaml:"addr,omitempty"` // e.g., ":8080"
	ReadTimeout  time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty"`
}

// MQTTConfig holds MQTT broker settings for summary publishing
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // host:port
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // fallback: water_meter
}

// HAConfig holds Home Assistant HTTP API configuration
type HAConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`       // e.g., "http://homeassistant.local:8123"
	Token    string `yaml:"token"`     // Long-lived access token
	EntityID string `yaml:"entity_id"` // e.g., "sensor.water_consumption_filtered"
}

// Load reads the config file, then applies .env and WATERDASH_* overrides
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// A missing .env is fine; variables already set in the environment win
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	return cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// applyEnv overrides fields from WATERDASH_* environment variables
func (c *Config) applyEnv() error {
	str := map[string]*string{
		"WATERDASH_DATA_PATH":         &c.DataPath,
		"WATERDASH_DATABASE_PATH":     &c.DatabasePath,
		"WATERDASH_LOG_LEVEL":         &c.LogLevel,
		"WATERDASH_SERVER_ADDR":       &c.Server.Addr,
		"WATERDASH_MQTT_BROKER":       &c.MQTT.Broker,
		"WATERDASH_MQTT_USERNAME":     &c.MQTT.Username,
		"WATERDASH_MQTT_PASSWORD":     &c.MQTT.Password,
		"WATERDASH_MQTT_TOPIC_PREFIX": &c.MQTT.TopicPrefix,
		"WATERDASH_HA_URL":            &c.HomeAssistant.URL,
		"WATERDASH_HA_TOKEN":          &c.HomeAssistant.Token,
		"WATERDASH_HA_ENTITY_ID":      &c.HomeAssistant.EntityID,
	}
	for key, field := range str {
		if v, ok := os.LookupEnv(key); ok {
			*field = v
		}
	}

	flags := map[string]*bool{
		"WATERDASH_MQTT_ENABLED": &c.MQTT.Enabled,
		"WATERDASH_HA_ENABLED":   &c.HomeAssistant.Enabled,
	}
	for key, field := range flags {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*field = b
	}

	return nil
}

// GetDataPath returns the readings CSV path with a default of data/consumes.csv
func (c *Config) GetDataPath() string {
	if c.DataPath == "" {
		return filepath.Join("data", "consumes.csv")
	}
	return c.DataPath
}

// GetDatabasePath returns the snapshot database path with a default of data.db
func (c *Config) GetDatabasePath() string {
	if c.DatabasePath == "" {
		return "data.db"
	}
	return c.DatabasePath
}

// GetLogLevel returns the log level with a default of info
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return "info"
	}
	return c.LogLevel
}

// GetAddr returns the server listen address with a default of :8080
func (c *Config) GetAddr() string {
	if c.Server.Addr == "" {
		return ":8080"
	}
	return c.Server.Addr
}

// GetReadTimeout returns the server read timeout with a default of 15s
func (c *Config) GetReadTimeout() time.Duration {
	if c.Server.ReadTimeout <= 0 {
		return 15 * time.Second
	}
	return c.Server.ReadTimeout
}

// GetWriteTimeout returns the server write timeout with a default of 30s
func (c *Config) GetWriteTimeout() time.Duration {
	if c.Server.WriteTimeout <= 0 {
		return 30 * time.Second
	}
	return c.Server.WriteTimeout
}

// GetTopicPrefix returns the MQTT topic prefix with a default of water_meter
func (c *Config) GetTopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return "water_meter"
	}
	return c.MQTT.TopicPrefix
}
