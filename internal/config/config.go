package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server struct {
		Port        string   `json:"port" yaml:"port"`
		StaticDir   string   `json:"static_dir" yaml:"static_dir"`
		Debug       bool     `json:"debug" yaml:"debug"`
		CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
	} `json:"server" yaml:"server"`

	Database struct {
		Driver string `json:"driver" yaml:"driver"` // "sqlite" or "mongo"
		Path   string `json:"path" yaml:"path"`
		URI    string `json:"uri" yaml:"uri"`
		Name   string `json:"name" yaml:"name"`
	} `json:"database" yaml:"database"`

	ML struct {
		Type       string `json:"type" yaml:"type"` // "local" or "google"
		Model      string `json:"model" yaml:"model"`
		ConfigPath string `json:"config_path" yaml:"config_path"`
		Fixtures   string `json:"fixtures" yaml:"fixtures"`
	} `json:"ml" yaml:"ml"`

	Locker struct {
		Driver   string   `json:"driver" yaml:"driver"` // "local" or "redis"
		RedisURL string   `json:"redis_url" yaml:"redis_url"`
		TTL      Duration `json:"ttl" yaml:"ttl"`
	} `json:"locker" yaml:"locker"`

	Events struct {
		Driver string `json:"driver" yaml:"driver"` // "none", "amqp" or "nats"
		URL    string `json:"url" yaml:"url"`
		Topic  string `json:"topic" yaml:"topic"`
	} `json:"events" yaml:"events"`

	Auth struct {
		JWTSecret string `json:"jwt_secret" yaml:"jwt_secret"`
	} `json:"auth" yaml:"auth"`

	// Timezone is the IANA zone used to decide a user's "today"
	Timezone string `json:"timezone" yaml:"timezone"`
}

// Duration is a time.Duration read from strings such as "10s"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.set(s)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.set(s)
}

func (d *Duration) set(s string) error {
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

// LoadConfig loads configuration from a JSON or YAML file. A .env file in
// the working directory is loaded first; environment variables then fill
// secrets the file leaves empty.
func LoadConfig(configPath string) (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv()
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyEnv() {
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = os.Getenv("NUTRITRACK_JWT_SECRET")
	}
	if c.Database.URI == "" {
		c.Database.URI = os.Getenv("NUTRITRACK_MONGO_URI")
	}
	if c.Locker.RedisURL == "" {
		c.Locker.RedisURL = os.Getenv("NUTRITRACK_REDIS_URL")
	}
	if c.Events.URL == "" {
		c.Events.URL = os.Getenv("NUTRITRACK_EVENTS_URL")
	}
	if c.Timezone == "" {
		c.Timezone = os.Getenv("TZ")
	}
}

// applyDefaults handles missing values
func (c *Config) applyDefaults() {
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = "./static"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "nutritrack.db"
	}
	if c.Database.Name == "" {
		c.Database.Name = "nutritrack"
	}
	if c.ML.Type == "" {
		c.ML.Type = "local"
	}
	if c.Locker.Driver == "" {
		c.Locker.Driver = "local"
	}
	if c.Locker.TTL.Duration == 0 {
		c.Locker.TTL.Duration = 10 * time.Second
	}
	if c.Events.Driver == "" {
		c.Events.Driver = "none"
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "nutritrack"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is not set in config file")
	}
	if err := oneOf("database.driver", c.Database.Driver, "sqlite", "mongo"); err != nil {
		return err
	}
	if c.Database.Driver == "mongo" && c.Database.URI == "" {
		return fmt.Errorf("database.uri is required for the mongo driver")
	}
	if err := oneOf("ml.type", c.ML.Type, "local", "google"); err != nil {
		return err
	}
	if err := oneOf("locker.driver", c.Locker.Driver, "local", "redis"); err != nil {
		return err
	}
	if c.Locker.Driver == "redis" && c.Locker.RedisURL == "" {
		return fmt.Errorf("locker.redis_url is required for the redis locker")
	}
	if err := oneOf("events.driver", c.Events.Driver, "none", "amqp", "nats"); err != nil {
		return err
	}
	if c.Events.Driver != "none" && c.Events.URL == "" {
		return fmt.Errorf("events.url is required for the %s driver", c.Events.Driver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported %s %q (want one of %s)", field, value, strings.Join(allowed, ", "))
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() string {
	// First try environment variable
	if path := os.Getenv("NUTRITRACK_CONFIG"); path != "" {
		return path
	}

	// Then try config directory
	configDir := "config"
	if _, err := os.Stat(configDir); err == nil {
		for _, name := range []string{"config.yaml", "config.yml", "config.json"} {
			path := filepath.Join(configDir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		return filepath.Join(configDir, "config.json")
	}

	// Finally, try current directory
	return "config.json"
}
