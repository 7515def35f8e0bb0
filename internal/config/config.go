package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string
	LogLevel   string

	WeatherAPIKey string
	WeatherAPIURL string
	IconHost      string
	Units         string
	Hometown      string

	RequestTimeout time.Duration
	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout time.Duration
	CityMaxLength   int
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	WeatherAPI struct {
		URL      string `yaml:"url"`
		IconHost string `yaml:"icon_host"`
		Units    string `yaml:"units"`
	} `yaml:"weather_api"`

	View struct {
		Hometown      string `yaml:"hometown"`
		CityMaxLength int    `yaml:"city_max_length"`
	} `yaml:"view"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) and
// config/secrets.yaml. A .env file in the working directory is loaded
// first, so WEATHER_API_KEY and LOG_LEVEL may come from there. The API
// key comes from WEATHER_API_KEY env or the secrets file. Call from
// project root.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local dev.
	_ = godotenv.Load()

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = fc.Log.Level
	}

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	if cfg.WeatherAPIKey == "" {
		secretsPath := filepath.Join(cwd, "config", "secrets.yaml")
		secretsData, err := os.ReadFile(secretsPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read secrets file: %w", err)
			}
		} else {
			var sec secretsFile
			if err := yaml.Unmarshal(secretsData, &sec); err != nil {
				return nil, fmt.Errorf("parse secrets file: %w", err)
			}
			cfg.WeatherAPIKey = sec.WeatherAPIKey
		}
	}
	if cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY required (set env, .env, or config/secrets.yaml weather_api_key)")
	}

	cfg.WeatherAPIURL = strings.TrimRight(fc.WeatherAPI.URL, "/")
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = "https://api.openweathermap.org/data/2.5"
	}
	cfg.IconHost = strings.TrimRight(fc.WeatherAPI.IconHost, "/")
	if cfg.IconHost == "" {
		cfg.IconHost = "https://openweathermap.org"
	}
	cfg.Units = strings.TrimSpace(fc.WeatherAPI.Units)
	if cfg.Units == "" {
		cfg.Units = "metric"
	}

	cfg.Hometown = strings.TrimSpace(fc.View.Hometown)
	if cfg.Hometown == "" {
		cfg.Hometown = "Berlin"
	}
	cfg.CityMaxLength = fc.View.CityMaxLength
	if cfg.CityMaxLength <= 0 {
		cfg.CityMaxLength = 100
	}

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 10*time.Second)

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal if
// parsing fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func validate(cfg *Config) error {
	switch cfg.Units {
	case "metric", "imperial", "standard":
	default:
		return fmt.Errorf("weather_api.units must be metric, imperial or standard, got %q", cfg.Units)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request.timeout must be positive")
	}
	return nil
}
