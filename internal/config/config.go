package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses YAML values like "30s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

type ServeConfig struct {
	Port                int    `yaml:"port"`
	SQLitePath          string `yaml:"sqlitePath"`
	NotifyWebhookURL    string `yaml:"notifyWebhookUrl"`
	ReleaseManagerEmail string `yaml:"releaseManagerEmail"`
}

type ClientConfig struct {
	BaseURL        string   `yaml:"baseUrl"`
	HealthInterval Duration `yaml:"healthInterval"`
}

type Config struct {
	Serve  ServeConfig  `yaml:"serve"`
	Client ClientConfig `yaml:"client"`
	Debug  bool         `yaml:"debug"`
}

func defaults() Config {
	return Config{
		Serve: ServeConfig{
			Port:                8080,
			SQLitePath:          "release-portal.db",
			ReleaseManagerEmail: "release.manager@example.com",
		},
		Client: ClientConfig{
			BaseURL:        "http://localhost:8080/api",
			HealthInterval: Duration(10 * time.Second),
		},
	}
}

// LoadConfig reads the YAML config at path over the built-in defaults. A
// missing file is not an error; the defaults apply.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}
