// Package config models the harness configuration file (stratus.yml).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models stratus.yml.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Topology struct {
		Dir string `yaml:"dir"`
	} `yaml:"topology"`
	Results struct {
		Path string `yaml:"path"`
	} `yaml:"results"`
	Driver struct {
		PollInterval Duration `yaml:"poll_interval"`
		TaskType     string   `yaml:"task_type"`
	} `yaml:"driver"`
	Kube struct {
		// Kubeconfig overrides the default cluster credentials. Empty
		// means the ambient KUBECONFIG / ~/.kube/config.
		Kubeconfig string `yaml:"kubeconfig"`
		// CommandTimeout bounds a single kubectl/helm invocation. Zero
		// means unbounded.
		CommandTimeout Duration `yaml:"command_timeout"`
	} `yaml:"kube"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Duration wraps time.Duration so YAML can carry values like "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"1s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.Server.Addr = ":8080"
	c.Topology.Dir = "topologies"
	c.Results.Path = "results.csv"
	c.Driver.PollInterval = Duration(time.Second)
	c.Log.Level = "info"
	c.Log.Format = "text"
	return c
}

// Load reads and validates config from path. A missing file yields the
// defaults: the harness is runnable with zero configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return FromYAML(data)
}

// FromYAML parses and validates config bytes over the defaults.
func FromYAML(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	if c.Topology.Dir == "" {
		return fmt.Errorf("config.topology.dir is required")
	}
	if c.Results.Path == "" {
		return fmt.Errorf("config.results.path is required")
	}
	if c.Driver.PollInterval <= 0 {
		return fmt.Errorf("config.driver.poll_interval must be positive")
	}
	if c.Kube.CommandTimeout < 0 {
		return fmt.Errorf("config.kube.command_timeout must not be negative")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config.log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
