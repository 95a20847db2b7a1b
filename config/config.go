// Package config loads the cmd/mqttc CLI's YAML configuration file.
// spec.md §1 scopes configuration parsing out of the client core itself
// ("configuration parsing... is a collaborator named at its interface,
// not defined here"); this package is that collaborator, living only in
// the CLI wrapper.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape of a cmd/mqttc configuration file.
type Config struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ClientID     string        `yaml:"client_id"`
	CleanSession bool          `yaml:"clean_session"`
	KeepAlive    time.Duration `yaml:"-"`

	TLS struct {
		Enabled    bool   `yaml:"enabled"`
		CACert     string `yaml:"ca_cert"`
		ClientCert string `yaml:"client_cert"`
		ClientKey  string `yaml:"client_key"`
		SkipVerify bool   `yaml:"skip_verify"`
	} `yaml:"tls"`

	Will *struct {
		Topic   string `yaml:"topic"`
		Payload string `yaml:"payload"`
		QoS     byte   `yaml:"qos"`
		Retain  bool   `yaml:"retain"`
	} `yaml:"will"`

	ResumeStorePath string `yaml:"resume_store_path"`

	// KeepAliveRaw holds the file's "30s"-style duration string; Load
	// parses it into KeepAlive since yaml.v3 decodes time.Duration as a
	// plain integer of nanoseconds otherwise.
	KeepAliveRaw string `yaml:"keep_alive"`
}

// Default returns a Config with the values cmd/mqttc falls back to when
// a setting is omitted from the file.
func Default() Config {
	return Config{
		Host:         "localhost",
		Port:         1883,
		ClientID:     "mqttc",
		CleanSession: true,
		KeepAlive:    60 * time.Second,
	}
}

// Load reads and decodes the YAML file at path over Default().
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.KeepAliveRaw != "" {
		d, err := time.ParseDuration(cfg.KeepAliveRaw)
		if err != nil {
			return cfg, fmt.Errorf("parsing keep_alive %q: %w", cfg.KeepAliveRaw, err)
		}
		cfg.KeepAlive = d
	}
	return cfg, nil
}

// Addr returns the host:port dial address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
