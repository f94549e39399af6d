/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads the YAML configuration of the modelstore command and of
// applications embedding a Storage.
//
//	logging:
//	  level: debug
//	  format: json
//	proxies:
//	  people:
//	    type: rest
//	    url: https://api.example.com/people
//	  cache:
//	    type: localstorage
//	    id: people
//	    addr: ${REDIS_ADDR}
//
// Environment variables referenced as ${NAME} are expanded before parsing;
// a .env file in the working directory is loaded first when present.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/proxy"
)

const (
	EnvLogLevel  = "MODELSTORE_LOG_LEVEL"
	EnvLogFormat = "MODELSTORE_LOG_FORMAT"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true, "fatal": true}

// Config is the file configuration.
type Config struct {
	Logging LoggingConfig          `yaml:"logging"`
	Proxies map[string]ProxyConfig `yaml:"proxies"`
}

// LoggingConfig selects the zap level and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ProxyConfig declares one named proxy. Every key besides type is a proxy option.
type ProxyConfig struct {
	Type    string         `yaml:"type"`
	Options map[string]any `yaml:",inline"`
}

// Load reads the configuration at path. See Parse for the rules applied.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

func isNotExist(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist)
}

// Parse expands environment variables in data, decodes it, applies the
// environment overrides and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfiguration, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
}

// Validate checks the logging settings and that every proxy names a type.
func (c *Config) Validate() error {
	if !validLevels[c.Logging.Level] {
		return errors.NewConfigError("config", fmt.Sprintf("unknown log level %q", c.Logging.Level))
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return errors.NewConfigError("config", fmt.Sprintf("unknown log format %q", c.Logging.Format))
	}
	for name, p := range c.Proxies {
		if strings.TrimSpace(p.Type) == "" {
			return errors.NewConfigError("config", fmt.Sprintf("proxy %q has no type", name))
		}
	}
	return nil
}

// ProxyNames returns the configured proxy names in sorted order.
func (c *Config) ProxyNames() []string {
	names := make([]string, 0, len(c.Proxies))
	for name := range c.Proxies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProxyConfigs returns a proxy.Config per configured proxy, sorted by name.
func (c *Config) ProxyConfigs() []proxy.Config {
	out := make([]proxy.Config, 0, len(c.Proxies))
	for _, name := range c.ProxyNames() {
		out = append(out, c.Proxies[name].ProxyConfig(name))
	}
	return out
}

// ProxyConfig converts p into a proxy.Config called name.
func (p ProxyConfig) ProxyConfig(name string) proxy.Config {
	opts := make(map[string]any, len(p.Options))
	for k, v := range p.Options {
		opts[k] = v
	}
	return proxy.Config{Type: p.Type, Name: name, Options: opts}
}
