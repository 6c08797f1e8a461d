// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// package config holds the application configuration, loaded from a
// config file, the environment and command line flags, and reads the
// calibration files that describe the display being decoded.
package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aamcrae/bpreader/reader"
)

// Config is the application configuration.
type Config struct {
	LogLevel    string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat   string `mapstructure:"log_format" yaml:"log_format" json:"log_format"`
	Calibration string `mapstructure:"calibration" yaml:"calibration" json:"calibration"`

	Source  SourceConfig  `mapstructure:"source" yaml:"source" json:"source"`
	Policy  PolicyConfig  `mapstructure:"policy" yaml:"policy" json:"policy"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server" json:"server"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch" json:"watch"`
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive" json:"archive"`
}

// SourceConfig selects where photos are acquired from.
type SourceConfig struct {
	URL     string        `mapstructure:"url" yaml:"url" json:"url"`
	File    string        `mapstructure:"file" yaml:"file" json:"file"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	Rotate  float64       `mapstructure:"rotate" yaml:"rotate" json:"rotate"`
}

// PolicyConfig controls undecodable digits and plausibility checks.
type PolicyConfig struct {
	Fill     string                  `mapstructure:"fill" yaml:"fill" json:"fill"`
	Defaults map[string]int          `mapstructure:"defaults" yaml:"defaults" json:"defaults"`
	Limits   map[string]reader.Range `mapstructure:"limits" yaml:"limits" json:"limits"`
}

// ServerConfig is used by the serve command.
type ServerConfig struct {
	Host        string `mapstructure:"host" yaml:"host" json:"host"`
	Port        int    `mapstructure:"port" yaml:"port" json:"port"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
}

// WatchConfig is used by the watch command, and by serve when a source is set.
type WatchConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval" json:"interval"`
	SaveBad  bool          `mapstructure:"save_bad" yaml:"save_bad" json:"save_bad"`
	CSVDir   string        `mapstructure:"csv_dir" yaml:"csv_dir" json:"csv_dir"`
}

// ArchiveConfig selects where photos that did not decode cleanly are saved.
// If an Azure account is set, photos are uploaded to the container,
// otherwise they are written to Dir.
type ArchiveConfig struct {
	Dir       string `mapstructure:"dir" yaml:"dir" json:"dir"`
	Account   string `mapstructure:"account" yaml:"account" json:"account"`
	Key       string `mapstructure:"key" yaml:"key" json:"-"`
	Container string `mapstructure:"container" yaml:"container" json:"container"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		LogFormat:   "",
		Calibration: "calibration.yaml",
		Source: SourceConfig{
			Timeout: 20 * time.Second,
		},
		Policy: PolicyConfig{
			Fill: "zero",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			MaxUploadMB: 10,
		},
		Watch: WatchConfig{
			Interval: time.Minute,
		},
		Archive: ArchiveConfig{
			Dir:       "/tmp/bpreader",
			Container: "bpreader",
		},
	}
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if !slices.Contains([]string{"", "text", "json"}, c.LogFormat) {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.LogFormat)
	}
	if _, err := reader.ParseFill(c.Policy.Fill); err != nil {
		return err
	}
	for name, r := range c.Policy.Limits {
		if r.Min > r.Max {
			return fmt.Errorf("limits for %s: min %d is greater than max %d", name, r.Min, r.Max)
		}
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive: %s", c.Source.Timeout)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive: %d", c.Server.MaxUploadMB)
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive: %s", c.Watch.Interval)
	}
	if len(c.Archive.Account) != 0 && len(c.Archive.Key) == 0 {
		return fmt.Errorf("archive.account %s has no key", c.Archive.Account)
	}
	return nil
}

// JSONLogs returns true if logs should be written as JSON. If no format
// is configured, services log JSON and interactive commands log text.
func (c *Config) JSONLogs(service bool) bool {
	if c.LogFormat == "" {
		return service
	}
	return c.LogFormat == "json"
}

// Level returns the slog level of the configured log level.
func (c *Config) Level() slog.Level {
	return logLevels[strings.ToLower(c.LogLevel)]
}

// ReaderPolicy returns the fill policy for the reader.
func (c *Config) ReaderPolicy() (reader.Policy, error) {
	f, err := reader.ParseFill(c.Policy.Fill)
	if err != nil {
		return reader.Policy{}, err
	}
	return reader.Policy{Fill: f, Defaults: c.Policy.Defaults}, nil
}

// Limits returns the default plausibility limits, with any configured limits
// replacing them.
func (c *Config) Limits() reader.Limits {
	l := reader.DefaultLimits()
	for name, r := range c.Policy.Limits {
		l[name] = r
	}
	return l
}
