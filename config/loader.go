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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name of the config file, without extension.
	ConfigFileName = "bpreader"

	// EnvPrefix is the prefix of environment variables.
	EnvPrefix = "BPREADER"
)

// Loader loads the configuration from a config file, environment
// variables and any flags bound to its viper instance.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with its own viper instance.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Viper returns the underlying viper instance, so that flags can be bound.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load reads the configuration. If name is empty the standard
// locations are searched, and a missing config file is not an error.
func (l *Loader) Load(name string) (*Config, error) {
	l.setDefaults()
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	l.v.AutomaticEnv()
	if len(name) != 0 {
		l.v.SetConfigFile(name)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", name, err)
		}
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}
	var c Config
	if err := l.v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &c, nil
}

// ConfigFileUsed returns the path of the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if dir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		l.v.AddConfigPath(filepath.Join(dir, "bpreader"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "bpreader"))
	}
	l.v.AddConfigPath("/etc/bpreader")
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()
	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("log_format", d.LogFormat)
	l.v.SetDefault("calibration", d.Calibration)

	l.v.SetDefault("source.url", d.Source.URL)
	l.v.SetDefault("source.file", d.Source.File)
	l.v.SetDefault("source.timeout", d.Source.Timeout)
	l.v.SetDefault("source.rotate", d.Source.Rotate)

	l.v.SetDefault("policy.fill", d.Policy.Fill)

	l.v.SetDefault("server.host", d.Server.Host)
	l.v.SetDefault("server.port", d.Server.Port)
	l.v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)

	l.v.SetDefault("watch.interval", d.Watch.Interval)
	l.v.SetDefault("watch.save_bad", d.Watch.SaveBad)
	l.v.SetDefault("watch.csv_dir", d.Watch.CSVDir)

	l.v.SetDefault("archive.dir", d.Archive.Dir)
	l.v.SetDefault("archive.account", d.Archive.Account)
	l.v.SetDefault("archive.key", d.Archive.Key)
	l.v.SetDefault("archive.container", d.Archive.Container)
	l.v.SetDefault("archive.endpoint", d.Archive.Endpoint)
}
