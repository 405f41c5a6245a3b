// Package config defines the data structures related to configuration and
// includes functions for loading, normalizing and validating the config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ssolson/upOpt/pkg/constants"
	"github.com/ssolson/upOpt/pkg/validation"
)

// Configuration holds all configuration for upOpt.
type Configuration struct {
	Logging     LoggingConfig     `yaml:"logging,omitempty" mapstructure:"logging"`
	Output      OutputConfig      `yaml:"output,omitempty" mapstructure:"output"`
	Optimizer   OptimizerConfig   `yaml:"optimizer,omitempty" mapstructure:"optimizer"`
	Collections CollectionsConfig `yaml:"collections,omitempty" mapstructure:"collections"`
	Providers   ProvidersConfig   `yaml:"providers,omitempty" mapstructure:"providers"`
	Store       StoreConfig       `yaml:"store,omitempty" mapstructure:"store"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds report output options
type OutputConfig struct {
	Format    string `yaml:"format,omitempty" mapstructure:"format"` // text, json
	Directory string `yaml:"directory,omitempty" mapstructure:"directory"`
}

// ProvidersConfig locates the unit, catalog and activity data.
type ProvidersConfig struct {
	UnitsURL     string        `yaml:"unitsURL,omitempty" mapstructure:"unitsURL"`
	CatalogURL   string        `yaml:"catalogURL,omitempty" mapstructure:"catalogURL"`
	ActivityURL  string        `yaml:"activityURL,omitempty" mapstructure:"activityURL"`
	Timeout      time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	UnitsFile    string        `yaml:"unitsFile,omitempty" mapstructure:"unitsFile"`
	CatalogFile  string        `yaml:"catalogFile,omitempty" mapstructure:"catalogFile"`
	ActivityFile string        `yaml:"activityFile,omitempty" mapstructure:"activityFile"`
}

// StoreConfig enables persistence of finished runs. An empty driver disables it.
type StoreConfig struct {
	Driver string `yaml:"driver,omitempty" mapstructure:"driver"` // sqlite, postgres
	DSN    string `yaml:"dsn,omitempty" mapstructure:"dsn"`
}

// Default returns the configuration used when no file is provided.
func Default() Configuration {
	return Configuration{
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Output:  OutputConfig{Format: constants.OutputFormatText, Directory: "."},
		Optimizer: OptimizerConfig{
			KeepCount:              constants.DefaultKeepCount,
			RelaxedBonus:           constants.DefaultRelaxedBonus,
			HighYieldThreshold:     constants.DefaultHighYieldThreshold,
			Capacity:               CapacityAtMost,
			Exclusivity:            ExclusivityAggregate,
			ObjectiveScale:         constants.DefaultObjectiveScale,
			RelaxationMaxVariables: constants.DefaultRelaxationMaxVariables,
		},
		Collections: DefaultCollections(),
		Providers: ProvidersConfig{
			UnitsURL:    constants.DefaultUnitsURL,
			CatalogURL:  constants.DefaultCatalogURL,
			ActivityURL: constants.DefaultActivityURL,
			Timeout:     30 * time.Second,
		},
	}
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there on top of the defaults.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	configuration := Default()
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.Normalize()
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// LoadOrDefault loads the configuration at configPath, falling back to the
// defaults when the file does not exist.
func LoadOrDefault(configPath string) (*Configuration, error) {
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		configuration := Default()
		return &configuration, nil
	}
	return LoadConfiguration(configPath)
}

// Normalize applies defaults to empty values and canonicalizes enumerations.
func (c *Configuration) Normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatText
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "."
	}

	c.Optimizer.Normalize()
	c.Collections.Normalize()

	if c.Providers.Timeout <= 0 {
		c.Providers.Timeout = 30 * time.Second
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
}

// Validate returns the first configuration error found.
func (c *Configuration) Validate() error {
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}
	if err := c.Optimizer.Validate(); err != nil {
		return err
	}
	if err := c.Collections.Validate(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("store driver %q is not supported", c.Store.Driver)
	}
	if c.Store.Driver != "" && strings.TrimSpace(c.Store.DSN) == "" {
		return fmt.Errorf("store driver %s requires a dsn", c.Store.Driver)
	}
	return nil
}
