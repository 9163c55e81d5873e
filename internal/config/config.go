// Package config loads runtime configuration from environment variables
// and an optional config file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the leetplan server.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// SchedulerConfig holds the user-facing scheduling knobs. The algorithm
// constants themselves live in schedule.Params.
type SchedulerConfig struct {
	// DailyCap is the maximum repetitions surfaced per day.
	DailyCap int `mapstructure:"daily_cap"`
	// BacklogCapMultiplier bounds backlog output to multiplier*DailyCap.
	BacklogCapMultiplier int `mapstructure:"backlog_cap_multiplier"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("leetplan")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.SetEnvPrefix("leetplan")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("storage.path", "./leetplan.json")
	viper.SetDefault("scheduler.daily_cap", 5)
	viper.SetDefault("scheduler.backlog_cap_multiplier", 2)
	viper.SetDefault("log.level", "info")
}
