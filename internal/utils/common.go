package utils

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/mainajackson95/gau-tools/pkg/stages"
)

// ConfigOptions holds configuration loading options
type ConfigOptions struct {
	ConfigPath string
	ConfigName string
	ConfigType string
	EnvPrefix  string
}

// NewViperConfig loads the optional gautools.yaml configuration. A missing
// file is not an error; defaults and GAUTOOLS_* environment variables still
// apply.
func NewViperConfig(configPath string) (*viper.Viper, error) {
	return NewViperConfigWithOptions(ConfigOptions{
		ConfigPath: configPath,
		ConfigName: "gautools",
		ConfigType: "yaml",
		EnvPrefix:  "GAUTOOLS",
	})
}

// NewViperConfigWithOptions creates a Viper configuration with custom options
func NewViperConfigWithOptions(opts ConfigOptions) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigType(opts.ConfigType)

	// Add multiple search paths for flexibility
	configPaths := []string{opts.ConfigPath}
	if opts.ConfigPath != "." {
		configPaths = append(configPaths, ".")
	}
	configPaths = append(configPaths, "/etc/gautools", "$HOME/.gautools")

	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	v.SetConfigName(opts.ConfigName)

	// Enable environment variable support
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	}

	defaults := stages.DefaultConfig()
	v.SetDefault("output_root", defaults.OutputRoot)
	v.SetDefault("harvest.tool", defaults.HarvestTool)
	v.SetDefault("harvest.workers", defaults.HarvestWorkers)
	v.SetDefault("harvest.timeout", defaults.HarvestTimeout)
	v.SetDefault("fetch.workers", defaults.FetchWorkers)
	v.SetDefault("fetch.timeout", defaults.FetchTimeout)
	v.SetDefault("dork.delay", defaults.DorkDelay)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Debugf("No config file '%s' in paths %v, using defaults", opts.ConfigName, configPaths)
			return v, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	log.Infof("Loaded config file: %s", v.ConfigFileUsed())
	return v, nil
}

// StagesConfig maps the loaded keys onto a pipeline config. Flag overrides
// are applied by the caller on top of the returned value.
func StagesConfig(v *viper.Viper) stages.Config {
	return stages.Config{
		TargetsFile:    v.GetString("targets_file"),
		OutputRoot:     v.GetString("output_root"),
		HarvestTool:    v.GetString("harvest.tool"),
		HarvestArgs:    v.GetStringSlice("harvest.args"),
		HarvestWorkers: v.GetInt("harvest.workers"),
		HarvestTimeout: v.GetDuration("harvest.timeout"),
		FetchWorkers:   v.GetInt("fetch.workers"),
		FetchTimeout:   v.GetDuration("fetch.timeout"),
		DorkDelay:      v.GetDuration("dork.delay"),
		PatternsFile:   v.GetString("patterns_file"),
	}
}
