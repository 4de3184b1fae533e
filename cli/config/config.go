// SPDX-FileCopyrightText: Copyright (c) 2016-2023, CloudZero, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudzero/azure-advisor-insights/logger"
	"github.com/cockroachdb/errors"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

/*
	Configuration is loaded in this order:
	ENV -> --config file -> autodetected config file -> defaults
*/

var (
	// DefaultConfigFile is the name of the config file that is probed
	// in the well-known locations
	DefaultConfigFile = "cloudzero.yml"

	// UserProvidedPath is the config location passed via --config
	UserProvidedPath string

	// Path is the currently loaded config location or empty if no config exists
	Path string

	// Source tracks where the loaded config came from
	Source string

	// LoadedConfig is true once a config file was read successfully
	LoadedConfig bool

	// AppFs is the filesystem used for config probing, swapped for an
	// in-memory fs in tests
	AppFs = afero.NewOsFs()
)

const (
	configSourceBase64 = "$CLOUDZERO_CONFIG_BASE64"
	defaultAPIEndpoint = "https://api.cloudzero.com"
)

// Init initializes and loads the config
func Init(rootCmd *cobra.Command) {
	cobra.OnInitialize(InitViperConfig)
	// persistent flags are global for the application
	rootCmd.PersistentFlags().StringVar(&UserProvidedPath, "config", "", "Set config file path (default $HOME/.config/cloudzero/cloudzero.yml)")
}

func InitViperConfig() {
	viper.SetConfigType("yaml")

	Path = strings.TrimSpace(UserProvidedPath)
	// base 64 config env setting has always precedence
	if len(os.Getenv("CLOUDZERO_CONFIG_BASE64")) > 0 {
		Source = configSourceBase64
		decodedData, err := base64.StdEncoding.DecodeString(os.Getenv("CLOUDZERO_CONFIG_BASE64"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not parse base64 config")
		}
		err = viper.ReadConfig(bytes.NewBuffer(decodedData))
		if err != nil {
			log.Fatal().Err(err).Msg("could not read base64 config")
		}
		LoadedConfig = true
	} else if len(Path) == 0 && len(os.Getenv("CLOUDZERO_CONFIG_PATH")) > 0 {
		// fallback to env variable if provided, but only if --config is not used
		Source = "$CLOUDZERO_CONFIG_PATH"
		Path = os.Getenv("CLOUDZERO_CONFIG_PATH")
	} else if len(Path) != 0 {
		Source = "--config"
	} else {
		Source = "default"
	}

	// check if the default config file is available
	if Path == "" && Source != configSourceBase64 {
		Path = autodetectConfig()
	}

	if Source != configSourceBase64 && Path != "" {
		viper.SetConfigFile(Path)

		// if the file exists, load it
		_, err := AppFs.Stat(Path)
		if err == nil {
			log.Debug().Str("configfile", Path).Msg("try to load local config file")
			if err := viper.ReadInConfig(); err == nil {
				LoadedConfig = true
			} else {
				LoadedConfig = false
				log.Error().Err(err).Str("path", Path).Msg("could not read config file")
			}
		}
	}

	// by default it uses console output, for production we may want to set it to json output
	if viper.GetString("log.format") == "json" {
		logger.UseJSONLogging(logger.LogOutputWriter)
	}

	viper.SetDefault("api-endpoint", defaultAPIEndpoint)
	viper.SetDefault("output-dir", "output")

	// the credential env vars keep the names the packaged container documents
	viper.BindEnv("azure.client-id", "AZURE_CLIENT_ID")
	viper.BindEnv("azure.client-secret", "AZURE_CLIENT_SECRET")
	viper.BindEnv("azure.tenant-id", "AZURE_TENANT_ID")
	viper.BindEnv("api-key", "CLOUDZERO_API_KEY")
	viper.BindEnv("api-endpoint", "CLOUDZERO_API_ENDPOINT")
}

// DisplayUsedConfig logs which config source ended up being used
func DisplayUsedConfig() {
	if !LoadedConfig && len(UserProvidedPath) > 0 {
		log.Warn().Msg("could not load configuration file " + UserProvidedPath)
	} else if LoadedConfig && Source == configSourceBase64 {
		log.Info().Msg("loaded configuration from environment using source " + Source)
	} else if LoadedConfig {
		log.Info().Msg("loaded configuration from " + Path + " using source " + Source)
	} else {
		log.Debug().Msg("no configuration file provided, using environment and defaults")
	}
}

// autodetectConfig probes the well-known config locations and returns the
// first one that exists. The home config always wins over the system config.
func autodetectConfig() string {
	home, err := homedir.Dir()
	if err != nil {
		log.Debug().Err(err).Msg("could not determine user home directory")
		home = ""
	}

	candidates := []string{}
	if home != "" {
		candidates = append(candidates,
			filepath.Join(home, ".config", "cloudzero", DefaultConfigFile),
			filepath.Join(home, "."+DefaultConfigFile),
		)
	}
	candidates = append(candidates, filepath.Join("/etc", "opt", "cloudzero", DefaultConfigFile))

	for _, path := range candidates {
		if probeConfig(path) {
			return path
		}
	}
	return ""
}

func probeConfig(path string) bool {
	stat, err := AppFs.Stat(path)
	if err != nil {
		return false
	}
	return stat.Mode().IsRegular()
}

// Read loads the viper config into a struct
func Read() (*Config, error) {
	var opts Config
	err := viper.Unmarshal(&opts)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode into config struct")
	}
	return &opts, nil
}

type Config struct {
	Azure AzureOpts `json:"azure,omitempty" mapstructure:"azure"`

	// CloudZero API access
	APIKey      string `json:"api_key,omitempty" mapstructure:"api-key"`
	APIEndpoint string `json:"api_endpoint,omitempty" mapstructure:"api-endpoint"`

	// CSV export target directory
	OutputDir string `json:"output_dir,omitempty" mapstructure:"output-dir"`

	// subscription include/exclude filters
	Subscriptions        []string `json:"subscriptions,omitempty" mapstructure:"subscriptions"`
	ExcludeSubscriptions []string `json:"exclude_subscriptions,omitempty" mapstructure:"exclude-subscriptions"`
}

type AzureOpts struct {
	ClientID     string `json:"client_id,omitempty" mapstructure:"client-id"`
	ClientSecret string `json:"client_secret,omitempty" mapstructure:"client-secret"`
	TenantID     string `json:"tenant_id,omitempty" mapstructure:"tenant-id"`
}

// HasClientSecret is true when the explicit service principal credentials are
// fully configured. Partially configured credentials are an error, see Validate.
func (a AzureOpts) HasClientSecret() bool {
	return a.ClientID != "" && a.ClientSecret != "" && a.TenantID != ""
}

// Validate checks the configuration before any API call is made. The Azure
// service principal triple must be set together or not at all; when absent the
// default credential chain is used. The API key is only required for transmit.
func (c *Config) Validate(transmit bool) error {
	set := 0
	for _, v := range []string{c.Azure.ClientID, c.Azure.ClientSecret, c.Azure.TenantID} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		return errors.New("AZURE_CLIENT_ID, AZURE_CLIENT_SECRET and AZURE_TENANT_ID must be set together")
	}

	if transmit && c.APIKey == "" {
		return errors.New("CLOUDZERO_API_KEY is required to transmit insights")
	}

	if c.APIEndpoint == "" {
		return errors.New("api-endpoint must not be empty")
	}

	return nil
}
