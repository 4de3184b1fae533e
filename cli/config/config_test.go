// SPDX-FileCopyrightText: Copyright (c) 2016-2023, CloudZero, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"path/filepath"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	home          = getHomeDir()
	homeConfigDir = filepath.Join(home, ".config", "cloudzero")
	homeConfig    = filepath.Join(homeConfigDir, DefaultConfigFile)

	systemConfigDir = filepath.Join("/etc", "opt", "cloudzero")
	systemConfig    = filepath.Join(systemConfigDir, DefaultConfigFile)

	oldConfig = filepath.Join(home, "."+DefaultConfigFile)

	configBody = []byte("theconfig")
)

func getHomeDir() string {
	home, _ := homedir.Dir()
	return home
}

func resetAppFsToMemFs() {
	AppFs = afero.NewMemMapFs()
	AppFs.MkdirAll(homeConfigDir, 0o755)
	AppFs.MkdirAll(systemConfigDir, 0o755)
}

func Test_autodetectConfig(t *testing.T) {
	defer func() {
		AppFs = afero.NewOsFs()
	}()

	t.Run("test homeConfig returned if exists", func(t *testing.T) {
		resetAppFsToMemFs()
		afero.WriteFile(AppFs, homeConfig, configBody, 0o644)

		config := autodetectConfig()
		assert.Equal(t, homeConfig, config)
	})

	t.Run("test homeConfig returned even if systemConfig exists", func(t *testing.T) {
		resetAppFsToMemFs()
		afero.WriteFile(AppFs, homeConfig, configBody, 0o644)
		afero.WriteFile(AppFs, oldConfig, configBody, 0o644)
		afero.WriteFile(AppFs, systemConfig, configBody, 0o644)

		config := autodetectConfig()
		assert.Equal(t, homeConfig, config)
	})

	t.Run("test oldConfig returned before systemConfig", func(t *testing.T) {
		resetAppFsToMemFs()
		afero.WriteFile(AppFs, oldConfig, configBody, 0o644)
		afero.WriteFile(AppFs, systemConfig, configBody, 0o644)

		config := autodetectConfig()
		assert.Equal(t, oldConfig, config)
	})

	t.Run("test systemConfig returned", func(t *testing.T) {
		resetAppFsToMemFs()
		afero.WriteFile(AppFs, systemConfig, configBody, 0o644)

		config := autodetectConfig()
		assert.Equal(t, systemConfig, config)
	})

	t.Run("test empty result if nothing exists", func(t *testing.T) {
		resetAppFsToMemFs()

		config := autodetectConfig()
		assert.Equal(t, "", config)
	})
}

func TestValidate(t *testing.T) {
	valid := Config{
		Azure: AzureOpts{
			ClientID:     "client",
			ClientSecret: "secret",
			TenantID:     "tenant",
		},
		APIKey:      "czkey",
		APIEndpoint: "https://api.cloudzero.com",
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid
		require.NoError(t, cfg.Validate(true))
	})

	t.Run("missing api key is fine without transmit", func(t *testing.T) {
		cfg := valid
		cfg.APIKey = ""
		require.NoError(t, cfg.Validate(false))
	})

	t.Run("missing api key fails transmit", func(t *testing.T) {
		cfg := valid
		cfg.APIKey = ""
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("no azure credentials falls back to the default chain", func(t *testing.T) {
		cfg := valid
		cfg.Azure = AzureOpts{}
		require.NoError(t, cfg.Validate(true))
		assert.False(t, cfg.Azure.HasClientSecret())
	})

	t.Run("partial azure credentials are rejected", func(t *testing.T) {
		cfg := valid
		cfg.Azure.ClientSecret = ""
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("empty endpoint is rejected", func(t *testing.T) {
		cfg := valid
		cfg.APIEndpoint = ""
		assert.Error(t, cfg.Validate(false))
	})
}
