// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Cache.MaxPackages)
	assert.Equal(t, int64(1000000000), cfg.Cache.MaxAssetCacheBytes)
	assert.Equal(t, int64(1000000000), cfg.Cache.MaxImageCacheBytes)
	assert.NotEmpty(t, cfg.Engine.CandidateNames)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SBSAR_MAX_PACKAGES", "3")
	t.Setenv("SBSAR_PLUGIN_DIR", "/opt/sbsar")
	t.Setenv("SBSAR_ENGINE_LIBRARY_NAMES", "a.so,b.so")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Cache.MaxPackages)
	assert.Equal(t, "/opt/sbsar", cfg.Engine.PluginDir)
	assert.Equal(t, []string{"a.so", "b.so"}, cfg.Engine.CandidateNames)
}

func TestCacheConfigValidateRejectsZeroPackages(t *testing.T) {
	c := CacheConfig{MaxPackages: 0}
	assert.Error(t, c.Validate())
}
