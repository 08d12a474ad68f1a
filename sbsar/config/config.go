// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Package config loads the sbsar plugin's tunables from the process
// environment: there is no caller constructing an engine with option
// functions, only environment variables the host process sets before
// the plugin loads. caarlos0/env does the struct-tag parsing.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// CacheConfig mirrors original_source/sbsar/src/sbsarEngine/sbsarRenderThread.h's
// CacheSize: independent byte/count budgets for the three caches, each
// with the same defaults the caches themselves fall back to when
// constructed with a non-positive size.
type CacheConfig struct {
	MaxPackages        int   `env:"SBSAR_MAX_PACKAGES" envDefault:"10"`
	MaxAssetCacheBytes int64 `env:"SBSAR_MAX_ASSET_CACHE_BYTES" envDefault:"1000000000"`
	MaxImageCacheBytes int64 `env:"SBSAR_MAX_IMAGE_CACHE_BYTES" envDefault:"1000000000"`
}

// Validate rejects a zero package-cache size, matching
// CacheSize::setMaxPackageCacheSize's refusal to accept 0 (a package
// cache that can hold nothing can never make progress).
func (c CacheConfig) Validate() error {
	if c.MaxPackages <= 0 {
		return fmt.Errorf("config: SBSAR_MAX_PACKAGES must be positive, got %d", c.MaxPackages)
	}
	return nil
}

// EngineConfig locates and tunes the rendering engine the worker loads.
type EngineConfig struct {
	PluginDir      string   `env:"SBSAR_PLUGIN_DIR"`
	CandidateNames []string `env:"SBSAR_ENGINE_LIBRARY_NAMES" envSeparator:","`
}

// Config is the complete set of environment-sourced tunables.
type Config struct {
	Cache  CacheConfig
	Engine EngineConfig
}

// Load parses the environment into a Config, applying defaults for
// anything unset and rejecting invalid combinations.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg.Cache); err != nil {
		return Config{}, fmt.Errorf("config: parsing cache settings: %w", err)
	}
	if err := env.Parse(&cfg.Engine); err != nil {
		return Config{}, fmt.Errorf("config: parsing engine settings: %w", err)
	}
	if len(cfg.Engine.CandidateNames) == 0 {
		cfg.Engine.CandidateNames = []string{"libsubstance_engine.so", "substance_engine.dll", "libsubstance_engine.dylib"}
	}
	if err := cfg.Cache.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
