// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

package engine

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// OpenFunc loads the native engine library at libraryPath and returns a
// Renderer bound to it. The real implementation lives outside this
// module (a cgo or plugin binding to the procedural-rendering engine);
// Loader only knows how to pick a libraryPath and hand it off.
type OpenFunc func(libraryPath string) (Renderer, error)

// Loader discovers and loads the native engine library, trying each
// candidate name in each search-order directory until one opens and
// initializes successfully. No separate create/destroy validation cycle
// is run on the opened engine.
type Loader struct {
	// PluginDir is this plugin's own install directory, searched first.
	PluginDir string
	// CandidateNames are the library's possible file names across
	// platforms, e.g. "libsubstance_sse2_blend.so",
	// "substance_sse2_blend.dll", tried in order in every search
	// directory before moving to the next directory.
	CandidateNames []string
	Open           OpenFunc
	Logger         *zap.Logger
}

// NewLoader returns a Loader. logger may be nil.
func NewLoader(pluginDir string, candidateNames []string, open OpenFunc, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{PluginDir: pluginDir, CandidateNames: candidateNames, Open: open, Logger: logger}
}

// searchDirs returns the directories searched, in order: the plugin's
// own directory, a sibling "lib/" directory, then "" (an empty
// directory component lets the OS's own shared-library search path,
// e.g. LD_LIBRARY_PATH/PATH, resolve a bare library name).
func (l *Loader) searchDirs() []string {
	return []string{l.PluginDir, filepath.Join(l.PluginDir, "lib"), ""}
}

// Load tries every candidate name in every search directory in order,
// returning the first Renderer that opens, initializes successfully.
// Every attempt is logged, successful or not, so a deployment missing
// its native engine leaves a clear trail of what was tried.
func (l *Loader) Load() (Renderer, error) {
	for _, dir := range l.searchDirs() {
		for _, name := range l.CandidateNames {
			candidate := name
			if dir != "" {
				candidate = filepath.Join(dir, name)
			}
			l.Logger.Debug("engine: attempting to load", zap.String("path", candidate))

			renderer, err := l.Open(candidate)
			if err != nil {
				l.Logger.Debug("engine: candidate failed to open", zap.String("path", candidate), zap.Error(err))
				continue
			}
			if err := renderer.Init(); err != nil {
				l.Logger.Warn("engine: candidate opened but failed to initialize", zap.String("path", candidate), zap.Error(err))
				renderer.Close()
				continue
			}
			l.Logger.Info("engine: loaded", zap.String("path", candidate))
			return renderer, nil
		}
	}
	return nil, fmt.Errorf("engine: no candidate engine library could be loaded (tried %d names across %d directories)", len(l.CandidateNames), len(l.searchDirs()))
}
