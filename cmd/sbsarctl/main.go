// Copyright © 2026 Adobe. All rights reserved.
// Use is governed by the Apache License, Version 2.0.

// Command sbsarctl is an operator CLI for the sbsar package cache:
// inspecting a package's graph descriptor and previewing the USDA
// layer the plugin would generate for it, without a host process.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/adobe/usd-fileformat-plugins/sbsar/config"
	"github.com/adobe/usd-fileformat-plugins/sbsar/layer"
	"github.com/adobe/usd-fileformat-plugins/sbsar/pkgcache"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sbsarctl",
		Short: "Inspect .sbsar packages and preview the layer the plugin would generate for them",
	}
	root.AddCommand(newStatsCmd(), newConvertCmd(), newClearCmd())
	return root
}

// localResolver implements host.AssetResolver against the local
// filesystem, standing in for the host's Ar-backed resolver when
// sbsarctl is run outside a USD process.
type localResolver struct{}

func (localResolver) Resolve(ctx context.Context, path string) (string, error) { return path, nil }

func (localResolver) OpenAsset(ctx context.Context, resolvedPath string) (io.ReadCloser, error) {
	return os.Open(resolvedPath)
}

// fileLoader implements pkgcache.Loader. Parsing the actual .sbsar
// binary container requires the substance engine SDK, an external
// collaborator this CLI does not link against; it reports that plainly
// rather than guessing at the format.
type fileLoader struct{}

func (fileLoader) Load(data []byte) (*pkgcache.PackageDesc, error) {
	return nil, fmt.Errorf("sbsarctl: parsing .sbsar package contents requires the substance engine, not available to this CLI")
}

func newStatsCmd() *cobra.Command {
	var packagePath string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the descriptor and graph list for a package",
		RunE: func(cmd *cobra.Command, args []string) error {
			if packagePath == "" {
				return fmt.Errorf("sbsarctl: --package is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cache := pkgcache.New(fileLoader{}, localResolver{}, cfg.Cache.MaxPackages)
			desc, hash, err := cache.GetDescriptor(cmd.Context(), packagePath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "package %s (hash %x)\n", packagePath, hash)
			for _, g := range desc.Graphs {
				fmt.Fprintf(cmd.OutOrStdout(), "  graph %s (%d inputs, %d outputs)\n", g.Name, len(g.Inputs), len(g.Outputs))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&packagePath, "package", "", "path to a .sbsar package")
	return cmd
}

func newConvertCmd() *cobra.Command {
	var packagePath string
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Print the generated USDA layer for a package",
		RunE: func(cmd *cobra.Command, args []string) error {
			if packagePath == "" {
				return fmt.Errorf("sbsarctl: --package is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			resolver := localResolver{}
			cache := pkgcache.New(fileLoader{}, resolver, cfg.Cache.MaxPackages)
			out, err := layer.Generate(cmd.Context(), cache, resolver, packagePath, packagePath)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&packagePath, "package", "", "path to a .sbsar package")
	return cmd
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the in-process caches",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "sbsarctl: caches are owned by the host process's dispatcher; run sbsarctl from within that process to clear them")
			return nil
		},
	}
}
