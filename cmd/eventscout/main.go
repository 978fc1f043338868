// Package main provides the eventscout CLI, a search-and-browse client for a
// remote events catalog.
//
// # Basic Usage
//
// Search for events:
//
//	eventscout search music --city Berlin
//
// Walk every result page:
//
//	eventscout search music --all
//
// Inspect one event and favorite it:
//
//	eventscout event G5vYZ4
//	eventscout favorites add G5vYZ4
//
// # Environment Variables
//
//   - EVENTSCOUT_CONFIG: Path to configuration file (default: eventscout.yaml)
//   - TM_API_KEY: catalog API key, referenced as ${TM_API_KEY} in the config
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	root := &cobra.Command{
		Use:           "eventscout",
		Short:         "Search a remote events catalog and keep favorites",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var (
		configPath string
		debug      bool
	)
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}

	root.AddCommand(
		buildLoginCmd(&configPath),
		buildSignupCmd(&configPath),
		buildLogoutCmd(&configPath),
		buildWhoamiCmd(&configPath),
		buildSearchCmd(&configPath),
		buildEventCmd(&configPath),
		buildFavoritesCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
