// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/pkg/config"
	"github.com/inkwell-ai/inkwell/pkg/logging"
)

// --- Global Command Variables ---
var (
	cfgFile       string
	verbose       bool
	logDir        string
	nicheFlag     string
	providerFlag  string
	modelFlag     string
	affiliateFlag bool
	interactive   bool
	serveAddr     string

	appConfig config.Config
	appLogger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "inkwell",
		Short: "A cli to generate long-form articles with a multi-agent pipeline",
		Long: `Inkwell plans, researches, writes, assembles, fact-checks, and
refines long-form articles using a staged agent pipeline over local or
hosted language models.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger, err := logging.New(logging.Config{
				Service: "inkwell",
				Debug:   verbose,
				LogDir:  logDir,
			})
			if err != nil {
				log.Fatalf("Error setting up logging: %v", err)
			}
			appLogger = logger
			slog.SetDefault(logger.Slog())

			appConfig, err = config.Load(cfgFile)
			if err != nil {
				log.Fatalf("Error loading configuration: %v", err)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appLogger != nil {
				_ = appLogger.Close()
			}
		},
	}

	generateCmd = &cobra.Command{
		Use:   "generate [topic]",
		Short: "Generate a complete article for a topic",
		Long: `Generate runs the full pipeline: plan, research, write sections in
parallel, assemble, verify facts, audit quality, and refine. With no
topic argument it discovers one from the --niche, and with
--interactive it lets you pick from discovered candidates first.`,
		Run: runGenerate,
	}

	discoverCmd = &cobra.Command{
		Use:   "discover",
		Short: "Suggest article topics for a niche without writing anything",
		Run:   runDiscover,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP job API for article generation",
		Run:   runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "inkwell.yaml",
		"Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"Also write JSON logs to daily files in this directory")

	generateCmd.Flags().StringVar(&nicheFlag, "niche", "",
		"Niche to discover a topic from when no topic is given")
	generateCmd.Flags().StringVar(&providerFlag, "provider", "",
		"Generation backend for this run (ollama or openai)")
	generateCmd.Flags().StringVar(&modelFlag, "model", "",
		"Model name for this run")
	generateCmd.Flags().BoolVar(&affiliateFlag, "affiliate", false,
		"Plan the article around product recommendations")
	generateCmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"Pick the topic from discovered candidates before writing")

	discoverCmd.Flags().StringVar(&nicheFlag, "niche", "",
		"Niche to discover topics for")
	discoverCmd.Flags().StringVar(&providerFlag, "provider", "",
		"Generation backend for this run (ollama or openai)")
	discoverCmd.Flags().StringVar(&modelFlag, "model", "",
		"Model name for this run")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"Listen address (overrides the configured gateway address)")

	rootCmd.AddCommand(generateCmd, discoverCmd, serveCmd)
}
