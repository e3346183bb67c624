// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/pkg/validation"
	"github.com/inkwell-ai/inkwell/services/pipeline"
)

func runDiscover(cmd *cobra.Command, args []string) {
	if nicheFlag == "" {
		log.Fatalf("--niche is required for topic discovery")
	}
	niche, err := validation.SanitizeTopic(nicheFlag)
	if err != nil {
		log.Fatalf("Invalid niche: %v", err)
	}

	a, err := buildApp(appConfig)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := pipeline.PipelineState{
		RunID:         pipeline.NewRunID(),
		Niche:         niche,
		Provider:      providerFlag,
		Model:         modelFlag,
		Discover:      true,
		OnlyDiscovery: true,
	}

	final, stage, err := a.executeRun(ctx, st)
	if err != nil {
		log.Fatalf("Discovery run %s failed in stage %s: %v", st.RunID, stage, err)
	}

	printRunSummary(os.Stdout, final)
}
