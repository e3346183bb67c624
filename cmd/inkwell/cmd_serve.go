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
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/services/gateway"
)

func runServe(cmd *cobra.Command, args []string) {
	a, err := buildApp(appConfig)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.close()

	cleanup, err := gateway.InitTracer(context.Background(), appConfig.Gateway.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to set up the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	addr := serveAddr
	if addr == "" {
		addr = appConfig.Gateway.Addr
	}

	srv := gateway.NewServer(a.executor, a.journal, slog.Default())

	slog.Info("Starting the Inkwell gateway", "addr", addr)
	if err := srv.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
