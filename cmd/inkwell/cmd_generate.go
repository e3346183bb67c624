// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/pkg/validation"
	"github.com/inkwell-ai/inkwell/services/pipeline"
)

func runGenerate(cmd *cobra.Command, args []string) {
	topic := strings.Join(args, " ")
	if topic == "" && !interactive && nicheFlag == "" {
		log.Fatalf("A topic is required. Pass one as an argument, or use --niche or --interactive to discover one.")
	}
	if topic != "" {
		var err error
		if topic, err = validation.SanitizeTopic(topic); err != nil {
			log.Fatalf("Invalid topic: %v", err)
		}
	}
	niche := nicheFlag
	if niche != "" {
		var err error
		if niche, err = validation.SanitizeTopic(niche); err != nil {
			log.Fatalf("Invalid niche: %v", err)
		}
	}

	a, err := buildApp(appConfig)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := pipeline.PipelineState{
		RunID:       pipeline.NewRunID(),
		Topic:       topic,
		Niche:       niche,
		Provider:    providerFlag,
		Model:       modelFlag,
		Discover:    topic == "",
		Interactive: interactive,
		Affiliate:   affiliateFlag,
	}

	final, stage, err := a.executeRun(ctx, st)
	if err != nil {
		log.Fatalf("Run %s failed in stage %s: %v", st.RunID, stage, err)
	}

	// Interactive discovery stops after the candidate list; the chosen
	// topic gets its own full run.
	if interactive && final.ArticleHandle == "" && len(final.TopicCandidates) > 0 {
		chosen, err := promptForTopic(os.Stdin, os.Stdout, final.TopicCandidates)
		if err != nil {
			log.Fatalf("Topic selection failed: %v", err)
		}

		st = pipeline.PipelineState{
			RunID:     pipeline.NewRunID(),
			Topic:     chosen,
			Provider:  providerFlag,
			Model:     modelFlag,
			Affiliate: affiliateFlag,
		}
		final, stage, err = a.executeRun(ctx, st)
		if err != nil {
			log.Fatalf("Run %s failed in stage %s: %v", st.RunID, stage, err)
		}
	}

	printRunSummary(os.Stdout, final)
}

// promptForTopic lists discovered candidates and reads a selection.
// An empty line picks the top candidate.
func promptForTopic(in io.Reader, out io.Writer, candidates []pipeline.TopicCandidate) (string, error) {
	fmt.Fprintln(out, "\nDiscovered topics:")
	for i, c := range candidates {
		fmt.Fprintf(out, "  %d. %s (score %.2f)\n", i+1, c.Topic, c.Score)
	}
	fmt.Fprintf(out, "\nPick a topic [1-%d, enter for 1]: ", len(candidates))

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return candidates[0].Topic, nil
	}

	line := strings.TrimSpace(scanner.Text())
	if line == "" {
		return candidates[0].Topic, nil
	}
	choice, err := strconv.Atoi(line)
	if err != nil || choice < 1 || choice > len(candidates) {
		return "", fmt.Errorf("invalid selection %q", line)
	}
	return candidates[choice-1].Topic, nil
}

func printRunSummary(out io.Writer, final pipeline.PipelineState) {
	fmt.Fprintln(out, "---")
	if final.ArticleHandle != "" {
		fmt.Fprintf(out, "Article written: %s\n", final.ArticleHandle)
		fmt.Fprintf(out, "Topic:           %s\n", final.Topic)
		fmt.Fprintf(out, "Revisions:       %d\n", final.Revision.Revisions)
	} else if len(final.TopicCandidates) > 0 {
		fmt.Fprintln(out, "Discovered topics:")
		for _, c := range final.TopicCandidates {
			fmt.Fprintf(out, "  %.2f  %s\n", c.Score, c.Topic)
		}
	}
	if len(final.Diagnostics) > 0 {
		fmt.Fprintln(out, "Diagnostics:")
		for _, d := range final.Diagnostics {
			fmt.Fprintf(out, "  - %s\n", d)
		}
	}
}
