// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// FanOutConfig controls the section writing phase.
type FanOutConfig struct {
	// Workers caps concurrent section generations. Zero means
	// DefaultFanOutWorkers.
	Workers int

	// RequestsPerSecond throttles calls to the section author across
	// all workers. Zero disables throttling.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size. Zero means Workers.
	Burst int
}

// DefaultFanOutWorkers bounds section concurrency when unset.
const DefaultFanOutWorkers = 4

// Coordinator runs the fan-out phase: every blueprint section is
// written concurrently, each unit's failure is confined to that unit,
// and results are collected by order key so the merge is deterministic.
//
// Thread Safety:
//
//	Coordinator is safe for concurrent use; each WriteAll call owns its
//	own result slice.
type Coordinator struct {
	workers int
	limiter *rate.Limiter
}

// NewCoordinator creates a fan-out coordinator.
func NewCoordinator(cfg FanOutConfig) *Coordinator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultFanOutWorkers
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = workers
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Coordinator{workers: workers, limiter: limiter}
}

// WriteAll generates every section of the blueprint concurrently.
//
// # Description
//
//	Each section is one isolated unit of work. A unit that fails keeps
//	its slot: the result carries a placeholder body and Failed=true,
//	and the remaining units keep running. Only context cancellation
//	aborts the whole phase.
//
// Inputs:
//
//	ctx - Cancels the whole phase at the next unit boundary
//	author - Section generator, called concurrently
//	bp - Validated blueprint
//	sel - Provider and model for section generation
//
// Outputs:
//
//	[]SectionResult - One result per blueprint section, sorted by order
//	error - Non-nil only when ctx was cancelled
func (c *Coordinator) WriteAll(ctx context.Context, author SectionAuthor, bp *Blueprint, sel ModelSelection) ([]SectionResult, error) {
	results := make([]SectionResult, len(bp.Sections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, spec := range bp.Sections {
		g.Go(func() error {
			if c.limiter != nil {
				if err := c.limiter.Wait(gctx); err != nil {
					return err
				}
			}

			res, err := author.WriteSection(gctx, spec, i, sel)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Warn("Section generation failed, inserting placeholder",
					slog.Int("order", i),
					slog.String("heading", spec.Heading),
					slog.String("error", err.Error()))
				results[i] = placeholderSection(spec, i)
				return nil
			}

			res.Order = i
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// placeholderSection keeps a failed unit's slot in the article so the
// remaining sections still assemble in order.
func placeholderSection(spec SectionSpec, order int) SectionResult {
	return SectionResult{
		Order:  order,
		Text:   fmt.Sprintf("## %s\n\n*Content for this section could not be generated.*", spec.Heading),
		Failed: true,
	}
}
