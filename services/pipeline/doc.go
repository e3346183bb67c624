// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pipeline implements the article generation state machine.
//
// A pipeline run threads a single PipelineState value through a fixed
// sequence of stages: optional topic discovery, blueprint planning,
// research ingestion, a parallel section writing phase, assembly, and a
// bounded revision cycle driven by fact verification and quality audits.
//
// Stage logic never mutates state in place. Each stage returns a Delta
// which the executor folds into the state before routing to the next
// stage. Routing decisions are pure functions of the resulting state, so
// a run can be replayed from any recorded state snapshot.
//
// The revision cycle is bounded twice over: a per-run revision budget
// caps how many times the refiner may rewrite the article, and the
// executor enforces an overall step budget that terminates the run with
// a diagnostic if any cycle fails to converge.
package pipeline
