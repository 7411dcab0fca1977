// Package pkg provides the core libraries for Spotlight prize draws.
//
// # Overview
//
// Spotlight places participants on concentric rings and runs the ceremony
// that eliminates them one by one until a single winner is revealed. The pkg
// directory is organized into these areas:
//
//  1. [ring] and [draw] - Domain logic (ring layout, selection sequencer)
//  2. [clock] - Schedulers the sequencer runs on (real-time loop, manual clock)
//  3. [campaign] and [sound] - Campaign progress and ceremony cues
//  4. [cache] and [storage] - Infrastructure (layout cache, draw records)
//  5. [integrations] - The data-source client for listings
//  6. [pipeline] and [render] - Orchestration (participants → layout → SVG/PNG/PDF/JSON/DOT)
//
// # Architecture
//
// The typical data flow through Spotlight:
//
//	Roster file / data-source listing
//	         ↓
//	    [pipeline] package (resolve participants, cached layout)
//	         ↓
//	    [ring] package (card positions on concentric rings)
//	         ↓
//	    [draw] package (sequencer on a clock.Scheduler emitting events)
//	         ↓
//	    [render] packages (stage frames) and [storage] (draw records)
//
// # Quick Start
//
// Lay out twelve participants and run a draw on a manual clock:
//
//	import (
//	    "github.com/matzehuels/spotlight/pkg/clock"
//	    "github.com/matzehuels/spotlight/pkg/draw"
//	    "github.com/matzehuels/spotlight/pkg/pipeline"
//	    "github.com/matzehuels/spotlight/pkg/ring"
//	)
//
//	ps := pipeline.Placeholders(12)
//	l := ring.ComputeWithOptions(len(ps), 800, 600, ring.DefaultOptions())
//
//	clk := clock.NewManual()
//	seq, _ := draw.New(clk, ps, l.Positions, draw.WithHandler(func(e draw.Event) {
//	    fmt.Println(e.Kind, e.ParticipantID)
//	}))
//	seq.Start()
//	clk.RunAll(1000)
//
// For production use, run the sequencer on a [clock.Loop] and render frames
// with the [pipeline.Runner], which caches layouts and artifacts.
//
// # Package Organization
//
//   - ring: concentric ring packing and card geometry
//   - draw: the selection sequencer, its events and timings
//   - clock: Scheduler interface, Loop (real time) and Manual (tests)
//   - campaign: progress percentage, sign-up feed and simulator
//   - sound: synthesised cues, WAV export and speaker playback
//   - cache: file, Redis and null caches with key generation
//   - storage: draw records in memory, on disk or in MongoDB
//   - integrations/listings: data-source client for listing winners
//   - pipeline: participants → layout → artifacts, with caching
//   - render/stage/sink: SVG, PNG, PDF and JSON stage output
//   - render/nodelink: Graphviz DOT output of a layout
//   - io: roster import and export
//   - errors: error codes shared by every layer
//   - observability: hooks for logging draw, pipeline and HTTP events
//   - buildinfo: version information injected at build time
package pkg
