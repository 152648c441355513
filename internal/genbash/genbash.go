// Package genbash compiles analysis settings into the shell script that runs
// a loss calculation.
//
// Generation is a single pass through a fixed sequence of phases:
//
//	Reset → PlanFifos(gul) → PlanFifos(il) → EmitConsumers(il) →
//	EmitConsumers(gul) → EmitProducers → MainWait → EmitKats(il) →
//	EmitKats(gul) → KatWait → EmitPostAggregation(il) →
//	EmitPostAggregation(gul) → AalWait → LecWait → TeardownFifos(gul) →
//	TeardownFifos(il) → Done
//
// Every job family's wait is rendered only after all of its jobs have been
// registered, and every pipe is created before and removed after every
// stage that uses it. The same settings and process count always produce
// the same script text.
package genbash

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ktgen/internal/fifo"
	"ktgen/internal/jobs"
	"ktgen/internal/logging"
	"ktgen/internal/script"
	"ktgen/internal/settings"
	"ktgen/internal/stages"
)

// ErrNoProcesses is returned when the process count is below one.
var ErrNoProcesses = errors.New("process count must be at least 1")

// Phase is one step of script generation.
type Phase int

const (
	Reset Phase = iota
	PlanFifosGUL
	PlanFifosIL
	EmitConsumersIL
	EmitConsumersGUL
	EmitProducers
	MainWait
	EmitKatsIL
	EmitKatsGUL
	KatWait
	EmitPostAggregationIL
	EmitPostAggregationGUL
	AalWait
	LecWait
	TeardownFifosGUL
	TeardownFifosIL
	Done
)

var phaseNames = [...]string{
	Reset:                  "Reset",
	PlanFifosGUL:           "PlanFifos(gul)",
	PlanFifosIL:            "PlanFifos(il)",
	EmitConsumersIL:        "EmitConsumers(il)",
	EmitConsumersGUL:       "EmitConsumers(gul)",
	EmitProducers:          "EmitProducers",
	MainWait:               "MainWait",
	EmitKatsIL:             "EmitKats(il)",
	EmitKatsGUL:            "EmitKats(gul)",
	KatWait:                "KatWait",
	EmitPostAggregationIL:  "EmitPostAggregation(il)",
	EmitPostAggregationGUL: "EmitPostAggregation(gul)",
	AalWait:                "AalWait",
	LecWait:                "LecWait",
	TeardownFifosGUL:       "TeardownFifos(gul)",
	TeardownFifosIL:        "TeardownFifos(il)",
	Done:                   "Done",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Result is a generated script plus the plan it was built from.
type Result struct {
	Script    *script.Script
	Processes int
	// Fifos lists every pipe the script creates: gul first, then il.
	Fifos []fifo.Fifo
	// Jobs is the per-family job count, keyed by family name.
	Jobs map[string]int
	// Phases records the phases entered, in order.
	Phases []Phase
}

// Option configures Generate.
type Option func(*generator)

// WithLogger logs phase transitions and a plan summary to l.
func WithLogger(l *logging.Logger) Option {
	return func(g *generator) { g.log = l }
}

// WithContext sets the context used for log entries.
func WithContext(ctx context.Context) Option {
	return func(g *generator) { g.ctx = ctx }
}

type generator struct {
	ctx      context.Context
	log      *logging.Logger
	settings *settings.AnalysisSettings
	n        int
	out      *script.Script
	build    *stages.Builder
	jobs     *jobs.WaitGroup
	phase    Phase
	phases   []Phase
	fifos    []fifo.Fifo
}

// Generate builds the script for s running n processes.
func Generate(s *settings.AnalysisSettings, n int, opts ...Option) (*Result, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoProcesses, n)
	}
	if s == nil {
		return nil, errors.New("nil analysis settings")
	}
	wg := jobs.New()
	g := &generator{
		ctx:      context.Background(),
		log:      logging.NewNop(),
		settings: s,
		n:        n,
		out:      script.New(),
		build:    stages.NewBuilder(s, n, wg),
		jobs:     wg,
		phase:    -1,
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := g.run(); err != nil {
		return nil, err
	}
	g.log.Info(g.ctx, "generated script",
		zap.Int("processes", n),
		zap.Int("fifos", len(g.fifos)),
		zap.Int("lines", len(g.out.Lines())),
		zap.Any("jobs", wg.Counts()),
	)
	return &Result{
		Script:    g.out,
		Processes: n,
		Fifos:     g.fifos,
		Jobs:      wg.Counts(),
		Phases:    g.phases,
	}, nil
}

// enter moves to phase p. Phases only move forward.
func (g *generator) enter(p Phase) error {
	if p <= g.phase {
		return fmt.Errorf("genbash: phase %s entered after %s", p, g.phase)
	}
	g.phase = p
	g.phases = append(g.phases, p)
	g.log.Debug(g.ctx, "phase", zap.Stringer("phase", p))
	return nil
}

func (g *generator) run() error {
	steps := []struct {
		phase Phase
		emit  func()
	}{
		{Reset, g.reset},
		{PlanFifosGUL, func() { g.planFifos(settings.GUL) }},
		{PlanFifosIL, func() { g.planFifos(settings.IL) }},
		{EmitConsumersIL, func() { g.consumers(settings.IL) }},
		{EmitConsumersGUL, func() { g.consumers(settings.GUL) }},
		{EmitProducers, g.producers},
		{MainWait, func() { g.wait(jobs.Main) }},
		{EmitKatsIL, func() { g.kats(settings.IL) }},
		{EmitKatsGUL, func() { g.kats(settings.GUL) }},
		{KatWait, func() { g.wait(jobs.Kat) }},
		{EmitPostAggregationIL, func() { g.postAggregation(settings.IL) }},
		{EmitPostAggregationGUL, func() { g.postAggregation(settings.GUL) }},
		{AalWait, func() { g.waitLine(jobs.AAL) }},
		{LecWait, func() { g.waitLine(jobs.LEC); g.out.Blank() }},
		{TeardownFifosGUL, func() { g.teardown(settings.GUL) }},
		{TeardownFifosIL, func() { g.teardown(settings.IL) }},
		{Done, g.done},
	}
	for _, st := range steps {
		if err := g.enter(st.phase); err != nil {
			return err
		}
		st.emit()
	}
	return nil
}

// ---------------------------------------------------------------------------
// Phases
// ---------------------------------------------------------------------------

func (g *generator) reset() {
	g.out.Add("#!/bin/bash")
	g.out.Blank()
	g.out.Add("rm -R -f output/*", "rm -R -f fifo/*", "rm -R -f work/*")
	g.out.Blank()
	g.out.Add("mkdir work/kat")
	g.out.Blank()
}

func (g *generator) planFifos(rt settings.RunType) {
	plan := fifo.Plan(rt, g.settings, g.n)
	g.fifos = append(g.fifos, plan...)
	for _, group := range fifo.ByProcess(plan) {
		g.out.Add(fifo.MakeCommands(group)...)
		g.out.Blank()
	}
	g.out.Add(g.build.WorkFolders(rt)...)
	g.out.Blank()
}

func (g *generator) consumers(rt settings.RunType) {
	if !g.build.Planned(rt) {
		return
	}
	g.out.Comment(fmt.Sprintf("Do %s computes", label(rt)))
	g.out.Blank()
	for _, group := range g.build.RunType(rt) {
		g.out.Add(group...)
		g.out.Blank()
	}
}

func (g *generator) producers() {
	g.out.Add(g.build.Producers()...)
	g.out.Blank()
}

func (g *generator) kats(rt settings.RunType) {
	cmds := g.build.Kats(rt)
	if len(cmds) == 0 {
		return
	}
	g.out.Comment(fmt.Sprintf("Do %s kats", label(rt)))
	g.out.Blank()
	g.out.Add(cmds...)
	g.out.Blank()
}

func (g *generator) postAggregation(rt settings.RunType) {
	g.out.Add(g.build.PostAggregation(rt)...)
	if rt == settings.GUL {
		g.out.Blank()
	}
}

// wait emits f's barrier followed by a blank line.
func (g *generator) wait(f jobs.Family) {
	g.waitLine(f)
	g.out.Blank()
}

func (g *generator) waitLine(f jobs.Family) {
	if cmd, ok := g.jobs.RenderWait(f); ok {
		g.out.Add(cmd)
	}
}

func (g *generator) teardown(rt settings.RunType) {
	for _, group := range fifo.ByProcess(fifo.Teardown(rt, g.settings, g.n)) {
		g.out.Add(fifo.RemoveCommands(group)...)
		g.out.Blank()
	}
	g.out.Add(g.build.RemoveWorkFolders(rt)...)
	g.out.Blank()
}

func (g *generator) done() {
	g.out.Add("rm -rf work/kat")
}

func label(rt settings.RunType) string {
	if rt == settings.IL {
		return "insured loss"
	}
	return "ground up loss"
}
