// Package stages builds the shell commands of the calculation topology:
// producers feed a run-type pipe, summarycalc fans it out per summary set,
// tee splits each summary stream across its consumers, and after the main
// barrier kat, aalsummary and leccalc aggregate the per-process results.
//
// Every builder method returns its commands instead of writing them, and
// registers background jobs with the WaitGroup the Builder was created with.
package stages

import (
	"fmt"
	"strconv"
	"strings"

	"ktgen/internal/fifo"
	"ktgen/internal/jobs"
	"ktgen/internal/settings"
)

// Builder turns analysis settings into commands for one script. It is not
// reusable across scripts because its WaitGroup is not.
type Builder struct {
	settings  *settings.AnalysisSettings
	processes int
	jobs      *jobs.WaitGroup
}

// NewBuilder returns a Builder for n processes recording jobs in wg.
func NewBuilder(s *settings.AnalysisSettings, n int, wg *jobs.WaitGroup) *Builder {
	return &Builder{settings: s, processes: n, jobs: wg}
}

// Jobs returns the WaitGroup the builder registers jobs with.
func (b *Builder) Jobs() *jobs.WaitGroup {
	return b.jobs
}

// Planned reports whether rt has pipes and stages in this script.
func (b *Builder) Planned(rt settings.RunType) bool {
	return b.settings.Enabled(rt) && len(b.settings.ActiveSummaries(rt)) > 0
}

func (b *Builder) summaries(rt settings.RunType) []settings.SummarySpec {
	if !b.Planned(rt) {
		return nil
	}
	return b.settings.ActiveSummaries(rt)
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// KatPath is the per-process CSV that kat later merges.
func KatPath(rt settings.RunType, id int, o settings.Output, pid int) string {
	return fmt.Sprintf("work/kat/%s_S%d_%s_P%d", rt, id, o, pid)
}

// OutputPath is the merged CSV for a kat-merged consumer.
func OutputPath(rt settings.RunType, id int, o settings.Output) string {
	return fmt.Sprintf("output/%s_S%d_%s.csv", rt, id, o)
}

// AALDir holds the per-process aalcalc binaries of one summary.
func AALDir(rt settings.RunType, id int) string {
	return fmt.Sprintf("work/%s_S%d_aalcalc", rt, id)
}

// LECDir holds the per-process summary binaries leccalc reads.
func LECDir(rt settings.RunType, id int) string {
	return fmt.Sprintf("work/%s_S%d_summaryleccalc", rt, id)
}

// LECOutputPath is the CSV leccalc writes for one curve option.
func LECOutputPath(rt settings.RunType, id int, opt settings.LECOption) string {
	return fmt.Sprintf("output/%s_S%d_leccalc_%s.csv", rt, id, opt.Name)
}

// ---------------------------------------------------------------------------
// Per-process stages
// ---------------------------------------------------------------------------

// Consumers returns the consumer stages of rt for process pid. Each reads
// its tee branch and is a Main job. Process 1 writes CSV headers; later
// processes pass -s so the kat merge carries a single header.
func (b *Builder) Consumers(rt settings.RunType, pid int) []string {
	var out []string
	for _, sum := range b.summaries(rt) {
		for _, o := range settings.Consumers {
			if !sum.Wants(o) {
				continue
			}
			in := fifo.BranchPath(rt, sum.ID, o, pid)
			var cmd string
			if o.Merged() {
				tool := o.Tool()
				if pid != 1 {
					tool += " -s"
				}
				cmd = fmt.Sprintf("%s < %s > %s", tool, in, KatPath(rt, sum.ID, o, pid))
			} else {
				cmd = fmt.Sprintf("%s < %s > %s/P%d.bin", o.Tool(), in, AALDir(rt, sum.ID), pid)
			}
			out = append(out, b.jobs.Background(jobs.Main, cmd))
		}
	}
	return out
}

// Tees returns one tee per summary of rt for process pid, splitting the
// summary stream into each consumer branch plus the leccalc work file.
func (b *Builder) Tees(rt settings.RunType, pid int) []string {
	var out []string
	for _, sum := range b.summaries(rt) {
		sinks := []string{"tee <", fifo.SummaryPath(rt, sum.ID, pid)}
		for _, o := range settings.Consumers {
			if sum.Wants(o) {
				sinks = append(sinks, fifo.BranchPath(rt, sum.ID, o, pid))
			}
		}
		if sum.LECEnabled() {
			sinks = append(sinks, fmt.Sprintf("%s/P%d.bin", LECDir(rt, sum.ID), pid))
		}
		sinks = append(sinks, "> /dev/null")
		out = append(out, b.jobs.Background(jobs.Main, strings.Join(sinks, " ")))
	}
	return out
}

// SummaryCalc returns the summarycalc stage of rt for process pid: it reads
// the run-type pipe and writes every summary set pipe. It is not a tracked
// job; its readers are.
func (b *Builder) SummaryCalc(rt settings.RunType, pid int) []string {
	summaries := b.summaries(rt)
	if len(summaries) == 0 {
		return nil
	}
	sw := "-g"
	if rt == settings.IL {
		sw = "-f"
	}
	parts := []string{"summarycalc", sw}
	for _, sum := range summaries {
		parts = append(parts, fmt.Sprintf("-%d", sum.ID), fifo.SummaryPath(rt, sum.ID, pid))
	}
	parts = append(parts, "<", fifo.RunPath(rt, pid), "&")
	return []string{strings.Join(parts, " ")}
}

// RunType returns the consumer, tee and summarycalc stages of rt for every
// process, each kind grouped across processes, readers first.
func (b *Builder) RunType(rt settings.RunType) [][]string {
	var consumers, tees, calcs []string
	for pid := 1; pid <= b.processes; pid++ {
		consumers = append(consumers, b.Consumers(rt, pid)...)
	}
	for pid := 1; pid <= b.processes; pid++ {
		tees = append(tees, b.Tees(rt, pid)...)
	}
	for pid := 1; pid <= b.processes; pid++ {
		calcs = append(calcs, b.SummaryCalc(rt, pid)...)
	}
	return [][]string{consumers, tees, calcs}
}

// ---------------------------------------------------------------------------
// Producers
// ---------------------------------------------------------------------------

// gulcalc returns "getmodel | gulcalc ..." with the given coverage and item
// stream targets; empty targets are omitted.
func (b *Builder) gulcalc(coverage, item string) string {
	cmd := fmt.Sprintf("getmodel | gulcalc -S%d -L%s",
		b.settings.NumberOfSamples, strconv.FormatFloat(b.settings.GULThreshold, 'f', -1, 64))
	if b.settings.UseRandomNumberFile() {
		cmd += " -r"
	}
	if coverage != "" {
		cmd += " -c " + coverage
	}
	if item != "" {
		cmd += " -i " + item
	}
	return cmd
}

// Producer returns the loss-generating pipeline for process pid.
//
// When il is planned a single eve | getmodel | gulcalc | fmcalc pipeline
// feeds the il pipe; if gul is planned too, gulcalc writes its coverage
// stream straight into the gul pipe. A gul-only run pipes gulcalc coverage
// output into the gul pipe. Nothing is produced when neither is planned.
func (b *Builder) Producer(pid int) []string {
	eve := fmt.Sprintf("eve %d %d", pid, b.processes)
	gul, il := b.Planned(settings.GUL), b.Planned(settings.IL)
	switch {
	case il:
		coverage := ""
		if gul {
			coverage = fifo.RunPath(settings.GUL, pid)
		}
		return []string{fmt.Sprintf("%s | %s | fmcalc > %s &",
			eve, b.gulcalc(coverage, "-"), fifo.RunPath(settings.IL, pid))}
	case gul:
		return []string{fmt.Sprintf("%s | %s > %s &",
			eve, b.gulcalc("-", ""), fifo.RunPath(settings.GUL, pid))}
	}
	return nil
}

// Producers returns the producer of every process in process order.
func (b *Builder) Producers() []string {
	var out []string
	for pid := 1; pid <= b.processes; pid++ {
		out = append(out, b.Producer(pid)...)
	}
	return out
}

// ---------------------------------------------------------------------------
// Aggregation
// ---------------------------------------------------------------------------

// Kats returns one kat merge per kat-merged consumer of every summary of
// rt, concatenating process 1..n outputs in order. Each is a Kat job.
func (b *Builder) Kats(rt settings.RunType) []string {
	var out []string
	for _, sum := range b.summaries(rt) {
		for _, o := range settings.Consumers {
			if !o.Merged() || !sum.Wants(o) {
				continue
			}
			parts := []string{"kat"}
			for pid := 1; pid <= b.processes; pid++ {
				parts = append(parts, KatPath(rt, sum.ID, o, pid))
			}
			parts = append(parts, ">", OutputPath(rt, sum.ID, o))
			out = append(out, b.jobs.Background(jobs.Kat, strings.Join(parts, " ")))
		}
	}
	return out
}

// PostAggregation returns aalsummary (AAL job) and leccalc (LEC job)
// commands for the summaries of rt, per summary in that order.
func (b *Builder) PostAggregation(rt settings.RunType) []string {
	var out []string
	for _, sum := range b.summaries(rt) {
		if sum.Aalcalc {
			cmd := fmt.Sprintf("aalsummary -K%s_S%d_aalcalc > output/%s_S%d_aalcalc.csv", rt, sum.ID, rt, sum.ID)
			out = append(out, b.jobs.Background(jobs.AAL, cmd))
		}
		if sum.LECEnabled() {
			out = append(out, b.jobs.Background(jobs.LEC, leccalc(rt, sum)))
		}
	}
	return out
}

func leccalc(rt settings.RunType, sum settings.SummarySpec) string {
	parts := []string{"leccalc"}
	if sum.Leccalc.ReturnPeriodFile {
		parts = append(parts, "-r")
	}
	parts = append(parts, fmt.Sprintf("-K%s_S%d_summaryleccalc", rt, sum.ID))
	for _, opt := range sum.Leccalc.Selected() {
		parts = append(parts, opt.Switch, LECOutputPath(rt, sum.ID, opt))
	}
	return strings.Join(parts, " ")
}

// ---------------------------------------------------------------------------
// Work folders
// ---------------------------------------------------------------------------

// WorkFolders returns the mkdir commands for rt's per-summary binary folders.
func (b *Builder) WorkFolders(rt settings.RunType) []string {
	var out []string
	for _, dir := range b.workDirs(rt) {
		out = append(out, "mkdir "+dir)
	}
	return out
}

// RemoveWorkFolders empties and removes the folders WorkFolders creates.
func (b *Builder) RemoveWorkFolders(rt settings.RunType) []string {
	var out []string
	for _, dir := range b.workDirs(rt) {
		out = append(out, "rm "+dir+"/*", "rmdir "+dir)
	}
	return out
}

func (b *Builder) workDirs(rt settings.RunType) []string {
	var dirs []string
	for _, sum := range b.summaries(rt) {
		if sum.LECEnabled() {
			dirs = append(dirs, LECDir(rt, sum.ID))
		}
		if sum.Aalcalc {
			dirs = append(dirs, AALDir(rt, sum.ID))
		}
	}
	return dirs
}
