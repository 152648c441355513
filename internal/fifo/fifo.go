// Package fifo plans the named pipes a generated script creates and removes.
//
// Pipe names concatenate run type, summary id, stage and process id:
//
//	fifo/gul_P1                  run-type stream for process 1
//	fifo/gul_S1_summary_P1       summary set 1 stream
//	fifo/gul_S1_summaryeltcalc_P1  tee branch feeding eltcalc
//	fifo/gul_S1_eltcalc_P1       eltcalc stage pipe
//
// aalcalc only has the tee branch; its result goes to a binary work file.
package fifo

import (
	"fmt"

	"ktgen/internal/settings"
)

// Dir is the directory, relative to the run directory, holding every pipe.
const Dir = "fifo"

// Fifo is one named pipe and the stage that owns it.
type Fifo struct {
	Path      string
	RunType   settings.RunType
	SummaryID int    // 0 for the run-type stream
	Stage     string // "" for the run-type stream, else "summary", "summaryeltcalc", "eltcalc", ...
	ProcessID int
}

// RunPath is the pipe carrying rt's loss stream for process pid.
func RunPath(rt settings.RunType, pid int) string {
	return fmt.Sprintf("%s/%s_P%d", Dir, rt, pid)
}

// StagePath is the pipe for stage of summary id in process pid.
func StagePath(rt settings.RunType, id int, stage string, pid int) string {
	return fmt.Sprintf("%s/%s_S%d_%s_P%d", Dir, rt, id, stage, pid)
}

// SummaryPath is the pipe summarycalc writes summary id into.
func SummaryPath(rt settings.RunType, id, pid int) string {
	return StagePath(rt, id, "summary", pid)
}

// BranchPath is the tee branch feeding consumer o.
func BranchPath(rt settings.RunType, id int, o settings.Output, pid int) string {
	return StagePath(rt, id, "summary"+string(o), pid)
}

// Plan returns every pipe rt needs across processes 1..n, grouped by
// process id. Run types without output or without an active summary need
// none.
func Plan(rt settings.RunType, s *settings.AnalysisSettings, n int) []Fifo {
	if !s.Enabled(rt) {
		return nil
	}
	summaries := s.ActiveSummaries(rt)
	if len(summaries) == 0 {
		return nil
	}
	var out []Fifo
	for pid := 1; pid <= n; pid++ {
		out = append(out, Fifo{Path: RunPath(rt, pid), RunType: rt, ProcessID: pid})
		for _, sum := range summaries {
			out = append(out, stage(rt, sum.ID, "summary", pid))
			for _, o := range settings.Consumers {
				if !sum.Wants(o) {
					continue
				}
				out = append(out, stage(rt, sum.ID, "summary"+string(o), pid))
				if o.Merged() {
					out = append(out, stage(rt, sum.ID, string(o), pid))
				}
			}
		}
	}
	return out
}

// Teardown returns the pipes to remove once rt's stages are done. It is the
// same sequence Plan creates.
func Teardown(rt settings.RunType, s *settings.AnalysisSettings, n int) []Fifo {
	return Plan(rt, s, n)
}

func stage(rt settings.RunType, id int, name string, pid int) Fifo {
	return Fifo{
		Path:      StagePath(rt, id, name, pid),
		RunType:   rt,
		SummaryID: id,
		Stage:     name,
		ProcessID: pid,
	}
}

// MakeCommands returns one mkfifo command per pipe.
func MakeCommands(fifos []Fifo) []string {
	return commands("mkfifo", fifos)
}

// RemoveCommands returns one rm command per pipe.
func RemoveCommands(fifos []Fifo) []string {
	return commands("rm", fifos)
}

func commands(action string, fifos []Fifo) []string {
	out := make([]string, len(fifos))
	for i, f := range fifos {
		out[i] = action + " " + f.Path
	}
	return out
}

// ByProcess splits a plan into consecutive per-process groups, preserving order.
func ByProcess(fifos []Fifo) [][]Fifo {
	var groups [][]Fifo
	for i, f := range fifos {
		if i == 0 || f.ProcessID != fifos[i-1].ProcessID {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], f)
	}
	return groups
}
