package fifo_test

import (
	"testing"

	"ktgen/internal/fifo"
	"ktgen/internal/settings"
)

func gulEltcalc() *settings.AnalysisSettings {
	return &settings.AnalysisSettings{
		GULOutput:       true,
		NumberOfSamples: 10,
		GULSummaries:    []settings.SummarySpec{{ID: 1, Eltcalc: true}},
	}
}

func paths(fifos []fifo.Fifo) []string {
	out := make([]string, len(fifos))
	for i, f := range fifos {
		out[i] = f.Path
	}
	return out
}

func TestPlanGulEltcalc(t *testing.T) {
	got := paths(fifo.Plan(settings.GUL, gulEltcalc(), 2))
	want := []string{
		"fifo/gul_P1",
		"fifo/gul_S1_summary_P1",
		"fifo/gul_S1_summaryeltcalc_P1",
		"fifo/gul_S1_eltcalc_P1",
		"fifo/gul_P2",
		"fifo/gul_S1_summary_P2",
		"fifo/gul_S1_summaryeltcalc_P2",
		"fifo/gul_S1_eltcalc_P2",
	}
	if len(got) != len(want) {
		t.Fatalf("Plan = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Plan[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPlanAllConsumers(t *testing.T) {
	s := &settings.AnalysisSettings{
		ILOutput: true,
		ILSummaries: []settings.SummarySpec{
			{ID: 4, Eltcalc: true, Pltcalc: true, Summarycalc: true, Aalcalc: true},
		},
	}
	got := paths(fifo.Plan(settings.IL, s, 1))
	want := []string{
		"fifo/il_P1",
		"fifo/il_S4_summary_P1",
		"fifo/il_S4_summaryeltcalc_P1",
		"fifo/il_S4_eltcalc_P1",
		"fifo/il_S4_summarypltcalc_P1",
		"fifo/il_S4_pltcalc_P1",
		"fifo/il_S4_summarysummarycalc_P1",
		"fifo/il_S4_summarycalc_P1",
		"fifo/il_S4_summaryaalcalc_P1",
	}
	if len(got) != len(want) {
		t.Fatalf("Plan = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Plan[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPlanSkipsDisabledAndInert(t *testing.T) {
	tests := []struct {
		name string
		s    *settings.AnalysisSettings
		rt   settings.RunType
	}{
		{"output off", &settings.AnalysisSettings{GULSummaries: []settings.SummarySpec{{ID: 1, Eltcalc: true}}}, settings.GUL},
		{"no summaries", &settings.AnalysisSettings{ILOutput: true}, settings.IL},
		{"only inert summaries", &settings.AnalysisSettings{GULOutput: true,
			GULSummaries: []settings.SummarySpec{{ID: 1}, {ID: 2, LECOutput: true}}}, settings.GUL},
		{"other run type", gulEltcalc(), settings.IL},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := fifo.Plan(tc.rt, tc.s, 3); len(got) != 0 {
				t.Errorf("Plan = %v, want none", paths(got))
			}
		})
	}
}

func TestPlanLecOnlySummaryHasNoConsumerPipes(t *testing.T) {
	s := &settings.AnalysisSettings{
		GULOutput: true,
		GULSummaries: []settings.SummarySpec{{ID: 2, LECOutput: true,
			Leccalc: &settings.LecSpec{Outputs: map[string]bool{"wheatsheaf_aep": true}}}},
	}
	got := paths(fifo.Plan(settings.GUL, s, 1))
	if len(got) != 2 || got[1] != "fifo/gul_S2_summary_P1" {
		t.Errorf("Plan = %v", got)
	}
}

func TestPlanOwners(t *testing.T) {
	for _, f := range fifo.Plan(settings.GUL, gulEltcalc(), 3) {
		if f.RunType != settings.GUL {
			t.Errorf("%s: run type %q", f.Path, f.RunType)
		}
		if f.ProcessID < 1 || f.ProcessID > 3 {
			t.Errorf("%s: process %d", f.Path, f.ProcessID)
		}
		if f.Stage == "" && f.SummaryID != 0 {
			t.Errorf("%s: run stream owned by summary %d", f.Path, f.SummaryID)
		}
	}
}

// Teardown removes the same pipes, in the same order, as Plan creates.
func TestTeardownSymmetry(t *testing.T) {
	settingsCases := []*settings.AnalysisSettings{
		gulEltcalc(),
		{
			GULOutput: true,
			ILOutput:  true,
			GULSummaries: []settings.SummarySpec{
				{ID: 1, Aalcalc: true},
				{ID: 2, Pltcalc: true, Summarycalc: true},
			},
			ILSummaries: []settings.SummarySpec{
				{ID: 1, Eltcalc: true, LECOutput: true,
					Leccalc: &settings.LecSpec{Outputs: map[string]bool{"full_uncertainty_oep": true}}},
			},
		},
	}
	for _, s := range settingsCases {
		for _, rt := range settings.RunTypes {
			for _, n := range []int{1, 2, 5} {
				made := paths(fifo.Plan(rt, s, n))
				removed := paths(fifo.Teardown(rt, s, n))
				if len(made) != len(removed) {
					t.Fatalf("%s/%d: made %d, removed %d", rt, n, len(made), len(removed))
				}
				for i := range made {
					if made[i] != removed[i] {
						t.Errorf("%s/%d: [%d] made %q removed %q", rt, n, i, made[i], removed[i])
					}
				}
			}
		}
	}
}

func TestCommands(t *testing.T) {
	plan := fifo.Plan(settings.GUL, gulEltcalc(), 1)
	mk := fifo.MakeCommands(plan)
	rm := fifo.RemoveCommands(plan)
	if mk[0] != "mkfifo fifo/gul_P1" || rm[0] != "rm fifo/gul_P1" {
		t.Errorf("commands: %q / %q", mk[0], rm[0])
	}
	if len(mk) != len(plan) || len(rm) != len(plan) {
		t.Errorf("command count mismatch")
	}
}

func TestByProcess(t *testing.T) {
	groups := fifo.ByProcess(fifo.Plan(settings.GUL, gulEltcalc(), 3))
	if len(groups) != 3 {
		t.Fatalf("groups = %d", len(groups))
	}
	for i, g := range groups {
		if len(g) != 4 {
			t.Errorf("group %d has %d pipes", i, len(g))
		}
		for _, f := range g {
			if f.ProcessID != i+1 {
				t.Errorf("group %d holds %s", i, f.Path)
			}
		}
	}
	if fifo.ByProcess(nil) != nil {
		t.Error("empty plan should have no groups")
	}
}
