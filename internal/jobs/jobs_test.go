package jobs_test

import (
	"strings"
	"testing"

	"ktgen/internal/jobs"
)

func TestNextAssignsSequentialNamesPerFamily(t *testing.T) {
	w := jobs.New()
	got := []string{
		w.Next(jobs.Main),
		w.Next(jobs.Kat),
		w.Next(jobs.Main),
		w.Next(jobs.AAL),
		w.Next(jobs.LEC),
	}
	want := []string{"pid1", "kpid1", "pid2", "apid1", "lpid1"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("name %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBackground(t *testing.T) {
	w := jobs.New()
	w.Next(jobs.Kat)
	got := w.Background(jobs.Kat, "kat a b > out.csv")
	if want := "kat a b > out.csv & kpid2=$!"; got != want {
		t.Errorf("Background = %q, want %q", got, want)
	}
}

func TestRenderWaitEmptyFamily(t *testing.T) {
	w := jobs.New()
	w.Next(jobs.Main)
	for _, f := range []jobs.Family{jobs.AAL, jobs.LEC, jobs.Kat} {
		if cmd, ok := w.RenderWait(f); ok || cmd != "" {
			t.Errorf("RenderWait(%s) = %q, %v; want no statement", f, cmd, ok)
		}
	}
	// An empty family stays open.
	if name := w.Next(jobs.AAL); name != "apid1" {
		t.Errorf("Next after empty wait = %q", name)
	}
}

// Every job name assigned to a family appears exactly once in its wait
// statement, in assignment order.
func TestRenderWaitBalance(t *testing.T) {
	for _, n := range []int{1, 2, 7, 40} {
		for _, f := range jobs.Families {
			w := jobs.New()
			var names []string
			for i := 0; i < n; i++ {
				names = append(names, w.Next(f))
			}
			cmd, ok := w.RenderWait(f)
			if !ok {
				t.Fatalf("%s/%d: no wait rendered", f, n)
			}
			fields := strings.Fields(cmd)
			if fields[0] != "wait" {
				t.Fatalf("wait statement %q", cmd)
			}
			refs := fields[1:]
			if len(refs) != len(names) || w.Count(f) != n {
				t.Fatalf("%s/%d: %d refs for %d jobs", f, n, len(refs), len(names))
			}
			for i := range refs {
				if refs[i] != "$"+names[i] {
					t.Errorf("%s/%d: ref %d = %q, want $%s", f, n, i, refs[i], names[i])
				}
			}
		}
	}
}

func TestNextAfterWaitPanics(t *testing.T) {
	w := jobs.New()
	w.Next(jobs.Main)
	if _, ok := w.RenderWait(jobs.Main); !ok {
		t.Fatal("expected wait")
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic registering a job after its wait")
		}
	}()
	w.Next(jobs.Main)
}

func TestCounts(t *testing.T) {
	w := jobs.New()
	w.Next(jobs.Main)
	w.Next(jobs.Main)
	w.Next(jobs.LEC)
	got := w.Counts()
	want := map[string]int{"main": 2, "aal": 0, "lec": 1, "kat": 0}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Counts[%s] = %d, want %d", k, got[k], v)
		}
	}
}
