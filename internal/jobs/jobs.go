// Package jobs tracks the background jobs a generated script launches and
// renders the wait barriers that collect them.
//
// Jobs belong to one of four independent families. Each job gets a shell
// variable holding its pid ("pid3", "kpid1", ...); a family's wait statement
// lists every variable assigned in that family, in assignment order.
package jobs

import (
	"fmt"
	"strings"
)

// Family is an independent group of background jobs that share one wait barrier.
type Family int

const (
	// Main covers the per-process tee and consumer stages.
	Main Family = iota
	// AAL covers aalsummary aggregation.
	AAL
	// LEC covers leccalc curves.
	LEC
	// Kat covers kat merges.
	Kat

	numFamilies = iota
)

// Families lists every family in declaration order.
var Families = []Family{Main, AAL, LEC, Kat}

var prefixes = [numFamilies]string{
	Main: "pid",
	AAL:  "apid",
	LEC:  "lpid",
	Kat:  "kpid",
}

// Prefix returns the shell variable prefix used by f.
func (f Family) Prefix() string {
	return prefixes[f]
}

func (f Family) String() string {
	switch f {
	case Main:
		return "main"
	case AAL:
		return "aal"
	case LEC:
		return "lec"
	case Kat:
		return "kat"
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

// WaitGroup counts jobs per family for a single script. A WaitGroup belongs
// to one generation run and is discarded afterwards. The zero value is ready
// to use.
type WaitGroup struct {
	counts [numFamilies]int
	sealed [numFamilies]bool
}

// New returns an empty WaitGroup.
func New() *WaitGroup {
	return &WaitGroup{}
}

// Next registers a job in f and returns its shell variable name.
// It panics if f's wait has already been rendered: a job launched after its
// barrier would never be waited for.
func (w *WaitGroup) Next(f Family) string {
	if w.sealed[f] {
		panic(fmt.Sprintf("jobs: %s job registered after its wait was rendered", f))
	}
	w.counts[f]++
	return fmt.Sprintf("%s%d", f.Prefix(), w.counts[f])
}

// Background registers a job in f and returns cmd launched in the
// background with its pid captured, e.g. "eltcalc < in > out & pid1=$!".
func (w *WaitGroup) Background(f Family, cmd string) string {
	return fmt.Sprintf("%s & %s=$!", cmd, w.Next(f))
}

// Count returns the number of jobs registered in f.
func (w *WaitGroup) Count(f Family) int {
	return w.counts[f]
}

// Names returns the shell variables assigned in f, in assignment order.
func (w *WaitGroup) Names(f Family) []string {
	names := make([]string, w.counts[f])
	for i := range names {
		names[i] = fmt.Sprintf("%s%d", f.Prefix(), i+1)
	}
	return names
}

// Counts returns a snapshot of every family's job count keyed by family name.
func (w *WaitGroup) Counts() map[string]int {
	out := make(map[string]int, numFamilies)
	for _, f := range Families {
		out[f.String()] = w.counts[f]
	}
	return out
}

// RenderWait returns the wait statement for f and seals the family. The
// second result is false, and nothing is sealed, when f has no jobs.
func (w *WaitGroup) RenderWait(f Family) (string, bool) {
	if w.counts[f] == 0 {
		return "", false
	}
	w.sealed[f] = true
	var b strings.Builder
	b.WriteString("wait")
	for _, name := range w.Names(f) {
		b.WriteString(" $")
		b.WriteString(name)
	}
	return b.String(), true
}
