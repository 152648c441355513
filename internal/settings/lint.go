package settings

import "fmt"

// Lint reports configurations that load fine but probably do not do what
// the author meant. Generation ignores them; callers decide whether a
// warning is fatal.
func Lint(a *AnalysisSettings) []string {
	if a == nil {
		return []string{"no analysis settings"}
	}
	var warnings []string
	if !a.GULOutput && !a.ILOutput {
		warnings = append(warnings, "neither gul_output nor il_output is set; the script computes nothing")
	}
	for _, rt := range RunTypes {
		if !a.Enabled(rt) {
			continue
		}
		if len(a.Summaries(rt)) == 0 {
			warnings = append(warnings, fmt.Sprintf("%s_output is set but %s_summaries is empty or missing", rt, rt))
			continue
		}
		for _, s := range a.Summaries(rt) {
			if s.LECOutput && !s.Leccalc.Enabled() {
				warnings = append(warnings, fmt.Sprintf("%s summary %d: lec_output is set but no leccalc output is enabled", rt, s.ID))
			}
			if !s.Active() {
				warnings = append(warnings, fmt.Sprintf("%s summary %d has no enabled outputs and is skipped", rt, s.ID))
			}
		}
	}
	if a.NumberOfSamples <= 0 && (a.GULOutput || a.ILOutput) {
		warnings = append(warnings, fmt.Sprintf("number_of_samples is %d", a.NumberOfSamples))
	}
	return warnings
}
