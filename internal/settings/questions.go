package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Question describes a single prompt used to build a starter settings document.
type Question struct {
	Key     string
	Prompt  string
	Default string
}

// Questions returns the prompts asked by `ktgen init`, in order.
func Questions() []Question {
	return []Question{
		{Key: "number_of_samples", Prompt: "Number of samples", Default: "10"},
		{Key: "gul_threshold", Prompt: "Ground-up loss threshold", Default: "0"},
		{Key: "gul_output", Prompt: "Ground-up loss output (y/n)", Default: "y"},
		{Key: "il_output", Prompt: "Insured loss output (y/n)", Default: "n"},
		{Key: "use_random_number_file", Prompt: "Use random number file (y/n)", Default: "n"},
		{Key: "outputs", Prompt: "Summary set 1 outputs (eltcalc,pltcalc,summarycalc,aalcalc,leccalc)", Default: "eltcalc"},
	}
}

// FromAnswers builds a settings document from Questions answers. Empty
// answers take the question default. Every enabled run type gets summary
// set 1 with the requested outputs.
func FromAnswers(answers map[string]string) (*AnalysisSettings, error) {
	get := func(key string) string {
		if v := strings.TrimSpace(answers[key]); v != "" {
			return v
		}
		for _, q := range Questions() {
			if q.Key == key {
				return q.Default
			}
		}
		return ""
	}

	samples, err := strconv.Atoi(get("number_of_samples"))
	if err != nil {
		return nil, fmt.Errorf("number_of_samples: %w", err)
	}
	threshold, err := strconv.ParseFloat(get("gul_threshold"), 64)
	if err != nil {
		return nil, fmt.Errorf("gul_threshold: %w", err)
	}
	gul, err := parseYesNo(get("gul_output"))
	if err != nil {
		return nil, fmt.Errorf("gul_output: %w", err)
	}
	il, err := parseYesNo(get("il_output"))
	if err != nil {
		return nil, fmt.Errorf("il_output: %w", err)
	}
	rnd, err := parseYesNo(get("use_random_number_file"))
	if err != nil {
		return nil, fmt.Errorf("use_random_number_file: %w", err)
	}
	summary, err := parseOutputs(get("outputs"))
	if err != nil {
		return nil, fmt.Errorf("outputs: %w", err)
	}

	a := &AnalysisSettings{
		GULOutput:       gul,
		ILOutput:        il,
		GULThreshold:    threshold,
		NumberOfSamples: samples,
		ModelSettings:   ModelSettings{UseRandomNumberFile: rnd},
	}
	if gul {
		a.GULSummaries = []SummarySpec{summary}
	}
	if il {
		a.ILSummaries = []SummarySpec{summary}
	}
	return a, nil
}

func parseYesNo(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "y", "yes", "true", "1":
		return true, nil
	case "n", "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected y or n, got %q", s)
}

// parseOutputs turns "eltcalc, aalcalc" into summary set 1. "leccalc"
// enables the full-uncertainty AEP and OEP curves.
func parseOutputs(s string) (SummarySpec, error) {
	sum := SummarySpec{ID: 1}
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(name) {
		case "":
		case string(Eltcalc):
			sum.Eltcalc = true
		case string(Pltcalc):
			sum.Pltcalc = true
		case string(Summarycalc):
			sum.Summarycalc = true
		case string(Aalcalc):
			sum.Aalcalc = true
		case "leccalc":
			sum.LECOutput = true
			sum.Leccalc = &LecSpec{Outputs: map[string]bool{
				"full_uncertainty_aep": true,
				"full_uncertainty_oep": true,
			}}
		default:
			return SummarySpec{}, fmt.Errorf("unknown output %q", name)
		}
	}
	return sum, nil
}
